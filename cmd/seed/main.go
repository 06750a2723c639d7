package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"matchday/internal/config"
	"matchday/internal/logger"
	"matchday/internal/models"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"golang.org/x/crypto/bcrypt"
)

// Development reset tool: drops every table, recreates the schema from the
// bun models and loads a small fixture set. Never run against production.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	ctx := context.Background()
	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("PostgreSQL open failed: %v", err))
	}
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("PostgreSQL unreachable: %v", err))
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	log.Info("SEED", "Dropping tables")
	dropTables(ctx, db)

	log.Info("SEED", "Creating tables")
	if err := createTables(ctx, db); err != nil {
		log.Fatal("SEED", fmt.Sprintf("Table creation failed: %v", err))
	}

	log.Info("SEED", "Loading fixture data")
	if err := seedData(ctx, db); err != nil {
		log.Fatal("SEED", fmt.Sprintf("Seeding failed: %v", err))
	}

	log.Info("SEED", "Done")
}

func dropTables(ctx context.Context, db *bun.DB) {
	// Reverse dependency order.
	tables := []interface{}{
		(*models.Subscription)(nil),
		(*models.UserTicket)(nil),
		(*models.Ticket)(nil),
		(*models.Match)(nil),
		(*models.Stadium)(nil),
		(*models.User)(nil),
	}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
}

func createTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Stadium)(nil),
		(*models.Match)(nil),
		(*models.Ticket)(nil),
		(*models.UserTicket)(nil),
		(*models.Subscription)(nil),
	}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}

func seedData(ctx context.Context, db *bun.DB) error {
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	users := []models.User{
		{ID: 1, Nom: "Martin", Prenom: "Sophie", Email: "admin@matchday.local", Password: string(adminHash), IsAdmin: true},
		{ID: 2, Nom: "Durand", Prenom: "Alex", Email: "alex@example.com", Password: string(adminHash)},
	}
	if _, err := db.NewInsert().Model(&users).Exec(ctx); err != nil {
		return err
	}

	stadiums := []models.Stadium{
		{ID: 1, Name: "Parc des Princes", City: "Paris", Capacity: 47929},
		{ID: 2, Name: "Stade Velodrome", City: "Marseille", Capacity: 67394},
	}
	if _, err := db.NewInsert().Model(&stadiums).Exec(ctx); err != nil {
		return err
	}

	kickoff := time.Now().AddDate(0, 0, 14).Truncate(time.Hour)
	matches := []models.Match{
		{ID: 1, HomeTeam: "PSG", AwayTeam: "OM", Date: kickoff, Competition: "Ligue 1", StadiumID: 1},
		{ID: 2, HomeTeam: "OM", AwayTeam: "Lyon", Date: kickoff.AddDate(0, 0, 7), Competition: "Ligue 1", StadiumID: 2},
	}
	if _, err := db.NewInsert().Model(&matches).Exec(ctx); err != nil {
		return err
	}

	var tickets []models.Ticket
	for _, m := range matches {
		event := m.HomeTeam + " vs " + m.AwayTeam
		for i := 1; i <= 5; i++ {
			tickets = append(tickets, models.Ticket{
				MatchID:    m.ID,
				Event:      event,
				Date:       m.Date,
				Seat:       fmt.Sprintf("A1-%d", i),
				Section:    "A",
				RowNumber:  1,
				SeatNumber: i,
				Price:      100,
				Status:     models.TicketAvailable,
			})
		}
	}
	if _, err := db.NewInsert().Model(&tickets).Exec(ctx); err != nil {
		return err
	}

	sub := models.Subscription{
		UserID:    2,
		Team:      "PSG",
		PlanName:  "Basic",
		Price:     9.99,
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(0, 1, 0),
	}
	if _, err := db.NewInsert().Model(&sub).Exec(ctx); err != nil {
		return err
	}
	return nil
}
