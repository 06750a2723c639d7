package gateway

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"matchday/internal/models"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a fetch-one matches no row.
var ErrNotFound = errors.New("gateway: row not found")

// Gateway is the typed row-store layer over the backing database. Table and
// column names mirror the hosted store this service replaced, including the
// legacy casing of ticketUser and Abonnement.
type Gateway struct {
	Bun     *bun.DB
	Timeout time.Duration
}

func New(db *bun.DB, timeout time.Duration) *Gateway {
	return &Gateway{Bun: db, Timeout: timeout}
}

// withTimeout bounds a remote call. The original client issued unbounded
// requests; every operation here gets a deadline.
func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.Timeout)
}

// ---------------- TICKETS ----------------

func (g *Gateway) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var ticket models.Ticket
	err := g.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (g *Gateway) GetAvailableTickets(ctx context.Context) ([]models.Ticket, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var tickets []models.Ticket
	err := g.Bun.NewSelect().
		Model(&tickets).
		Where("status = ?", models.TicketAvailable).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (g *Gateway) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var tickets []models.Ticket
	if err := g.Bun.NewSelect().Model(&tickets).Scan(ctx); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (g *Gateway) GetSoldTickets(ctx context.Context, limit int) ([]models.Ticket, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var tickets []models.Ticket
	q := g.Bun.NewSelect().
		Model(&tickets).
		Where("status = ?", models.TicketSold).
		Order("date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (g *Gateway) InsertTickets(ctx context.Context, tickets []*models.Ticket) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.Bun.NewInsert().Model(&tickets).Exec(ctx)
	return err
}

// MarkTicketSold flips a ticket to sold only while it is still available and
// reports how many rows changed. Zero means another buyer won the race; the
// caller must treat that as unavailable, not as success.
func (g *Gateway) MarkTicketSold(ctx context.Context, id int64, buyerEmail string, soldAt time.Time) (int64, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	q := g.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketSold).
		Set("sold_at = ?", soldAt).
		Set("updated_at = ?", soldAt).
		Where("id = ?", id).
		Where("status = ?", models.TicketAvailable)
	if buyerEmail != "" {
		q = q.Set("buyer_email = ?", buyerEmail)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------- PURCHASE RECORDS ----------------

func (g *Gateway) InsertUserTicket(ctx context.Context, ut *models.UserTicket) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.Bun.NewInsert().Model(ut).Exec(ctx)
	return err
}

func (g *Gateway) DeleteUserTicket(ctx context.Context, id int64) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.Bun.NewDelete().
		Model((*models.UserTicket)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (g *Gateway) GetUserTickets(ctx context.Context, userID int64) ([]models.UserTicket, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var tickets []models.UserTicket
	err := g.Bun.NewSelect().
		Model(&tickets).
		Where("id_user = ?", userID).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// ---------------- MATCHES ----------------

func (g *Gateway) ListMatches(ctx context.Context) ([]models.MatchWithStadium, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var matches []models.MatchWithStadium
	err := g.Bun.NewSelect().
		Model((*models.Match)(nil)).
		ColumnExpr("match.*").
		ColumnExpr("s.name AS stadium_name").
		Join("LEFT JOIN stadiums AS s ON s.id = match.stadium_id").
		Order("date ASC").
		Scan(ctx, &matches)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (g *Gateway) GetMatchByID(ctx context.Context, id int64) (*models.Match, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var match models.Match
	err := g.Bun.NewSelect().
		Model(&match).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (g *Gateway) CountUpcomingMatches(ctx context.Context, from time.Time) (int, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	return g.Bun.NewSelect().
		Model((*models.Match)(nil)).
		Where("date >= ?", from).
		Count(ctx)
}

// InsertMatch exists for the external import job and for seeding; this
// service itself never mutates matches.
func (g *Gateway) InsertMatch(ctx context.Context, match *models.Match) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.Bun.NewInsert().Model(match).Exec(ctx)
	return err
}

func (g *Gateway) InsertStadium(ctx context.Context, stadium *models.Stadium) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.Bun.NewInsert().Model(stadium).Exec(ctx)
	return err
}

// ---------------- USERS ----------------

func (g *Gateway) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := g.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *Gateway) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := g.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// MaxUserID supports the legacy max(id)+1 allocation used when subscribing
// an unknown email. Returns 0 on an empty table.
func (g *Gateway) MaxUserID(ctx context.Context) (int64, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var max sql.NullInt64
	err := g.Bun.NewSelect().
		Model((*models.User)(nil)).
		ColumnExpr("MAX(id)").
		Scan(ctx, &max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}

func (g *Gateway) InsertUser(ctx context.Context, user *models.User) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.Bun.NewInsert().Model(user).Exec(ctx)
	return err
}

func (g *Gateway) UpdateUserProfile(ctx context.Context, id int64, update models.ProfileUpdate) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("nom = ?", update.Nom).
		Set("prenom = ?", update.Prenom).
		Set("email = ?", update.Email).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- SUBSCRIPTIONS ----------------

func (g *Gateway) GetSubscriptionsByUser(ctx context.Context, userID int64) ([]models.Subscription, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var subs []models.Subscription
	err := g.Bun.NewSelect().
		Model(&subs).
		Where("id_user = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (g *Gateway) InsertSubscription(ctx context.Context, sub *models.Subscription) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.Bun.NewInsert().Model(sub).Exec(ctx)
	return err
}

func (g *Gateway) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var subs []models.Subscription
	if err := g.Bun.NewSelect().Model(&subs).Scan(ctx); err != nil {
		return nil, err
	}
	return subs, nil
}
