package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchday/internal/analytics"
	"matchday/internal/analytics/analytics_api"
	"matchday/internal/auth"
	"matchday/internal/auth/auth_api"
	"matchday/internal/config"
	"matchday/internal/database/migrations"
	"matchday/internal/gateway"
	"matchday/internal/inventory"
	"matchday/internal/inventory/inventory_api"
	"matchday/internal/inventory/receipt"
	redislock "matchday/internal/inventory/redis"
	"matchday/internal/kafka"
	"matchday/internal/logger"
	"matchday/internal/matches"
	"matchday/internal/matches/matches_api"
	"matchday/internal/payment"
	"matchday/internal/subscription"
	"matchday/internal/subscription/subscription_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err == nil {
			err = sqldb.PingContext(ctx)
			if err == nil {
				break
			}
		}

		log.Error("DATABASE", fmt.Sprintf("PostgreSQL connection failed: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("PostgreSQL unreachable after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting matchday service")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("CONFIG", "JWT_SECRET not set")
	}

	ctx := context.Background()
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
		if err := runner.MigrateUp(); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Migrations failed: %v", err))
		}
		defer runner.Close()
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()

		topics := []string{
			cfg.Kafka.Topics.TicketSold,
			cfg.Kafka.Topics.TicketsGenerated,
			cfg.Kafka.Topics.SubscriptionCreated,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, events will not be published")
	}

	gw := gateway.New(bunDB, cfg.Gateway.QueryTimeout)

	sessions := auth.NewSessionStore(redisClient, cfg.Auth.SessionTTL)
	authService := auth.NewService(gw, sessions, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, log)

	ticketLocks := redislock.NewLock(redisClient, cfg.Redis.TicketLockTTL)
	var inventoryEvents inventory.EventPublisher
	if producer != nil {
		inventoryEvents = producer
	}
	inventoryService := inventory.NewService(gw, ticketLocks, inventoryEvents, inventory.Topics{
		TicketSold:       cfg.Kafka.Topics.TicketSold,
		TicketsGenerated: cfg.Kafka.Topics.TicketsGenerated,
	}, log)
	receipts := receipt.NewGenerator(cfg.Auth.JWTSecret)

	var charger subscription.Charger
	if cfg.Stripe.SecretKey != "" {
		stripeService, err := payment.NewStripeService(cfg.Stripe.SecretKey, cfg.Stripe.Currency, log)
		if err != nil {
			log.Fatal("STRIPE", fmt.Sprintf("Stripe initialization failed: %v", err))
		}
		charger = stripeService
	} else {
		log.Warn("STRIPE", "Stripe key not set, card payments disabled")
	}
	var subscriptionEvents subscription.EventPublisher
	if producer != nil {
		subscriptionEvents = producer
	}
	subscriptionService := subscription.NewService(gw, charger, subscriptionEvents, cfg.Kafka.Topics.SubscriptionCreated, log)

	matchService := matches.NewService(gw, log)
	analyticsService := analytics.NewService(gw, log)

	authHandler := auth_api.NewHandler(authService, log)
	inventoryHandler := inventory_api.NewHandler(inventoryService, receipts, log)
	subscriptionHandler := subscription_api.NewHandler(subscriptionService, log)
	matchHandler := matches_api.NewHandler(matchService, log)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(authService))

			authHandler.RegisterProtectedRoutes(r)
			inventoryHandler.RegisterRoutes(r)
			subscriptionHandler.RegisterRoutes(r)
			matchHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				analyticsHandler.RegisterRoutes(r)
			})
		})
	})
	log.Info("ROUTER", "Routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("matchday service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Shutdown complete")
	}
}
