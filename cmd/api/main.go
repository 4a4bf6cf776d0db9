// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/cart"
	"github.com/your-org/marketplace-backend/internal/domain/order"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/session"
	"github.com/your-org/marketplace-backend/internal/domain/upload"
	"github.com/your-org/marketplace-backend/internal/domain/user"
	"github.com/your-org/marketplace-backend/internal/infrastructure/database/mongodb"
	"github.com/your-org/marketplace-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/marketplace-backend/internal/infrastructure/database/redis"
	"github.com/your-org/marketplace-backend/internal/infrastructure/storage"
	"github.com/your-org/marketplace-backend/internal/interfaces/http"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/handlers"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/routes"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
	"github.com/your-org/marketplace-backend/internal/pkg/email"
	"github.com/your-org/marketplace-backend/internal/pkg/logger"
	"github.com/your-org/marketplace-backend/internal/pkg/metrics"
	"github.com/your-org/marketplace-backend/internal/pkg/pdf"
)

const seedProductCount = 24

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr := logger.New(cfg)
	logr.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"catalog":     cfg.Catalog.Driver,
	}).Info("Starting marketplace API")

	ctx := context.Background()

	db, err := postgres.NewConnection(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	checks := map[string]http.HealthCheck{
		"database": db.Health,
		"redis":    redisClient.Health,
	}

	// Catalog store
	var catalog product.Repository = product.NewGormRepository(db.GetDB())
	if cfg.Catalog.Driver == config.CatalogDriverMongo {
		mongoClient, err := mongodb.NewConnection(ctx, cfg, logr)
		if err != nil {
			logr.WithError(err).Fatal("Failed to connect to MongoDB")
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Close(closeCtx)
		}()

		repo := mongodb.NewProductRepository(mongoClient.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			logr.WithError(err).Warn("Catalog index creation failed")
		}
		catalog = repo
		checks["mongodb"] = mongoClient.Health
	}

	migration := postgres.NewMigration(db.GetDB(), logr)
	if err := migration.RunAutoMigrations(); err != nil {
		logr.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		logr.WithError(err).Warn("Index creation failed")
	}

	passwords := auth.NewPasswordManager(cfg)
	if cfg.App.SeedData {
		if err := migration.SeedInitialData(ctx, passwords, catalog, seedProductCount); err != nil {
			logr.WithError(err).Warn("Data seeding failed")
		}
	}

	objects, err := storage.New(ctx, cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("Failed to initialise image storage")
	}
	mailer, err := email.NewService(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("Failed to initialise email")
	}
	m := metrics.New()

	// Services
	tokens := auth.NewJWTManager(cfg)
	revocations := auth.NewRevocations(redisClient)
	credentials := session.NewCredentials(redisClient)

	users := user.NewService(db.GetDB(), passwords, tokens, mailer, logr)
	products := product.NewService(catalog, logr)
	reviews := product.NewReviewService(db.GetDB(), catalog, logr)
	carts := cart.NewService(redisClient, products, cfg.Session.CartTTL, logr)
	orders := order.NewService(db.GetDB(), products, carts, order.Options{
		Notifier: mailer,
		Receipts: pdf.NewService(cfg),
		Metrics:  m,
	}, logr)
	uploads := upload.NewService(objects, cfg, logr)

	server := http.NewServer(cfg, logr, http.Dependencies{
		Routes: &routes.Handlers{
			Auth:          handlers.NewAuthHandler(users, tokens, revocations, credentials, logr),
			Profile:       handlers.NewProfileHandler(users, logr),
			Product:       handlers.NewProductHandler(products, logr),
			Review:        handlers.NewReviewHandler(reviews, logr),
			Cart:          handlers.NewCartHandler(carts, logr),
			Checkout:      handlers.NewCheckoutHandler(orders, logr),
			Order:         handlers.NewOrderHandler(orders, logr),
			Upload:        handlers.NewUploadHandler(uploads, logr),
			Authenticator: middleware.NewAuthenticator(tokens, revocations, logr),
		},
		RateLimiter: redisClient,
		Metrics:     m,
		Checks:      checks,
	})

	go func() {
		if err := server.Start(); err != nil {
			logr.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logr.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logr.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	logr.Info("Server shutdown completed")
}
