// cmd/mailcheck/main.go
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
	"github.com/your-org/marketplace-backend/internal/pkg/email"
	"github.com/your-org/marketplace-backend/internal/pkg/logger"
)

// mailcheck sends the welcome email to one address through the configured
// provider, to confirm EMAIL_* settings before deploying.
func main() {
	to := flag.String("to", "", "recipient address")
	kind := flag.String("kind", string(auth.KindBuyer), "principal kind: buyer or seller")
	flag.Parse()

	if *to == "" {
		log.Fatal("Usage: mailcheck -to someone@example.com [-kind seller]")
	}
	if !auth.Kind(*kind).Valid() {
		log.Fatalf("Unknown kind %q", *kind)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logr := logger.New(cfg)

	mailer, err := email.NewService(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("Failed to initialise email")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := auth.Principal{ID: "mailcheck", Name: "Mail Check", Email: *to, Kind: auth.Kind(*kind)}
	if err := mailer.SendWelcome(ctx, p); err != nil {
		logr.WithError(err).WithField("provider", cfg.Email.Provider).Fatal("Send failed")
	}

	logr.WithField("provider", cfg.Email.Provider).WithField("to", *to).Info("Email sent")
}
