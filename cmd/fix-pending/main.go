// Command fix-pending rechecks pending subscriptions against the payment
// gateway and settles any whose invoices were paid while webhook delivery
// was down.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/adapter/mail"
	"github.com/paywatch/subscription-service/internal/config"
	"github.com/paywatch/subscription-service/internal/infrastructure/database"
	"github.com/paywatch/subscription-service/internal/infrastructure/gateway/xendit"
	"github.com/paywatch/subscription-service/internal/usecase"
	"github.com/paywatch/subscription-service/pkg/logger"
)

func main() {
	var (
		subscriptionID = flag.Int64("subscription-id", 0, "recheck a single subscription by id")
		all            = flag.Bool("all", false, "recheck every pending subscription")
		timeout        = flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	)
	flag.Parse()

	if *subscriptionID == 0 && !*all {
		log.Fatal("either -subscription-id or -all is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db, zapLogger)

	repos := database.NewRepositories(db, zapLogger)
	mailer := mail.NewSMTPMailer(cfg.Email, zapLogger)
	gatewayClient := xendit.NewClient(
		cfg.Service.Xendit.APIKey,
		cfg.Service.Xendit.BaseURL,
		zapLogger)
	recheck := usecase.NewRecheckService(repos.Subscription, gatewayClient, mailer, zapLogger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *subscriptionID != 0 {
		result, err := recheck.RecheckPayment(ctx, *subscriptionID)
		if err != nil {
			zapLogger.Fatal("Recheck failed",
				zap.Int64("subscription_id", *subscriptionID),
				zap.Error(err))
		}
		zapLogger.Info("Recheck finished",
			zap.Int64("subscription_id", *subscriptionID),
			zap.String("gateway_status", result.GatewayStatus),
			zap.Bool("updated", result.Updated))
		return
	}

	checked, updated, err := recheck.FixPending(ctx)
	if err != nil {
		zapLogger.Fatal("Pending sweep failed", zap.Error(err))
	}
	zapLogger.Info("Pending sweep finished",
		zap.Int("checked", checked),
		zap.Int("updated", updated))
}
