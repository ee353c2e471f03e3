package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/quickcommerce/internal/app"
	"github.com/Skotchmaster/quickcommerce/internal/worker"
	"github.com/Skotchmaster/quickcommerce/pkg/config"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
	"github.com/Skotchmaster/quickcommerce/pkg/queue"
)

const (
	expiryInterval = 10 * time.Minute
	purgeInterval  = time.Hour
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName+"-worker")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	a, err := app.Open(startCtx, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	var wg sync.WaitGroup
	run := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
			logger.Info("worker_stopped", "worker", name)
		}()
	}

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, []string{events.TopicCampaigns}, logger)
		if err != nil {
			log.Fatalf("kafka consumer: %v", err)
		}
		defer consumer.Close()
		run("campaigns", func() {
			if err := consumer.Run(ctx, worker.CampaignHandler(a.RunCampaign, logger)); err != nil {
				logger.Error("campaign_consumer_failed", "error", err)
			}
		})
	} else {
		logger.Warn("campaign_consumer_disabled", "reason", "KAFKA_BROKERS not set")
	}

	if a.Rabbit != nil {
		handle := worker.PushHandler(worker.LogSender{Log: logger})
		run("push", func() {
			if err := a.Rabbit.Consume(ctx, queue.QueuePushNotifications, logger, handle); err != nil {
				logger.Error("push_consumer_failed", "error", err)
			}
		})
	} else {
		logger.Warn("push_consumer_disabled", "reason", "RABBITMQ_URL not set")
	}

	run("membership_expiry", func() {
		worker.Every(ctx, expiryInterval, "membership_expiry", logger, a.Services.Memberships.ExpireDue)
	})
	run("refresh_token_purge", func() {
		worker.Every(ctx, purgeInterval, "refresh_token_purge", logger, a.Services.Auth.PurgeExpiredTokens)
	})

	logger.Info("worker started")
	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()
	logger.Info("shutdown complete")
}
