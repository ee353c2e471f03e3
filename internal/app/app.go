package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/realtime"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/search"
	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/worker"
	"github.com/Skotchmaster/quickcommerce/pkg/cache"
	"github.com/Skotchmaster/quickcommerce/pkg/config"
	"github.com/Skotchmaster/quickcommerce/pkg/db"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
	"github.com/Skotchmaster/quickcommerce/pkg/queue"
	"github.com/Skotchmaster/quickcommerce/pkg/tokens"
)

// App holds the connections and services shared by cmd/server and cmd/worker.
// Kafka, RabbitMQ, Redis and Elasticsearch are optional; each falls back to an
// in-process substitute when its URL is not configured.
type App struct {
	Cfg config.Config
	Log *slog.Logger

	DB       *gorm.DB
	Producer *events.Producer
	Rabbit   *queue.Client
	Redis    *redis.Client

	Hub      *realtime.Hub
	Services *service.Services
}

func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log, Hub: realtime.NewHub()}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.DB = database
	if err := database.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	deps := service.Deps{
		Repo:     &repo.GormRepo{DB: database},
		Events:   events.Nop{},
		Business: cfg.Business,
		Issuer: tokens.Issuer{
			AccessSecret:  cfg.JWTAccessSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
			AccessTTL:     cfg.AccessTTL,
			RefreshTTL:    cfg.RefreshTTL,
		},
		Locations: realtime.NewMemoryLocationCache(),
		Broadcast: a.Hub,
	}

	if len(cfg.KafkaBrokers) > 0 {
		prod, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		a.Producer = prod
		deps.Events = prod
	} else {
		log.Warn("kafka_disabled", "reason", "KAFKA_BROKERS not set")
	}

	if cfg.RabbitMQURL != "" {
		rc, err := queue.Dial(cfg.RabbitMQURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Rabbit = rc
	} else {
		log.Warn("rabbitmq_disabled", "reason", "RABBITMQ_URL not set")
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
		deps.Locations = realtime.NewRedisLocationCache(rdb, cfg.Business.LocationTTL)
	} else {
		log.Warn("redis_disabled", "reason", "REDIS_URL not set, using in-process location cache")
	}

	if cfg.ESURL != "" {
		es, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			a.Close()
			return nil, err
		}
		idx := search.New(es, cfg.ESProductIndex)
		if err := idx.EnsureIndex(ctx); err != nil {
			a.Close()
			return nil, err
		}
		deps.Products = idx
	} else {
		log.Warn("search_disabled", "reason", "ES_URL not set, product search falls back to the database")
	}

	a.Services = service.New(deps)
	a.Services.Notifications.Dispatcher = a.dispatcher()
	return a, nil
}

// Push returns the queue push jobs go to. Without RabbitMQ jobs are dropped
// and only in-app notifications are written.
func (a *App) Push() queue.Enqueuer {
	if a.Rabbit != nil {
		return a.Rabbit
	}
	return queue.Discard{}
}

// RunCampaign delivers one campaign with the configured batch size.
func (a *App) RunCampaign(ctx context.Context, id uint) error {
	return a.Services.Notifications.RunCampaign(ctx, id, a.Cfg.Business.CampaignBatchSize, a.Push())
}

func (a *App) dispatcher() service.CampaignDispatcher {
	if a.Producer != nil {
		return worker.KafkaDispatcher{Events: a.Producer}
	}
	return worker.InlineDispatcher{Run: a.RunCampaign, Log: a.Log}
}

func (a *App) Close() {
	if a.Producer != nil {
		if err := a.Producer.Close(); err != nil {
			a.Log.Warn("kafka_close_failed", "error", err)
		}
	}
	if a.Rabbit != nil {
		if err := a.Rabbit.Close(); err != nil {
			a.Log.Warn("rabbitmq_close_failed", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("redis_close_failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := db.Close(a.DB); err != nil {
			a.Log.Warn("db_close_failed", "error", err)
		}
	}
}
