package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	KafkaBrokers []string
	KafkaGroupID string

	RabbitMQURL string
	RedisURL    string

	ESURL          string
	ESUser         string
	ESPassword     string
	ESProductIndex string

	Business Business
}

// Business holds the tunables of order pricing, loyalty and fan-out.
type Business struct {
	LoyaltyEarnPercent    int64
	ExpressDeliveryFee    int64
	ScheduledDeliveryFee  int64
	FreeDeliveryThreshold int64
	ReturnWindowDays      int
	CampaignBatchSize     int
	LocationTTL           time.Duration
}

func Defaults() Config {
	return Config{
		ServiceName:    "quickcommerce",
		ServerPort:     8080,
		LogLevel:       "info",
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     7 * 24 * time.Hour,
		KafkaGroupID:   "quickcommerce-worker",
		ESProductIndex: "store_products",
		Business: Business{
			LoyaltyEarnPercent:    1,
			ExpressDeliveryFee:    4900,
			ScheduledDeliveryFee:  1900,
			FreeDeliveryThreshold: 49900,
			ReturnWindowDays:      7,
			CampaignBatchSize:     500,
			LocationTTL:           10 * time.Minute,
		},
	}
}

// Load resolves configuration: defaults, then the optional CONFIG_FILE, then env.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ServiceName = EnvDefault("SERVICE_NAME", cfg.ServiceName)
	cfg.ServerPort = EnvIntDefault("SERVER_PORT", cfg.ServerPort)
	cfg.LogLevel = EnvDefault("LOG_LEVEL", cfg.LogLevel)

	cfg.DatabaseURL = EnvDefault("DATABASE_URL", cfg.DatabaseURL)

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTAccessSecret = []byte(v)
	}
	if v := os.Getenv("JWT_REFRESH_SECRET"); v != "" {
		cfg.JWTRefreshSecret = []byte(v)
	}
	cfg.AccessTTL = EnvDurationDefault("ACCESS_TTL", cfg.AccessTTL)
	cfg.RefreshTTL = EnvDurationDefault("REFRESH_TTL", cfg.RefreshTTL)

	if v := CSV(os.Getenv("KAFKA_BROKERS")); len(v) > 0 {
		cfg.KafkaBrokers = v
	}
	cfg.KafkaGroupID = EnvDefault("KAFKA_GROUP_ID", cfg.KafkaGroupID)

	cfg.RabbitMQURL = EnvDefault("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RedisURL = EnvDefault("REDIS_URL", cfg.RedisURL)

	cfg.ESURL = EnvDefault("ES_URL", cfg.ESURL)
	cfg.ESUser = EnvDefault("ES_USER", cfg.ESUser)
	cfg.ESPassword = EnvDefault("ES_PASSWORD", cfg.ESPassword)
	cfg.ESProductIndex = EnvDefault("ES_PRODUCT_INDEX", cfg.ESProductIndex)

	b := &cfg.Business
	b.LoyaltyEarnPercent = int64(EnvIntDefault("LOYALTY_EARN_PERCENT", int(b.LoyaltyEarnPercent)))
	b.ExpressDeliveryFee = int64(EnvIntDefault("EXPRESS_DELIVERY_FEE", int(b.ExpressDeliveryFee)))
	b.ScheduledDeliveryFee = int64(EnvIntDefault("SCHEDULED_DELIVERY_FEE", int(b.ScheduledDeliveryFee)))
	b.FreeDeliveryThreshold = int64(EnvIntDefault("FREE_DELIVERY_THRESHOLD", int(b.FreeDeliveryThreshold)))
	b.ReturnWindowDays = EnvIntDefault("RETURN_WINDOW_DAYS", b.ReturnWindowDays)
	b.CampaignBatchSize = EnvIntDefault("CAMPAIGN_BATCH_SIZE", b.CampaignBatchSize)
	b.LocationTTL = EnvDurationDefault("LOCATION_TTL", b.LocationTTL)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
