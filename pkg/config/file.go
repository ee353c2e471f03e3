package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors configs/*.yaml. Zero values leave the defaults untouched.
type fileConfig struct {
	Service struct {
		Name     string `yaml:"name"`
		Port     int    `yaml:"port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaGroupID string   `yaml:"kafka_group_id"`
		RabbitMQURL  string   `yaml:"rabbitmq_url"`
		RedisURL     string   `yaml:"redis_url"`
		Elastic      struct {
			URL          string `yaml:"url"`
			User         string `yaml:"user"`
			ProductIndex string `yaml:"product_index"`
		} `yaml:"elasticsearch"`
	} `yaml:"dependencies"`
	Auth struct {
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"auth"`
	Business struct {
		LoyaltyEarnPercent    *int64 `yaml:"loyalty_earn_percent"`
		ExpressDeliveryFee    *int64 `yaml:"express_delivery_fee"`
		ScheduledDeliveryFee  *int64 `yaml:"scheduled_delivery_fee"`
		FreeDeliveryThreshold *int64 `yaml:"free_delivery_threshold"`
		ReturnWindowDays      int    `yaml:"return_window_days"`
		CampaignBatchSize     int    `yaml:"campaign_batch_size"`
		LocationTTL           string `yaml:"location_ttl"`
	} `yaml:"business"`
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return applyYAML(cfg, raw)
}

func applyYAML(cfg *Config, raw []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.ServiceName, f.Service.Name)
	setInt(&cfg.ServerPort, f.Service.Port)
	setString(&cfg.LogLevel, f.Service.LogLevel)

	setString(&cfg.DatabaseURL, f.Dependencies.PostgresURL)
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	setString(&cfg.KafkaGroupID, f.Dependencies.KafkaGroupID)
	setString(&cfg.RabbitMQURL, f.Dependencies.RabbitMQURL)
	setString(&cfg.RedisURL, f.Dependencies.RedisURL)
	setString(&cfg.ESURL, f.Dependencies.Elastic.URL)
	setString(&cfg.ESUser, f.Dependencies.Elastic.User)
	setString(&cfg.ESProductIndex, f.Dependencies.Elastic.ProductIndex)

	if err := setDuration(&cfg.AccessTTL, f.Auth.AccessTTL); err != nil {
		return err
	}
	if err := setDuration(&cfg.RefreshTTL, f.Auth.RefreshTTL); err != nil {
		return err
	}

	b := &cfg.Business
	if f.Business.LoyaltyEarnPercent != nil {
		b.LoyaltyEarnPercent = *f.Business.LoyaltyEarnPercent
	}
	if f.Business.ExpressDeliveryFee != nil {
		b.ExpressDeliveryFee = *f.Business.ExpressDeliveryFee
	}
	if f.Business.ScheduledDeliveryFee != nil {
		b.ScheduledDeliveryFee = *f.Business.ScheduledDeliveryFee
	}
	if f.Business.FreeDeliveryThreshold != nil {
		b.FreeDeliveryThreshold = *f.Business.FreeDeliveryThreshold
	}
	setInt(&b.ReturnWindowDays, f.Business.ReturnWindowDays)
	setInt(&b.CampaignBatchSize, f.Business.CampaignBatchSize)
	return setDuration(&b.LocationTTL, f.Business.LocationTTL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", v, err)
	}
	*dst = d
	return nil
}
