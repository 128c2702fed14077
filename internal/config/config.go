package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

// DestinationField values name which charge field is treated as the
// authoritative connected-account recipient. The processor populates
// different candidates depending on how the charge was created; exactly one
// is read and the others are ignored.
const (
	DestinationFieldDestination  = "destination"
	DestinationFieldOnBehalfOf   = "on_behalf_of"
	DestinationFieldTransferData = "transfer_data"
)

type Config struct {
	DatabaseURL         string `env:"DATABASE_URL,required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	StripeAPIKey        string `env:"STRIPE_API_KEY"`
	StripeAPIBase       string `env:"STRIPE_API_BASE" envDefault:"https://api.stripe.com"`
	PublicBaseURL       string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	PlatformFeeBps         int64  `env:"PLATFORM_FEE_BPS" envDefault:"1000"`
	ChargeDestinationField string `env:"CHARGE_DESTINATION_FIELD" envDefault:"destination"`
	WebhookToleranceS      int    `env:"WEBHOOK_TOLERANCE_S" envDefault:"300"`
	AccountLookupTimeoutMS int    `env:"ACCOUNT_LOOKUP_TIMEOUT_MS" envDefault:"2000"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PlatformFeeBps < 0 || c.PlatformFeeBps > 10000 {
		return fmt.Errorf("PLATFORM_FEE_BPS must be between 0 and 10000, got %d", c.PlatformFeeBps)
	}
	switch c.ChargeDestinationField {
	case DestinationFieldDestination, DestinationFieldOnBehalfOf, DestinationFieldTransferData:
	default:
		return fmt.Errorf("CHARGE_DESTINATION_FIELD must be one of destination, on_behalf_of, transfer_data, got %q", c.ChargeDestinationField)
	}
	if c.WebhookToleranceS <= 0 {
		return fmt.Errorf("WEBHOOK_TOLERANCE_S must be positive, got %d", c.WebhookToleranceS)
	}
	return nil
}
