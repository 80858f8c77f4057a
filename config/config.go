package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"json"`
	DataDir       string `envconfig:"DATA_DIR"       default:"./data"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`

	SessionTTL     time.Duration `envconfig:"SESSION_TTL"     default:"24h"`
	ReservationTTL time.Duration `envconfig:"RESERVATION_TTL" default:"30m"`

	GatewayBaseURL    string        `envconfig:"GATEWAY_BASE_URL"    default:"http://localhost:8090"`
	GatewayMerchantID string        `envconfig:"GATEWAY_MERCHANT_ID" default:"HERBALSTOREUAT"`
	GatewaySaltKey    string        `envconfig:"GATEWAY_SALT_KEY"    default:"dev-salt-key"`
	GatewaySaltIndex  string        `envconfig:"GATEWAY_SALT_INDEX"  default:"1"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT"     default:"10s"`

	SiteBaseURL string `envconfig:"SITE_BASE_URL" default:"http://localhost:3000"`
	CallbackURL string `envconfig:"CALLBACK_URL"  default:"http://localhost:8080/payment/callback"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	MockGatewayPort      string `envconfig:"MOCK_GATEWAY_PORT"       default:":8090"`
	MockGatewayPublicURL string `envconfig:"MOCK_GATEWAY_PUBLIC_URL"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverJSON:
		if c.DataDir == "" {
			return fmt.Errorf("configuration error: DATA_DIR is required for the %s driver", DriverJSON)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("configuration error: DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("configuration error: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.SessionTTL <= 0 || c.ReservationTTL <= 0 {
		return fmt.Errorf("configuration error: SESSION_TTL and RESERVATION_TTL must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("configuration error: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// LoadConfig is Load for entrypoints: it logs the outcome and exits on failure.
func LoadConfig(logger *logrus.Logger) *Config {
	cfg, err := Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Infof("Configuration loaded: HTTP Port=%s, LogLevel=%s, Storage=%s", cfg.HTTPPort, cfg.LogLevel, cfg.StorageDriver)
	if cfg.GatewaySaltKey == "dev-salt-key" {
		logger.Warn("Configuration: GATEWAY_SALT_KEY is the development default")
	}
	if cfg.DatabaseURL != "" {
		logger.Info("Configuration loaded: DatabaseURL is set")
	}
	return cfg
}
