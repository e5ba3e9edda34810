package bot

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/chimchimster/balance-bot/core/config"
	coredatabase "github.com/chimchimster/balance-bot/core/database"
	coreredis "github.com/chimchimster/balance-bot/core/redis"
	"github.com/chimchimster/balance-bot/mail"
)

// AuthConfig tunes the authentication-state resolver.
type AuthConfig struct {
	// PeriodSeconds is the freshness window of a verified login.
	PeriodSeconds int `yaml:"period_seconds" envconfig:"AUTH_PERIOD_SECONDS"`
	// SessionTTLHours bounds how long an idle chat state is kept; 0 keeps
	// states forever.
	SessionTTLHours int `yaml:"session_ttl_hours" envconfig:"SESSION_TTL_HOURS"`
}

// CartConfig tunes the cart overflow guard.
type CartConfig struct {
	MaxItems int `yaml:"max_items" envconfig:"CART_MAX_ITEMS"`
}

// AppConfig aggregates everything the storefront bot needs.
type AppConfig struct {
	Core     coreconfig.Config   `yaml:"core"`
	Database coredatabase.Config `yaml:"database"`
	Redis    coreredis.Config    `yaml:"redis"`
	Mail     mail.Config         `yaml:"mail"`
	Auth     AuthConfig          `yaml:"auth"`
	Cart     CartConfig          `yaml:"cart"`

	SupportURL string `yaml:"support_url" envconfig:"SUPPORT_URL"`
}

// CoreConfig satisfies the runner's ConfigCarrier.
func (c *AppConfig) CoreConfig() *coreconfig.Config { return &c.Core }

// LoadConfig reads the YAML file, overlays environment variables and applies
// defaults.
func LoadConfig(path string) (*AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if cfg.Auth.PeriodSeconds <= 0 {
		cfg.Auth.PeriodSeconds = 3600
	}
	if cfg.Cart.MaxItems <= 0 {
		cfg.Cart.MaxItems = 20
	}
	return &cfg, nil
}
