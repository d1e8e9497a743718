package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMaxWebhooksPerScope    = 10
	DefaultDeliveryRetention      = 10
	DefaultCallTimeout            = 10 * time.Second
	DefaultAnalysisPropertyPrefix = "sonar.analysis."
	DefaultActivityCacheTTL       = 5 * time.Minute
)

type ServerConfig struct {
	PublicURL string `koanf:"public_url" mapstructure:"public_url"`
}

type WebhooksConfig struct {
	Enabled                bool          `koanf:"enabled" mapstructure:"enabled"`
	MaxPerScope            int           `koanf:"max_per_scope" mapstructure:"max_per_scope"`
	DeliveryRetention      int           `koanf:"delivery_retention" mapstructure:"delivery_retention"`
	CallTimeout            time.Duration `koanf:"call_timeout" mapstructure:"call_timeout"`
	AnalysisPropertyPrefix string        `koanf:"analysis_property_prefix" mapstructure:"analysis_property_prefix"`
	ActivityCacheTTL       time.Duration `koanf:"activity_cache_ttl" mapstructure:"activity_cache_ttl"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Server      ServerConfig   `koanf:"server" mapstructure:"server"`
	Webhooks    WebhooksConfig `koanf:"webhooks" mapstructure:"webhooks"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "quality-hooks",
		Server: ServerConfig{
			PublicURL: "http://localhost:9000",
		},
		Webhooks: WebhooksConfig{
			Enabled:                true,
			MaxPerScope:            DefaultMaxWebhooksPerScope,
			DeliveryRetention:      DefaultDeliveryRetention,
			CallTimeout:            DefaultCallTimeout,
			AnalysisPropertyPrefix: DefaultAnalysisPropertyPrefix,
			ActivityCacheTTL:       DefaultActivityCacheTTL,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Server.PublicURL) == "" {
		return fmt.Errorf("core: server.public_url is required")
	}
	if c.Webhooks.MaxPerScope <= 0 {
		return fmt.Errorf("core: webhooks.max_per_scope must be positive")
	}
	if c.Webhooks.DeliveryRetention <= 0 {
		return fmt.Errorf("core: webhooks.delivery_retention must be positive")
	}
	if c.Webhooks.CallTimeout <= 0 {
		return fmt.Errorf("core: webhooks.call_timeout must be positive")
	}
	if strings.TrimSpace(c.Webhooks.AnalysisPropertyPrefix) == "" {
		return fmt.Errorf("core: webhooks.analysis_property_prefix is required")
	}
	return nil
}

// PublicURL returns the server root URL without a trailing slash.
func (c Config) PublicURL() string {
	return strings.TrimSuffix(strings.TrimSpace(c.Server.PublicURL), "/")
}
