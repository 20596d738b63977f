package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	AccountAPI AccountAPIConfig `mapstructure:"account_api"`
	Devices    DeviceConfig
	Keycloak   KeycloakConfig
	Redis      RedisConfig
	Monitoring MonitoringConfig
	NetMonitor NetMonitorConfig `mapstructure:"net_monitor"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type AccountAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DeviceConfig struct {
	// Domain is the fixed origin devices hang off: https://<id>.<domain>
	Domain         string        `mapstructure:"domain"`
	StatusTimeout  time.Duration `mapstructure:"status_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MonitoringConfig struct {
	LogLevel           string `mapstructure:"log_level"`
	PrometheusEndpoint string `mapstructure:"prometheus_endpoint"`
	LokiEndpoint       string `mapstructure:"loki_endpoint"`
}

type NetMonitorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	WindowSize   int           `mapstructure:"window_size"`
	// SimulateOnFailure substitutes synthesized samples when a device's
	// monitor endpoint fails. Demo scaffolding: keep off in production so
	// outages surface instead of fabricated telemetry.
	SimulateOnFailure bool          `mapstructure:"simulate_on_failure"`
	SpeedtestCooldown time.Duration `mapstructure:"speedtest_cooldown"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("BEEPORTAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Account API defaults
	viper.SetDefault("account_api.base_url", "")
	viper.SetDefault("account_api.timeout", "10s")

	// Device defaults
	viper.SetDefault("devices.domain", "strct.org")
	viper.SetDefault("devices.status_timeout", "3s")
	viper.SetDefault("devices.request_timeout", "10s")
	viper.SetDefault("devices.poll_interval", "30s")

	// Keycloak defaults, empty values fail validation until configured
	viper.SetDefault("keycloak.url", "")
	viper.SetDefault("keycloak.realm", "beeportal")
	viper.SetDefault("keycloak.client_id", "beeportal-hub")
	viper.SetDefault("keycloak.client_secret", "")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	// Monitoring defaults
	viper.SetDefault("monitoring.log_level", "info")
	viper.SetDefault("monitoring.prometheus_endpoint", "http://localhost:9090")
	viper.SetDefault("monitoring.loki_endpoint", "http://localhost:3100")

	// Network monitor defaults
	viper.SetDefault("net_monitor.poll_interval", "5s")
	viper.SetDefault("net_monitor.window_size", 50)
	viper.SetDefault("net_monitor.simulate_on_failure", false)
	viper.SetDefault("net_monitor.speedtest_cooldown", "10s")
}

func validateConfig(config *Config) error {
	if config.AccountAPI.BaseURL == "" {
		return fmt.Errorf("account API base URL is required")
	}
	if config.Devices.Domain == "" {
		return fmt.Errorf("device domain is required")
	}
	if config.Keycloak.URL == "" {
		return fmt.Errorf("keycloak URL is required")
	}
	if config.Devices.StatusTimeout <= 0 {
		return fmt.Errorf("device status timeout must be positive")
	}
	return nil
}
