// Package config loads application configuration from an optional YAML file
// and FITGRAM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
// Nested keys are separated by a double underscore, for example
// FITGRAM_DATABASE__MAX_OPEN_CONNS.
const EnvPrefix = "FITGRAM_"

// Config is the root application configuration.
type Config struct {
	App      AppConfig      `koanf:"app"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Log      LogConfig      `koanf:"log"`
	CORS     CORSConfig     `koanf:"cors"`
	Telegram TelegramConfig `koanf:"telegram"`
	Auth     AuthConfig     `koanf:"auth"`
	Webhook  WebhookConfig  `koanf:"webhook"`
}

// AppConfig describes the deployment.
type AppConfig struct {
	Env string `koanf:"env"`
}

// IsProduction reports whether the deployment is production.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// RedisConfig holds settings of the user-data store. An empty Addr selects
// the in-memory store.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Prefix   string        `koanf:"prefix"`
	Timeout  time.Duration `koanf:"timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// TelegramConfig holds bot settings.
type TelegramConfig struct {
	BotToken       string        `koanf:"bot_token"`
	InitDataMaxAge time.Duration `koanf:"init_data_max_age"`
	Notify         NotifyConfig  `koanf:"notify"`
}

// NotifyConfig controls the "access granted" bot message.
type NotifyConfig struct {
	Enabled   bool    `koanf:"enabled"`
	RateLimit float64 `koanf:"rate_limit"`
	APIURL    string  `koanf:"api_url"`
}

// AuthConfig holds editor session and dev PIN settings.
type AuthConfig struct {
	TokenSecret   string        `koanf:"token_secret"`
	TokenDuration time.Duration `koanf:"token_duration"`
	DevPin        DevPinConfig  `koanf:"dev_pin"`
}

// DevPinConfig enables the development-only PIN bypass.
type DevPinConfig struct {
	Enabled bool `koanf:"enabled"`
	// Hash is the bcrypt hash of the PIN.
	Hash      string  `koanf:"hash"`
	RateLimit float64 `koanf:"rate_limit"`
}

// WebhookConfig holds access-grant webhook settings.
type WebhookConfig struct {
	Secret    string  `koanf:"secret"`
	RateLimit float64 `koanf:"rate_limit"`
}

// Default returns the configuration used when nothing overrides a key.
func Default() *Config {
	return &Config{
		App: AppConfig{Env: "development"},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			RequestTimeout:    10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Redis: RedisConfig{
			Prefix:  "fitgram:",
			Timeout: 3 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"https://web.telegram.org"},
		},
		Telegram: TelegramConfig{
			InitDataMaxAge: 24 * time.Hour,
			Notify: NotifyConfig{
				RateLimit: 20,
			},
		},
		Auth: AuthConfig{
			TokenDuration: time.Hour,
			DevPin: DevPinConfig{
				RateLimit: 0.2,
			},
		},
		Webhook: WebhookConfig{
			RateLimit: 20,
		},
	}
}

// Load reads configuration. path may be empty, in which case only defaults and
// environment variables are used.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Comma-separated lists are common in env vars.
	if origins := k.String("cors.allowed_origins"); origins != "" && strings.Contains(origins, ",") {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would make the service unsafe or unusable.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	if c.Auth.TokenSecret == "" {
		errs = append(errs, errors.New("auth.token_secret is required"))
	}
	if c.Auth.TokenDuration <= 0 {
		errs = append(errs, errors.New("auth.token_duration must be positive"))
	}
	if c.Auth.DevPin.Enabled {
		if c.App.IsProduction() {
			errs = append(errs, errors.New("auth.dev_pin must not be enabled in production"))
		}
		if c.Auth.DevPin.Hash == "" {
			errs = append(errs, errors.New("auth.dev_pin.hash is required when the dev pin is enabled"))
		}
	}
	if c.App.IsProduction() && c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram.bot_token is required in production"))
	}
	if c.Telegram.Notify.Enabled && c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram.bot_token is required when notifications are enabled"))
	}

	return errors.Join(errs...)
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
