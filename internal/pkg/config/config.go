package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API     APIConfig
	Redis   RedisConfig
	Session SessionConfig
}

type APIConfig struct {
	BaseURL string        `env:"WERK_API_BASE_URL, required"`
	Timeout time.Duration `env:"WERK_API_TIMEOUT,  default=10s"`
	// Debug dumps every API request and response, bearer tokens included.
	Debug bool `env:"WERK_API_DEBUG, default=false"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET, required"`
	MaxAge time.Duration `env:"SESSION_MAX_AGE, default=168h"`
	// IdleTimeout evicts in-memory workspaces of browsers that went quiet.
	// The session itself survives in redis until MaxAge.
	IdleTimeout time.Duration `env:"WORKSPACE_IDLE_TIMEOUT, default=2h"`
}

// Production reports whether cookies must be Secure and logs plain JSON.
func (c *Config) Production() bool { return c.Env == "production" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration from l and checks the values envconfig cannot.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	if cfg.API.Timeout <= 0 {
		return nil, fmt.Errorf("WERK_API_TIMEOUT must be positive")
	}
	return &cfg, nil
}
