package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/tourney.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// One of the two is required. The hash wins when both are set.
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	QualifierRound   string `env:"QUALIFIER_ROUND" envDefault:"Round of 18"`
	QualifierMatches int    `env:"QUALIFIER_MATCHES" envDefault:"9"`

	SSEPingInterval time.Duration `env:"SSE_PING_INTERVAL" envDefault:"30s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	ChatRateLimit   int           `env:"CHAT_RATE_LIMIT" envDefault:"20"`

	// Empty disables cross-instance relaying.
	RedisURL string `env:"REDIS_URL"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return nil, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	if cfg.QualifierMatches <= 0 {
		return nil, fmt.Errorf("QUALIFIER_MATCHES must be positive, got %d", cfg.QualifierMatches)
	}
	if cfg.SSEPingInterval <= 0 {
		return nil, fmt.Errorf("SSE_PING_INTERVAL must be positive, got %s", cfg.SSEPingInterval)
	}
	return &cfg, nil
}
