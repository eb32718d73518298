package config

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env string `env:"TASKLIST_ENV, default=development"`

	Store StoreConfig
	Auth  AuthConfig
	Log   LogConfig
}

type StoreConfig struct {
	Path string `env:"TASKLIST_DB_PATH, default=./data/db.json"`
}

// AuthConfig carries the token secrets. They have no defaults: a missing
// secret surfaces as domain.ErrMissingSigningKey when a token is issued or
// verified, not at startup.
type AuthConfig struct {
	AccessSecret  string        `env:"TASKLIST_ACCESS_SECRET"`
	RefreshSecret string        `env:"TASKLIST_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"TASKLIST_ACCESS_TTL,  default=60s"`
	RefreshTTL    time.Duration `env:"TASKLIST_REFRESH_TTL, default=168h"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL,  default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context, log zerolog.Logger) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper(), log)
}

// LoadWith reads configuration through lookuper; tests pass a MapLookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper, log zerolog.Logger) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return nil, err
	}
	if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
		log.Warn().Msg("token secrets are not fully configured; token operations will fail")
	}
	return &cfg, nil
}
