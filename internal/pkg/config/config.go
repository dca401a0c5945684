package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth     AuthConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Throttle ThrottleConfig
	Notify   NotifyConfig
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, required"`
	JWTTTL          time.Duration `env:"JWT_TTL,           default=24h"`
	BcryptCost      int           `env:"BCRYPT_COST,       default=10"`
	ConfirmTokenTTL time.Duration `env:"CONFIRM_TOKEN_TTL, default=72h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=accounts"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type ThrottleConfig struct {
	MaxFailures int           `env:"THROTTLE_MAX_FAILURES, default=5"`
	Window      time.Duration `env:"THROTTLE_WINDOW,       default=15m"`
}

// NotifyConfig selects where confirmation notices go. With an empty URL the
// notices are only logged.
type NotifyConfig struct {
	RabbitURL   string `env:"RABBITMQ_URL"`
	RabbitQueue string `env:"RABBITMQ_QUEUE, default=accounts.confirmation"`
	Workers     int    `env:"NOTIFY_WORKERS, default=4"`
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31:
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	case c.Auth.JWTTTL <= 0:
		return errors.New("JWT_TTL must be positive")
	case c.Throttle.MaxFailures <= 0:
		return errors.New("THROTTLE_MAX_FAILURES must be positive")
	case c.Notify.Workers <= 0:
		return errors.New("NOTIFY_WORKERS must be positive")
	}
	return nil
}
