package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"

	PayoutLedger   = "ledger"
	PayoutEthereum = "ethereum"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	StorageDriver string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	LockTimeout   time.Duration `env:"LOCK_TIMEOUT" envDefault:"10s"`

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Postgres struct {
		DSN             string        `env:"DATABASE_URL"`
		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	}

	// Cache puts Redis in front of the postgres role tables and makes it
	// hold locks and login challenges, for running several instances.
	Cache struct {
		Enabled bool          `env:"CACHE_ENABLED" envDefault:"false"`
		TTL     time.Duration `env:"CACHE_TTL" envDefault:"1m"`
	}

	Ledger struct {
		// Deployer address, holds the admin role and is a campaign creator.
		AdminAddress string   `env:"ADMIN_ADDRESS,required"`
		Creators     []string `env:"CREATOR_ADDRESSES" envSeparator:","`
	}

	Auth struct {
		JWTSecret string        `env:"JWT_SECRET,required"`
		TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`
		NonceTTL  time.Duration `env:"AUTH_NONCE_TTL" envDefault:"15m"`
	}

	Events struct {
		Stream string `env:"EVENTS_STREAM" envDefault:"crowdfunding:events"`
		MaxLen int64  `env:"EVENTS_STREAM_MAXLEN" envDefault:"10000"`
	}

	Payout struct {
		Driver     string `env:"PAYOUT_DRIVER" envDefault:"ledger"`
		RPCURL     string `env:"ETH_RPC_URL"`
		PrivateKey string `env:"ETH_PRIVATE_KEY"`
		ChainID    int64  `env:"ETH_CHAIN_ID" envDefault:"11155111"`
	}

	LogFile string `env:"LOG_FILE"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine, production sets the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageRedis:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	switch c.Payout.Driver {
	case PayoutLedger:
	case PayoutEthereum:
		if c.Payout.RPCURL == "" || c.Payout.PrivateKey == "" {
			return fmt.Errorf("ETH_RPC_URL and ETH_PRIVATE_KEY are required for payout driver %q", c.Payout.Driver)
		}
	default:
		return fmt.Errorf("unknown payout driver %q", c.Payout.Driver)
	}

	if c.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
