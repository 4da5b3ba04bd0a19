package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	EnvTest = "test"
	EnvDev  = "dev"
	EnvProd = "prod"

	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	defaultPort      = 8080
	defaultRateLimit = 10
)

type AppConfig struct {
	Env       string // test, dev or prod
	Port      int
	Storage   string // postgres or memory
	RateLimit float64
}

// NewAppConfig reads configuration in order: .env (if present), environment,
// then flags from args.
func NewAppConfig(args []string) (AppConfig, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	conf := AppConfig{
		Env:       getenv("APP_ENV", EnvDev),
		Port:      defaultPort,
		Storage:   getenv("STORAGE", StoragePostgres),
		RateLimit: defaultRateLimit,
	}

	if v := os.Getenv("HTTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return AppConfig{}, fmt.Errorf("invalid HTTP_PORT %q: %w", v, err)
		}
		conf.Port = p
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return AppConfig{}, fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
		conf.RateLimit = r
	}

	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.IntVarP(&conf.Port, "port", "p", conf.Port, "port to listen on")
	fs.StringVar(&conf.Storage, "storage", conf.Storage, "storage driver: postgres or memory")
	fs.Float64Var(&conf.RateLimit, "rate-limit", conf.RateLimit, "requests per second allowed per client ip")
	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	if err := conf.validate(); err != nil {
		return AppConfig{}, err
	}

	return conf, nil
}

func (c AppConfig) validate() error {
	switch c.Env {
	case EnvTest, EnvDev, EnvProd:
	default:
		return fmt.Errorf("invalid APP_ENV: %q", c.Env)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("invalid storage: %q", c.Storage)
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("invalid rate limit: %v", c.RateLimit)
	}

	return nil
}

func (c AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
