package config

import (
	"fmt"
	"os"
	"strconv"
)

type PgsqlConnectionConf struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type DatabaseConfig struct {
	Pgsql PgsqlConnectionConf
}

// DatabaseConf reads PGSQL_* variables, falling back to the compose defaults.
func DatabaseConf() (*DatabaseConfig, error) {
	port := 5432
	if v := os.Getenv("PGSQL_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PGSQL_PORT %q: %w", v, err)
		}
		port = p
	}

	return &DatabaseConfig{
		Pgsql: PgsqlConnectionConf{
			Host:     getenv("PGSQL_HOST", "db"),
			Port:     port,
			Database: getenv("PGSQL_DATABASE", "postgres"),
			Username: getenv("PGSQL_USERNAME", "postgres"),
			Password: getenv("PGSQL_PASSWORD", "password"),
		},
	}, nil
}

// DSN is the key=value connection string used by gorm.
func (c PgsqlConnectionConf) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=disable",
		c.Host,
		c.Port,
		c.Username,
		c.Database,
		c.Password,
	)
}
