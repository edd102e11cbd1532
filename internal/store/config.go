package store

import (
	"fmt"
	"strings"
)

// Store type keys accepted in settings.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

const sqliteBusyTimeoutMS = 5000

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// Config selects and configures the SQL backend.
type Config struct {
	Type     string         `mapstructure:"type" yaml:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// DSN returns the driver DSN for the configured backend.
func (c Config) DSN() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case TypeSQLite, "":
		path := c.SQLite.Path
		if path == "" {
			path = ":memory:"
		}
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, sqliteBusyTimeoutMS), nil
	case TypePostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return "", fmt.Errorf("store: postgres dsn is required")
		}
		return c.Postgres.DSN, nil
	default:
		return "", fmt.Errorf("store: unsupported type %q", c.Type)
	}
}

func (c Config) dialect() (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case TypeSQLite, "":
		return sqliteDialect{}, nil
	case TypePostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("store: unsupported type %q", c.Type)
	}
}
