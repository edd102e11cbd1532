package store

import "fmt"

// Dialect abstracts the SQL differences between the supported backends.
type Dialect interface {
	DriverName() string
	// Placeholder returns the parameter marker for the n-th argument
	// (1-based).
	Placeholder(n int) string
	// CreateStatements returns the idempotent schema DDL.
	CreateStatements() []string
}

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) CreateStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS app_configs (
			app_name TEXT PRIMARY KEY,
			config TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS poll_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app_name TEXT NOT NULL,
			execution_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			status INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			error_kind TEXT NOT NULL,
			ran_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metric_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace TEXT NOT NULL,
			name TEXT NOT NULL,
			value REAL NOT NULL,
			unit TEXT NOT NULL,
			app_name TEXT NOT NULL,
			ts TEXT NOT NULL
		)`,
	}
}

type postgresDialect struct{}

func (postgresDialect) DriverName() string { return "pgx" }

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) CreateStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS app_configs (
			app_name TEXT PRIMARY KEY,
			config TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS poll_runs (
			id BIGSERIAL PRIMARY KEY,
			app_name TEXT NOT NULL,
			execution_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			status INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			elapsed_ms BIGINT NOT NULL,
			error_kind TEXT NOT NULL,
			ran_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metric_samples (
			id BIGSERIAL PRIMARY KEY,
			namespace TEXT NOT NULL,
			name TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			unit TEXT NOT NULL,
			app_name TEXT NOT NULL,
			ts TEXT NOT NULL
		)`,
	}
}
