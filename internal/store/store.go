package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/saaswatch/saaswatch/internal/common"
	"github.com/saaswatch/saaswatch/internal/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Run is one recorded terminal execution.
type Run struct {
	ID          int64
	AppName     string
	ExecutionID string
	Outcome     string
	Status      int
	Attempts    int
	ElapsedMS   int64
	ErrorKind   string
	RanAt       string
}

// Store is the SQL persistence layer: operator-managed app configs, an
// audit trail of executions, and optionally the emitted metric samples.
// Reads go straight to the database on every call, so an operator update
// is visible on the very next execution.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the configured backend and ensures the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialect, err := cfg.dialect()
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if dialect.DriverName() == "sqlite" {
		// Single writer; also keeps an in-memory database on one
		// connection instead of one per pooled conn.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	s := &Store{db: db, dialect: dialect}
	if err := s.ensure(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	common.GetLogger().WithStore(dialect.DriverName()).Info("store connection established")
	return s, nil
}

func (s *Store) ensure(ctx context.Context) error {
	for _, stmt := range s.dialect.CreateStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ph(n int) string { return s.dialect.Placeholder(n) }

// ResolveConfig returns the raw config document for an app, or
// sql.ErrNoRows when absent.
func (s *Store) ResolveConfig(ctx context.Context, appName string) (map[string]interface{}, error) {
	query := fmt.Sprintf("SELECT config FROM app_configs WHERE app_name = %s", s.ph(1))
	var raw string
	if err := s.db.QueryRowContext(ctx, query, appName).Scan(&raw); err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("store: config for %q is not valid json: %w", appName, err)
	}
	return doc, nil
}

// UpsertConfig writes a config document for an app.
func (s *Store) UpsertConfig(ctx context.Context, appName string, doc map[string]interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: marshal config: %w", err)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO app_configs (app_name, config, updated_at) VALUES (%s, %s, %s) "+
			"ON CONFLICT (app_name) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at",
		s.ph(1), s.ph(2), s.ph(3))
	_, err = s.db.ExecContext(ctx, stmt, appName, string(raw), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// AppNames lists every configured app.
func (s *Store) AppNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT app_name FROM app_configs ORDER BY app_name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RecordRun appends one terminal execution to the audit trail.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	stmt := fmt.Sprintf(
		"INSERT INTO poll_runs (app_name, execution_id, outcome, status, attempts, elapsed_ms, error_kind, ran_at) "+
			"VALUES (%s, %s, %s, %s, %s, %s, %s, %s)",
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7), s.ph(8))
	ranAt := r.RanAt
	if ranAt == "" {
		ranAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, stmt,
		r.AppName, r.ExecutionID, r.Outcome, r.Status, r.Attempts, r.ElapsedMS, r.ErrorKind, ranAt)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(
		"SELECT id, app_name, execution_id, outcome, status, attempts, elapsed_ms, error_kind, ran_at "+
			"FROM poll_runs ORDER BY id DESC LIMIT %s", s.ph(1))
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.AppName, &r.ExecutionID, &r.Outcome, &r.Status,
			&r.Attempts, &r.ElapsedMS, &r.ErrorKind, &r.RanAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// InsertMetrics appends metric samples. Append-only by design; aggregation
// is the reader's job.
func (s *Store) InsertMetrics(ctx context.Context, ms []metrics.Metric) error {
	stmt := fmt.Sprintf(
		"INSERT INTO metric_samples (namespace, name, value, unit, app_name, ts) VALUES (%s, %s, %s, %s, %s, %s)",
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6))
	for _, m := range ms {
		app := m.Dimensions[metrics.DimensionAppName]
		ts := m.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := s.db.ExecContext(ctx, stmt,
			m.Namespace, m.Name, m.Value, m.Unit, app, ts.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return nil
}
