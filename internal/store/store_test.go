package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaswatch/saaswatch/internal/appconfig"
	"github.com/saaswatch/saaswatch/internal/metrics"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Type: TypeSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConfig_DSN(t *testing.T) {
	dsn, err := Config{Type: TypeSQLite, SQLite: SQLiteConfig{Path: "/tmp/x.db"}}.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "file:/tmp/x.db")

	_, err = Config{Type: TypePostgres}.DSN()
	require.Error(t, err)

	_, err = Config{Type: "oracle"}.DSN()
	require.Error(t, err)
}

func TestStore_ConfigRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := map[string]interface{}{
		"app_name":          "example-app",
		"url":               "https://status.example.com",
		"preprocess_target": "statuspage",
	}
	require.NoError(t, s.UpsertConfig(ctx, "example-app", doc))

	got, err := s.ResolveConfig(ctx, "example-app")
	require.NoError(t, err)
	assert.Equal(t, "https://status.example.com", got["url"])

	// Update wins immediately on the next read.
	doc["url"] = "https://changed.example.com"
	require.NoError(t, s.UpsertConfig(ctx, "example-app", doc))
	got, err = s.ResolveConfig(ctx, "example-app")
	require.NoError(t, err)
	assert.Equal(t, "https://changed.example.com", got["url"])

	names, err := s.AppNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"example-app"}, names)
}

func TestConfigStore_AdapterMapsNotFound(t *testing.T) {
	s := openTestStore(t)
	cs := &ConfigStore{Store: s}

	_, err := cs.Resolve(context.Background(), "ghost")
	require.ErrorIs(t, err, appconfig.ErrNotFound)
}

func TestConfigStore_AdapterDecodes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertConfig(ctx, "example-app", map[string]interface{}{
		"app_name":          "example-app",
		"url":               "https://status.example.com",
		"preprocess_target": "statuspage",
		"retry":             map[string]interface{}{"max_attempts": 2, "backoff": 1, "retry_on": []int{503}},
	}))

	cs := &ConfigStore{Store: s}
	cfg, err := cs.Resolve(ctx, "example-app")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, "GET", cfg.Method)
}

func TestStore_RunsRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordRun(ctx, Run{
			AppName:     "example-app",
			ExecutionID: "exec",
			Outcome:     "success",
			Status:      200,
			Attempts:    1,
			ElapsedMS:   42,
		}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "example-app", runs[0].AppName)
	assert.Equal(t, "success", runs[0].Outcome)
	assert.NotEmpty(t, runs[0].RanAt)
	assert.Greater(t, runs[0].ID, runs[1].ID, "newest first")
}

func TestMetricSink_Persists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sink := &MetricSink{Store: s}
	m := metrics.New("Observability/Statuspage", "OverallAvailabilityPercent", 80, metrics.UnitPercent, "example-app")
	require.NoError(t, sink.Emit(ctx, m))

	var (
		name, app string
		value     float64
		ts        string
	)
	row := s.db.QueryRow("SELECT name, app_name, value, ts FROM metric_samples")
	require.NoError(t, row.Scan(&name, &app, &value, &ts))
	assert.Equal(t, "OverallAvailabilityPercent", name)
	assert.Equal(t, "example-app", app)
	assert.InDelta(t, 80.0, value, 1e-9)

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}

func TestDialect_Placeholders(t *testing.T) {
	assert.Equal(t, "?", sqliteDialect{}.Placeholder(3))
	assert.Equal(t, "$3", postgresDialect{}.Placeholder(3))
}
