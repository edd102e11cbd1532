package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/saaswatch/saaswatch/internal/appconfig"
	"github.com/saaswatch/saaswatch/internal/metrics"
)

// ConfigStore adapts Store to the appconfig.Store contract. Every Resolve
// is a direct database read, satisfying the no-stale-read requirement.
type ConfigStore struct {
	Store    *Store
	Defaults appconfig.Defaults
}

func (c *ConfigStore) Resolve(ctx context.Context, appName string) (*appconfig.AppConfig, error) {
	doc, err := c.Store.ResolveConfig(ctx, appName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", appconfig.ErrNotFound, appName)
		}
		return nil, err
	}
	return appconfig.Decode(doc, c.Defaults)
}

func (c *ConfigStore) Close() error { return nil }

// MetricSink adapts Store to the metrics.Sink contract, persisting every
// emitted sample.
type MetricSink struct {
	Store *Store
}

func (s *MetricSink) Emit(ctx context.Context, ms ...metrics.Metric) error {
	return s.Store.InsertMetrics(ctx, ms)
}
