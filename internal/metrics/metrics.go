package metrics

import (
	"context"
	"time"
)

// Units used by the emitted KPIs.
const (
	UnitCount   = "Count"
	UnitPercent = "Percent"
	UnitNone    = "None"
	UnitMillis  = "Milliseconds"
)

// DimensionAppName is the dimension key carrying the monitored application
// name on every emitted metric.
const DimensionAppName = "AppName"

// Metric is a single write-only time-series sample. It has no identity
// beyond (namespace, name, dimensions, timestamp).
type Metric struct {
	Namespace  string
	Name       string
	Value      float64
	Unit       string
	Dimensions map[string]string
	Timestamp  time.Time
}

// New builds a metric stamped with the current time and the AppName
// dimension.
func New(namespace, name string, value float64, unit, appName string) Metric {
	return Metric{
		Namespace:  namespace,
		Name:       name,
		Value:      value,
		Unit:       unit,
		Dimensions: map[string]string{DimensionAppName: appName},
		Timestamp:  time.Now().UTC(),
	}
}

// Sink receives emitted metrics. Emission is fire-and-forget from the
// engine's perspective: implementations own delivery and durability.
// Sinks must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, ms ...Metric) error
}
