package metrics

import (
	"context"
	"sync"

	"github.com/saaswatch/saaswatch/internal/common"
)

// LogSink writes each sample as a structured log line. It is the default
// sink and always safe to keep enabled alongside others.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, ms ...Metric) error {
	logger := common.GetLogger().WithComponent("metrics")
	for _, m := range ms {
		logger.Info("metric",
			"namespace", m.Namespace,
			"name", m.Name,
			"value", m.Value,
			"unit", m.Unit,
			"dimensions", m.Dimensions,
		)
	}
	return nil
}

// MultiSink fans out to several sinks. Emission errors are collected per
// sink and logged; the first error is returned so callers can observe
// delivery trouble without short-circuiting the remaining sinks.
type MultiSink struct {
	Sinks []Sink
}

func (s *MultiSink) Emit(ctx context.Context, ms ...Metric) error {
	logger := common.GetLogger().WithComponent("metrics")
	var first error
	for _, sink := range s.Sinks {
		if err := sink.Emit(ctx, ms...); err != nil {
			logger.Warn("metric sink emit failed", "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// MemorySink records emitted metrics for inspection. Used in tests.
type MemorySink struct {
	mu      sync.Mutex
	samples []Metric
}

func (s *MemorySink) Emit(_ context.Context, ms ...Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, ms...)
	return nil
}

// Samples returns a copy of everything emitted so far.
func (s *MemorySink) Samples() []Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Metric, len(s.samples))
	copy(out, s.samples)
	return out
}

// ByName returns the emitted samples with the given metric name.
func (s *MemorySink) ByName(name string) []Metric {
	var out []Metric
	for _, m := range s.Samples() {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}
