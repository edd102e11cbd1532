// Package saaswatch polls third-party SaaS status endpoints, normalizes
// vendor payloads into comparable KPIs, and emits metrics for operators.
// The CLI under cmd/saaswatch is a thin wrapper; the engine is embeddable
// through Watcher.
package saaswatch

import (
	"context"
	"fmt"

	"github.com/saaswatch/saaswatch/internal/appconfig"
	"github.com/saaswatch/saaswatch/internal/metrics"
	"github.com/saaswatch/saaswatch/internal/orchestrator"
	"github.com/saaswatch/saaswatch/internal/poller"
	"github.com/saaswatch/saaswatch/internal/preprocess"
	"github.com/saaswatch/saaswatch/internal/scheduler"
	"github.com/saaswatch/saaswatch/internal/secret"
)

// Re-exported types so embedders do not import internal packages.
type (
	AppConfig      = appconfig.AppConfig
	ConfigStore    = appconfig.Store
	SecretResolver = secret.Resolver
	Metric         = metrics.Metric
	MetricSink     = metrics.Sink
	Outcome        = orchestrator.Outcome
	PollerOptions  = poller.Options
	ScheduleEntry  = scheduler.Entry
)

// Terminal outcomes of one execution.
const (
	OutcomeSuccess   = orchestrator.OutcomeSuccess
	OutcomeFailure   = orchestrator.OutcomeFailure
	OutcomeCancelled = orchestrator.OutcomeCancelled
	OutcomeFault     = orchestrator.OutcomeFault
)

// Config wires a Watcher. ConfigStore and SecretResolver are required;
// everything else has a working default.
type Config struct {
	ConfigStore    ConfigStore
	SecretResolver SecretResolver
	// Sink receives emitted metrics. Defaults to the structured-log sink.
	Sink MetricSink
	// Poller tunes debug attempt records and body truncation.
	Poller PollerOptions
	// Namespaces maps preprocess targets to metric namespaces.
	Namespaces map[string]string
	// Recorder persists terminal executions; may be nil.
	Recorder orchestrator.Recorder
	// Fault receives execution-level faults; defaults to an error log.
	Fault orchestrator.FaultSignal
}

// Watcher is the assembled polling engine. One Watcher serves any number
// of concurrent executions.
type Watcher struct {
	configs appconfig.Store
	orch    *orchestrator.Orchestrator
	sched   *scheduler.Scheduler
}

// New assembles a Watcher from its collaborators.
func New(cfg Config) (*Watcher, error) {
	if cfg.ConfigStore == nil {
		return nil, fmt.Errorf("saaswatch: ConfigStore is required")
	}
	if cfg.SecretResolver == nil {
		return nil, fmt.Errorf("saaswatch: SecretResolver is required")
	}
	sink := cfg.Sink
	if sink == nil {
		sink = metrics.LogSink{}
	}
	p := poller.New(cfg.SecretResolver, cfg.Poller)
	orch := orchestrator.New(cfg.ConfigStore, p, sink, orchestrator.Options{
		Fault:      cfg.Fault,
		Recorder:   cfg.Recorder,
		Namespaces: cfg.Namespaces,
	})
	return &Watcher{
		configs: cfg.ConfigStore,
		orch:    orch,
		sched:   scheduler.New(orch),
	}, nil
}

// RunOnce executes the workflow for a single trigger event. The error is
// non-nil only for execution-level faults; a failed poll is OutcomeFailure
// with a nil error.
func (w *Watcher) RunOnce(ctx context.Context, appName string) (Outcome, error) {
	return w.orch.Run(ctx, appName)
}

// Schedule registers cron entries for the run loop.
func (w *Watcher) Schedule(ctx context.Context, entries []ScheduleEntry) error {
	for _, e := range entries {
		if err := w.sched.Add(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled. In-flight
// executions observe the cancellation; a cancelled execution emits no
// metric.
func (w *Watcher) Run(ctx context.Context) {
	w.sched.Start(ctx)
}

// Validate resolves an app's config and checks that its preprocess target
// names a registered normalizer.
func (w *Watcher) Validate(ctx context.Context, appName string) error {
	cfg, err := w.configs.Resolve(ctx, appName)
	if err != nil {
		return err
	}
	_, err = preprocess.Lookup(cfg.PreprocessTarget)
	return err
}

// Close releases the config store.
func (w *Watcher) Close() error {
	return w.configs.Close()
}
