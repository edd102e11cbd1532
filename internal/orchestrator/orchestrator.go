package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/saaswatch/saaswatch/internal/appconfig"
	"github.com/saaswatch/saaswatch/internal/common"
	"github.com/saaswatch/saaswatch/internal/metrics"
	"github.com/saaswatch/saaswatch/internal/poller"
	"github.com/saaswatch/saaswatch/internal/preprocess"
)

// Failure-branch metric. Always value 1; aggregation belongs to the
// metrics system, never to the reporter.
const (
	FailureNamespace       = "Observability/Poller"
	MetricPollFailed       = "PollFailed"
	defaultNamespacePrefix = "Observability/"
)

// FaultSignal receives execution-level faults: failures of the monitor
// itself (config missing, malformed vendor payload), as opposed to
// failures of the monitored SaaS. Implementations typically raise an alarm
// distinct from the PollFailed metric.
type FaultSignal interface {
	ExecutionFault(ctx context.Context, appName, executionID string, err error)
}

// LogFaultSignal is the default fault signal: a structured error log line.
type LogFaultSignal struct{}

func (LogFaultSignal) ExecutionFault(_ context.Context, appName, executionID string, err error) {
	common.GetLogger().WithComponent("orchestrator").WithApp(appName).WithExecution(executionID).
		Error("execution fault", "error", err)
}

// RunRecord summarizes one terminal execution for the audit trail.
type RunRecord struct {
	AppName     string
	ExecutionID string
	Outcome     Outcome
	Status      int
	Attempts    int
	ElapsedMS   int64
	ErrorKind   string
}

// Recorder persists run records. Recording is best-effort observability:
// a recorder error is logged, never escalated.
type Recorder interface {
	Record(ctx context.Context, r RunRecord) error
}

// Orchestrator sequences one execution per trigger event: config lookup,
// poll, decision, then exactly one of preprocess or failure reporting.
// Executions are independent; an Orchestrator is safe for concurrent Run
// calls.
type Orchestrator struct {
	configs    appconfig.Store
	poller     *poller.Poller
	sink       metrics.Sink
	fault      FaultSignal
	recorder   Recorder
	namespaces map[string]string
}

// Options configure optional collaborators.
type Options struct {
	// Fault defaults to LogFaultSignal.
	Fault FaultSignal
	// Recorder may be nil (no audit trail).
	Recorder Recorder
	// Namespaces maps a preprocess target to its metric namespace.
	// Unmapped targets default to "Observability/<target>".
	Namespaces map[string]string
}

// New wires an orchestrator.
func New(configs appconfig.Store, p *poller.Poller, sink metrics.Sink, opts Options) *Orchestrator {
	fault := opts.Fault
	if fault == nil {
		fault = LogFaultSignal{}
	}
	return &Orchestrator{
		configs:    configs,
		poller:     p,
		sink:       sink,
		fault:      fault,
		recorder:   opts.Recorder,
		namespaces: opts.Namespaces,
	}
}

// Run executes the workflow for one trigger event. The returned error is
// non-nil only for execution-level faults (ConfigNotFound, config decode
// failure, PreprocessParseError); a poll failure routes to the failure
// branch and returns OutcomeFailure with a nil error.
func (o *Orchestrator) Run(ctx context.Context, appName string) (Outcome, error) {
	executionID := uuid.NewString()
	logger := common.GetLogger().WithComponent("orchestrator").WithApp(appName).WithExecution(executionID)

	exec := NewExecution(executionID, appName)
	state := StateInit
	outcome := OutcomeFault
	var fault error

	for state != StateDone {
		logger.Debug("transition", "state", state.String())
		switch state {
		case StateInit:
			state = StateConfigLookup

		case StateConfigLookup:
			cfg, err := o.configs.Resolve(ctx, appName)
			if err != nil {
				fault = fmt.Errorf("config lookup: %w", err)
				state = StateDone
				break
			}
			exec = exec.WithConfig(cfg)
			state = StatePoll

		case StatePoll:
			res := o.poller.Execute(ctx, exec.Config)
			exec = exec.WithPoll(res)
			state = StateDecision

		case StateDecision:
			if exec.Poll.Cancelled() || ctx.Err() != nil {
				outcome = OutcomeCancelled
				logger.Info("execution cancelled, no metric emitted")
				state = StateDone
				break
			}
			if exec.Poll.OK {
				state = StatePreprocess
			} else {
				state = StateReportFailure
			}

		case StatePreprocess:
			if err := o.preprocess(ctx, exec, logger); err != nil {
				fault = err
				state = StateDone
				break
			}
			outcome = OutcomeSuccess
			state = StateDone

		case StateReportFailure:
			o.reportFailure(ctx, exec, logger)
			outcome = OutcomeFailure
			state = StateDone
		}
	}

	if fault != nil {
		o.fault.ExecutionFault(ctx, appName, executionID, fault)
	}
	o.record(ctx, exec, outcome, logger)

	if fault != nil {
		return OutcomeFault, fault
	}
	return outcome, nil
}

// preprocess runs the success branch: vendor normalization, KPI compute,
// metric emission. A schema mismatch is an execution fault, never a silent
// zero-valued KPI set.
func (o *Orchestrator) preprocess(ctx context.Context, exec Execution, logger *common.Logger) error {
	target := exec.Config.PreprocessTarget
	normalizer, err := preprocess.Lookup(target)
	if err != nil {
		return err
	}
	services, err := normalizer.Normalize(exec.Poll.Body)
	if err != nil {
		return fmt.Errorf("preprocess %q: %w", target, err)
	}

	report := preprocess.Compute(exec.AppName, services)
	logger.Info("kpi report",
		"target", target,
		"total_services", report.Total,
		"overall", string(report.Overall),
		"availability", report.AvailabilityPercent,
		"critical_score", report.CriticalScore,
	)
	if err := report.Emit(ctx, o.sink, o.namespace(target), exec.AppName); err != nil {
		// Emission is fire-and-forget; a sink error must not flip the
		// execution into the fault path.
		logger.Warn("metric emission failed", "error", err)
	}
	return nil
}

// reportFailure emits the single PollFailed count on the failure branch.
func (o *Orchestrator) reportFailure(ctx context.Context, exec Execution, logger *common.Logger) {
	logger.Warn("poll failed",
		"status", exec.Poll.Status,
		"attempts", exec.Poll.AttemptCount,
		"error_kind", string(exec.Poll.ErrorKind),
		"error", exec.Poll.Error,
	)
	m := metrics.New(FailureNamespace, MetricPollFailed, 1, metrics.UnitCount, exec.AppName)
	if err := o.sink.Emit(ctx, m); err != nil {
		logger.Warn("metric emission failed", "error", err)
	}
}

func (o *Orchestrator) namespace(target string) string {
	if ns, ok := o.namespaces[target]; ok && ns != "" {
		return ns
	}
	return defaultNamespacePrefix + target
}

func (o *Orchestrator) record(ctx context.Context, exec Execution, outcome Outcome, logger *common.Logger) {
	if o.recorder == nil {
		return
	}
	rec := RunRecord{
		AppName:     exec.AppName,
		ExecutionID: exec.ID,
		Outcome:     outcome,
	}
	if exec.Poll != nil {
		rec.Status = exec.Poll.Status
		rec.Attempts = exec.Poll.AttemptCount
		rec.ElapsedMS = exec.Poll.ElapsedMillis
		rec.ErrorKind = string(exec.Poll.ErrorKind)
	}
	if err := o.recorder.Record(ctx, rec); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("run recording failed", "error", err)
	}
}
