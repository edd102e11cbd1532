package preprocess

import (
	"context"

	"github.com/saaswatch/saaswatch/internal/common"
	"github.com/saaswatch/saaswatch/internal/metrics"
)

// Severity weights behind CriticalScore. Fixed operational constants, not
// configuration.
const (
	weightOutage        = 4.0
	weightDegraded      = 2.0
	weightInvestigating = 1.0
	weightRecovering    = 0.5
)

// Metric names emitted per application.
const (
	MetricAvailability  = "OverallAvailabilityPercent"
	MetricOutage        = "ServicesOutageCount"
	MetricDegraded      = "ServicesDegradedCount"
	MetricRecovering    = "ServicesRecoveringCount"
	MetricInvestigating = "ServicesInvestigatingCount"
	MetricCritical      = "CriticalScore"
)

// Report holds the aggregate KPIs computed from normalized service
// statuses.
type Report struct {
	Total         int
	OK            int
	Outage        int
	Degraded      int
	Recovering    int
	Investigating int

	AvailabilityPercent float64
	CriticalScore       float64
	Overall             Category
}

// Compute derives the KPI report from normalized statuses. An empty service
// list yields 100% availability with a warning logged, never a division by
// zero.
func Compute(appName string, services []ServiceStatus) Report {
	r := Report{Total: len(services)}
	for _, s := range services {
		switch s.Category {
		case CategoryOutage:
			r.Outage++
		case CategoryDegraded:
			r.Degraded++
		case CategoryRecovering:
			r.Recovering++
		case CategoryInvestigating:
			r.Investigating++
		default:
			r.OK++
		}
	}

	if r.Total == 0 {
		common.GetLogger().WithComponent("preprocess").WithApp(appName).
			Warn("no services in vendor payload, reporting full availability")
		r.AvailabilityPercent = 100
	} else {
		r.AvailabilityPercent = 100 * float64(r.Total-r.Outage) / float64(r.Total)
	}

	r.CriticalScore = weightOutage*float64(r.Outage) +
		weightDegraded*float64(r.Degraded) +
		weightInvestigating*float64(r.Investigating) +
		weightRecovering*float64(r.Recovering)

	switch {
	case r.Outage > 0:
		r.Overall = CategoryOutage
	case r.Degraded > 0:
		r.Overall = CategoryDegraded
	case r.Recovering > 0:
		r.Overall = CategoryRecovering
	case r.Investigating > 0:
		r.Overall = CategoryInvestigating
	default:
		r.Overall = CategoryOK
	}
	return r
}

// Emit publishes the report as metrics under the given namespace,
// dimensioned by application name.
func (r Report) Emit(ctx context.Context, sink metrics.Sink, namespace, appName string) error {
	return sink.Emit(ctx,
		metrics.New(namespace, MetricAvailability, r.AvailabilityPercent, metrics.UnitPercent, appName),
		metrics.New(namespace, MetricOutage, float64(r.Outage), metrics.UnitCount, appName),
		metrics.New(namespace, MetricDegraded, float64(r.Degraded), metrics.UnitCount, appName),
		metrics.New(namespace, MetricRecovering, float64(r.Recovering), metrics.UnitCount, appName),
		metrics.New(namespace, MetricInvestigating, float64(r.Investigating), metrics.UnitCount, appName),
		metrics.New(namespace, MetricCritical, r.CriticalScore, metrics.UnitNone, appName),
	)
}
