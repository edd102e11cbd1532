package preprocess

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Category is the normalized status bucket for one vendor service.
type Category string

const (
	CategoryOK            Category = "OK"
	CategoryDegraded      Category = "DEGRADED"
	CategoryOutage        Category = "OUTAGE"
	CategoryRecovering    Category = "RECOVERING"
	CategoryInvestigating Category = "INVESTIGATING"
)

// ServiceStatus is one vendor service after normalization.
type ServiceStatus struct {
	Name     string
	Category Category
}

// ErrParse marks a vendor payload that did not match the expected schema.
// It is an execution-level fault: the orchestrator must surface it outward
// instead of emitting zero-valued KPIs.
var ErrParse = errors.New("preprocess: payload did not match vendor schema")

// Normalizer turns a raw vendor status payload into normalized per-service
// statuses. One implementation per vendor; the KPI math stays
// vendor-agnostic on top of this contract.
type Normalizer interface {
	Normalize(body string) ([]ServiceStatus, error)
}

// In-memory registry of normalizers keyed by preprocess target.
var normalizers = map[string]Normalizer{}

func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register registers a normalizer under a target key (e.g., "statuspage").
// The key is normalized to lower-case.
func Register(target string, n Normalizer) {
	key := normalizeKey(target)
	if key == "" || n == nil {
		return
	}
	normalizers[key] = n
}

// Lookup returns the normalizer registered for a preprocess target.
func Lookup(target string) (Normalizer, error) {
	n, ok := normalizers[normalizeKey(target)]
	if !ok {
		return nil, fmt.Errorf("preprocess: unknown target %q", target)
	}
	return n, nil
}

// Targets lists the registered preprocess targets, sorted.
func Targets() []string {
	out := make([]string, 0, len(normalizers))
	for k := range normalizers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register(ServiceHealthTarget, ServiceHealth{})
	Register(StatuspageTarget, Statuspage{})
}
