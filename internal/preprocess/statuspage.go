package preprocess

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// StatuspageTarget selects the Statuspage-style components normalizer
// (GET /api/v2/components.json payloads).
const StatuspageTarget = "statuspage"

var statuspageStatusMap = map[string]Category{
	"operational":          CategoryOK,
	"degraded_performance": CategoryDegraded,
	"partial_outage":       CategoryDegraded,
	"major_outage":         CategoryOutage,
	"under_maintenance":    CategoryRecovering,
}

// Statuspage normalizes Statuspage-style payloads: {"components":[...]}
// where each component has "name" and "status". Component groups (entries
// with "group": true) aggregate their children and are skipped.
type Statuspage struct{}

func (Statuspage) Normalize(body string) ([]ServiceStatus, error) {
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrParse)
	}
	components := gjson.Get(body, "components")
	if !components.IsArray() {
		return nil, fmt.Errorf("%w: missing components array", ErrParse)
	}

	var out []ServiceStatus
	var bad error
	components.ForEach(func(_, item gjson.Result) bool {
		if item.Get("group").Bool() {
			return true
		}
		name := item.Get("name").String()
		if name == "" {
			bad = fmt.Errorf("%w: component without name", ErrParse)
			return false
		}
		out = append(out, ServiceStatus{
			Name:     name,
			Category: statuspageCategory(item.Get("status").String()),
		})
		return true
	})
	if bad != nil {
		return nil, bad
	}
	return out, nil
}

func statuspageCategory(raw string) Category {
	if cat, ok := statuspageStatusMap[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return cat
	}
	return CategoryInvestigating
}
