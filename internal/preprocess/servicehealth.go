package preprocess

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ServiceHealthTarget selects the Microsoft-Graph-style service health
// normalizer (serviceAnnouncement healthOverviews payloads).
const ServiceHealthTarget = "servicehealth"

// serviceHealthStatusMap translates raw vendor status strings (compacted to
// lower-case without spaces) into normalized categories.
var serviceHealthStatusMap = map[string]Category{
	"serviceoperational":            CategoryOK,
	"servicerestored":               CategoryOK,
	"resolved":                      CategoryOK,
	"resolvedexternal":              CategoryOK,
	"falsepositive":                 CategoryOK,
	"postincidentreviewpublished":   CategoryOK,
	"investigating":                 CategoryInvestigating,
	"confirmed":                     CategoryInvestigating,
	"reported":                      CategoryInvestigating,
	"investigationsuspended":        CategoryInvestigating,
	"restoringservice":              CategoryRecovering,
	"extendedrecovery":              CategoryRecovering,
	"verifyingservice":              CategoryRecovering,
	"mitigated":                     CategoryRecovering,
	"mitigatedexternal":             CategoryRecovering,
	"servicedegradation":            CategoryDegraded,
	"serviceinterruption":           CategoryOutage,
}

// ServiceHealth normalizes Graph-style service health payloads. Accepted
// shapes: {"healthOverviews":[...]} or the OData list form {"value":[...]};
// each entry carries "service" (or "id") and "status".
type ServiceHealth struct{}

func (ServiceHealth) Normalize(body string) ([]ServiceStatus, error) {
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrParse)
	}
	parsed := gjson.Parse(body)

	overviews := parsed.Get("healthOverviews")
	if !overviews.Exists() {
		overviews = parsed.Get("value")
	}
	if !overviews.IsArray() {
		return nil, fmt.Errorf("%w: missing healthOverviews/value array", ErrParse)
	}

	var out []ServiceStatus
	var bad error
	overviews.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("service").String()
		if name == "" {
			name = item.Get("id").String()
		}
		if name == "" {
			bad = fmt.Errorf("%w: overview entry without service or id", ErrParse)
			return false
		}
		out = append(out, ServiceStatus{
			Name:     name,
			Category: serviceHealthCategory(item.Get("status").String()),
		})
		return true
	})
	if bad != nil {
		return nil, bad
	}
	return out, nil
}

func serviceHealthCategory(raw string) Category {
	key := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	if cat, ok := serviceHealthStatusMap[key]; ok {
		return cat
	}
	// Unknown raw statuses are treated as under investigation rather than
	// healthy, so a new vendor status never hides an incident.
	return CategoryInvestigating
}
