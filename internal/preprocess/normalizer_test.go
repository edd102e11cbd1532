package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_BuiltinsRegistered(t *testing.T) {
	for _, target := range []string{StatuspageTarget, ServiceHealthTarget, " Statuspage "} {
		n, err := Lookup(target)
		require.NoError(t, err, target)
		assert.NotNil(t, n)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("no-such-vendor")
	require.Error(t, err)
}

func TestTargets_Sorted(t *testing.T) {
	targets := Targets()
	assert.Contains(t, targets, StatuspageTarget)
	assert.Contains(t, targets, ServiceHealthTarget)
}

func TestStatuspage_Normalize(t *testing.T) {
	body := `{
		"components": [
			{"name": "API", "status": "operational"},
			{"name": "Dashboard", "status": "degraded_performance"},
			{"name": "CDN", "status": "major_outage"},
			{"name": "Jobs", "status": "under_maintenance"},
			{"name": "All Systems", "status": "operational", "group": true},
			{"name": "New Thing", "status": "something_new"}
		]
	}`

	services, err := Statuspage{}.Normalize(body)
	require.NoError(t, err)
	require.Len(t, services, 5) // group entry skipped

	byName := map[string]Category{}
	for _, s := range services {
		byName[s.Name] = s.Category
	}
	assert.Equal(t, CategoryOK, byName["API"])
	assert.Equal(t, CategoryDegraded, byName["Dashboard"])
	assert.Equal(t, CategoryOutage, byName["CDN"])
	assert.Equal(t, CategoryRecovering, byName["Jobs"])
	// Unknown raw statuses never pass as healthy.
	assert.Equal(t, CategoryInvestigating, byName["New Thing"])
}

func TestStatuspage_ParseErrors(t *testing.T) {
	cases := map[string]string{
		"invalid json":      `{"components": [`,
		"missing array":     `{"page": {}}`,
		"component no name": `{"components": [{"status": "operational"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Statuspage{}.Normalize(body)
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestServiceHealth_Normalize(t *testing.T) {
	body := `{
		"healthOverviews": [
			{"service": "Exchange", "status": "serviceOperational"},
			{"service": "SharePoint", "status": "serviceDegradation"},
			{"service": "Teams", "status": "serviceInterruption"},
			{"id": "intune", "status": "restoringService"},
			{"service": "Planner", "status": "investigating"}
		]
	}`

	services, err := ServiceHealth{}.Normalize(body)
	require.NoError(t, err)
	require.Len(t, services, 5)

	byName := map[string]Category{}
	for _, s := range services {
		byName[s.Name] = s.Category
	}
	assert.Equal(t, CategoryOK, byName["Exchange"])
	assert.Equal(t, CategoryDegraded, byName["SharePoint"])
	assert.Equal(t, CategoryOutage, byName["Teams"])
	assert.Equal(t, CategoryRecovering, byName["intune"])
	assert.Equal(t, CategoryInvestigating, byName["Planner"])
}

func TestServiceHealth_ValueArrayForm(t *testing.T) {
	body := `{"value": [{"service": "Exchange", "status": "serviceRestored"}]}`
	services, err := ServiceHealth{}.Normalize(body)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, CategoryOK, services[0].Category)
}

func TestServiceHealth_ParseErrors(t *testing.T) {
	cases := map[string]string{
		"invalid json":       `not json`,
		"missing array":      `{"foo": 1}`,
		"entry without name": `{"healthOverviews": [{"status": "investigating"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ServiceHealth{}.Normalize(body)
			require.ErrorIs(t, err, ErrParse)
		})
	}
}
