package saaswatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaswatch/saaswatch/internal/appconfig"
	"github.com/saaswatch/saaswatch/internal/metrics"
	"github.com/saaswatch/saaswatch/internal/preprocess"
	"github.com/saaswatch/saaswatch/internal/secret"
)

func newTestWatcher(t *testing.T, url string, sink MetricSink) *Watcher {
	t.Helper()
	w, err := New(Config{
		ConfigStore: &appconfig.StaticStore{Configs: map[string]*appconfig.AppConfig{
			"example-app": {
				AppName:          "example-app",
				URL:              url,
				PreprocessTarget: preprocess.StatuspageTarget,
				Secret:           appconfig.SecretRef{Name: "example-app/api", JSONKey: "api_key"},
				Retry:            appconfig.RetryPolicy{MaxAttempts: 1},
			},
		}},
		SecretResolver: &secret.Static{Secrets: map[string]string{
			"example-app/api": `{"api_key":"abc"}`,
		}},
		Sink: sink,
	})
	require.NoError(t, err)
	return w
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{ConfigStore: &appconfig.StaticStore{}})
	require.Error(t, err)
}

func TestRunOnce_EndToEndSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"components":[{"name":"API","status":"operational"}]}`))
	}))
	defer srv.Close()

	sink := &metrics.MemorySink{}
	w := newTestWatcher(t, srv.URL, sink)
	defer func() { _ = w.Close() }()

	outcome, err := w.RunOnce(context.Background(), "example-app")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Len(t, sink.ByName(preprocess.MetricAvailability), 1)
}

func TestRunOnce_EndToEndFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sink := &metrics.MemorySink{}
	w := newTestWatcher(t, srv.URL, sink)
	defer func() { _ = w.Close() }()

	outcome, err := w.RunOnce(context.Background(), "example-app")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, outcome)
	assert.Len(t, sink.ByName("PollFailed"), 1)
}

func TestRunOnce_UnknownAppIsAFault(t *testing.T) {
	sink := &metrics.MemorySink{}
	w := newTestWatcher(t, "http://127.0.0.1:1", sink)
	defer func() { _ = w.Close() }()

	outcome, err := w.RunOnce(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, OutcomeFault, outcome)
	assert.Empty(t, sink.Samples())
}

func TestValidate(t *testing.T) {
	w := newTestWatcher(t, "http://127.0.0.1:1", &metrics.MemorySink{})
	defer func() { _ = w.Close() }()

	require.NoError(t, w.Validate(context.Background(), "example-app"))
	require.Error(t, w.Validate(context.Background(), "ghost"))
}
