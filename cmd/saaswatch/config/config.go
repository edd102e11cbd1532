package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saaswatch/saaswatch"
	"github.com/saaswatch/saaswatch/internal/appconfig"
	"github.com/saaswatch/saaswatch/internal/common"
	"github.com/saaswatch/saaswatch/internal/metrics"
	"github.com/saaswatch/saaswatch/internal/orchestrator"
	"github.com/saaswatch/saaswatch/internal/poller"
	"github.com/saaswatch/saaswatch/internal/scheduler"
	"github.com/saaswatch/saaswatch/internal/secret"
	"github.com/saaswatch/saaswatch/internal/store"
)

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // error, warn, info, debug
	Format string `yaml:"format"` // text, json
}

// PollerConfig tunes poller behavior shared across apps.
type PollerConfig struct {
	Debug        bool `yaml:"debug"`
	MaxBodyChars int  `yaml:"max_body_chars"`
}

// AuthConfig sets the default auth header and prefix applied when a config
// item omits them.
type AuthConfig struct {
	Header string  `yaml:"header"`
	Prefix *string `yaml:"prefix"`
}

// SecretsConfig selects the secret resolver backend.
type SecretsConfig struct {
	Type      string `yaml:"type"` // file, env
	Path      string `yaml:"path"`
	EnvPrefix string `yaml:"env_prefix"`
}

// ConfigsConfig selects where app configs are read from.
type ConfigsConfig struct {
	Type string `yaml:"type"` // file, store
	Path string `yaml:"path"`
}

// StoreConfig enables the SQL store and what it records.
type StoreConfig struct {
	Enabled       bool                 `yaml:"enabled"`
	Type          string               `yaml:"type"`
	SQLite        store.SQLiteConfig   `yaml:"sqlite"`
	Postgres      store.PostgresConfig `yaml:"postgres"`
	RecordMetrics bool                 `yaml:"record_metrics"`
	RecordRuns    bool                 `yaml:"record_runs"`
}

// MetricsConfig maps preprocess targets to metric namespaces.
type MetricsConfig struct {
	Namespaces map[string]string `yaml:"namespaces"`
}

// Settings is the process-level configuration document.
type Settings struct {
	Logging  LoggingConfig     `yaml:"logging"`
	Poller   PollerConfig      `yaml:"poller"`
	Auth     AuthConfig        `yaml:"auth"`
	Secrets  SecretsConfig     `yaml:"secrets"`
	Configs  ConfigsConfig     `yaml:"configs"`
	Store    StoreConfig       `yaml:"store"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Schedule []scheduler.Entry `yaml:"schedule"`
}

// Load reads and parses a settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &s, nil
}

// ConfigureLogging installs the global logger per settings.
func (s *Settings) ConfigureLogging() {
	level := common.ParseLogLevel(s.Logging.Level)
	if strings.EqualFold(s.Logging.Format, "json") {
		common.SetDefaultLogger(common.NewJSONLogger(level))
		return
	}
	common.SetDefaultLogger(common.NewLogger(level))
}

// Defaults returns the settings-level config item fallbacks.
func (s *Settings) Defaults() appconfig.Defaults {
	d := appconfig.Defaults{AuthHeader: s.Auth.Header}
	if s.Auth.Prefix != nil {
		d.AuthPrefix = *s.Auth.Prefix
	}
	return d
}

// Runtime is the assembled process: the watcher plus everything that needs
// closing on shutdown.
type Runtime struct {
	Watcher  *saaswatch.Watcher
	Settings *Settings
	Store    *store.Store // nil when the SQL store is disabled
	names    func(ctx context.Context) ([]string, error)
}

// AppNames lists the apps known to the configured config source.
func (r *Runtime) AppNames(ctx context.Context) ([]string, error) {
	return r.names(ctx)
}

// Close releases the watcher and the SQL store.
func (r *Runtime) Close() error {
	err := r.Watcher.Close()
	if r.Store != nil {
		if cerr := r.Store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Build assembles the runtime from settings: secret resolver, config
// source, sinks, recorder, watcher.
func (s *Settings) Build(ctx context.Context) (*Runtime, error) {
	resolver, err := s.buildResolver()
	if err != nil {
		return nil, err
	}

	var sqlStore *store.Store
	if s.Store.Enabled || strings.EqualFold(s.Configs.Type, "store") {
		sqlStore, err = store.Open(ctx, store.Config{
			Type:     s.Store.Type,
			SQLite:   s.Store.SQLite,
			Postgres: s.Store.Postgres,
		})
		if err != nil {
			return nil, err
		}
	}

	configs, names, err := s.buildConfigSource(sqlStore)
	if err != nil {
		if sqlStore != nil {
			_ = sqlStore.Close()
		}
		return nil, err
	}

	sinks := []metrics.Sink{metrics.LogSink{}}
	var recorder orchestrator.Recorder
	if sqlStore != nil {
		if s.Store.RecordMetrics {
			sinks = append(sinks, &store.MetricSink{Store: sqlStore})
		}
		if s.Store.RecordRuns {
			recorder = &runRecorder{store: sqlStore}
		}
	}

	w, err := saaswatch.New(saaswatch.Config{
		ConfigStore:    configs,
		SecretResolver: resolver,
		Sink:           &metrics.MultiSink{Sinks: sinks},
		Poller: poller.Options{
			Debug:        s.Poller.Debug,
			MaxBodyChars: s.Poller.MaxBodyChars,
		},
		Namespaces: s.Metrics.Namespaces,
		Recorder:   recorder,
	})
	if err != nil {
		if sqlStore != nil {
			_ = sqlStore.Close()
		}
		return nil, err
	}

	return &Runtime{Watcher: w, Settings: s, Store: sqlStore, names: names}, nil
}

func (s *Settings) buildResolver() (secret.Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(s.Secrets.Type)) {
	case "file":
		if s.Secrets.Path == "" {
			return nil, fmt.Errorf("config: secrets.path is required for the file resolver")
		}
		return &secret.FileResolver{Path: s.Secrets.Path}, nil
	case "env", "":
		prefix := s.Secrets.EnvPrefix
		if prefix == "" {
			prefix = "SAASWATCH_SECRET"
		}
		return &secret.EnvResolver{Prefix: prefix}, nil
	default:
		return nil, fmt.Errorf("config: unsupported secrets.type %q", s.Secrets.Type)
	}
}

func (s *Settings) buildConfigSource(sqlStore *store.Store) (appconfig.Store, func(context.Context) ([]string, error), error) {
	switch strings.ToLower(strings.TrimSpace(s.Configs.Type)) {
	case "file", "":
		if s.Configs.Path == "" {
			return nil, nil, fmt.Errorf("config: configs.path is required for the file source")
		}
		fs := &appconfig.FileStore{Path: s.Configs.Path, Defaults: s.Defaults()}
		return fs, func(context.Context) ([]string, error) { return fs.AppNames() }, nil
	case "store":
		if sqlStore == nil {
			return nil, nil, fmt.Errorf("config: configs.type=store requires store.enabled")
		}
		cs := &store.ConfigStore{Store: sqlStore, Defaults: s.Defaults()}
		return cs, sqlStore.AppNames, nil
	default:
		return nil, nil, fmt.Errorf("config: unsupported configs.type %q", s.Configs.Type)
	}
}

// runRecorder adapts the SQL store to the orchestrator's recorder.
type runRecorder struct {
	store *store.Store
}

func (r *runRecorder) Record(ctx context.Context, rec orchestrator.RunRecord) error {
	return r.store.RecordRun(ctx, store.Run{
		AppName:     rec.AppName,
		ExecutionID: rec.ExecutionID,
		Outcome:     string(rec.Outcome),
		Status:      rec.Status,
		Attempts:    rec.Attempts,
		ElapsedMS:   rec.ElapsedMS,
		ErrorKind:   rec.ErrorKind,
	})
}
