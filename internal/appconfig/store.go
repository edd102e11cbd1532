package appconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// ErrNotFound is returned when no config item exists for an app name.
// It is an execution-level fault: the orchestrator must surface it outward
// instead of routing to the failure branch.
var ErrNotFound = errors.New("appconfig: not found")

// Store resolves per-application polling configuration. Implementations
// must provide read-your-writes consistency: an operator update is visible
// on the very next Resolve. No implementation may cache across calls.
type Store interface {
	Resolve(ctx context.Context, appName string) (*AppConfig, error)
	Close() error
}

// Decode converts a loosely-typed config item (as read from a store) into
// an AppConfig, applying defaults and validating the result.
func Decode(item map[string]interface{}, d Defaults) (*AppConfig, error) {
	var cfg AppConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(item); err != nil {
		return nil, fmt.Errorf("appconfig: decode: %w", err)
	}
	cfg.Normalize(d)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// StaticStore serves a fixed set of configs. Used in tests and for
// single-file embedded setups.
type StaticStore struct {
	Configs  map[string]*AppConfig
	Defaults Defaults
}

func (s *StaticStore) Resolve(_ context.Context, appName string) (*AppConfig, error) {
	cfg, ok := s.Configs[appName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, appName)
	}
	// Hand out a copy so one execution cannot mutate another's view.
	out := *cfg
	out.Normalize(s.Defaults)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *StaticStore) Close() error { return nil }
