package appconfig

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAuthHeader is used when neither settings nor the config item
	// name an auth header.
	DefaultAuthHeader = "Authorization"
	// DefaultAuthPrefix is prepended to the resolved credential.
	DefaultAuthPrefix = "Bearer "

	defaultTimeoutSeconds = 10
)

// SecretRef names a stored secret and optionally a JSON field to extract
// from it. An empty JSONKey means the secret value is used verbatim.
type SecretRef struct {
	Name    string `mapstructure:"secret_name" yaml:"secret_name"`
	JSONKey string `mapstructure:"json_key" yaml:"json_key"`
}

// RetryPolicy controls the poller's attempt budget and backoff schedule.
// Backoff is linear: the sleep before attempt n+1 is Backoff * n seconds.
type RetryPolicy struct {
	MaxAttempts int     `mapstructure:"max_attempts" yaml:"max_attempts"`
	Backoff     float64 `mapstructure:"backoff" yaml:"backoff"`
	RetryOn     []int   `mapstructure:"retry_on" yaml:"retry_on"`
}

// DefaultRetryPolicy mirrors the defaults applied when a config item omits
// its retry block.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     1.5,
		RetryOn:     []int{429, 500, 502, 503, 504},
	}
}

// ShouldRetry reports whether the given HTTP status is in the retryable set.
func (r RetryPolicy) ShouldRetry(status int) bool {
	for _, code := range r.RetryOn {
		if code == status {
			return true
		}
	}
	return false
}

// Delay returns the backoff sleep after the given attempt number (1-based).
func (r RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || r.Backoff <= 0 {
		return 0
	}
	return time.Duration(r.Backoff * float64(attempt) * float64(time.Second))
}

// AppConfig is the per-application polling configuration. It is read fresh
// from the config store at the start of every execution and treated as
// immutable for the remainder of that execution.
type AppConfig struct {
	AppName          string            `mapstructure:"app_name" yaml:"app_name"`
	Method           string            `mapstructure:"method" yaml:"method"`
	URL              string            `mapstructure:"url" yaml:"url"`
	Headers          map[string]string `mapstructure:"headers" yaml:"headers"`
	Query            map[string]string `mapstructure:"query" yaml:"query"`
	TimeoutSeconds   int               `mapstructure:"timeout" yaml:"timeout"`
	Secret           SecretRef         `mapstructure:",squash" yaml:",inline"`
	AuthHeader       string            `mapstructure:"auth_header" yaml:"auth_header"`
	AuthPrefix       *string           `mapstructure:"auth_prefix" yaml:"auth_prefix"`
	Retry            RetryPolicy       `mapstructure:"retry" yaml:"retry"`
	PreprocessTarget string            `mapstructure:"preprocess_target" yaml:"preprocess_target"`
}

// Defaults carries settings-level fallbacks applied during normalization.
type Defaults struct {
	AuthHeader string
	AuthPrefix string
}

// Timeout returns the per-attempt timeout as a duration.
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthPrefixValue returns the configured prefix, honoring an explicit empty
// string (no prefix) as distinct from an absent one.
func (c *AppConfig) AuthPrefixValue() string {
	if c.AuthPrefix == nil {
		return DefaultAuthPrefix
	}
	return *c.AuthPrefix
}

// Normalize fills defaults in place. It is idempotent and must be called
// before Validate.
func (c *AppConfig) Normalize(d Defaults) {
	if strings.TrimSpace(c.Method) == "" {
		c.Method = http.MethodGet
	}
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if strings.TrimSpace(c.AuthHeader) == "" {
		c.AuthHeader = d.AuthHeader
	}
	if strings.TrimSpace(c.AuthHeader) == "" {
		c.AuthHeader = DefaultAuthHeader
	}
	if c.AuthPrefix == nil && d.AuthPrefix != "" {
		prefix := d.AuthPrefix
		c.AuthPrefix = &prefix
	}
	if c.Retry.MaxAttempts == 0 && c.Retry.Backoff == 0 && len(c.Retry.RetryOn) == 0 {
		c.Retry = DefaultRetryPolicy()
	}
}

// Validate checks the invariants an execution relies on.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.AppName) == "" {
		return fmt.Errorf("appconfig: app_name is required")
	}
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("appconfig: url is required for app %q", c.AppName)
	}
	switch c.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead:
	default:
		return fmt.Errorf("appconfig: unsupported method %q for app %q", c.Method, c.AppName)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("appconfig: retry.max_attempts must be >= 1 for app %q", c.AppName)
	}
	if c.Retry.Backoff < 0 {
		return fmt.Errorf("appconfig: retry.backoff must be >= 0 for app %q", c.AppName)
	}
	if strings.TrimSpace(c.PreprocessTarget) == "" {
		return fmt.Errorf("appconfig: preprocess_target is required for app %q", c.AppName)
	}
	return nil
}
