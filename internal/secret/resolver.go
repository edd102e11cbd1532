package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/saaswatch/saaswatch/internal/common"
	"github.com/tidwall/gjson"
)

// Resolution failure kinds. They surface on the poll result as errorKind so
// the workflow can still route to the failure branch cleanly instead of
// faulting the execution.
var (
	ErrNotFound     = errors.New("secret: not found")
	ErrFieldMissing = errors.New("secret: json field missing")
	ErrFormat       = errors.New("secret: stored value is not valid json")
)

// Ref names a secret and optionally a JSON field key within it.
type Ref struct {
	Name    string
	JSONKey string
}

// Credential wraps a resolved secret value. The value is deliberately kept
// behind an accessor and the type masks itself when formatted, so a stray
// %v or log argument cannot leak it.
type Credential struct {
	value string
}

// NewCredential wraps a raw secret value.
func NewCredential(value string) Credential {
	return Credential{value: value}
}

// Value returns the raw secret. Callers must only use it to build the auth
// header, never to log.
func (c Credential) Value() string { return c.value }

// IsZero reports whether no credential was resolved.
func (c Credential) IsZero() bool { return c.value == "" }

func (c Credential) String() string { return common.MaskedValue }

// Format implements fmt.Formatter so every verb renders the mask.
func (c Credential) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(common.MaskedValue))
}

// Resolver fetches a named secret. Resolution happens fresh on every poll;
// implementations must not cache across executions so credential rotation
// takes effect on the next scheduled poll.
type Resolver interface {
	Resolve(ctx context.Context, ref Ref) (Credential, error)
}

// Extract applies the optional JSON field key to a raw stored value.
// A plain-string secret is returned verbatim only when no key is given.
func Extract(raw string, ref Ref) (Credential, error) {
	key := strings.TrimSpace(ref.JSONKey)
	if key == "" {
		return NewCredential(raw), nil
	}
	if !gjson.Valid(raw) {
		return Credential{}, fmt.Errorf("%w: secret %q", ErrFormat, ref.Name)
	}
	res := gjson.Get(raw, key)
	if !res.Exists() {
		return Credential{}, fmt.Errorf("%w: secret %q key %q", ErrFieldMissing, ref.Name, key)
	}
	return NewCredential(res.String()), nil
}

// Static resolves secrets from an in-memory map. Used in tests.
type Static struct {
	Secrets map[string]string
}

func (s *Static) Resolve(_ context.Context, ref Ref) (Credential, error) {
	raw, ok := s.Secrets[ref.Name]
	if !ok {
		return Credential{}, fmt.Errorf("%w: %s", ErrNotFound, ref.Name)
	}
	return Extract(raw, ref)
}
