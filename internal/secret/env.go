package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvResolver reads secrets from process environment variables. The secret
// name is upper-cased and non-alphanumeric characters become underscores,
// with an optional prefix (e.g., name "example/api" with prefix "SAASWATCH"
// resolves SAASWATCH_EXAMPLE_API). Intended for local development and tests;
// production deployments point at a file or external store instead.
type EnvResolver struct {
	Prefix string
}

func (r *EnvResolver) Resolve(_ context.Context, ref Ref) (Credential, error) {
	key := envKey(r.Prefix, ref.Name)
	raw, ok := os.LookupEnv(key)
	if !ok {
		return Credential{}, fmt.Errorf("%w: %s (env %s)", ErrNotFound, ref.Name, key)
	}
	return Extract(raw, ref)
}

func envKey(prefix, name string) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(strings.ToUpper(prefix))
		b.WriteByte('_')
	}
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
