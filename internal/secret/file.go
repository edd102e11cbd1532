package secret

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileResolver reads secrets from a YAML document mapping secret names to
// stored values. A stored value may itself be a JSON object string when the
// referencing config uses a json_key. The file is re-read on every Resolve
// so rotation takes effect without restart.
//
//	example-app/api: '{"api_key":"abc","other":"def"}'
//	plain-token: "s3cr3t"
type FileResolver struct {
	Path string
}

func (r *FileResolver) Resolve(ctx context.Context, ref Ref) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return Credential{}, fmt.Errorf("secret: read %s: %w", r.Path, err)
	}
	var doc map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Credential{}, fmt.Errorf("secret: parse %s: %w", r.Path, err)
	}
	raw, ok := doc[ref.Name]
	if !ok {
		return Credential{}, fmt.Errorf("%w: %s", ErrNotFound, ref.Name)
	}
	return Extract(raw, ref)
}
