package appconfig

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileStore reads app configs from a YAML document of the shape:
//
//	apps:
//	  - app_name: example-app
//	    url: https://status.example.com/api/v2/components.json
//	    ...
//
// The file is re-read on every Resolve so an edit takes effect on the next
// scheduled execution without restart.
type FileStore struct {
	Path     string
	Defaults Defaults
}

type fileDoc struct {
	Apps []map[string]interface{} `yaml:"apps"`
}

func (s *FileStore) Resolve(ctx context.Context, appName string) (*AppConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("appconfig: read %s: %w", s.Path, err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("appconfig: parse %s: %w", s.Path, err)
	}
	for _, item := range doc.Apps {
		name, _ := item["app_name"].(string)
		if name != appName {
			continue
		}
		return Decode(item, s.Defaults)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, appName)
}

// AppNames lists every app defined in the file. Used by the scheduler and
// the validate command.
func (s *FileStore) AppNames() ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("appconfig: read %s: %w", s.Path, err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("appconfig: parse %s: %w", s.Path, err)
	}
	names := make([]string, 0, len(doc.Apps))
	for _, item := range doc.Apps {
		if name, _ := item["app_name"].(string); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *FileStore) Close() error { return nil }
