package appconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileDocV1 = `
apps:
  - app_name: example-app
    url: https://status.example.com/api/v2/components.json
    preprocess_target: statuspage
  - app_name: other-app
    url: https://other.example.com/health
    preprocess_target: servicehealth
`

const fileDocV2 = `
apps:
  - app_name: example-app
    url: https://changed.example.com/api/v2/components.json
    preprocess_target: statuspage
`

func writeFileStore(t *testing.T, content string) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &FileStore{Path: path}
}

func TestFileStore_Resolve(t *testing.T) {
	fs := writeFileStore(t, fileDocV1)
	cfg, err := fs.Resolve(context.Background(), "example-app")
	require.NoError(t, err)
	assert.Equal(t, "https://status.example.com/api/v2/components.json", cfg.URL)
	assert.Equal(t, "GET", cfg.Method)
}

func TestFileStore_NotFound(t *testing.T) {
	fs := writeFileStore(t, fileDocV1)
	_, err := fs.Resolve(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_UpdateVisibleOnNextResolve(t *testing.T) {
	fs := writeFileStore(t, fileDocV1)

	cfg, err := fs.Resolve(context.Background(), "example-app")
	require.NoError(t, err)
	assert.Contains(t, cfg.URL, "status.example.com")

	// No stale-read window: the next execution sees the operator's edit.
	require.NoError(t, os.WriteFile(fs.Path, []byte(fileDocV2), 0o600))
	cfg, err = fs.Resolve(context.Background(), "example-app")
	require.NoError(t, err)
	assert.Contains(t, cfg.URL, "changed.example.com")
}

func TestFileStore_AppNames(t *testing.T) {
	fs := writeFileStore(t, fileDocV1)
	names, err := fs.AppNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"example-app", "other-app"}, names)
}

func TestStaticStore_ResolveCopies(t *testing.T) {
	cfg := &AppConfig{AppName: "a", URL: "https://example.com", PreprocessTarget: "statuspage"}
	s := &StaticStore{Configs: map[string]*AppConfig{"a": cfg}}

	got, err := s.Resolve(context.Background(), "a")
	require.NoError(t, err)
	got.URL = "mutated"

	again, err := s.Resolve(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", again.URL)
}
