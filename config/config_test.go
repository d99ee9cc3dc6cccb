package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GRADEBOARD_PROJECT_ID", "demo-project")
	t.Setenv("GRADEBOARD_FORMAT_URL", "https://example.com/formatDocumentsData")
	t.Setenv("GRADEBOARD_ADDR", ":9090")
	t.Setenv("GRADEBOARD_REDIS_DB", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "demo-project", cfg.GCP.ProjectID)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.Functions.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7000"
gcp:
  projectId: yaml-project
  uploadBucket: yaml-bucket
functions:
  formatUrl: https://example.com/fn
  timeout: 10s
log:
  level: debug
`), 0o644))

	t.Setenv("GRADEBOARD_PROJECT_ID", "env-project")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Environment wins over the file.
	assert.Equal(t, "env-project", cfg.GCP.ProjectID)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "yaml-bucket", cfg.GCP.UploadBucket)
	assert.Equal(t, 10*time.Second, cfg.Functions.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingRequiredValues(t *testing.T) {
	t.Setenv("GRADEBOARD_PROJECT_ID", "")
	t.Setenv("GRADEBOARD_FORMAT_URL", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	t.Setenv("GRADEBOARD_PROJECT_ID", "demo")
	t.Setenv("GRADEBOARD_FORMAT_URL", "https://example.com/fn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}
