package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "db", cfg.Pending.Backend)
	assert.Equal(t, "memory", cfg.Cache.Kind)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  env: prod
  base_url: https://svc.example.com
server:
  addr: ":9000"
storage:
  driver: postgres
  dsn: postgres://yaml
garmin:
  consumer_key: ck-yaml
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("SERVER_ADDR", ":7000")
	t.Setenv("GARMIN_CONSUMER_KEY", "ck-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "https://svc.example.com", cfg.App.BaseURL)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "postgres://yaml", cfg.Storage.DSN)
	assert.Equal(t, "ck-env", cfg.Garmin.ConsumerKey)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mysql")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
storage:
  driver: memory
  postgres:
    conn_max_lifetime: nope
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
