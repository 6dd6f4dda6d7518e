package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, DriverSQLite, cfg.Medium.Driver)
	require.Equal(t, "stdio", cfg.Transport.Mode)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport:
  mode: http
medium:
  driver: redis
  quota_bytes: 1024
  redis:
    addr: "localhost:6390"
profile:
  name: Ada
  email: ada@example.com
log:
  level: debug
`), 0o644))

	t.Setenv("INTERNPM_CONFIG_PATH", path)
	t.Setenv("INTERNPM_SERVER_PORT", "9090")
	t.Setenv("INTERNPM_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, DriverRedis, cfg.Medium.Driver)
	require.Equal(t, int64(1024), cfg.Medium.QuotaBytes)
	require.Equal(t, "localhost:6390", cfg.Medium.Redis.Addr)
	require.Equal(t, "internpm:", cfg.Medium.Redis.Prefix)
	require.Equal(t, "Ada", cfg.Profile.Name)
	require.Equal(t, "Frontend Intern", cfg.Profile.Role)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("INTERNPM_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "INTERNPM_SERVER_PORT")

	t.Setenv("INTERNPM_SERVER_PORT", "")
	t.Setenv("INTERNPM_QUOTA_BYTES", "lots")
	_, err = Load()
	require.ErrorContains(t, err, "INTERNPM_QUOTA_BYTES")

	t.Setenv("INTERNPM_QUOTA_BYTES", "")
	t.Setenv("INTERNPM_MEDIUM", "floppy")
	_, err = Load()
	require.ErrorContains(t, err, "invalid medium driver")

	t.Setenv("INTERNPM_MEDIUM", "")
	t.Setenv("INTERNPM_TRANSPORT", "carrier-pigeon")
	_, err = Load()
	require.ErrorContains(t, err, "invalid transport mode")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("INTERNPM_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}
