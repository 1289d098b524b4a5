package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "temperature-dashboard", cfg.App.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8081", cfg.Server.UIPort)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Upstream.PageSize)
	assert.Equal(t, 3, cfg.Dashboard.HistoryMonths)
	assert.Equal(t, 30*time.Minute, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, 200, cfg.Dashboard.HistoryCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.Dashboard.HistoryCacheTTL)
}

func TestLoadFileYAMLThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
log:
  level: debug
dashboard:
  history_months: 6
  refresh_interval: 2h
`), 0o600))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 6, cfg.Dashboard.HistoryMonths)
	assert.Equal(t, 2*time.Hour, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "json", cfg.Log.Format, "untouched keys keep their defaults")
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "same ports", env: map[string]string{"SERVER_PORT": "8080", "SERVER_UI_PORT": "8080"}},
		{name: "page size", env: map[string]string{"UPSTREAM_PAGE_SIZE": "500"}},
		{name: "default date", env: map[string]string{"DASHBOARD_DEFAULT_DATE": "15/01/2024"}},
		{name: "refresh interval", env: map[string]string{"DASHBOARD_REFRESH_INTERVAL": "10s"}},
		{name: "unparsable duration", env: map[string]string{"UPSTREAM_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestInitialDate(t *testing.T) {
	cfg := Default()
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	got, err := cfg.InitialDate(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), got)

	cfg.Dashboard.DefaultDate = "2024-01-15"
	got, err = cfg.InitialDate(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got)
}
