package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, []string{"*"}, cfg.Notify.CORSOrigins)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pajesim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
notify:
  enabled: true
  jwt_secret: s3cr3t
simulation:
  ingest_rate_hz: 50
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "s3cr3t", cfg.Notify.JWTSecret)
	assert.Equal(t, 50.0, cfg.Simulation.IngestRateHz)
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	c := Config{Log: LogConfig{Level: "loud", Format: "console"}}
	assert.Error(t, c.Validate())
}

func TestValidateRequiresJWTSecretWhenNotifyEnabled(t *testing.T) {
	c := Config{
		Log:    LogConfig{Level: "info", Format: "console"},
		Notify: NotifyConfig{Enabled: true},
	}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsNegativeIngestRate(t *testing.T) {
	c := Config{
		Log:        LogConfig{Level: "info", Format: "console"},
		Simulation: SimulationConfig{IngestRateHz: -1},
	}
	assert.Error(t, c.Validate())
}
