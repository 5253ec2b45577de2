package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, logic.DefaultThresholds(), cfg.LogicThresholds())
	assert.Equal(t, 2*time.Second, cfg.Sensor.Period)
	assert.Equal(t, uint64(1000), cfg.ToggleTicks())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesAndFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
sensor:
  kind: serial
  period: 5s
  serial:
    port: /dev/ttyS3
thresholds:
  moisture_low: 18000
  moisture_margin: 1500
display:
  clock: 2ms
  toggle_every: 1500ms
  stable_samples: 3
mqtt:
  disabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serial", cfg.Sensor.Kind)
	assert.Equal(t, 5*time.Second, cfg.Sensor.Period)
	assert.Equal(t, "/dev/ttyS3", cfg.Sensor.Serial.Port)
	assert.Equal(t, uint16(18000), cfg.Thresholds.MoistureLow)
	assert.Equal(t, uint16(1500), cfg.Thresholds.MoistureMargin)
	assert.Equal(t, 70, cfg.Thresholds.HumidityHigh, "unset fields keep defaults")
	assert.Equal(t, 3, cfg.Display.StableSamples)
	assert.Equal(t, 2, cfg.Display.SyncStages)
	assert.Equal(t, uint64(750), cfg.ToggleTicks())
	assert.True(t, cfg.MQTT.Disabled)
	assert.Equal(t, "wire", cfg.Bus.Mode)
	assert.Len(t, cfg.Bus.Pins, 9)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "sensor: [unterminated"))
	assert.Error(t, err)
}

func TestLoadDefersValidation(t *testing.T) {
	cfg, err := Load(writeConfig(t, "sensor:\n  kind: telepathy\n"))
	require.NoError(t, err)
	assert.Equal(t, "telepathy", cfg.Sensor.Kind)
	assert.Error(t, cfg.Validate())

	cfg.Sensor.Kind = "fake"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"sensor kind", "sensor:\n  kind: telepathy\n"},
		{"bus mode", "bus:\n  mode: carrier-pigeon\n"},
		{"bus pins", "bus:\n  pins: [1, 2, 3]\n"},
		{"sync stages", "display:\n  sync_stages: 1\n"},
		{"humidity margin", "thresholds:\n  humidity_high: 10\n  humidity_margin: 20\n"},
		{"moisture overflow", "thresholds:\n  moisture_low: 65000\n  moisture_margin: 1000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Sensor.Kind = "fake"
	cfg.Thresholds.HumidityHigh = 80
	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestToggleTicksNeverZero(t *testing.T) {
	cfg := Default()
	cfg.Display.ToggleEvery = time.Microsecond
	assert.Equal(t, uint64(1), cfg.ToggleTicks())
	cfg.Display.Clock = 0
	assert.Equal(t, uint64(1), cfg.ToggleTicks())
}

func TestExampleFileMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "greenhouse-bridge.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
