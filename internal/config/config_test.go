package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "direct", cfg.Boot.Strategy)
	assert.Contains(t, cfg.Boot.RequiredServices, "backboardd")
	assert.Contains(t, cfg.Boot.RequiredServices, "SpringBoard")
	assert.Contains(t, cfg.Boot.RequiredServices, "installd")

	assert.Equal(t, 10*time.Second, cfg.Timeouts.FastTimeout())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.StateTimeout())
	assert.Equal(t, 2*time.Minute, cfg.Timeouts.SlowTimeout())
	assert.Equal(t, 100*time.Millisecond, cfg.Timeouts.FastPollInterval())
	assert.Equal(t, time.Second, cfg.Timeouts.SlowPollInterval())

	assert.Equal(t, "subprocess", cfg.Launcher.Mechanism)
	assert.Contains(t, cfg.Launcher.AppPath, "Simulator.app")
}

func TestTimeoutFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty falls back", "", 10 * time.Second},
		{"invalid falls back", "soon", 10 * time.Second},
		{"valid parses", "3s", 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := Timeouts{Fast: tt.value}
			assert.Equal(t, tt.want, ts.FastTimeout())
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Contains(t, dir, ".idb")

	ports, err := PortsDir()
	require.NoError(t, err)
	assert.Contains(t, ports, "ports")
}
