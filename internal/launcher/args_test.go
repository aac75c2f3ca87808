package launcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSimulatorAppArgs(t *testing.T) {
	udid := "F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4"

	t.Run("minimal", func(t *testing.T) {
		args, env, err := BuildSimulatorAppArgs(udid, AppOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"-CurrentDeviceUDID", udid}, args)
		assert.Empty(t, env)
	})

	t.Run("all options", func(t *testing.T) {
		args, env, err := BuildSimulatorAppArgs(udid, AppOptions{
			DeviceSetPath:           "/tmp/devices",
			Scale:                   0.5,
			ConnectHardwareKeyboard: true,
		})
		require.NoError(t, err)
		assert.Contains(t, args, "-ConnectHardwareKeyboard")
		assert.Contains(t, args, "-DeviceSetPath")
		assert.Contains(t, args, "-SimulatorWindowLastScale-"+udid)
		assert.Contains(t, args, "0.5")
		assert.Equal(t, "/tmp/devices", env["SIMULATOR_DEVICE_SET_PATH"])
	})

	t.Run("missing udid", func(t *testing.T) {
		_, _, err := BuildSimulatorAppArgs("", AppOptions{})
		assert.Error(t, err)
	})

	t.Run("negative scale", func(t *testing.T) {
		_, _, err := BuildSimulatorAppArgs(udid, AppOptions{Scale: -1})
		assert.Error(t, err)
	})
}

func TestProcessConfigName(t *testing.T) {
	agent := ProcessConfig{Kind: Agent, Path: "/usr/libexec/testmanagerd"}
	assert.Equal(t, "testmanagerd", agent.Name())

	app := ProcessConfig{Kind: Application, BundleID: "com.example.app"}
	assert.Equal(t, "com.example.app", app.Name())
}

func TestProcessConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProcessConfig
		wantErr bool
	}{
		{"valid agent", ProcessConfig{Kind: Agent, Path: "/bin/thing"}, false},
		{"valid application", ProcessConfig{Kind: Application, BundleID: "com.example"}, false},
		{"agent without path", ProcessConfig{Kind: Agent}, true},
		{"application without bundle", ProcessConfig{Kind: Application}, true},
		{"unknown kind", ProcessConfig{Kind: Kind(42)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBundleBinary(t *testing.T) {
	assert.Equal(t,
		"/Applications/Simulator.app/Contents/MacOS/Simulator",
		bundleBinary("/Applications/Simulator.app"))
	assert.Equal(t, "/usr/bin/true", bundleBinary("/usr/bin/true"))
}

func TestFlattenEnv(t *testing.T) {
	flat := flattenEnv(map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, []string{"A=1", "B=2"}, flat)
}
