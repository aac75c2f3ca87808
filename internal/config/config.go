package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// DefaultRequiredServices are the supervisor children that must be
// observed before a boot counts as complete. Device "Booted" state
// transitions well before these finish spawning, so they are verified
// separately on the slow timeout tier.
var DefaultRequiredServices = []string{
	"backboardd",
	"SpringBoard",
	"installd",
	"SimulatorBridge",
}

// Config represents the idb CLI configuration
type Config struct {
	Boot     Boot     `mapstructure:"boot"`
	Timeouts Timeouts `mapstructure:"timeouts"`
	Launcher Launcher `mapstructure:"launcher"`
}

// Boot controls how sessions are brought up
type Boot struct {
	// Strategy selects the boot procedure: "direct" boots the device
	// runtime headless, "application" spawns the container application
	// which boots the device itself.
	Strategy string `mapstructure:"strategy"`

	RequiredServices []string `mapstructure:"required_services"`
}

// Timeouts holds the three bounded-wait tiers as duration strings.
// Fast bounds termination verification, State bounds device-state
// polling, Slow bounds required-service verification.
type Timeouts struct {
	Fast          string `mapstructure:"fast"`
	State         string `mapstructure:"state"`
	Slow          string `mapstructure:"slow"`
	FastInterval  string `mapstructure:"fast_interval"`
	StateInterval string `mapstructure:"state_interval"`
	SlowInterval  string `mapstructure:"slow_interval"`
}

// Launcher configures container-application launches
type Launcher struct {
	AppPath       string `mapstructure:"app_path"`
	Mechanism     string `mapstructure:"mechanism"` // "subprocess" | "open"
	DeviceSetPath string `mapstructure:"device_set_path"`
}

// Load loads the configuration from ~/.idb/config.yaml or returns defaults
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(home, ".idb")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	setDefaults()

	// Try to read config file, but don't fail if it doesn't exist
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("boot.strategy", "direct")
	viper.SetDefault("boot.required_services", DefaultRequiredServices)

	viper.SetDefault("timeouts.fast", "10s")
	viper.SetDefault("timeouts.state", "30s")
	viper.SetDefault("timeouts.slow", "2m")
	viper.SetDefault("timeouts.fast_interval", "100ms")
	viper.SetDefault("timeouts.state_interval", "100ms")
	viper.SetDefault("timeouts.slow_interval", "1s")

	viper.SetDefault("launcher.app_path",
		"/Applications/Xcode.app/Contents/Developer/Applications/Simulator.app")
	viper.SetDefault("launcher.mechanism", "subprocess")
	viper.SetDefault("launcher.device_set_path", "")
}

// duration parses a duration string, falling back when unset or invalid
func duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// FastTimeout returns the termination-verification deadline
func (t Timeouts) FastTimeout() time.Duration { return duration(t.Fast, 10*time.Second) }

// StateTimeout returns the device-state polling deadline
func (t Timeouts) StateTimeout() time.Duration { return duration(t.State, 30*time.Second) }

// SlowTimeout returns the required-service verification deadline
func (t Timeouts) SlowTimeout() time.Duration { return duration(t.Slow, 2*time.Minute) }

// FastPollInterval returns the termination-verification poll interval
func (t Timeouts) FastPollInterval() time.Duration {
	return duration(t.FastInterval, 100*time.Millisecond)
}

// StatePollInterval returns the device-state poll interval
func (t Timeouts) StatePollInterval() time.Duration {
	return duration(t.StateInterval, 100*time.Millisecond)
}

// SlowPollInterval returns the required-service poll interval
func (t Timeouts) SlowPollInterval() time.Duration {
	return duration(t.SlowInterval, time.Second)
}

// ConfigDir returns the idb configuration directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".idb"), nil
}

// PortsDir returns the directory for framebuffer surfaces and
// registration endpoints
func PortsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ports"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(configDir, "ports"), 0755)
}
