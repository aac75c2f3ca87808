package launcher

import (
	"fmt"
	"path/filepath"
)

// Kind distinguishes the two launchable process configurations. Agents
// are bare executables spawned inside the device; applications are
// bundles launched through the device's application services. The two
// differ in how their termination is classified and reported.
type Kind int

const (
	Agent Kind = iota
	Application
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Agent:
		return "agent"
	case Application:
		return "application"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ProcessConfig describes one process to launch inside a device session.
type ProcessConfig struct {
	Kind Kind

	// Path is the executable path for agents.
	Path string

	// BundleID identifies the application bundle for applications.
	BundleID string

	Args []string
	Env  map[string]string

	// StdoutPath and StderrPath, when set, request that output be
	// captured to files owned by the launched-process operation.
	StdoutPath string
	StderrPath string
}

// Name returns the display name for the configured process: the
// executable base name for agents, the bundle identifier for
// applications.
func (c ProcessConfig) Name() string {
	if c.Kind == Application {
		return c.BundleID
	}
	return filepath.Base(c.Path)
}

// Validate checks that the configuration identifies a launchable target.
func (c ProcessConfig) Validate() error {
	switch c.Kind {
	case Agent:
		if c.Path == "" {
			return fmt.Errorf("agent launch requires an executable path")
		}
	case Application:
		if c.BundleID == "" {
			return fmt.Errorf("application launch requires a bundle identifier")
		}
	default:
		return fmt.Errorf("unknown process kind %d", int(c.Kind))
	}
	return nil
}
