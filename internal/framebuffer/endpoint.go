package framebuffer

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// HIDRegistrationService is the well-known name input-event synthesis
// expects the registration endpoint to be reachable under.
const HIDRegistrationService = "IndigoHIDRegistrationPort"

// Endpoint is a receive-capable OS communication endpoint that can be
// registered under a well-known service name. Allocation and
// registration are separate steps so their failures surface distinctly.
type Endpoint struct {
	dir    string
	ln     net.Listener
	sock   string
	name   string // registered service name, empty until Register
	closeO sync.Once
}

// NewEndpoint allocates a fresh endpoint under dir. The endpoint is not
// discoverable until Register is called.
func NewEndpoint(dir string) (*Endpoint, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create endpoint directory: %w", err)
	}

	sock := filepath.Join(dir, "ep-"+uuid.New().String()[:8]+".sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate registration endpoint: %w", err)
	}

	return &Endpoint{dir: dir, ln: ln, sock: sock}, nil
}

// Register publishes the endpoint under a service name so other parties
// can rendezvous with it. Fails if the name is already taken.
func (e *Endpoint) Register(name string) error {
	regPath := filepath.Join(e.dir, name)
	if err := os.Symlink(e.sock, regPath); err != nil {
		return fmt.Errorf("failed to register endpoint as %q: %w", name, err)
	}
	e.name = name
	return nil
}

// Accept waits for the next connection to the endpoint.
func (e *Endpoint) Accept() (net.Conn, error) {
	return e.ln.Accept()
}

// ServiceName returns the registered name, or empty if unregistered.
func (e *Endpoint) ServiceName() string {
	return e.name
}

// Close tears down the listener and removes the registration. Safe to
// call more than once.
func (e *Endpoint) Close() error {
	var err error
	e.closeO.Do(func() {
		err = e.ln.Close()
		if e.name != "" {
			_ = os.Remove(filepath.Join(e.dir, e.name))
		}
		_ = os.Remove(e.sock)
	})
	return err
}
