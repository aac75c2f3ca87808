// Package framebuffer provides the display surface and the OS
// registration endpoint a directly-booted device needs before its head
// services attach. Both are created fresh for each boot attempt and
// never reused across attempts.
package framebuffer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Service is the per-boot framebuffer surface for one device. It owns
// the backing store that attached head services render into.
type Service struct {
	udid    string
	surface *os.File

	closeOnce sync.Once
	closeErr  error
}

// NewService allocates the framebuffer backing store for a device under
// dir. Creation is attempted once per boot; failures abort the boot and
// are not retried.
func NewService(dir, udid string) (*Service, error) {
	if udid == "" {
		return nil, fmt.Errorf("framebuffer service requires a device UDID")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create framebuffer directory: %w", err)
	}

	path := filepath.Join(dir, udid+".surface")
	surface, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create framebuffer surface for %s: %w", udid, err)
	}

	return &Service{udid: udid, surface: surface}, nil
}

// UDID returns the device this surface belongs to.
func (s *Service) UDID() string {
	return s.udid
}

// Path returns the surface backing-store path.
func (s *Service) Path() string {
	return s.surface.Name()
}

// Close releases the surface. Safe to call more than once.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		path := s.surface.Name()
		s.closeErr = s.surface.Close()
		_ = os.Remove(path)
	})
	return s.closeErr
}
