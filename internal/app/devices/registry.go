// Package devices tracks the available media input/output endpoints.
package devices

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/domain"
)

// Enumerator lists the currently available devices.
type Enumerator interface {
	EnumerateDevices() ([]domain.DeviceDescriptor, error)
}

// Switcher re-routes a live capture to another device.
type Switcher interface {
	SwitchActiveDevice(ctx context.Context, kind domain.DeviceKind, deviceID string) error
}

// Registry holds the per-kind device lists. Every refresh replaces the
// previous list for each kind wholesale; no incremental diffing, so
// unplugged devices can never linger.
type Registry struct {
	mu       sync.RWMutex
	byKind   map[domain.DeviceKind][]domain.DeviceDescriptor
	enum     Enumerator
	switcher Switcher
}

func NewRegistry(enum Enumerator, switcher Switcher) *Registry {
	return &Registry{
		byKind:   make(map[domain.DeviceKind][]domain.DeviceDescriptor),
		enum:     enum,
		switcher: switcher,
	}
}

// Refresh re-enumerates and replaces the stored lists.
func (r *Registry) Refresh() error {
	if r.enum == nil {
		return fmt.Errorf("refresh devices: no enumerator bound")
	}
	found, err := r.enum.EnumerateDevices()
	if err != nil {
		return fmt.Errorf("refresh devices: %w", err)
	}

	next := make(map[domain.DeviceKind][]domain.DeviceDescriptor)
	for _, d := range found {
		next[d.Kind] = append(next[d.Kind], d)
	}

	r.mu.Lock()
	r.byKind = next
	r.mu.Unlock()

	log.Info().Str("module", "devices").Int("count", len(found)).Msg("device list refreshed")
	return nil
}

// Devices returns a copy of the list for one kind, in enumeration order.
func (r *Registry) Devices(kind domain.DeviceKind) []domain.DeviceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.DeviceDescriptor, len(r.byKind[kind]))
	copy(out, r.byKind[kind])
	return out
}

// All returns copies of every per-kind list.
func (r *Registry) All() map[domain.DeviceKind][]domain.DeviceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.DeviceKind][]domain.DeviceDescriptor, len(r.byKind))
	for kind, list := range r.byKind {
		cp := make([]domain.DeviceDescriptor, len(list))
		copy(cp, list)
		out[kind] = cp
	}
	return out
}

// Switch delegates the actual re-route to the session controller.
func (r *Registry) Switch(ctx context.Context, kind domain.DeviceKind, deviceID string) error {
	if r.switcher == nil {
		return fmt.Errorf("switch device: no switcher bound")
	}
	return r.switcher.SwitchActiveDevice(ctx, kind, deviceID)
}

// Reset drops all stored lists.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.byKind = make(map[domain.DeviceKind][]domain.DeviceDescriptor)
	r.mu.Unlock()
}
