// Package testutil provides hand-written fakes for the transport and
// presentation boundaries.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

// FakeHandle is a scriptable core.RoomHandle. Tests push events with
// Emit and inspect the recorded calls.
type FakeHandle struct {
	mu sync.Mutex

	Local    domain.Identity
	EventsCh chan core.RoomEvent

	PublishErr   map[domain.Source]error
	publishGate  map[domain.Source]chan struct{}
	Published    map[domain.Source]string
	Unpublished  []domain.Source
	Switched     map[domain.DeviceKind]string
	SwitchErr    error
	SentTopics   []string
	SentPayloads []string
	SendErr      error
	CloseCalls   int
	closed       bool
}

func NewFakeHandle(local domain.Identity) *FakeHandle {
	return &FakeHandle{
		Local:       local,
		EventsCh:    make(chan core.RoomEvent, 64),
		PublishErr:  make(map[domain.Source]error),
		publishGate: make(map[domain.Source]chan struct{}),
		Published:   make(map[domain.Source]string),
		Switched:    make(map[domain.DeviceKind]string),
	}
}

func (h *FakeHandle) Events() <-chan core.RoomEvent  { return h.EventsCh }
func (h *FakeHandle) LocalIdentity() domain.Identity { return h.Local }

// BlockPublish makes the next PublishSource for the source wait until
// the returned release func is called.
func (h *FakeHandle) BlockPublish(source domain.Source) (release func()) {
	gate := make(chan struct{})
	h.mu.Lock()
	h.publishGate[source] = gate
	h.mu.Unlock()
	return func() { close(gate) }
}

func (h *FakeHandle) PublishSource(_ context.Context, source domain.Source, deviceID string) error {
	h.mu.Lock()
	gate := h.publishGate[source]
	delete(h.publishGate, source)
	h.mu.Unlock()
	if gate != nil {
		<-gate
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.PublishErr[source]; err != nil {
		return err
	}
	h.Published[source] = deviceID
	return nil
}

func (h *FakeHandle) UnpublishSource(_ context.Context, source domain.Source) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.Published, source)
	h.Unpublished = append(h.Unpublished, source)
	return nil
}

func (h *FakeHandle) SwitchInputDevice(_ context.Context, kind domain.DeviceKind, deviceID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SwitchErr != nil {
		return h.SwitchErr
	}
	h.Switched[kind] = deviceID
	return nil
}

func (h *FakeHandle) SendData(_ context.Context, topic string, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SendErr != nil {
		return h.SendErr
	}
	h.SentTopics = append(h.SentTopics, topic)
	h.SentPayloads = append(h.SentPayloads, string(payload))
	return nil
}

func (h *FakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.CloseCalls++
	if !h.closed {
		h.closed = true
		close(h.EventsCh)
	}
	return nil
}

func (h *FakeHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Emit delivers one event to the consumer.
func (h *FakeHandle) Emit(ev core.RoomEvent) {
	h.EventsCh <- ev
}

// PublishedSource reports whether the source is currently published.
func (h *FakeHandle) PublishedSource(source domain.Source) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.Published[source]
	return ok
}

// FakeTransport hands out a scripted handle.
type FakeTransport struct {
	mu sync.Mutex

	Handle       *FakeHandle
	ConnectErr   error
	Devices      []domain.DeviceDescriptor
	EnumErr      error
	ConnectCalls int
	LastOpts     core.ConnectOptions
}

func (t *FakeTransport) Connect(_ context.Context, _, _ string, opts core.ConnectOptions) (core.RoomHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ConnectCalls++
	t.LastOpts = opts
	if t.ConnectErr != nil {
		return nil, t.ConnectErr
	}
	if t.Handle == nil {
		return nil, fmt.Errorf("no handle scripted")
	}
	return t.Handle, nil
}

func (t *FakeTransport) EnumerateDevices() ([]domain.DeviceDescriptor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Devices, t.EnumErr
}
