package devices

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/Visage/internal/domain"
)

type fakeEnum struct {
	devices []domain.DeviceDescriptor
	err     error
}

func (f *fakeEnum) EnumerateDevices() ([]domain.DeviceDescriptor, error) {
	return f.devices, f.err
}

type fakeSwitcher struct {
	kind     domain.DeviceKind
	deviceID string
	err      error
}

func (f *fakeSwitcher) SwitchActiveDevice(_ context.Context, kind domain.DeviceKind, deviceID string) error {
	if f.err != nil {
		return f.err
	}
	f.kind = kind
	f.deviceID = deviceID
	return nil
}

func TestRefreshReplacesListsWholesale(t *testing.T) {
	enum := &fakeEnum{devices: []domain.DeviceDescriptor{
		{ID: "cam-1", Kind: domain.DeviceVideoInput, Label: "Webcam"},
		{ID: "mic-1", Kind: domain.DeviceAudioInput, Label: "Mic"},
	}}
	r := NewRegistry(enum, &fakeSwitcher{})

	if err := r.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := r.Devices(domain.DeviceVideoInput); len(got) != 1 || got[0].ID != "cam-1" {
		t.Fatalf("unexpected video inputs: %v", got)
	}

	// cam-1 unplugged, cam-2 arrives: the old entry must not linger.
	enum.devices = []domain.DeviceDescriptor{
		{ID: "cam-2", Kind: domain.DeviceVideoInput, Label: "Other webcam"},
	}
	if err := r.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	vids := r.Devices(domain.DeviceVideoInput)
	if len(vids) != 1 || vids[0].ID != "cam-2" {
		t.Errorf("stale device survived refresh: %v", vids)
	}
	if got := r.Devices(domain.DeviceAudioInput); len(got) != 0 {
		t.Errorf("audio inputs should be gone after refresh: %v", got)
	}
}

func TestRefreshErrorKeepsPreviousLists(t *testing.T) {
	enum := &fakeEnum{devices: []domain.DeviceDescriptor{
		{ID: "cam-1", Kind: domain.DeviceVideoInput},
	}}
	r := NewRegistry(enum, &fakeSwitcher{})
	if err := r.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	enum.err = errors.New("enumeration exploded")
	if err := r.Refresh(); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := r.Devices(domain.DeviceVideoInput); len(got) != 1 {
		t.Errorf("failed refresh must not clear the lists, got %v", got)
	}
}

func TestSwitchDelegates(t *testing.T) {
	sw := &fakeSwitcher{}
	r := NewRegistry(&fakeEnum{}, sw)

	if err := r.Switch(context.Background(), domain.DeviceAudioInput, "mic-2"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if sw.kind != domain.DeviceAudioInput || sw.deviceID != "mic-2" {
		t.Errorf("switch not delegated, got %s/%s", sw.kind, sw.deviceID)
	}
}

func TestResetDropsLists(t *testing.T) {
	enum := &fakeEnum{devices: []domain.DeviceDescriptor{
		{ID: "cam-1", Kind: domain.DeviceVideoInput},
	}}
	r := NewRegistry(enum, &fakeSwitcher{})
	if err := r.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	r.Reset()
	if got := r.All(); len(got) != 0 {
		t.Errorf("expected empty registry after reset, got %v", got)
	}
}
