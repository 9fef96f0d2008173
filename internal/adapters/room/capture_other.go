//go:build !linux

package room

import (
	"fmt"

	"github.com/pion/mediadevices"

	"github.com/dkeye/Visage/internal/domain"
)

// Local capture drivers are wired for Linux only; other platforms can
// still join, receive and chat.

func newCodecSelector() *mediadevices.CodecSelector {
	return nil
}

func captureTrack(_ *mediadevices.CodecSelector, source domain.Source, _ string) (mediadevices.Track, error) {
	return nil, fmt.Errorf("local %s capture not supported on this platform", source)
}

func enumerateDevices() ([]domain.DeviceDescriptor, error) {
	return nil, nil
}
