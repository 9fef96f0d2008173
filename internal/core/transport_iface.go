package core

import (
	"context"

	"github.com/dkeye/Visage/internal/domain"
)

// ConnectionState of the single active session.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

type ConnectOptions struct {
	// LocalIdentity the client joins the room as.
	LocalIdentity domain.Identity
	// LocalName is the display name announced to other participants.
	LocalName string
}

// RoomTransport opens sessions against the media-routing server.
// Owned by the adapter; the controller never touches transport internals.
type RoomTransport interface {
	Connect(ctx context.Context, url, credential string, opts ConnectOptions) (RoomHandle, error)
	// EnumerateDevices lists capture/playback endpoints. Valid without
	// an open session; labels may be empty before permission is granted.
	EnumerateDevices() ([]domain.DeviceDescriptor, error)
}

// RoomHandle is one live transport session.
// Events delivers notifications in emit order on a single channel and is
// closed when the session ends; after Close every method fails fast.
type RoomHandle interface {
	Events() <-chan RoomEvent
	LocalIdentity() domain.Identity

	// PublishSource starts sending the given local source.
	// deviceID selects a capture device; empty means default.
	PublishSource(ctx context.Context, source domain.Source, deviceID string) error
	// UnpublishSource stops sending the given local source.
	UnpublishSource(ctx context.Context, source domain.Source) error
	// SwitchInputDevice re-routes a live capture without unpublishing.
	SwitchInputDevice(ctx context.Context, kind domain.DeviceKind, deviceID string) error

	// SendData publishes a payload on the topic-tagged data channel.
	SendData(ctx context.Context, topic string, payload []byte) error

	Close() error
}
