// Package room implements core.RoomTransport over a websocket signaling
// channel and a pion PeerConnection.
package room

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

type Config struct {
	ICEServers  []string
	DialTimeout time.Duration
	PingPeriod  time.Duration
}

func DefaultConfig() Config {
	return Config{
		ICEServers:  []string{"stun:stun.l.google.com:19302"},
		DialTimeout: 10 * time.Second,
		PingPeriod:  25 * time.Second,
	}
}

type Transport struct {
	cfg Config
}

func NewTransport(cfg Config) *Transport {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.PingPeriod == 0 {
		cfg.PingPeriod = 25 * time.Second
	}
	return &Transport{cfg: cfg}
}

// Connect dials the signaling endpoint, joins with the credential and
// returns a live handle. Room state present before the join (existing
// participants and their tracks) is replayed onto the event channel
// before any later event, so the consumer observes one ordered stream.
func (t *Transport) Connect(ctx context.Context, url, credential string, opts core.ConnectOptions) (core.RoomHandle, error) {
	if n := len(opts.LocalIdentity); n > domain.MaxIdentityLen {
		return nil, fmt.Errorf("local identity too long: %d > %d bytes", n, domain.MaxIdentityLen)
	}

	dialer := websocket.Dialer{HandshakeTimeout: t.cfg.DialTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)

	ws, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial signaling: %w", err)
	}

	h := newRoomHandle(t.cfg, ws, opts)

	if err := h.buildPeerConnection(); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("peer connection: %w", err)
	}

	if err := h.join(credential); err != nil {
		h.closeInternal("join failed")
		return nil, fmt.Errorf("join room: %w", err)
	}

	h.start()
	log.Info().Str("module", "room").Str("local", string(h.local)).Msg("room joined")
	return h, nil
}

// EnumerateDevices lists the capture endpoints the platform drivers see.
func (t *Transport) EnumerateDevices() ([]domain.DeviceDescriptor, error) {
	return enumerateDevices()
}
