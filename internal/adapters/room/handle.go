package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/mediadevices"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

var errHandleClosed = errors.New("room handle closed")

// roomHandle is one live transport session. All event producers funnel
// through the raw channel; a single forwarder goroutine preserves
// arrival order onto the public Events channel and closes it exactly
// once when the handle shuts down.
type roomHandle struct {
	cfg   Config
	local domain.Identity
	name  string

	conn *websocket.Conn
	send chan []byte

	pc       *webrtc.PeerConnection
	dc       *webrtc.DataChannel
	selector *mediadevices.CodecSelector

	raw    chan core.RoomEvent
	events chan core.RoomEvent
	done   chan struct{}

	mu           sync.Mutex
	closed       bool
	reconnecting bool
	senders      map[domain.Source]*webrtc.RTPSender
	tracks       map[domain.Source]mediadevices.Track
}

func newRoomHandle(cfg Config, ws *websocket.Conn, opts core.ConnectOptions) *roomHandle {
	return &roomHandle{
		cfg:     cfg,
		local:   opts.LocalIdentity,
		name:    opts.LocalName,
		conn:    ws,
		send:    make(chan []byte, 32),
		raw:     make(chan core.RoomEvent, 64),
		events:  make(chan core.RoomEvent, 64),
		done:    make(chan struct{}),
		senders: make(map[domain.Source]*webrtc.RTPSender),
		tracks:  make(map[domain.Source]mediadevices.Track),
	}
}

func (h *roomHandle) Events() <-chan core.RoomEvent  { return h.events }
func (h *roomHandle) LocalIdentity() domain.Identity { return h.local }

// start launches the pumps and the event forwarder.
func (h *roomHandle) start() {
	go h.forward()
	go h.writePump()
	go h.readPump()
}

// emit queues an event for the forwarder; dropped once the handle is
// shutting down.
func (h *roomHandle) emit(ev core.RoomEvent) {
	select {
	case h.raw <- ev:
	case <-h.done:
	}
}

// forward serializes all producers onto the public channel. On shutdown
// it drains what was already queued, then closes Events.
func (h *roomHandle) forward() {
	for {
		select {
		case ev := <-h.raw:
			h.events <- ev
		case <-h.done:
			for {
				select {
				case ev := <-h.raw:
					h.events <- ev
				default:
					close(h.events)
					return
				}
			}
		}
	}
}

// SendData publishes a payload on the topic-tagged data channel.
func (h *roomHandle) SendData(_ context.Context, topic string, payload []byte) error {
	h.mu.Lock()
	dc := h.dc
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return errHandleClosed
	}
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return fmt.Errorf("data channel not open")
	}

	frame, err := json.Marshal(dataFrame{Topic: topic, From: string(h.local), Data: string(payload)})
	if err != nil {
		return fmt.Errorf("send data: %w", err)
	}
	if err := dc.Send(frame); err != nil {
		return fmt.Errorf("send data: %w", err)
	}
	return nil
}

func (h *roomHandle) Close() error {
	h.closeInternal("local close")
	return nil
}

// closeInternal is idempotent; every teardown path ends here.
func (h *roomHandle) closeInternal(reason string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	tracks := h.tracks
	h.tracks = make(map[domain.Source]mediadevices.Track)
	h.mu.Unlock()

	// Best-effort leave so the server can drop us promptly.
	h.trySend(envelope{Type: "leave"})

	close(h.done)
	for _, track := range tracks {
		_ = track.Close()
	}
	if h.pc != nil {
		if err := h.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "room").Msg("peer connection close")
		}
	}
	_ = h.conn.Close()
	log.Info().Str("module", "room").Str("reason", reason).Msg("handle closed")
}
