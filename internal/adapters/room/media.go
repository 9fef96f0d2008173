package room

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/app/chat"
	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

const pliInterval = 3 * time.Second

// buildPeerConnection wires the pion API the way the platform capture
// layer needs it: codec selector when local capture is available,
// default codecs otherwise.
func (h *roomHandle) buildPeerConnection() error {
	mediaEngine := &webrtc.MediaEngine{}
	h.selector = newCodecSelector()
	if h.selector != nil {
		h.selector.Populate(mediaEngine)
	} else if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return err
	}

	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return err
	}

	// Generous ICE timeouts so a brief relay hiccup does not terminate
	// the call; the server performs its own retries underneath.
	se := webrtc.SettingEngine{}
	se.SetICETimeouts(30*time.Second, 120*time.Second, 2*time.Second)

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptorRegistry),
		webrtc.WithSettingEngine(se),
	)

	iceServers := make([]webrtc.ICEServer, 0, len(h.cfg.ICEServers))
	for _, u := range h.cfg.ICEServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{u}})
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return err
	}
	h.pc = pc

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "room").Str("peer_state", s.String()).Msg("peer state")
		switch s {
		case webrtc.PeerConnectionStateDisconnected:
			h.mu.Lock()
			h.reconnecting = true
			h.mu.Unlock()
			h.emit(core.Reconnecting{})
		case webrtc.PeerConnectionStateConnected:
			h.mu.Lock()
			wasReconnecting := h.reconnecting
			h.reconnecting = false
			h.mu.Unlock()
			if wasReconnecting {
				h.emit(core.Reconnected{})
			}
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			h.mu.Lock()
			closed := h.closed
			h.mu.Unlock()
			if !closed {
				h.emit(core.Disconnected{Reason: "media transport " + s.String()})
				h.closeInternal("peer " + s.String())
			}
		}
	})

	// Trickle local candidates to the server as they are gathered.
	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		init := cand.ToJSON()
		h.trySend(envelope{Type: "candidate", Candidate: &init})
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "room").
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("remote track")
		go h.drainTrack(track)
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			go h.sendPLI(track)
		}
	})

	dc, err := pc.CreateDataChannel("data", nil)
	if err != nil {
		return err
	}
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		h.handleData(msg.Data)
	})
	h.dc = dc

	return nil
}

// drainTrack keeps the receiver's RTP flowing. Decoded playout belongs
// to the presentation boundary, not this adapter.
func (h *roomHandle) drainTrack(track *webrtc.TrackRemote) {
	for {
		if _, _, err := track.ReadRTP(); err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Str("module", "room").Str("track_id", track.ID()).Msg("remote track ended")
			}
			return
		}
	}
}

// sendPLI periodically requests keyframes for a subscribed video track.
func (h *roomHandle) sendPLI(track *webrtc.TrackRemote) {
	ticker := time.NewTicker(pliInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			err := h.pc.WriteRTCP([]rtcp.Packet{
				&rtcp.PictureLossIndication{MediaSSRC: uint32(track.SSRC())},
			})
			if err != nil {
				return
			}
		}
	}
}

func (h *roomHandle) handleData(data []byte) {
	var frame dataFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Error().Err(err).Str("module", "room").Msg("bad data frame")
		return
	}
	switch frame.Topic {
	case chat.Topic:
		h.emit(core.ChatReceived{
			SenderID:   domain.Identity(frame.From),
			SenderName: frame.Name,
			Text:       frame.Data,
		})
	default:
		log.Debug().Str("module", "room").Str("topic", frame.Topic).Msg("data frame on unhandled topic")
	}
}

// PublishSource captures the local device and adds its track to the
// peer connection. Publishing an already-published source is a no-op.
func (h *roomHandle) PublishSource(_ context.Context, source domain.Source, deviceID string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errHandleClosed
	}
	if _, ok := h.senders[source]; ok {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	track, err := captureTrack(h.selector, source, deviceID)
	if err != nil {
		return fmt.Errorf("capture %s: %w", source, err)
	}

	sender, err := h.pc.AddTrack(track)
	if err != nil {
		_ = track.Close()
		return fmt.Errorf("add %s track: %w", source, err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = h.pc.RemoveTrack(sender)
		_ = track.Close()
		return errHandleClosed
	}
	h.senders[source] = sender
	h.tracks[source] = track
	h.mu.Unlock()

	h.trySend(envelope{Type: "publish", Source: source.String()})
	if err := h.renegotiate(); err != nil {
		return err
	}
	log.Info().Str("module", "room").Str("source", source.String()).Msg("local source published")
	return nil
}

// UnpublishSource removes the local track and releases the capture.
// Unpublishing an unpublished source is a no-op.
func (h *roomHandle) UnpublishSource(_ context.Context, source domain.Source) error {
	h.mu.Lock()
	sender, ok := h.senders[source]
	track := h.tracks[source]
	delete(h.senders, source)
	delete(h.tracks, source)
	closed := h.closed
	h.mu.Unlock()
	if !ok || closed {
		return nil
	}

	if err := h.pc.RemoveTrack(sender); err != nil {
		return fmt.Errorf("remove %s track: %w", source, err)
	}
	if track != nil {
		_ = track.Close()
	}

	h.trySend(envelope{Type: "unpublish", Source: source.String()})
	if err := h.renegotiate(); err != nil {
		return err
	}
	log.Info().Str("module", "room").Str("source", source.String()).Msg("local source unpublished")
	return nil
}

// SwitchInputDevice re-captures from the new device and swaps the track
// on the live sender, leaving the publication untouched.
func (h *roomHandle) SwitchInputDevice(_ context.Context, kind domain.DeviceKind, deviceID string) error {
	var source domain.Source
	switch kind {
	case domain.DeviceVideoInput:
		source = domain.SourceCamera
	case domain.DeviceAudioInput:
		source = domain.SourceMicrophone
	case domain.DeviceAudioOutput:
		// Playout routing is the renderer's concern; nothing to swap here.
		log.Info().Str("module", "room").Str("device", deviceID).Msg("audio output switch delegated to renderer")
		return nil
	default:
		return fmt.Errorf("switch device: unknown kind %q", kind)
	}

	h.mu.Lock()
	sender, active := h.senders[source]
	old := h.tracks[source]
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return errHandleClosed
	}
	if !active {
		// Nothing live to re-route; the next publish picks the device up.
		return nil
	}

	track, err := captureTrack(h.selector, source, deviceID)
	if err != nil {
		return fmt.Errorf("capture %s from %q: %w", source, deviceID, err)
	}
	if err := sender.ReplaceTrack(track); err != nil {
		_ = track.Close()
		return fmt.Errorf("replace %s track: %w", source, err)
	}

	h.mu.Lock()
	h.tracks[source] = track
	h.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	log.Info().Str("module", "room").Str("source", source.String()).Str("device", deviceID).Msg("input device switched")
	return nil
}
