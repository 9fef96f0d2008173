package room

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

// envelope is the signaling frame. Type selects which fields are set.
type envelope struct {
	Type string `json:"type"`

	Token    string `json:"token,omitempty"`
	Identity string `json:"identity,omitempty"`
	Name     string `json:"name,omitempty"`
	Source   string `json:"source,omitempty"`
	Speaking bool   `json:"speaking,omitempty"`
	Text     string `json:"text,omitempty"`
	Reason   string `json:"reason,omitempty"`

	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`

	Participants []participantInfo `json:"participants,omitempty"`
}

type participantInfo struct {
	Identity string      `json:"identity"`
	Name     string      `json:"name"`
	Tracks   []trackInfo `json:"tracks"`
}

type trackInfo struct {
	Source string `json:"source"`
	Muted  bool   `json:"muted"`
}

// dataFrame is the payload format on the generic data channel.
type dataFrame struct {
	Topic string `json:"topic"`
	From  string `json:"from"`
	Name  string `json:"name,omitempty"`
	Data  string `json:"data"`
}

// join announces us to the room and waits for the welcome frame, which
// carries the authoritative local identity plus the pre-existing room
// state. That state is replayed as ordinary events so the consumer sees
// a single ordered stream.
func (h *roomHandle) join(credential string) error {
	joinFrame, err := json.Marshal(envelope{
		Type:     "join",
		Token:    credential,
		Identity: string(h.local),
		Name:     h.name,
	})
	if err != nil {
		return err
	}
	if err := h.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	if err := h.conn.WriteMessage(websocket.TextMessage, joinFrame); err != nil {
		return err
	}

	if err := h.conn.SetReadDeadline(time.Now().Add(h.cfg.DialTimeout)); err != nil {
		return err
	}
	_, data, err := h.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("waiting for welcome: %w", err)
	}
	_ = h.conn.SetReadDeadline(time.Time{})

	var welcome envelope
	if err := json.Unmarshal(data, &welcome); err != nil {
		return fmt.Errorf("bad welcome frame: %w", err)
	}
	if welcome.Type != "welcome" {
		return fmt.Errorf("expected welcome, got %q", welcome.Type)
	}
	if welcome.Identity != "" {
		h.local = domain.Identity(welcome.Identity)
	}

	for _, p := range welcome.Participants {
		h.emit(core.ParticipantJoined{Identity: domain.Identity(p.Identity), Name: p.Name})
		for _, tr := range p.Tracks {
			source := domain.ParseSource(tr.Source)
			h.emit(core.TrackSubscribed{Identity: domain.Identity(p.Identity), Source: source})
			if tr.Muted {
				h.emit(core.TrackMuted{Identity: domain.Identity(p.Identity), Source: source})
			}
		}
	}
	return nil
}

func (h *roomHandle) writePump() {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case data, ok := <-h.send:
			if !ok {
				return
			}
			if err := h.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "room").Msg("writePump set deadline")
				return
			}
			if err := h.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "room").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = h.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := h.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "room").Msg("writePump ping error")
				return
			}
		}
	}
}

func (h *roomHandle) readPump() {
	defer func() {
		h.emit(core.Disconnected{Reason: "signaling closed"})
		h.closeInternal("signaling closed")
	}()
	for {
		select {
		case <-h.done:
			return
		default:
			_, data, err := h.conn.ReadMessage()
			if err != nil {
				h.mu.Lock()
				closed := h.closed
				h.mu.Unlock()
				if !closed {
					log.Error().Err(err).Str("module", "room").Msg("readPump read error")
				}
				return
			}
			h.handleFrame(data)
		}
	}
}

func (h *roomHandle) handleFrame(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "room").Msg("bad signaling json")
		return
	}

	id := domain.Identity(env.Identity)
	switch env.Type {
	case "participant_joined":
		h.emit(core.ParticipantJoined{Identity: id, Name: env.Name})
	case "participant_left":
		h.emit(core.ParticipantLeft{Identity: id})
	case "track_subscribed":
		h.emit(core.TrackSubscribed{Identity: id, Source: domain.ParseSource(env.Source)})
	case "track_unsubscribed":
		h.emit(core.TrackUnsubscribed{Identity: id, Source: domain.ParseSource(env.Source)})
	case "track_muted":
		h.emit(core.TrackMuted{Identity: id, Source: domain.ParseSource(env.Source)})
	case "track_unmuted":
		h.emit(core.TrackUnmuted{Identity: id, Source: domain.ParseSource(env.Source)})
	case "speaking":
		h.emit(core.SpeakingChanged{Identity: id, Speaking: env.Speaking})
	case "chat":
		h.emit(core.ChatReceived{SenderID: id, SenderName: env.Name, Text: env.Text})
	case "devices_changed":
		h.emit(core.DevicesChanged{})
	case "offer":
		h.handleOffer(env.SDP)
	case "answer":
		h.handleAnswer(env.SDP)
	case "candidate":
		if env.Candidate != nil {
			if err := h.pc.AddICECandidate(*env.Candidate); err != nil {
				log.Error().Err(err).Str("module", "room").Msg("add ICE candidate")
			}
		}
	case "bye":
		h.emit(core.Disconnected{Reason: env.Reason})
		h.closeInternal("server bye")
	case "pong":
	default:
		log.Warn().Str("module", "room").Str("type", env.Type).Msg("unknown signal")
	}
}

// trySend queues a frame for the write pump, dropping it when the pump
// is congested or gone; signaling loss is surfaced by the read side.
func (h *roomHandle) trySend(env envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "room").Msg("marshal signal")
		return
	}
	select {
	case h.send <- data:
	default:
		log.Warn().Str("module", "room").Str("type", env.Type).Msg("signal send dropped")
	}
}

func (h *roomHandle) handleOffer(sdp string) {
	if err := h.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		log.Error().Err(err).Str("module", "room").Msg("set remote offer")
		return
	}
	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		log.Error().Err(err).Str("module", "room").Msg("create answer")
		return
	}
	// Ship the answer with the gathered candidates inline; anything
	// gathered later still trickles through OnICECandidate.
	gathered := webrtc.GatheringCompletePromise(h.pc)
	if err := h.pc.SetLocalDescription(answer); err != nil {
		log.Error().Err(err).Str("module", "room").Msg("set local answer")
		return
	}
	<-gathered
	h.trySend(envelope{Type: "answer", SDP: h.pc.LocalDescription().SDP})
}

func (h *roomHandle) handleAnswer(sdp string) {
	if err := h.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}); err != nil {
		log.Error().Err(err).Str("module", "room").Msg("set remote answer")
	}
}

// renegotiate sends a fresh offer after local publication changes.
func (h *roomHandle) renegotiate() error {
	offer, err := h.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := h.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local offer: %w", err)
	}
	h.trySend(envelope{Type: "offer", SDP: offer.SDP})
	return nil
}
