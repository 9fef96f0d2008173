package session

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

// run is the session's event loop: one goroutine applies transport
// events strictly in emit order until the channel closes. Events for a
// superseded generation are drained and dropped.
func (c *Controller) run(gen uint64, events <-chan core.RoomEvent, done chan struct{}) {
	defer close(done)
	for ev := range events {
		c.mu.Lock()
		stale := c.gen != gen
		c.mu.Unlock()
		if stale {
			continue
		}
		c.apply(gen, ev)
	}
}

func (c *Controller) apply(gen uint64, ev core.RoomEvent) {
	switch ev := ev.(type) {
	case core.ParticipantJoined:
		c.tracker.OnParticipantConnected(ev.Identity, ev.Name, domain.KindRemote)
		c.projector.OnLog("participant connected: " + string(ev.Identity))

	case core.ParticipantLeft:
		c.tracker.OnParticipantDisconnected(ev.Identity)
		c.projector.OnLog("participant disconnected: " + string(ev.Identity))

	case core.TrackSubscribed:
		c.tracker.OnTrackSubscribed(ev.Identity, ev.Source)
		c.projector.OnLog("subscribed to " + ev.Source.String() + " from " + string(ev.Identity))

	case core.TrackUnsubscribed:
		c.tracker.OnTrackUnsubscribed(ev.Identity, ev.Source)

	case core.TrackMuted:
		c.tracker.OnTrackMuted(ev.Identity, ev.Source)

	case core.TrackUnmuted:
		c.tracker.OnTrackUnmuted(ev.Identity, ev.Source)

	case core.SpeakingChanged:
		c.tracker.SetSpeaking(ev.Identity, ev.Speaking)

	case core.ChatReceived:
		name := ev.SenderName
		if name == "" {
			name = string(ev.SenderID)
		}
		c.chat.OnReceived(name, ev.Text)

	case core.Reconnecting:
		c.mu.Lock()
		if c.gen == gen && c.state == core.StateConnected {
			c.state = core.StateReconnecting
		}
		c.mu.Unlock()
		c.projector.OnStatus(core.StatusInfo, "reconnecting")
		log.Warn().Str("module", "session").Msg("reconnecting")

	case core.Reconnected:
		c.mu.Lock()
		if c.gen == gen && c.state == core.StateReconnecting {
			c.state = core.StateConnected
		}
		c.mu.Unlock()
		c.projector.OnStatus(core.StatusSuccess, "reconnected")
		log.Info().Str("module", "session").Msg("reconnected")

	case core.Disconnected:
		// Terminal: remote close or retry budget exhausted.
		c.teardownFromLoop(gen, ev.Reason)

	case core.DevicesChanged:
		if err := c.devices.Refresh(); err != nil {
			log.Error().Err(err).Str("module", "session").Msg("device refresh after change")
		}
	}
}

// teardownFromLoop performs the disconnect cleanup from inside the
// event loop; it must not wait on its own loopDone channel.
func (c *Controller) teardownFromLoop(gen uint64, reason string) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	h := c.handle
	c.handle = nil
	c.state = core.StateDisconnected
	c.toggling = make(map[domain.Source]bool)
	c.loopDone = nil
	c.mu.Unlock()

	if h != nil {
		_ = h.Close()
	}
	if reason == "" {
		reason = "connection lost"
	}
	c.resetAll("disconnected: " + reason)
	log.Info().Str("module", "session").Str("reason", reason).Msg("session closed by transport")
}
