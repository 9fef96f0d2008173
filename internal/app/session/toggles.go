package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

// SetCameraEnabled toggles the local camera publication.
func (c *Controller) SetCameraEnabled(ctx context.Context, enabled bool) error {
	return c.toggle(ctx, domain.SourceCamera, enabled)
}

// SetMicrophoneEnabled toggles the local microphone publication.
func (c *Controller) SetMicrophoneEnabled(ctx context.Context, enabled bool) error {
	return c.toggle(ctx, domain.SourceMicrophone, enabled)
}

// toggle serializes concurrent toggles of the same source kind: a
// second call while one is in flight is rejected, not queued, so racing
// toggles can never leave an inverted end state.
func (c *Controller) toggle(ctx context.Context, source domain.Source, enabled bool) error {
	c.mu.Lock()
	if c.state != core.StateConnected {
		c.mu.Unlock()
		return fmt.Errorf("toggle %s: %w", source, core.ErrSessionNotReady)
	}
	if c.toggling[source] {
		c.mu.Unlock()
		return fmt.Errorf("toggle %s: %w", source, core.ErrToggleInProgress)
	}
	c.toggling[source] = true
	h := c.handle
	gen := c.gen
	deviceID := c.deviceFor(source)
	c.mu.Unlock()

	var err error
	if enabled {
		err = h.PublishSource(ctx, source, deviceID)
	} else {
		err = h.UnpublishSource(ctx, source)
	}

	c.mu.Lock()
	if c.gen != gen {
		// Session was torn down mid-toggle; cleanup already ran.
		c.mu.Unlock()
		return fmt.Errorf("toggle %s: %w", source, core.ErrSessionNotReady)
	}
	c.toggling[source] = false
	c.mu.Unlock()

	if err != nil {
		c.projector.OnStatus(core.StatusError, "toggle "+source.String()+" failed: "+err.Error())
		return fmt.Errorf("publish %s: %w", source, err)
	}

	local := h.LocalIdentity()
	if enabled {
		c.tracker.OnTrackSubscribed(local, source)
	} else {
		c.tracker.OnTrackUnsubscribed(local, source)
	}
	log.Info().Str("module", "session").Str("source", source.String()).Bool("enabled", enabled).Msg("local publication toggled")
	if enabled {
		c.projector.OnLog(source.String() + " enabled")
	} else {
		c.projector.OnLog(source.String() + " disabled")
	}
	return nil
}

// SwitchActiveDevice re-routes a live capture without interrupting the
// publication; subscribed/muted flags are untouched. On failure the
// previous device stays active.
func (c *Controller) SwitchActiveDevice(ctx context.Context, kind domain.DeviceKind, deviceID string) error {
	c.mu.Lock()
	if c.state != core.StateConnected {
		c.mu.Unlock()
		return fmt.Errorf("switch device: %w", core.ErrSessionNotReady)
	}
	h := c.handle
	gen := c.gen
	prev := c.active[kind]
	c.mu.Unlock()

	if err := h.SwitchInputDevice(ctx, kind, deviceID); err != nil {
		c.projector.OnStatus(core.StatusError, "device switch failed, keeping previous device")
		log.Error().Err(err).Str("module", "session").Str("kind", string(kind)).Str("prev", prev).Msg("device switch failed")
		return fmt.Errorf("switch device %s: %w", kind, err)
	}

	c.mu.Lock()
	if c.gen == gen {
		c.active[kind] = deviceID
	}
	c.mu.Unlock()

	log.Info().Str("module", "session").Str("kind", string(kind)).Str("device", deviceID).Msg("active device switched")
	return nil
}

// deviceFor resolves the device a publish should capture from: the last
// switched device wins over the configured default. Callers hold c.mu.
func (c *Controller) deviceFor(source domain.Source) string {
	switch source {
	case domain.SourceCamera:
		if id, ok := c.active[domain.DeviceVideoInput]; ok {
			return id
		}
		return c.opts.CameraDeviceID
	case domain.SourceMicrophone:
		if id, ok := c.active[domain.DeviceAudioInput]; ok {
			return id
		}
		return c.opts.MicrophoneDeviceID
	default:
		return ""
	}
}
