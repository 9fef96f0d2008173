// Package session owns the single active session: connect/disconnect
// lifecycle, local publication toggles and reconnection handling.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/app/chat"
	"github.com/dkeye/Visage/internal/app/devices"
	"github.com/dkeye/Visage/internal/app/present"
	"github.com/dkeye/Visage/internal/app/roster"
	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

type Options struct {
	// LocalIdentity the client joins as; generated when empty.
	LocalIdentity domain.Identity
	LocalName     string
	// PublishOnConnect pre-publishes camera and microphone together
	// with the transport connect, so local media is live the instant
	// the remote participant joins.
	PublishOnConnect   bool
	CameraDeviceID     string
	MicrophoneDeviceID string
}

// Controller composes the tracker, presenter, device registry and chat
// channel around exactly one session. It is the only component allowed
// to create or destroy session state; everything else receives a
// reference and fails fast once the session is torn down.
type Controller struct {
	transport core.RoomTransport
	projector core.UIProjector
	opts      Options

	tracker   *roster.Tracker
	presenter *present.Presenter
	chat      *chat.Channel
	devices   *devices.Registry

	mu sync.Mutex
	// gen increments on every connect and teardown; async continuations
	// compare it to detect that their session is gone.
	gen       uint64
	state     core.ConnectionState
	handle    core.RoomHandle
	sessionID string
	toggling  map[domain.Source]bool
	active    map[domain.DeviceKind]string
	loopDone  chan struct{}
}

func NewController(transport core.RoomTransport, renderer core.SinkRenderer, projector core.UIProjector, opts Options) *Controller {
	if opts.LocalIdentity == "" {
		opts.LocalIdentity = domain.Identity("user-" + uuid.NewString()[:8])
	}
	if opts.LocalName == "" {
		opts.LocalName = string(opts.LocalIdentity)
	}
	c := &Controller{
		transport: transport,
		projector: projector,
		opts:      opts,
		state:     core.StateDisconnected,
		toggling:  make(map[domain.Source]bool),
		active:    make(map[domain.DeviceKind]string),
	}
	c.presenter = present.NewPresenter(renderer)
	c.tracker = roster.NewTracker(c.presenter, projector)
	c.chat = chat.NewChannel(c, projector)
	c.devices = devices.NewRegistry(c, c)
	return c
}

func (c *Controller) Tracker() *roster.Tracker      { return c.tracker }
func (c *Controller) Presenter() *present.Presenter { return c.presenter }
func (c *Controller) Chat() *chat.Channel           { return c.chat }
func (c *Controller) Devices() *devices.Registry    { return c.devices }

// SetSessionID records the provisioned call id for log correlation.
func (c *Controller) SetSessionID(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) State() core.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready gates control actions: only a fully connected session accepts
// toggles and sends. Reconnecting rejects, never queues.
func (c *Controller) Ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != core.StateConnected {
		return core.ErrSessionNotReady
	}
	return nil
}

// Connect opens the transport and, in publish-on-connect mode, awaits
// the local pre-publish together with it. Event subscriptions are live
// before Connect returns, so no event can be missed after success.
func (c *Controller) Connect(ctx context.Context, url, credential string) error {
	c.mu.Lock()
	if c.state != core.StateDisconnected {
		c.mu.Unlock()
		return fmt.Errorf("connect: %w", core.ErrAlreadyConnected)
	}
	c.state = core.StateConnecting
	c.gen++
	gen := c.gen
	sid := c.sessionID
	c.mu.Unlock()

	c.projector.OnStatus(core.StatusInfo, "connecting")
	log.Info().Str("module", "session").Str("session_id", sid).Msg("connecting")

	handle, err := c.transport.Connect(ctx, url, credential, core.ConnectOptions{
		LocalIdentity: c.opts.LocalIdentity,
		LocalName:     c.opts.LocalName,
	})
	if err != nil {
		c.abortConnect(gen)
		c.projector.OnStatus(core.StatusError, "connect failed: "+err.Error())
		return fmt.Errorf("connect: %w", err)
	}

	if c.opts.PublishOnConnect {
		if err := c.prePublish(ctx, handle); err != nil {
			_ = handle.Close()
			c.abortConnect(gen)
			c.projector.OnStatus(core.StatusError, "pre-publish failed: "+err.Error())
			return fmt.Errorf("connect: pre-publish: %w", err)
		}
	}

	c.mu.Lock()
	if c.gen != gen {
		// Disconnect raced the connect; unwind the fresh transport.
		c.mu.Unlock()
		_ = handle.Close()
		return fmt.Errorf("connect: %w", core.ErrSessionNotReady)
	}
	c.handle = handle
	c.state = core.StateConnected
	done := make(chan struct{})
	c.loopDone = done
	c.mu.Unlock()

	local := handle.LocalIdentity()
	c.presenter.SetLocalIdentity(local)
	c.tracker.OnParticipantConnected(local, c.opts.LocalName, domain.KindLocal)
	if c.opts.PublishOnConnect {
		c.tracker.OnTrackSubscribed(local, domain.SourceCamera)
		c.tracker.OnTrackSubscribed(local, domain.SourceMicrophone)
	}
	c.chat.Bind(handle)

	go c.run(gen, handle.Events(), done)

	log.Info().Str("module", "session").Str("session_id", sid).Str("local", string(local)).Msg("connected")
	c.projector.OnStatus(core.StatusSuccess, "connected")
	c.projector.OnButtonsEnabled(true)
	return nil
}

// prePublish brings up camera and microphone concurrently; both must
// succeed for the connect to count.
func (c *Controller) prePublish(ctx context.Context, h core.RoomHandle) error {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = h.PublishSource(ctx, domain.SourceCamera, c.opts.CameraDeviceID)
	}()
	go func() {
		defer wg.Done()
		errs[1] = h.PublishSource(ctx, domain.SourceMicrophone, c.opts.MicrophoneDeviceID)
	}()
	wg.Wait()
	return errors.Join(errs...)
}

func (c *Controller) abortConnect(gen uint64) {
	c.mu.Lock()
	if c.gen == gen {
		c.state = core.StateDisconnected
	}
	c.mu.Unlock()
}

// Disconnect tears everything down. Idempotent; safe while async
// operations are still in flight — their continuations notice the
// generation bump and drop out.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	if c.state == core.StateDisconnected && c.handle == nil {
		c.mu.Unlock()
		return
	}
	c.gen++
	h := c.handle
	c.handle = nil
	c.state = core.StateDisconnected
	c.toggling = make(map[domain.Source]bool)
	done := c.loopDone
	c.loopDone = nil
	sid := c.sessionID
	c.mu.Unlock()

	if h != nil {
		_ = h.Close()
	}
	if done != nil {
		<-done
	}
	c.resetAll("call ended")
	log.Info().Str("module", "session").Str("session_id", sid).Msg("disconnected")
}

// resetAll clears every component's session-scoped state.
func (c *Controller) resetAll(status string) {
	c.tracker.Reset()
	c.presenter.Reset()
	c.chat.Reset()
	c.devices.Reset()
	c.projector.OnButtonsEnabled(false)
	c.projector.OnStatus(core.StatusInfo, status)
}

// EnumerateDevices delegates to the transport (devices.Enumerator).
func (c *Controller) EnumerateDevices() ([]domain.DeviceDescriptor, error) {
	return c.transport.EnumerateDevices()
}
