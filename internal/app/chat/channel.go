// Package chat is the text side-channel over the session's generic
// data channel. Independent of media.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

// Topic tags chat payloads on the data channel.
const Topic = "chat"

// LocalSender is the display name used for optimistic local messages.
const LocalSender = "You"

// DataSender is the transport slice the channel sends through.
type DataSender interface {
	SendData(ctx context.Context, topic string, payload []byte) error
}

// Gate reports whether the session accepts control actions right now.
// Returns core.ErrSessionNotReady otherwise.
type Gate interface {
	Ready() error
}

// Channel keeps the session-scoped, append-only chat log.
// Messages are placed in arrival order; at-least-once delivery from the
// transport is passed through as-is, no dedup.
type Channel struct {
	mu        sync.RWMutex
	messages  []domain.ChatMessage
	sender    DataSender
	gate      Gate
	projector core.UIProjector
	started   time.Time
	now       func() time.Time
}

func NewChannel(gate Gate, projector core.UIProjector) *Channel {
	return &Channel{
		gate:      gate,
		projector: projector,
		started:   time.Now(),
		now:       time.Now,
	}
}

// Bind attaches the data sender of a freshly connected session.
func (c *Channel) Bind(sender DataSender) {
	c.mu.Lock()
	c.sender = sender
	c.started = c.now()
	c.mu.Unlock()
}

// Send appends an optimistic local message, then ships it. A send error
// surfaces to the caller; the optimistic message stays in the log
// (fails visibly, never silently dropped).
func (c *Channel) Send(ctx context.Context, text string) error {
	if err := c.gate.Ready(); err != nil {
		return fmt.Errorf("chat send: %w", err)
	}

	c.append(domain.ChatMessage{
		ID:     uuid.NewString(),
		Sender: LocalSender,
		Text:   text,
		Local:  true,
	})

	c.mu.RLock()
	sender := c.sender
	c.mu.RUnlock()
	if sender == nil {
		return fmt.Errorf("chat send: %w", core.ErrSessionNotReady)
	}
	if err := sender.SendData(ctx, Topic, []byte(text)); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("send failed")
		return fmt.Errorf("chat send: %w", err)
	}
	return nil
}

// OnReceived appends an inbound message in receipt order.
func (c *Channel) OnReceived(senderName, text string) {
	c.append(domain.ChatMessage{
		ID:     uuid.NewString(),
		Sender: senderName,
		Text:   text,
	})
	log.Debug().Str("module", "chat").Str("from", senderName).Msg("message received")
}

func (c *Channel) append(msg domain.ChatMessage) {
	c.mu.Lock()
	msg.Timestamp = c.now().Sub(c.started).Milliseconds()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	c.projector.OnChatUpdated()
}

// Messages returns a copy of the log in arrival order.
func (c *Channel) Messages() []domain.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Reset clears the log and detaches the sender; called on teardown.
func (c *Channel) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.sender = nil
	c.mu.Unlock()
	c.projector.OnChatUpdated()
}
