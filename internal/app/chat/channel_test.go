package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/testutil"
)

type gateFunc func() error

func (g gateFunc) Ready() error { return g() }

var openGate = gateFunc(func() error { return nil })

type fakeSender struct {
	topics   []string
	payloads []string
	err      error
}

func (f *fakeSender) SendData(_ context.Context, topic string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func TestSendAppendsOptimistically(t *testing.T) {
	proj := &testutil.RecordingProjector{}
	ch := NewChannel(openGate, proj)
	sender := &fakeSender{}
	ch.Bind(sender)

	if err := ch.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs := ch.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Sender != LocalSender || msgs[0].Text != "hello" || !msgs[0].Local {
		t.Errorf("unexpected message %+v", msgs[0])
	}
	if len(sender.topics) != 1 || sender.topics[0] != Topic {
		t.Errorf("payload not shipped on topic %q: %v", Topic, sender.topics)
	}
	if proj.ChatCalls == 0 {
		t.Error("projector not notified")
	}
}

func TestSendFailureKeepsMessage(t *testing.T) {
	ch := NewChannel(openGate, core.NopProjector{})
	ch.Bind(&fakeSender{err: errors.New("channel closed")})

	err := ch.Send(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected send error")
	}
	if msgs := ch.Messages(); len(msgs) != 1 {
		t.Errorf("failed send must keep the optimistic message, got %d", len(msgs))
	}
}

func TestSendRejectedByGate(t *testing.T) {
	gate := gateFunc(func() error { return core.ErrSessionNotReady })
	ch := NewChannel(gate, core.NopProjector{})
	ch.Bind(&fakeSender{})

	err := ch.Send(context.Background(), "hello")
	if !errors.Is(err, core.ErrSessionNotReady) {
		t.Fatalf("expected ErrSessionNotReady, got %v", err)
	}
	if msgs := ch.Messages(); len(msgs) != 0 {
		t.Errorf("rejected send must not append, got %v", msgs)
	}
}

func TestMessagesKeepArrivalOrder(t *testing.T) {
	ch := NewChannel(openGate, core.NopProjector{})
	ch.Bind(&fakeSender{})

	ch.OnReceived("Ava", "hi")
	if err := ch.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	ch.OnReceived("Ava", "how are you")
	// At-least-once delivery is passed through verbatim.
	ch.OnReceived("Ava", "how are you")

	msgs := ch.Messages()
	want := []string{"hi", "hello", "how are you", "how are you"}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(msgs))
	}
	for i, text := range want {
		if msgs[i].Text != text {
			t.Errorf("msgs[%d].Text=%q, want %q", i, msgs[i].Text, text)
		}
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp < msgs[i-1].Timestamp {
			t.Errorf("timestamps not monotonic at %d: %d < %d", i, msgs[i].Timestamp, msgs[i-1].Timestamp)
		}
	}
}

func TestTimestampsAreSessionRelative(t *testing.T) {
	ch := NewChannel(openGate, core.NopProjector{})
	base := time.Unix(1000, 0)
	now := base
	ch.now = func() time.Time { return now }
	ch.Bind(&fakeSender{})

	now = base.Add(1500 * time.Millisecond)
	ch.OnReceived("Ava", "hi")

	msgs := ch.Messages()
	if msgs[0].Timestamp != 1500 {
		t.Errorf("timestamp=%d, want 1500", msgs[0].Timestamp)
	}
}

func TestResetClearsLogAndSender(t *testing.T) {
	ch := NewChannel(openGate, core.NopProjector{})
	ch.Bind(&fakeSender{})
	ch.OnReceived("Ava", "hi")

	ch.Reset()

	if msgs := ch.Messages(); len(msgs) != 0 {
		t.Errorf("expected empty log after reset, got %v", msgs)
	}
	if err := ch.Send(context.Background(), "late"); !errors.Is(err, core.ErrSessionNotReady) {
		t.Errorf("send after reset should report not ready, got %v", err)
	}
}
