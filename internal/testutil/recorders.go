package testutil

import (
	"fmt"
	"sync"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

// RecordingRenderer logs every sink transition in call order.
type RecordingRenderer struct {
	mu  sync.Mutex
	Ops []string
}

func (r *RecordingRenderer) AttachSink(s core.SinkState) {
	r.record(fmt.Sprintf("attach:%s/%s/mirrored=%v", s.Identity, s.Source, s.Mirrored))
}

func (r *RecordingRenderer) DetachSink(id domain.Identity, source domain.Source) {
	r.record(fmt.Sprintf("detach:%s/%s", id, source))
}

func (r *RecordingRenderer) SetSpeaking(id domain.Identity, speaking bool) {
	r.record(fmt.Sprintf("speaking:%s=%v", id, speaking))
}

func (r *RecordingRenderer) record(op string) {
	r.mu.Lock()
	r.Ops = append(r.Ops, op)
	r.mu.Unlock()
}

// Snapshot returns a copy of the recorded operations.
func (r *RecordingRenderer) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Ops))
	copy(out, r.Ops)
	return out
}

// CountPrefix counts recorded ops starting with the given prefix.
func (r *RecordingRenderer) CountPrefix(prefix string) int {
	n := 0
	for _, op := range r.Snapshot() {
		if len(op) >= len(prefix) && op[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// RecordingProjector counts projector notifications.
type RecordingProjector struct {
	mu               sync.Mutex
	Logs             []string
	Statuses         []string
	ParticipantCalls int
	ChatCalls        int
	ButtonStates     []bool
}

func (p *RecordingProjector) OnLog(msg string) {
	p.mu.Lock()
	p.Logs = append(p.Logs, msg)
	p.mu.Unlock()
}

func (p *RecordingProjector) OnStatus(level core.StatusLevel, msg string) {
	p.mu.Lock()
	p.Statuses = append(p.Statuses, string(level)+":"+msg)
	p.mu.Unlock()
}

func (p *RecordingProjector) OnParticipantsChanged() {
	p.mu.Lock()
	p.ParticipantCalls++
	p.mu.Unlock()
}

func (p *RecordingProjector) OnChatUpdated() {
	p.mu.Lock()
	p.ChatCalls++
	p.mu.Unlock()
}

func (p *RecordingProjector) OnButtonsEnabled(connected bool) {
	p.mu.Lock()
	p.ButtonStates = append(p.ButtonStates, connected)
	p.mu.Unlock()
}

// LastButtons returns the most recent buttons-enabled state.
func (p *RecordingProjector) LastButtons() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ButtonStates) == 0 {
		return false, false
	}
	return p.ButtonStates[len(p.ButtonStates)-1], true
}
