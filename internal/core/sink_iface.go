package core

import "github.com/dkeye/Visage/internal/domain"

// SinkState describes one attached rendering target.
type SinkState struct {
	Identity domain.Identity `json:"identity"`
	Source   domain.Source   `json:"source"`
	// Mirrored is set only for the local participant's camera sink.
	Mirrored bool `json:"mirrored"`
}

// SinkRenderer is the presentation boundary for media sinks.
// The presenter guarantees idempotent call pairs: one Attach per sink
// until the matching Detach, never two in a row for the same key.
type SinkRenderer interface {
	AttachSink(s SinkState)
	DetachSink(id domain.Identity, source domain.Source)
	SetSpeaking(id domain.Identity, speaking bool)
}
