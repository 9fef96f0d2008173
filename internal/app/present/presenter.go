// Package present owns every media sink: the mapping from
// (participant, source) to a renderable target.
package present

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

type sinkKey struct {
	id     domain.Identity
	source domain.Source
}

// Presenter converges sinks to the state their publication demands.
// Attach/detach pairs sent to the renderer are strictly alternating per
// key, so calling Reconcile twice in the same state is a no-op.
type Presenter struct {
	mu       sync.Mutex
	renderer core.SinkRenderer
	local    domain.Identity
	attached map[sinkKey]core.SinkState
}

func NewPresenter(renderer core.SinkRenderer) *Presenter {
	return &Presenter{
		renderer: renderer,
		attached: make(map[sinkKey]core.SinkState),
	}
}

// SetLocalIdentity must be called once per session, before any Reconcile.
func (p *Presenter) SetLocalIdentity(id domain.Identity) {
	p.mu.Lock()
	p.local = id
	p.mu.Unlock()
}

// Reconcile computes the desired sink state for one publication and
// applies the difference. A nil publication means the track is gone.
func (p *Presenter) Reconcile(id domain.Identity, source domain.Source, pub *domain.Publication) {
	p.mu.Lock()
	defer p.mu.Unlock()

	desired := pub != nil && pub.Subscribed && !pub.Muted
	// The local microphone is never looped back to local audio output.
	if source == domain.SourceMicrophone && id == p.local {
		desired = false
	}

	key := sinkKey{id: id, source: source}
	_, isAttached := p.attached[key]

	switch {
	case desired && !isAttached:
		s := core.SinkState{
			Identity: id,
			Source:   source,
			Mirrored: source == domain.SourceCamera && id == p.local,
		}
		p.attached[key] = s
		p.renderer.AttachSink(s)
		log.Debug().Str("module", "present").Str("id", string(id)).Str("source", source.String()).Msg("sink attached")
	case !desired && isAttached:
		delete(p.attached, key)
		p.renderer.DetachSink(id, source)
		log.Debug().Str("module", "present").Str("id", string(id)).Str("source", source.String()).Msg("sink detached")
	}
}

// ReleaseAll detaches and clears every sink owned by a participant.
func (p *Presenter) ReleaseAll(id domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.attached {
		if key.id != id {
			continue
		}
		delete(p.attached, key)
		p.renderer.DetachSink(key.id, key.source)
	}
	log.Debug().Str("module", "present").Str("id", string(id)).Msg("sinks released")
}

// SetSpeaking forwards the transport's speaking signal to the renderer.
// Purely presentational, no sink state is involved.
func (p *Presenter) SetSpeaking(id domain.Identity, speaking bool) {
	p.renderer.SetSpeaking(id, speaking)
}

// Sinks returns a snapshot of the currently attached sinks.
func (p *Presenter) Sinks() []core.SinkState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.SinkState, 0, len(p.attached))
	for _, s := range p.attached {
		out = append(out, s)
	}
	return out
}

// Reset detaches every sink and forgets the local identity; called on
// session teardown.
func (p *Presenter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.attached {
		p.renderer.DetachSink(key.id, key.source)
		delete(p.attached, key)
	}
	p.local = ""
}
