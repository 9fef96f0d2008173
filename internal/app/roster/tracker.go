// Package roster owns the set of known participants and their
// publication state, and fans track transitions out to the presenter.
package roster

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

type pubKey struct {
	id     domain.Identity
	source domain.Source
}

// SinkReconciler is the slice of the presenter the tracker needs.
type SinkReconciler interface {
	Reconcile(id domain.Identity, source domain.Source, pub *domain.Publication)
	ReleaseAll(id domain.Identity)
	SetSpeaking(id domain.Identity, speaking bool)
}

// Tracker is the authoritative participant registry for one session.
// All event handlers are idempotent: re-delivered events update state
// rather than duplicating it, unknown ids are logged anomalies.
type Tracker struct {
	mu           sync.RWMutex
	participants map[domain.Identity]*domain.Participant
	pubs         map[pubKey]*domain.Publication
	presenter    SinkReconciler
	projector    core.UIProjector
}

func NewTracker(presenter SinkReconciler, projector core.UIProjector) *Tracker {
	return &Tracker{
		participants: make(map[domain.Identity]*domain.Participant),
		pubs:         make(map[pubKey]*domain.Publication),
		presenter:    presenter,
		projector:    projector,
	}
}

// OnParticipantConnected inserts or updates a participant record.
func (t *Tracker) OnParticipantConnected(id domain.Identity, name string, kind domain.ParticipantKind) {
	t.mu.Lock()
	if p, ok := t.participants[id]; ok {
		p.Name = name
		p.Connected = true
		t.mu.Unlock()
		log.Warn().Str("module", "roster").Str("id", string(id)).Msg("duplicate participant connect, updated in place")
		t.projector.OnParticipantsChanged()
		return
	}
	t.participants[id] = domain.NewParticipant(id, name, kind)
	t.mu.Unlock()
	log.Info().Str("module", "roster").Str("id", string(id)).Str("kind", kindLabel(kind)).Msg("participant connected")
	t.projector.OnParticipantsChanged()
}

// OnParticipantDisconnected removes the participant, its publications
// and every sink it owns. No-op on unknown ids.
func (t *Tracker) OnParticipantDisconnected(id domain.Identity) {
	t.mu.Lock()
	if _, ok := t.participants[id]; !ok {
		t.mu.Unlock()
		log.Warn().Str("module", "roster").Str("id", string(id)).Msg("disconnect for unknown participant")
		return
	}
	delete(t.participants, id)
	for key := range t.pubs {
		if key.id == id {
			delete(t.pubs, key)
		}
	}
	t.mu.Unlock()

	t.presenter.ReleaseAll(id)
	log.Info().Str("module", "roster").Str("id", string(id)).Msg("participant disconnected")
	t.projector.OnParticipantsChanged()
}

// OnTrackSubscribed records the publication and re-evaluates its sink.
func (t *Tracker) OnTrackSubscribed(id domain.Identity, source domain.Source) {
	t.setPubState(id, source, func(p *domain.Publication) { p.Subscribed = true })
}

// OnTrackUnsubscribed destroys the publication record and detaches its
// sink; a later subscribe starts from a fresh record.
func (t *Tracker) OnTrackUnsubscribed(id domain.Identity, source domain.Source) {
	t.mu.Lock()
	if _, ok := t.participants[id]; !ok {
		t.mu.Unlock()
		log.Warn().Str("module", "roster").Str("id", string(id)).Str("source", source.String()).Msg("track event for unknown participant")
		return
	}
	key := pubKey{id: id, source: source}
	if _, ok := t.pubs[key]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.pubs, key)
	t.mu.Unlock()

	t.presenter.Reconcile(id, source, nil)
	t.projector.OnParticipantsChanged()
}

func (t *Tracker) OnTrackMuted(id domain.Identity, source domain.Source) {
	t.setPubState(id, source, func(p *domain.Publication) { p.Muted = true })
}

func (t *Tracker) OnTrackUnmuted(id domain.Identity, source domain.Source) {
	t.setPubState(id, source, func(p *domain.Publication) { p.Muted = false })
}

func (t *Tracker) setPubState(id domain.Identity, source domain.Source, mutate func(*domain.Publication)) {
	t.mu.Lock()
	if _, ok := t.participants[id]; !ok {
		t.mu.Unlock()
		log.Warn().Str("module", "roster").Str("id", string(id)).Str("source", source.String()).Msg("track event for unknown participant")
		return
	}
	key := pubKey{id: id, source: source}
	pub, ok := t.pubs[key]
	if !ok {
		pub = &domain.Publication{Participant: id, Source: source}
		t.pubs[key] = pub
	}
	mutate(pub)
	snapshot := *pub
	t.mu.Unlock()

	t.presenter.Reconcile(id, source, &snapshot)
	t.projector.OnParticipantsChanged()
}

// SetSpeaking updates the flag and forwards the overlay signal.
func (t *Tracker) SetSpeaking(id domain.Identity, speaking bool) {
	t.mu.Lock()
	p, ok := t.participants[id]
	if ok {
		p.Speaking = speaking
	}
	t.mu.Unlock()
	if !ok {
		log.Warn().Str("module", "roster").Str("id", string(id)).Msg("speaking signal for unknown participant")
		return
	}
	t.presenter.SetSpeaking(id, speaking)
	t.projector.OnParticipantsChanged()
}

// Participant returns a copy of one record.
func (t *Tracker) Participant(id domain.Identity) (domain.Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.participants[id]
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

// Publication returns a copy of one publication.
func (t *Tracker) Publication(id domain.Identity, source domain.Source) (domain.Publication, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pub, ok := t.pubs[pubKey{id: id, source: source}]
	if !ok {
		return domain.Publication{}, false
	}
	return *pub, true
}

// Snapshot returns copies of all participants. Filtering to a subset
// (e.g. agent-only) is the consumer's concern; the full set stays here.
func (t *Tracker) Snapshot() []domain.Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Participant, 0, len(t.participants))
	for _, p := range t.participants {
		out = append(out, *p)
	}
	return out
}

// Publications returns copies of all known publications.
func (t *Tracker) Publications() []domain.Publication {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Publication, 0, len(t.pubs))
	for _, pub := range t.pubs {
		out = append(out, *pub)
	}
	return out
}

// Reset clears all state; called on session teardown.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.participants = make(map[domain.Identity]*domain.Participant)
	t.pubs = make(map[pubKey]*domain.Publication)
	t.mu.Unlock()
	t.projector.OnParticipantsChanged()
}

func kindLabel(k domain.ParticipantKind) string {
	if k == domain.KindLocal {
		return "local"
	}
	return "remote"
}
