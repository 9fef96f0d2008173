package present

import (
	"testing"

	"github.com/dkeye/Visage/internal/domain"
	"github.com/dkeye/Visage/internal/testutil"
)

func subscribed(id domain.Identity, source domain.Source) *domain.Publication {
	return &domain.Publication{Participant: id, Source: source, Subscribed: true}
}

func TestReconcileIsIdempotent(t *testing.T) {
	rec := &testutil.RecordingRenderer{}
	p := NewPresenter(rec)
	p.SetLocalIdentity("user-1")

	pub := subscribed("agent-1", domain.SourceCamera)
	p.Reconcile("agent-1", domain.SourceCamera, pub)
	p.Reconcile("agent-1", domain.SourceCamera, pub)
	p.Reconcile("agent-1", domain.SourceCamera, pub)

	if got := rec.CountPrefix("attach:"); got != 1 {
		t.Errorf("expected exactly 1 attach, got %d: %v", got, rec.Snapshot())
	}
	if len(p.Sinks()) != 1 {
		t.Errorf("expected 1 sink, got %d", len(p.Sinks()))
	}

	p.Reconcile("agent-1", domain.SourceCamera, nil)
	p.Reconcile("agent-1", domain.SourceCamera, nil)

	if got := rec.CountPrefix("detach:"); got != 1 {
		t.Errorf("expected exactly 1 detach, got %d: %v", got, rec.Snapshot())
	}
	if len(p.Sinks()) != 0 {
		t.Errorf("expected no sinks after removal, got %d", len(p.Sinks()))
	}
}

func TestMutedPublicationHasNoSink(t *testing.T) {
	rec := &testutil.RecordingRenderer{}
	p := NewPresenter(rec)

	pub := subscribed("agent-1", domain.SourceCamera)
	p.Reconcile("agent-1", domain.SourceCamera, pub)

	pub.Muted = true
	p.Reconcile("agent-1", domain.SourceCamera, pub)
	if len(p.Sinks()) != 0 {
		t.Fatalf("muted publication must have no sink, got %v", p.Sinks())
	}

	pub.Muted = false
	p.Reconcile("agent-1", domain.SourceCamera, pub)
	if len(p.Sinks()) != 1 {
		t.Fatalf("unmuted publication must regain its sink")
	}
}

func TestLocalCameraIsMirrored(t *testing.T) {
	rec := &testutil.RecordingRenderer{}
	p := NewPresenter(rec)
	p.SetLocalIdentity("user-1")

	p.Reconcile("user-1", domain.SourceCamera, subscribed("user-1", domain.SourceCamera))
	p.Reconcile("agent-1", domain.SourceCamera, subscribed("agent-1", domain.SourceCamera))

	for _, s := range p.Sinks() {
		wantMirror := s.Identity == "user-1"
		if s.Mirrored != wantMirror {
			t.Errorf("sink %s/%s mirrored=%v, want %v", s.Identity, s.Source, s.Mirrored, wantMirror)
		}
	}
}

func TestLocalMicrophoneIsNeverAttached(t *testing.T) {
	rec := &testutil.RecordingRenderer{}
	p := NewPresenter(rec)
	p.SetLocalIdentity("user-1")

	p.Reconcile("user-1", domain.SourceMicrophone, subscribed("user-1", domain.SourceMicrophone))
	if len(p.Sinks()) != 0 {
		t.Fatalf("local microphone must not be looped back, got %v", p.Sinks())
	}

	// A remote microphone does get a sink.
	p.Reconcile("agent-1", domain.SourceMicrophone, subscribed("agent-1", domain.SourceMicrophone))
	if len(p.Sinks()) != 1 {
		t.Fatalf("remote microphone must be audible, got %v", p.Sinks())
	}
}

func TestReleaseAllDetachesOnlyThatParticipant(t *testing.T) {
	rec := &testutil.RecordingRenderer{}
	p := NewPresenter(rec)

	p.Reconcile("agent-1", domain.SourceCamera, subscribed("agent-1", domain.SourceCamera))
	p.Reconcile("agent-1", domain.SourceMicrophone, subscribed("agent-1", domain.SourceMicrophone))
	p.Reconcile("agent-2", domain.SourceCamera, subscribed("agent-2", domain.SourceCamera))

	p.ReleaseAll("agent-1")

	sinks := p.Sinks()
	if len(sinks) != 1 || sinks[0].Identity != "agent-2" {
		t.Errorf("expected only agent-2's sink to survive, got %v", sinks)
	}
	if got := rec.CountPrefix("detach:agent-1/"); got != 2 {
		t.Errorf("expected 2 detaches for agent-1, got %d", got)
	}
}

func TestResetDetachesEverything(t *testing.T) {
	rec := &testutil.RecordingRenderer{}
	p := NewPresenter(rec)
	p.SetLocalIdentity("user-1")

	p.Reconcile("user-1", domain.SourceCamera, subscribed("user-1", domain.SourceCamera))
	p.Reconcile("agent-1", domain.SourceCamera, subscribed("agent-1", domain.SourceCamera))

	p.Reset()

	if len(p.Sinks()) != 0 {
		t.Errorf("expected no sinks after reset, got %v", p.Sinks())
	}
	if got := rec.CountPrefix("detach:"); got != 2 {
		t.Errorf("expected 2 detaches on reset, got %d", got)
	}
}
