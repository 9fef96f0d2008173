// Package console renders sink and projector callbacks as terminal
// output for the CLI client.
package console

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

// Renderer logs sink transitions instead of painting video; the CLI has
// no surface to draw on, the control API exposes the same state to UIs.
type Renderer struct{}

func (Renderer) AttachSink(s core.SinkState) {
	log.Info().
		Str("module", "console").
		Str("id", string(s.Identity)).
		Str("source", s.Source.String()).
		Bool("mirrored", s.Mirrored).
		Msg("sink attached")
}

func (Renderer) DetachSink(id domain.Identity, source domain.Source) {
	log.Info().Str("module", "console").Str("id", string(id)).Str("source", source.String()).Msg("sink detached")
}

func (Renderer) SetSpeaking(id domain.Identity, speaking bool) {
	log.Debug().Str("module", "console").Str("id", string(id)).Bool("speaking", speaking).Msg("speaking")
}

// Projector writes the UI callback contract to the log.
type Projector struct{}

func (Projector) OnLog(msg string) {
	log.Info().Str("module", "console").Msg(msg)
}

func (Projector) OnStatus(level core.StatusLevel, msg string) {
	switch level {
	case core.StatusError:
		log.Error().Str("module", "console").Msg(msg)
	default:
		log.Info().Str("module", "console").Str("level", string(level)).Msg(msg)
	}
}

func (Projector) OnParticipantsChanged() {}

func (Projector) OnChatUpdated() {}

func (Projector) OnButtonsEnabled(connected bool) {
	log.Debug().Str("module", "console").Bool("connected", connected).Msg("controls")
}
