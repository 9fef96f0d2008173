package core

// StatusLevel classifies a status line for the UI.
type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusSuccess StatusLevel = "success"
	StatusError   StatusLevel = "error"
)

// UIProjector receives state-change notifications from the core.
// Implementations live at the presentation boundary and must not call
// back into the session from inside a notification.
type UIProjector interface {
	OnLog(msg string)
	OnStatus(level StatusLevel, msg string)
	OnParticipantsChanged()
	OnChatUpdated()
	OnButtonsEnabled(connected bool)
}

// NopProjector discards every notification.
type NopProjector struct{}

func (NopProjector) OnLog(string)                 {}
func (NopProjector) OnStatus(StatusLevel, string) {}
func (NopProjector) OnParticipantsChanged()       {}
func (NopProjector) OnChatUpdated()               {}
func (NopProjector) OnButtonsEnabled(bool)        {}
