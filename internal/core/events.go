package core

import "github.com/dkeye/Visage/internal/domain"

// RoomEvent is one asynchronous notification from the transport.
// Variants form a closed set; handlers must process them strictly in
// the order the transport emits them.
type RoomEvent interface {
	isRoomEvent()
}

type ParticipantJoined struct {
	Identity domain.Identity
	Name     string
}

type ParticipantLeft struct {
	Identity domain.Identity
}

type TrackSubscribed struct {
	Identity domain.Identity
	Source   domain.Source
}

type TrackUnsubscribed struct {
	Identity domain.Identity
	Source   domain.Source
}

type TrackMuted struct {
	Identity domain.Identity
	Source   domain.Source
}

type TrackUnmuted struct {
	Identity domain.Identity
	Source   domain.Source
}

type SpeakingChanged struct {
	Identity domain.Identity
	Speaking bool
}

type ChatReceived struct {
	SenderID   domain.Identity
	SenderName string
	Text       string
}

type Reconnecting struct{}

type Reconnected struct{}

type Disconnected struct {
	Reason string
}

type DevicesChanged struct{}

func (ParticipantJoined) isRoomEvent()  {}
func (ParticipantLeft) isRoomEvent()    {}
func (TrackSubscribed) isRoomEvent()    {}
func (TrackUnsubscribed) isRoomEvent()  {}
func (TrackMuted) isRoomEvent()         {}
func (TrackUnmuted) isRoomEvent()       {}
func (SpeakingChanged) isRoomEvent()    {}
func (ChatReceived) isRoomEvent()       {}
func (Reconnecting) isRoomEvent()       {}
func (Reconnected) isRoomEvent()        {}
func (Disconnected) isRoomEvent()       {}
func (DevicesChanged) isRoomEvent()     {}
