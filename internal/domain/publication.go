package domain

// Source identifies what a media track captures.
type Source int

const (
	SourceCamera Source = iota
	SourceMicrophone
	SourceScreenShare
	SourceOther
)

func (s Source) String() string {
	switch s {
	case SourceCamera:
		return "camera"
	case SourceMicrophone:
		return "microphone"
	case SourceScreenShare:
		return "screen_share"
	default:
		return "other"
	}
}

// MarshalJSON renders the source by its wire name.
func (s Source) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ParseSource maps a wire-level source name back to a Source.
// Unknown names collapse into SourceOther.
func ParseSource(s string) Source {
	switch s {
	case "camera":
		return SourceCamera
	case "microphone":
		return SourceMicrophone
	case "screen_share":
		return SourceScreenShare
	default:
		return SourceOther
	}
}

// Publication is a single media track a participant is sending.
// At most one exists per (participant, source) pair.
type Publication struct {
	Participant Identity `json:"participant"`
	Source      Source   `json:"source"`
	Subscribed  bool     `json:"subscribed"`
	Muted       bool     `json:"muted"`
}
