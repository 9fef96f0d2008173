package domain

// DeviceKind uses the browser mediaDevices naming so descriptors
// round-trip unchanged through the control surface.
type DeviceKind string

const (
	DeviceVideoInput  DeviceKind = "videoinput"
	DeviceAudioInput  DeviceKind = "audioinput"
	DeviceAudioOutput DeviceKind = "audiooutput"
)

// DeviceDescriptor describes one available input/output endpoint.
// ID and Label may be empty until local media permission is granted.
type DeviceDescriptor struct {
	ID    string     `json:"id"`
	Kind  DeviceKind `json:"kind"`
	Label string     `json:"label"`
}
