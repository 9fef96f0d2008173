package domain

// ChatMessage is one entry in the session's append-only chat log.
// Timestamp is monotonic milliseconds since the session started.
type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Local     bool   `json:"local"`
}
