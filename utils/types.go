package utils

// Event is a typed message pushed to web UI clients over the WebSocket
// endpoint.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}
