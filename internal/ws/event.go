package ws

import "encoding/json"

// Event is one websocket frame: an "{entity}:{action}" name plus the full
// entity payload.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// EventConnectionEstablished is sent to a client right after the upgrade and
// carries its socket id, which the client echoes back on mutating requests
// via the X-Socket-ID header.
const EventConnectionEstablished = "connection:established"

func (e Event) marshal() ([]byte, error) {
	return json.Marshal(e)
}
