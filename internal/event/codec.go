package event

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Message is an encoded event. Data is the compact JSON payload, shared by
// every subscriber the message is fanned out to.
type Message struct {
	Kind Kind
	Data []byte
}

// Encode serializes ev once so the hub can fan the bytes out.
func Encode(ev Event) (Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Message{}, fmt.Errorf("encoding %s event: %w", ev.Kind(), err)
	}
	return Message{Kind: ev.Kind(), Data: data}, nil
}

type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wsEnvelope struct {
	Event Kind            `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DataFrame renders m as an unnamed SSE frame whose body is
// {"type": kind, "data": payload}.
func (m Message) DataFrame() []byte {
	body, _ := json.Marshal(envelope{Type: m.Kind, Data: m.Data})

	var b bytes.Buffer
	b.Grow(len(body) + 8)
	b.WriteString("data: ")
	b.Write(body)
	b.WriteString("\n\n")
	return b.Bytes()
}

// NamedFrame renders m as a named SSE frame: "event: kind" then "data: payload".
func (m Message) NamedFrame() []byte {
	var b bytes.Buffer
	b.Grow(len(m.Data) + len(m.Kind) + 16)
	b.WriteString("event: ")
	b.WriteString(string(m.Kind))
	b.WriteString("\ndata: ")
	b.Write(m.Data)
	b.WriteString("\n\n")
	return b.Bytes()
}

// WebSocketText renders m as a single JSON text message {"event": kind, "data": payload}.
func (m Message) WebSocketText() []byte {
	body, _ := json.Marshal(wsEnvelope{Event: m.Kind, Data: m.Data})
	return body
}

// ConnectedFrame is the confirmation written when a scoreboard stream opens.
var ConnectedFrame = []byte("data: {\"type\":\"connected\",\"message\":\"SSE connection established\"}\n\n")
