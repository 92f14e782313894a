package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action is a client-side control verb
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// Server states with protocol meaning; any other state is passed through
const (
	StateListening = "listening"
	StateStopped   = "stopped"
)

// Kind tags the variant of a decoded inbound message
type Kind int

const (
	KindOpaque Kind = iota // text that is not a state message (transcripts, unknown JSON, non-JSON)
	KindState              // JSON object carrying a "state" field
	KindBinary             // non-text frame
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindBinary:
		return "binary"
	default:
		return "opaque"
	}
}

// ControlMessage is the client->server control payload
type ControlMessage struct {
	Action Action `json:"action"`
}

// Encode renders a control message as a JSON text payload.
func Encode(a Action) ([]byte, error) {
	data, err := json.Marshal(ControlMessage{Action: a})
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", a, err)
	}
	return data, nil
}

// Event is one inbound message after a minimal structural decode.
// Raw always holds the payload exactly as received.
type Event struct {
	Kind  Kind
	State string
	Raw   []byte

	// Anomaly is set when the payload did not decode as JSON at all.
	Anomaly error
}

// Text returns the raw payload as a string
func (e Event) Text() string {
	return string(e.Raw)
}

type stateEnvelope struct {
	State *string `json:"state"`
}

// Decode classifies an inbound payload. text reports whether the frame was a
// websocket text frame.
func Decode(data []byte, text bool) Event {
	ev := Event{Kind: KindOpaque, Raw: data}
	if !text {
		ev.Kind = KindBinary
		return ev
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if len(trimmed) > 0 {
			ev.Anomaly = fmt.Errorf("not a JSON object")
		}
		return ev
	}

	var env stateEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		ev.Anomaly = fmt.Errorf("invalid JSON: %w", err)
		return ev
	}
	if env.State != nil {
		ev.Kind = KindState
		ev.State = *env.State
	}
	return ev
}

// Matcher decides which events carry protocol meaning.
// With Lenient set, the substring checks of the legacy clients are accepted in
// addition to the structural ones.
type Matcher struct {
	Lenient bool
}

var (
	legacyListening = []byte(`"listening"`)
	legacyStopped   = [][]byte{
		[]byte(`{"state": "stopped"}`),
		[]byte(`{"state":"stopped"}`),
	}
)

// IsListening reports whether ev acknowledges the start request.
func (m Matcher) IsListening(ev Event) bool {
	if ev.Kind == KindState {
		return ev.State == StateListening
	}
	return m.Lenient && ev.Kind != KindBinary && bytes.Contains(ev.Raw, legacyListening)
}

// IsStopped reports whether ev is the terminal stopped marker.
func (m Matcher) IsStopped(ev Event) bool {
	if ev.Kind == KindState {
		return ev.State == StateStopped
	}
	if !m.Lenient || ev.Kind == KindBinary {
		return false
	}
	for _, marker := range legacyStopped {
		if bytes.Contains(ev.Raw, marker) {
			return true
		}
	}
	return false
}
