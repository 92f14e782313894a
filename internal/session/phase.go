package session

import "fmt"

type Phase string

const (
	Connecting  Phase = "connecting"
	Handshaking Phase = "handshaking"
	Streaming   Phase = "streaming"
	Draining    Phase = "draining"
	Closed      Phase = "closed"
)

// allowed lists forward transitions; Closed is reachable from every phase.
var allowed = map[Phase][]Phase{
	Connecting:  {Handshaking},
	Handshaking: {Streaming},
	Streaming:   {Draining},
}

func canTransition(from, to Phase) bool {
	if from == Closed {
		return false
	}
	if to == Closed {
		return true
	}
	for _, p := range allowed[from] {
		if p == to {
			return true
		}
	}
	return false
}

type transitionError struct {
	from, to Phase
}

func (e *transitionError) Error() string {
	return fmt.Sprintf("invalid phase transition %s -> %s", e.from, e.to)
}
