package coordinator

import (
	"github.com/osa030/handset/internal/app/input"
	"github.com/osa030/handset/internal/infra/mopidy"
	"github.com/osa030/handset/internal/infra/voip"
)

// EventType discriminates the events on the coordinator channel.
type EventType int

const (
	EventInput EventType = iota
	EventIncomingCall
	EventCallState
	EventRegistration
	EventPlayback
)

func (t EventType) String() string {
	switch t {
	case EventInput:
		return "input"
	case EventIncomingCall:
		return "incoming_call"
	case EventCallState:
		return "call_state"
	case EventRegistration:
		return "registration"
	case EventPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

// Event carries one producer observation to the coordinator. Only the fields
// relevant to its type are populated.
type Event struct {
	Type         EventType
	Input        input.Event
	CallID       string
	CallState    voip.CallState
	Caller       voip.Caller
	Registration voip.RegistrationState
	Playback     mopidy.Event
}
