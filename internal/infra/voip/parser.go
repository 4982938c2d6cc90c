// Package voip drives a linphonec subprocess for SIP calling.
package voip

import (
	"regexp"
	"strings"
)

// RegistrationState represents the SIP registration state.
type RegistrationState int

const (
	RegistrationNone RegistrationState = iota
	RegistrationInProgress
	RegistrationOK
	RegistrationFailed
	RegistrationCleared
)

func (s RegistrationState) String() string {
	switch s {
	case RegistrationNone:
		return "none"
	case RegistrationInProgress:
		return "in_progress"
	case RegistrationOK:
		return "ok"
	case RegistrationFailed:
		return "failed"
	case RegistrationCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// CallState represents the state of a SIP call.
type CallState int

const (
	CallIdle CallState = iota
	CallIncomingRinging
	CallOutgoingProgress
	CallConnected
	CallReleased
	CallError
)

func (s CallState) String() string {
	switch s {
	case CallIdle:
		return "idle"
	case CallIncomingRinging:
		return "incoming_ringing"
	case CallOutgoingProgress:
		return "outgoing_progress"
	case CallConnected:
		return "connected"
	case CallReleased:
		return "released"
	case CallError:
		return "error"
	default:
		return "unknown"
	}
}

// Caller identifies the remote party of a call.
type Caller struct {
	Name    string // display name, may be empty
	Address string // sip:user@host
}

// DisplayName returns the name when known, the SIP address otherwise.
func (c Caller) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Address
}

// Event represents a change parsed from linphonec output.
type Event struct {
	Registration    RegistrationState
	RegChanged      bool
	Call            CallState
	CallChanged     bool
	CallID          string // assigned by the driver, stable for a call's lifetime
	Caller          Caller
	RegistrationFor string // identity the registration line refers to
}

var (
	// Receiving new incoming call from "Alice" <sip:alice@example.com>, assigned id 1
	incomingRe = regexp.MustCompile(`Receiving new incoming call from\s+(?:"([^"]*)"\s*)?<?(sip:[^>,\s]+)>?`)
	// Registration on <sip:example.com> for sip:bob@example.com successful.
	registrationRe = regexp.MustCompile(`Registration on\s+\S+\s+(?:for\s+(\S+)\s+)?(successful|failed|in progress|cleared)`)
	// Establishing call id to <sip:alice@example.com>, assigned id 2
	outgoingRe = regexp.MustCompile(`Establishing call id to\s+<?(sip:[^>,\s]+)>?`)
)

// ParseLine classifies one line of linphonec output. The second return value
// is false when the line carries no state change.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}

	if m := incomingRe.FindStringSubmatch(line); m != nil {
		return Event{
			Call:        CallIncomingRinging,
			CallChanged: true,
			Caller:      Caller{Name: m[1], Address: m[2]},
		}, true
	}

	if m := registrationRe.FindStringSubmatch(line); m != nil {
		ev := Event{RegChanged: true, RegistrationFor: m[1]}
		switch m[2] {
		case "successful":
			ev.Registration = RegistrationOK
		case "failed":
			ev.Registration = RegistrationFailed
		case "in progress":
			ev.Registration = RegistrationInProgress
		case "cleared":
			ev.Registration = RegistrationCleared
		}
		return ev, true
	}

	if m := outgoingRe.FindStringSubmatch(line); m != nil {
		return Event{
			Call:        CallOutgoingProgress,
			CallChanged: true,
			Caller:      Caller{Address: m[1]},
		}, true
	}

	switch {
	case strings.HasPrefix(line, "Call answered") || line == "Connected.":
		return Event{Call: CallConnected, CallChanged: true}, true
	case strings.HasPrefix(line, "Call ended"),
		strings.HasPrefix(line, "Call terminated"),
		strings.Contains(line, "Call released"):
		return Event{Call: CallReleased, CallChanged: true}, true
	case strings.Contains(line, "Call error") || strings.Contains(line, "Call failed"):
		return Event{Call: CallError, CallChanged: true}, true
	case strings.HasPrefix(line, "Call declined"):
		return Event{Call: CallReleased, CallChanged: true}, true
	}

	return Event{}, false
}
