// Package input provides the button polling loop and press classification.
package input

import "time"

// Action represents a semantic input action.
type Action int

const (
	ActionSelect     Action = iota // Short press
	ActionBack                     // Double press
	ActionLongPress                // Press held beyond the long-press threshold
	ActionPTTPress                 // Raw press edge, after debounce
	ActionPTTRelease               // Raw release edge
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionSelect:
		return "select"
	case ActionBack:
		return "back"
	case ActionLongPress:
		return "long_press"
	case ActionPTTPress:
		return "ptt_press"
	case ActionPTTRelease:
		return "ptt_release"
	default:
		return "unknown"
	}
}

// Event represents a classified input event.
type Event struct {
	Action   Action
	At       time.Time
	Duration time.Duration // Hold duration, set on ActionPTTRelease
}
