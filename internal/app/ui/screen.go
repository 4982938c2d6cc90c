// Package ui provides the screen registry and LIFO screen stack.
package ui

// Screen is an opaque handle to a UI screen. Rendering is the display
// layer's concern; the stack only tracks which screen is active.
type Screen interface {
	// Name returns the registration name of the screen.
	Name() string
}

// EnterExiter is implemented by screens that want activation hooks.
// Enter fires when the screen becomes the top of the stack, Exit when it
// stops being the top (popped or covered).
type EnterExiter interface {
	Enter()
	Exit()
}

// BasicScreen is a minimal Screen implementation.
type BasicScreen struct {
	name string
}

// NewBasicScreen creates a screen handle with the given name.
func NewBasicScreen(name string) *BasicScreen {
	return &BasicScreen{name: name}
}

// Name returns the screen name.
func (s *BasicScreen) Name() string { return s.name }

// Well-known screen names used by the coordinator.
const (
	ScreenHome         = "home"
	ScreenMenu         = "menu"
	ScreenNowPlaying   = "now_playing"
	ScreenPlaylists    = "playlists"
	ScreenCall         = "call"
	ScreenContacts     = "contacts"
	ScreenIncomingCall = "incoming_call"
	ScreenOutgoingCall = "outgoing_call"
	ScreenInCall       = "in_call"
)

// CallScreens are the screens owned by the call lifecycle. They are pushed
// by the coordinator when a call starts and popped when it ends.
var CallScreens = map[string]bool{
	ScreenIncomingCall: true,
	ScreenOutgoingCall: true,
	ScreenInCall:       true,
}
