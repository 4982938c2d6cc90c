// Package fsm provides the guarded application state machine.
package fsm

// State represents the application state.
type State int

const (
	StateIdle                 State = iota // Home screen, ready to start
	StateMenu                              // Main menu navigation
	StatePlaying                           // Playing audio, call subsystem not ready
	StatePlayingWithVoIP                   // Playing audio, call subsystem registered
	StatePaused                            // Playback paused by the user
	StatePausedByCall                      // Playback paused automatically for a call
	StatePlaylist                          // Browsing playlists
	StateCallIdle                          // Call subsystem ready, no active call
	StateCallIncoming                      // Incoming call ringing
	StateCallOutgoing                      // Outgoing call in progress
	StateCallActive                        // Call connected
	StateCallActiveMusicPaused             // Call connected with music paused in background
	StateSettings                          // Settings screen
	StateConnecting                        // Network connection setup
	StateError                             // Error state
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMenu:
		return "menu"
	case StatePlaying:
		return "playing"
	case StatePlayingWithVoIP:
		return "playing_with_voip"
	case StatePaused:
		return "paused"
	case StatePausedByCall:
		return "paused_by_call"
	case StatePlaylist:
		return "playlist"
	case StateCallIdle:
		return "call_idle"
	case StateCallIncoming:
		return "call_incoming"
	case StateCallOutgoing:
		return "call_outgoing"
	case StateCallActive:
		return "call_active"
	case StateCallActiveMusicPaused:
		return "call_active_music_paused"
	case StateSettings:
		return "settings"
	case StateConnecting:
		return "connecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsCall reports whether the state belongs to the call lifecycle.
func (s State) IsCall() bool {
	switch s {
	case StateCallIdle, StateCallIncoming, StateCallOutgoing,
		StateCallActive, StateCallActiveMusicPaused:
		return true
	default:
		return false
	}
}

// IsCallActive reports whether a call is ringing or connected.
func (s State) IsCallActive() bool {
	switch s {
	case StateCallIncoming, StateCallOutgoing, StateCallActive, StateCallActiveMusicPaused:
		return true
	default:
		return false
	}
}

// IsMusicPlaying reports whether music is audibly playing in the state.
func (s State) IsMusicPlaying() bool {
	return s == StatePlaying || s == StatePlayingWithVoIP
}
