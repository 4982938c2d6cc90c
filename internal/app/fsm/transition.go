package fsm

// Trigger names shared between the transition table and the coordinator.
const (
	TriggerOpenMenu            = "open_menu"
	TriggerOpenSettings        = "open_settings"
	TriggerSelectSettings      = "select_settings"
	TriggerConnect             = "connect"
	TriggerConnected           = "connected"
	TriggerCancel              = "cancel"
	TriggerBack                = "back"
	TriggerHome                = "home"
	TriggerReset               = "reset"
	TriggerSelectMedia         = "select_media"
	TriggerSelectMediaWithVoIP = "select_media_with_voip"
	TriggerSelectPlaylist      = "select_playlist"
	TriggerLoadPlaylist        = "load_playlist"
	TriggerOpenVoIP            = "open_voip"
	TriggerPause               = "pause"
	TriggerResume              = "resume"
	TriggerStop                = "stop"
	TriggerMusicStarted        = "music_started"
	TriggerMusicPaused         = "music_paused"
	TriggerVoIPReady           = "voip_ready"
	TriggerAutoPauseForCall    = "auto_pause_for_call"
	TriggerIncomingCall        = "incoming_call"
	TriggerMakeCall            = "make_call"
	TriggerCallConnected       = "call_connected"
	TriggerCallAnswered        = "call_answered"
	TriggerCallEnded           = "call_ended"
	TriggerCallEndedAutoResume = "call_ended_auto_resume"
	TriggerCallEndedStayPaused = "call_ended_stay_paused"
)

// Guard is a side-effect-free predicate evaluated at transition time.
type Guard func() bool

// Transition represents a legal state transition.
type Transition struct {
	From    State
	To      State
	Trigger string
	Guard   Guard // optional, nil means unconditional
}

// Guards holds the predicates the transition table may consult.
// All fields are optional; a nil predicate makes its transitions unconditional.
type Guards struct {
	// VoIPReady reports whether the call subsystem is registered.
	VoIPReady Guard
}

// defaultTransitions builds the static transition table.
//
// The incoming_call trigger to StateCallIncoming is deliberately present on
// every non-call state so that a ring reaches the incoming-call state no
// matter what the device was doing.
func defaultTransitions(g Guards) []Transition {
	t := []Transition{
		// From idle
		{From: StateIdle, To: StateMenu, Trigger: TriggerOpenMenu},
		{From: StateIdle, To: StateSettings, Trigger: TriggerOpenSettings},
		{From: StateIdle, To: StateConnecting, Trigger: TriggerConnect},
		{From: StateIdle, To: StatePlaying, Trigger: TriggerMusicStarted},
		{From: StateIdle, To: StatePlayingWithVoIP, Trigger: TriggerMusicStarted, Guard: g.VoIPReady},

		// From menu
		{From: StateMenu, To: StateIdle, Trigger: TriggerBack},
		{From: StateMenu, To: StatePlaying, Trigger: TriggerSelectMedia},
		{From: StateMenu, To: StatePlayingWithVoIP, Trigger: TriggerSelectMediaWithVoIP, Guard: g.VoIPReady},
		{From: StateMenu, To: StatePlaylist, Trigger: TriggerSelectPlaylist},
		{From: StateMenu, To: StateCallIdle, Trigger: TriggerOpenVoIP},
		{From: StateMenu, To: StateSettings, Trigger: TriggerSelectSettings},
		{From: StateMenu, To: StatePlaying, Trigger: TriggerMusicStarted},
		{From: StateMenu, To: StatePlayingWithVoIP, Trigger: TriggerMusicStarted, Guard: g.VoIPReady},

		// From playing (call subsystem not ready)
		{From: StatePlaying, To: StatePaused, Trigger: TriggerPause},
		{From: StatePlaying, To: StatePaused, Trigger: TriggerMusicPaused},
		{From: StatePlaying, To: StateMenu, Trigger: TriggerBack},
		{From: StatePlaying, To: StateIdle, Trigger: TriggerStop},
		{From: StatePlaying, To: StatePlayingWithVoIP, Trigger: TriggerVoIPReady},
		{From: StatePlaying, To: StatePausedByCall, Trigger: TriggerAutoPauseForCall},

		// From playing_with_voip
		{From: StatePlayingWithVoIP, To: StatePaused, Trigger: TriggerPause},
		{From: StatePlayingWithVoIP, To: StatePaused, Trigger: TriggerMusicPaused},
		{From: StatePlayingWithVoIP, To: StateMenu, Trigger: TriggerBack},
		{From: StatePlayingWithVoIP, To: StateIdle, Trigger: TriggerStop},
		{From: StatePlayingWithVoIP, To: StatePausedByCall, Trigger: TriggerAutoPauseForCall},
		{From: StatePlayingWithVoIP, To: StateCallOutgoing, Trigger: TriggerMakeCall},

		// From paused
		{From: StatePaused, To: StatePlaying, Trigger: TriggerResume},
		{From: StatePaused, To: StatePlayingWithVoIP, Trigger: TriggerResume, Guard: g.VoIPReady},
		{From: StatePaused, To: StatePlaying, Trigger: TriggerMusicStarted},
		{From: StatePaused, To: StatePlayingWithVoIP, Trigger: TriggerMusicStarted, Guard: g.VoIPReady},
		{From: StatePaused, To: StateMenu, Trigger: TriggerBack},
		{From: StatePaused, To: StateIdle, Trigger: TriggerStop},

		// From paused_by_call
		{From: StatePausedByCall, To: StateCallOutgoing, Trigger: TriggerMakeCall},

		// From playlist
		{From: StatePlaylist, To: StateMenu, Trigger: TriggerBack},
		{From: StatePlaylist, To: StatePlaying, Trigger: TriggerLoadPlaylist},
		{From: StatePlaylist, To: StatePlayingWithVoIP, Trigger: TriggerLoadPlaylist, Guard: g.VoIPReady},

		// From call_idle
		{From: StateCallIdle, To: StateMenu, Trigger: TriggerBack},
		{From: StateCallIdle, To: StateCallOutgoing, Trigger: TriggerMakeCall},

		// From call_incoming
		{From: StateCallIncoming, To: StateCallActiveMusicPaused, Trigger: TriggerCallAnswered},
		{From: StateCallIncoming, To: StateCallActive, Trigger: TriggerCallConnected},
		{From: StateCallIncoming, To: StateCallIdle, Trigger: TriggerCallEnded},
		{From: StateCallIncoming, To: StatePlayingWithVoIP, Trigger: TriggerCallEndedAutoResume},
		{From: StateCallIncoming, To: StatePaused, Trigger: TriggerCallEndedStayPaused},
		{From: StateCallIncoming, To: StateMenu, Trigger: TriggerBack},

		// From call_outgoing
		{From: StateCallOutgoing, To: StateCallActive, Trigger: TriggerCallConnected},
		{From: StateCallOutgoing, To: StateCallActiveMusicPaused, Trigger: TriggerCallAnswered},
		{From: StateCallOutgoing, To: StateCallIdle, Trigger: TriggerCallEnded},
		{From: StateCallOutgoing, To: StatePlayingWithVoIP, Trigger: TriggerCallEndedAutoResume},
		{From: StateCallOutgoing, To: StatePaused, Trigger: TriggerCallEndedStayPaused},
		{From: StateCallOutgoing, To: StateMenu, Trigger: TriggerBack},

		// From call_active
		{From: StateCallActive, To: StateCallIdle, Trigger: TriggerCallEnded},
		{From: StateCallActive, To: StatePlayingWithVoIP, Trigger: TriggerCallEndedAutoResume},
		{From: StateCallActive, To: StatePaused, Trigger: TriggerCallEndedStayPaused},

		// From call_active_music_paused
		{From: StateCallActiveMusicPaused, To: StatePlayingWithVoIP, Trigger: TriggerCallEndedAutoResume},
		{From: StateCallActiveMusicPaused, To: StatePaused, Trigger: TriggerCallEndedStayPaused},
		{From: StateCallActiveMusicPaused, To: StateCallIdle, Trigger: TriggerCallEnded},

		// From settings
		{From: StateSettings, To: StateMenu, Trigger: TriggerBack},
		{From: StateSettings, To: StateIdle, Trigger: TriggerHome},

		// From connecting
		{From: StateConnecting, To: StateIdle, Trigger: TriggerCancel},
		{From: StateConnecting, To: StateMenu, Trigger: TriggerConnected},

		// From error
		{From: StateError, To: StateIdle, Trigger: TriggerReset},
	}

	// Canonical incoming-call trigger reachable from every non-call state.
	for _, from := range []State{
		StateIdle, StateMenu, StatePlaying, StatePlayingWithVoIP,
		StatePaused, StatePausedByCall, StatePlaylist, StateCallIdle,
		StateSettings, StateConnecting,
	} {
		t = append(t, Transition{From: from, To: StateCallIncoming, Trigger: TriggerIncomingCall})
	}

	return t
}
