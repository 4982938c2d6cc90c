// Package coordinator owns all cross-subsystem policy: what happens to
// music when a call arrives, which screen is shown, and which state
// transitions each producer event causes.
package coordinator

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/handset/internal/app/fsm"
	"github.com/osa030/handset/internal/app/input"
	"github.com/osa030/handset/internal/app/ui"
	"github.com/osa030/handset/internal/domain/track"
	"github.com/osa030/handset/internal/infra/mopidy"
	"github.com/osa030/handset/internal/infra/ringtone"
	"github.com/osa030/handset/internal/infra/voip"
)

// eventBuffer bounds the coordinator channel. Producers drop events rather
// than block when the coordinator falls behind.
const eventBuffer = 64

// refreshInterval is how often the snapshot is republished even without
// events, so status subscribers see a heartbeat.
const refreshInterval = 30 * time.Second

// Deps holds the capabilities the coordinator drives. Nil fields are
// replaced with no-op implementations.
type Deps struct {
	Music  MusicControl
	Phone  CallControl
	Ringer ringtone.Ringer

	// StayPausedAfterCall leaves music paused when a call ends instead of
	// resuming it.
	StayPausedAfterCall bool

	// SpeedDial is the SIP address dialed by a short press in call_idle.
	// Empty disables speed dial.
	SpeedDial string
}

// TrackInfo is the display form of the current track.
type TrackInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

// Snapshot is a point-in-time view of the device state, safe to read from
// any goroutine.
type Snapshot struct {
	State        string     `json:"state"`
	Screen       string     `json:"screen"`
	Registration string     `json:"registration"`
	VoIPReady    bool       `json:"voip_ready"`
	Caller       string     `json:"caller,omitempty"`
	Playback     string     `json:"playback"`
	Track        *TrackInfo `json:"track,omitempty"`
}

// Coordinator consumes producer events from a single channel on a single
// goroutine. All policy state (music-was-playing, registration, active
// caller) lives on that goroutine, so handlers never race.
type Coordinator struct {
	machine *fsm.Machine
	screens *ui.Stack
	music   MusicControl
	phone   CallControl
	ringer  ringtone.Ringer

	stayPaused bool
	speedDial  string
	eventCh    chan Event

	// Owned by the Run goroutine.
	voipReady       bool
	musicWasPlaying bool
	activeCallID    string
	caller          voip.Caller
	registration    voip.RegistrationState
	playState       mopidy.PlaybackState
	currentTrack    *track.Track

	snapMu sync.RWMutex
	snap   Snapshot
	notify func(Snapshot)
}

// New creates a coordinator with a fresh state machine and screen stack.
func New(d Deps) *Coordinator {
	if d.Music == nil {
		d.Music = NopMusic{}
	}
	if d.Phone == nil {
		d.Phone = NopPhone{}
	}
	if d.Ringer == nil {
		d.Ringer = ringtone.NullRinger{}
	}

	c := &Coordinator{
		music:      d.Music,
		phone:      d.Phone,
		ringer:     d.Ringer,
		stayPaused: d.StayPausedAfterCall,
		speedDial:  d.SpeedDial,
		eventCh:    make(chan Event, eventBuffer),
		playState:  mopidy.StateStopped,
	}
	c.machine = fsm.New(fsm.Guards{
		VoIPReady: func() bool { return c.voipReady },
	})

	c.screens = ui.NewStack()
	for _, name := range []string{
		ui.ScreenHome, ui.ScreenMenu, ui.ScreenNowPlaying, ui.ScreenPlaylists,
		ui.ScreenCall, ui.ScreenContacts, ui.ScreenIncomingCall,
		ui.ScreenOutgoingCall, ui.ScreenInCall,
	} {
		c.screens.Register(ui.NewBasicScreen(name))
	}
	c.screens.Push(ui.ScreenHome)

	c.publish()
	return c
}

// Machine exposes the state machine for read access.
func (c *Coordinator) Machine() *fsm.Machine { return c.machine }

// Screens exposes the screen stack for read access.
func (c *Coordinator) Screens() *ui.Stack { return c.screens }

// SetNotifier registers a callback invoked with a fresh snapshot after every
// handled event. The callback runs on the coordinator goroutine and must not
// block.
func (c *Coordinator) SetNotifier(fn func(Snapshot)) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	c.notify = fn
}

// Snapshot returns the last published device state.
func (c *Coordinator) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// Submit enqueues an event. It never blocks; when the channel is full the
// event is dropped and logged.
func (c *Coordinator) Submit(ev Event) bool {
	select {
	case c.eventCh <- ev:
		return true
	default:
		zlog.Warn().Msgf("coordinator: channel full, dropping %s event", ev.Type)
		return false
	}
}

// SubmitInput enqueues a button event.
func (c *Coordinator) SubmitInput(ev input.Event) {
	c.Submit(Event{Type: EventInput, Input: ev})
}

// SubmitVoIP translates a driver event into coordinator events.
func (c *Coordinator) SubmitVoIP(ev voip.Event) {
	if ev.RegChanged {
		c.Submit(Event{Type: EventRegistration, Registration: ev.Registration})
	}
	if !ev.CallChanged {
		return
	}
	if ev.Call == voip.CallIncomingRinging {
		c.Submit(Event{Type: EventIncomingCall, CallID: ev.CallID, Caller: ev.Caller})
		return
	}
	c.Submit(Event{Type: EventCallState, CallID: ev.CallID, CallState: ev.Call, Caller: ev.Caller})
}

// SubmitPlayback enqueues a playback monitor event.
func (c *Coordinator) SubmitPlayback(ev mopidy.Event) {
	c.Submit(Event{Type: EventPlayback, Playback: ev})
}

// Run consumes events until the context is cancelled. It is the only
// goroutine that mutates coordinator state.
func (c *Coordinator) Run(ctx context.Context) error {
	zlog.Info().Msg("coordinator started")
	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("coordinator stopped")
			return ctx.Err()
		case <-refresh.C:
			c.publish()
		case ev := <-c.eventCh:
			c.dispatch(ctx, ev)
		}
	}
}

// dispatch handles one event. A panicking handler is recovered so a bad
// event cannot take the loop down.
func (c *Coordinator) dispatch(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("coordinator: %s handler panicked: %v", ev.Type, r)
		}
	}()

	switch ev.Type {
	case EventInput:
		c.handleInput(ctx, ev.Input)
	case EventIncomingCall:
		c.handleIncomingCall(ctx, ev)
	case EventCallState:
		c.handleCallState(ctx, ev)
	case EventRegistration:
		c.handleRegistration(ev)
	case EventPlayback:
		c.handlePlayback(ev)
	default:
		zlog.Warn().Msgf("coordinator: unknown event type %d", ev.Type)
	}

	c.publish()
}

// musicIsPlaying queries the player directly. The monitor polls every couple
// of seconds, so the machine may not have seen playback that just started;
// the player itself is the authority when a call comes in.
func (c *Coordinator) musicIsPlaying(ctx context.Context) bool {
	state, err := c.music.PlaybackState(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("coordinator: playback state query failed, using last observation")
		return c.playState == mopidy.StatePlaying
	}
	return state == mopidy.StatePlaying
}

// handleIncomingCall pauses music, moves to call_incoming, shows the
// incoming call screen and starts ringing. A ring while a call is already
// being handled is ignored.
func (c *Coordinator) handleIncomingCall(ctx context.Context, ev Event) {
	cur := c.machine.Current()
	if cur.IsCallActive() {
		zlog.Warn().Msgf("coordinator: incoming call from %s ignored, call already in progress", ev.Caller.DisplayName())
		return
	}

	c.activeCallID = ev.CallID
	c.caller = ev.Caller
	c.musicWasPlaying = c.musicIsPlaying(ctx)

	if c.musicWasPlaying {
		if err := c.music.Pause(ctx); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to pause music for incoming call")
		}
		// The pause is its own transition so the history records it. The
		// machine only has one when it already observed the playback.
		if cur.IsMusicPlaying() {
			c.machine.TransitionTo(fsm.StatePausedByCall, fsm.TriggerAutoPauseForCall)
		}
	}

	if !c.machine.TransitionTo(fsm.StateCallIncoming, fsm.TriggerIncomingCall) {
		// The trigger is legal from every non-call state, so this only
		// happens when the machine is in an inconsistent state.
		zlog.Error().Msgf("coordinator: cannot enter call_incoming from %s", cur)
		return
	}

	c.screens.Push(ui.ScreenIncomingCall)
	if err := c.ringer.Start(); err != nil {
		zlog.Error().Err(err).Msg("coordinator: failed to start ringer")
	}
	zlog.Info().Msgf("incoming call from %s", ev.Caller.DisplayName())
}

// handleCallState reacts to call progress reported by the driver.
func (c *Coordinator) handleCallState(ctx context.Context, ev Event) {
	switch ev.CallState {
	case voip.CallOutgoingProgress:
		cur := c.machine.Current()
		if cur == fsm.StateCallOutgoing {
			return
		}
		c.activeCallID = ev.CallID
		if ev.Caller != (voip.Caller{}) {
			c.caller = ev.Caller
		}
		c.musicWasPlaying = c.musicIsPlaying(ctx)
		if c.musicWasPlaying {
			if err := c.music.Pause(ctx); err != nil {
				zlog.Error().Err(err).Msg("coordinator: failed to pause music for outgoing call")
			}
			if cur.IsMusicPlaying() {
				c.machine.TransitionTo(fsm.StatePausedByCall, fsm.TriggerAutoPauseForCall)
			}
		}
		if c.machine.TransitionTo(fsm.StateCallOutgoing, fsm.TriggerMakeCall) {
			c.screens.Push(ui.ScreenOutgoingCall)
		}

	case voip.CallConnected:
		if err := c.ringer.Stop(); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to stop ringer")
		}
		var ok bool
		if c.musicWasPlaying {
			ok = c.machine.TransitionTo(fsm.StateCallActiveMusicPaused, fsm.TriggerCallAnswered)
		} else {
			ok = c.machine.TransitionTo(fsm.StateCallActive, fsm.TriggerCallConnected)
		}
		if ok {
			c.screens.Push(ui.ScreenInCall)
		}

	case voip.CallReleased, voip.CallError:
		c.finishCall(ctx)
	}
}

// finishCall restores the pre-call state: silence the ringer, clear the
// call screens and apply the resume policy.
func (c *Coordinator) finishCall(ctx context.Context) {
	if err := c.ringer.Stop(); err != nil {
		zlog.Error().Err(err).Msg("coordinator: failed to stop ringer")
	}
	if !c.machine.Current().IsCall() {
		zlog.Debug().Msg("coordinator: call release outside a call state, ignoring")
		c.musicWasPlaying = false
		c.activeCallID = ""
		c.caller = voip.Caller{}
		return
	}

	// A call may have stacked more than one of its screens (ring, then
	// in-call). The pop is bounded so a corrupt stack cannot loop.
	for i := 0; i < 4 && ui.CallScreens[c.screens.CurrentName()]; i++ {
		c.screens.Pop()
	}

	handled := false
	switch {
	case c.musicWasPlaying && !c.stayPaused:
		handled = c.machine.TransitionTo(fsm.StatePlayingWithVoIP, fsm.TriggerCallEndedAutoResume)
		if handled {
			if err := c.music.Play(ctx); err != nil {
				zlog.Error().Err(err).Msg("coordinator: failed to resume music after call")
			}
		}
	case c.musicWasPlaying:
		handled = c.machine.TransitionTo(fsm.StatePaused, fsm.TriggerCallEndedStayPaused)
	}
	if !handled {
		c.machine.TransitionTo(fsm.StateCallIdle, fsm.TriggerCallEnded)
	}

	if c.caller != (voip.Caller{}) {
		zlog.Info().Msgf("call with %s ended", c.caller.DisplayName())
	}
	c.musicWasPlaying = false
	c.activeCallID = ""
	c.caller = voip.Caller{}
}

// handleRegistration tracks SIP registration. A successful registration
// upgrades an unassisted playing state; an ongoing call is never disturbed.
func (c *Coordinator) handleRegistration(ev Event) {
	c.registration = ev.Registration
	switch ev.Registration {
	case voip.RegistrationOK:
		if !c.voipReady {
			zlog.Info().Msg("sip registration established")
		}
		c.voipReady = true
		if c.machine.Current() == fsm.StatePlaying {
			c.machine.TransitionTo(fsm.StatePlayingWithVoIP, fsm.TriggerVoIPReady)
		}
	case voip.RegistrationFailed, voip.RegistrationCleared:
		if c.voipReady {
			zlog.Warn().Msgf("sip registration lost: %s", ev.Registration)
		}
		c.voipReady = false
	}
}

// handlePlayback syncs the machine with what the music daemon reports.
// During a call the daemon state is recorded but causes no transitions;
// the call handlers own playback during calls.
func (c *Coordinator) handlePlayback(ev Event) {
	c.playState = ev.Playback.State
	if ev.Playback.TrackChanged {
		c.currentTrack = ev.Playback.Track
	}

	cur := c.machine.Current()
	if cur.IsCallActive() {
		zlog.Debug().Msg("coordinator: playback change ignored during call")
		return
	}
	if !ev.Playback.StateChanged {
		return
	}

	switch ev.Playback.State {
	case mopidy.StatePlaying:
		if cur.IsMusicPlaying() {
			return
		}
		if c.transitionToPlaying(fsm.TriggerMusicStarted) {
			c.screens.Push(ui.ScreenNowPlaying)
		}
	case mopidy.StatePaused:
		if cur.IsMusicPlaying() {
			c.machine.TransitionTo(fsm.StatePaused, fsm.TriggerMusicPaused)
		}
	case mopidy.StateStopped:
		if cur.IsMusicPlaying() {
			c.machine.TransitionTo(fsm.StateIdle, fsm.TriggerStop)
			if c.screens.CurrentName() == ui.ScreenNowPlaying {
				c.screens.Pop()
			}
		}
	}
}

// transitionToPlaying picks the playing state matching the registration
// status and applies the given trigger.
func (c *Coordinator) transitionToPlaying(trigger string) bool {
	if c.voipReady {
		return c.machine.TransitionTo(fsm.StatePlayingWithVoIP, trigger)
	}
	return c.machine.TransitionTo(fsm.StatePlaying, trigger)
}

// handleInput maps a classified button event onto the current state.
func (c *Coordinator) handleInput(ctx context.Context, ev input.Event) {
	cur := c.machine.Current()
	zlog.Debug().Msgf("coordinator: %s in state %s", ev.Action, cur)

	switch ev.Action {
	case input.ActionSelect:
		c.handleSelect(ctx, cur)
	case input.ActionBack:
		c.handleBack(cur)
	case input.ActionLongPress:
		c.handleLongPress(ctx, cur)
	case input.ActionPTTPress, input.ActionPTTRelease:
		// Raw press edges carry no policy of their own.
	}
}

func (c *Coordinator) handleSelect(ctx context.Context, cur fsm.State) {
	switch {
	case cur == fsm.StateCallIncoming:
		if err := c.ringer.Stop(); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to stop ringer")
		}
		if err := c.phone.Answer(); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to answer call")
		}

	case cur.IsMusicPlaying():
		if err := c.music.Pause(ctx); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to pause music")
			return
		}
		c.machine.TransitionTo(fsm.StatePaused, fsm.TriggerPause)

	case cur == fsm.StatePaused:
		if err := c.music.Play(ctx); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to resume music")
			return
		}
		c.transitionToPlaying(fsm.TriggerResume)

	case cur == fsm.StateIdle:
		if c.machine.TransitionTo(fsm.StateMenu, fsm.TriggerOpenMenu) {
			c.screens.Push(ui.ScreenMenu)
		}

	case cur == fsm.StateCallIdle:
		if c.speedDial == "" {
			zlog.Debug().Msg("coordinator: no speed dial configured")
			return
		}
		if err := c.phone.Dial(c.speedDial); err != nil {
			zlog.Error().Err(err).Msgf("coordinator: failed to dial %s", c.speedDial)
		}
		// The machine moves to call_outgoing when the driver reports
		// call progress.

	case cur == fsm.StateMenu:
		if err := c.music.Play(ctx); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to start music")
			return
		}
		var ok bool
		if c.voipReady {
			ok = c.machine.TransitionTo(fsm.StatePlayingWithVoIP, fsm.TriggerSelectMediaWithVoIP)
		} else {
			ok = c.machine.TransitionTo(fsm.StatePlaying, fsm.TriggerSelectMedia)
		}
		if ok {
			c.screens.Push(ui.ScreenNowPlaying)
		}
	}
}

func (c *Coordinator) handleBack(cur fsm.State) {
	switch {
	case cur == fsm.StateCallIncoming:
		c.declineRinging()
	case cur.IsCallActive():
		// Ending a connected call takes a long press, not a double tap.
	default:
		if c.machine.GoBack() && c.screens.Depth() > 1 {
			c.screens.Pop()
		}
	}
}

func (c *Coordinator) handleLongPress(ctx context.Context, cur fsm.State) {
	switch {
	case cur == fsm.StateCallIncoming:
		c.declineRinging()

	case cur.IsCallActive():
		if err := c.phone.Hangup(); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to hang up")
		}

	case cur.IsMusicPlaying() || cur == fsm.StatePaused:
		if err := c.music.Stop(ctx); err != nil {
			zlog.Error().Err(err).Msg("coordinator: failed to stop music")
			return
		}
		if c.machine.TransitionTo(fsm.StateIdle, fsm.TriggerStop) {
			if c.screens.CurrentName() == ui.ScreenNowPlaying {
				c.screens.Pop()
			}
		}
	}
}

func (c *Coordinator) declineRinging() {
	if err := c.ringer.Stop(); err != nil {
		zlog.Error().Err(err).Msg("coordinator: failed to stop ringer")
	}
	if err := c.phone.Decline(); err != nil {
		zlog.Error().Err(err).Msg("coordinator: failed to decline call")
	}
}

// publish refreshes the snapshot and notifies the listener.
func (c *Coordinator) publish() {
	snap := Snapshot{
		State:        c.machine.Current().String(),
		Screen:       c.screens.CurrentName(),
		Registration: c.registration.String(),
		VoIPReady:    c.voipReady,
		Playback:     string(c.playState),
	}
	if c.caller != (voip.Caller{}) {
		snap.Caller = c.caller.DisplayName()
	}
	if c.currentTrack != nil {
		snap.Track = &TrackInfo{
			Title:  c.currentTrack.Name,
			Artist: c.currentTrack.ArtistString(),
			Album:  c.currentTrack.Album,
		}
	}

	c.snapMu.Lock()
	c.snap = snap
	notify := c.notify
	c.snapMu.Unlock()

	if notify != nil {
		notify(snap)
	}
}
