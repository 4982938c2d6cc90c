package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(voipReady bool) *Machine {
	return New(Guards{VoIPReady: func() bool { return voipReady }})
}

func TestMachine_InitialState(t *testing.T) {
	m := newTestMachine(false)
	assert.Equal(t, StateIdle, m.Current())
	assert.Equal(t, []State{StateIdle}, m.History())
}

func TestMachine_InvalidTransitionLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		to      State
		trigger string
	}{
		{name: "unknown trigger", to: StateMenu, trigger: "bogus"},
		{name: "unknown target", to: StateCallActive, trigger: TriggerOpenMenu},
		{name: "call state not reachable from idle directly", to: StateCallActive, trigger: TriggerCallConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(true)
			assert.False(t, m.TransitionTo(tt.to, tt.trigger))
			assert.Equal(t, StateIdle, m.Current())
		})
	}
}

func TestMachine_SelfTransitionFiresNoCallbacks(t *testing.T) {
	m := newTestMachine(false)

	fired := 0
	m.OnEnter(StateIdle, func() { fired++ })
	m.OnExit(StateIdle, func() { fired++ })

	assert.True(t, m.TransitionTo(StateIdle, "anything"))
	assert.Equal(t, 0, fired)
	assert.Equal(t, []State{StateIdle}, m.History(), "self-transition must not grow history")
}

func TestMachine_MenuAndMediaScenario(t *testing.T) {
	m := newTestMachine(true)

	require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))
	assert.Equal(t, StateMenu, m.Current())

	require.True(t, m.TransitionTo(StatePlayingWithVoIP, TriggerSelectMediaWithVoIP))
	assert.Equal(t, StatePlayingWithVoIP, m.Current())
}

func TestMachine_GuardBlocksTransition(t *testing.T) {
	m := newTestMachine(false) // VoIP not registered

	require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))
	assert.False(t, m.TransitionTo(StatePlayingWithVoIP, TriggerSelectMediaWithVoIP),
		"with-voip media select must be blocked while unregistered")
	assert.Equal(t, StateMenu, m.Current())

	// Plain media select is unguarded.
	assert.True(t, m.TransitionTo(StatePlaying, TriggerSelectMedia))
}

func TestMachine_CallLifecycleWithMusicPaused(t *testing.T) {
	m := newTestMachine(true)

	require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))
	require.True(t, m.TransitionTo(StatePlayingWithVoIP, TriggerSelectMediaWithVoIP))

	// Incoming call pauses music, then rings.
	require.True(t, m.TransitionTo(StatePausedByCall, TriggerAutoPauseForCall))
	require.True(t, m.TransitionTo(StateCallIncoming, TriggerIncomingCall))

	// Answer with music paused in the background.
	require.True(t, m.TransitionTo(StateCallActiveMusicPaused, TriggerCallAnswered))

	// Call ends, music auto-resumes.
	require.True(t, m.TransitionTo(StatePlayingWithVoIP, TriggerCallEndedAutoResume))
	assert.Equal(t, StatePlayingWithVoIP, m.Current())
}

func TestMachine_CallEndedStayPaused(t *testing.T) {
	m := newTestMachine(true)

	require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))
	require.True(t, m.TransitionTo(StatePlayingWithVoIP, TriggerSelectMediaWithVoIP))
	require.True(t, m.TransitionTo(StatePausedByCall, TriggerAutoPauseForCall))
	require.True(t, m.TransitionTo(StateCallIncoming, TriggerIncomingCall))
	require.True(t, m.TransitionTo(StateCallActiveMusicPaused, TriggerCallAnswered))

	require.True(t, m.TransitionTo(StatePaused, TriggerCallEndedStayPaused))
	assert.Equal(t, StatePaused, m.Current())
}

func TestMachine_IncomingCallReachableFromEveryNonCallState(t *testing.T) {
	nonCall := []State{
		StateIdle, StateMenu, StatePlaying, StatePlayingWithVoIP,
		StatePaused, StatePausedByCall, StatePlaylist, StateCallIdle,
		StateSettings, StateConnecting,
	}

	m := newTestMachine(true)
	for _, s := range nonCall {
		t.Run(s.String(), func(t *testing.T) {
			tbl := defaultTransitions(Guards{})
			found := false
			for _, tr := range tbl {
				if tr.From == s && tr.To == StateCallIncoming && tr.Trigger == TriggerIncomingCall {
					found = true
					break
				}
			}
			assert.True(t, found, "incoming_call must be legal from %s", s)
		})
	}
	_ = m
}

func TestMachine_CallbackOrderAndPanicIsolation(t *testing.T) {
	m := newTestMachine(false)

	var order []string
	m.OnExit(StateIdle, func() { order = append(order, "exit-1") })
	m.OnExit(StateIdle, func() { panic("exit-2 boom") })
	m.OnExit(StateIdle, func() { order = append(order, "exit-3") })
	m.OnEnter(StateMenu, func() { order = append(order, "enter-1") })
	m.OnEnter(StateMenu, func() { order = append(order, "enter-2") })

	require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))

	// Panic in exit-2 must not stop exit-3 nor prevent the state change.
	assert.Equal(t, []string{"exit-1", "exit-3", "enter-1", "enter-2"}, order)
	assert.Equal(t, StateMenu, m.Current())
}

func TestMachine_CallbackMayReenterMachine(t *testing.T) {
	m := newTestMachine(false)

	var seen State
	m.OnEnter(StateMenu, func() { seen = m.Current() })

	require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))
	assert.Equal(t, StateMenu, seen, "enter callback observes the new state")
}

func TestMachine_GoBack(t *testing.T) {
	m := newTestMachine(false)

	require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))
	require.True(t, m.TransitionTo(StatePlaying, TriggerSelectMedia))

	assert.True(t, m.GoBack())
	assert.Equal(t, StateMenu, m.Current())
}

func TestMachine_GoBackFallsBackToTableRowAfterMissedCall(t *testing.T) {
	m := newTestMachine(false)

	// A missed call leaves call_incoming in the history, which is not a
	// legal back target from call_idle. The table row must apply instead.
	require.True(t, m.TransitionTo(StateCallIncoming, TriggerIncomingCall))
	require.True(t, m.TransitionTo(StateCallIdle, TriggerCallEnded))

	assert.True(t, m.GoBack())
	assert.Equal(t, StateMenu, m.Current())
}

func TestMachine_GoBackWithoutHistory(t *testing.T) {
	m := newTestMachine(false)
	assert.False(t, m.GoBack())
	assert.Equal(t, StateIdle, m.Current())
}

func TestMachine_HistoryIsBounded(t *testing.T) {
	m := newTestMachine(false)

	// Bounce between menu and idle well past the limit.
	for i := 0; i < 60; i++ {
		require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))
		require.True(t, m.TransitionTo(StateIdle, TriggerBack))
	}

	h := m.History()
	assert.LessOrEqual(t, len(h), 50)
	assert.Equal(t, StateIdle, h[len(h)-1])
}

func TestMachine_Reset(t *testing.T) {
	m := newTestMachine(false)

	require.True(t, m.TransitionTo(StateMenu, TriggerOpenMenu))
	m.Reset()

	assert.Equal(t, StateIdle, m.Current())
	assert.Equal(t, []State{StateIdle}, m.History())
}

func TestMachine_ValidTargets(t *testing.T) {
	m := newTestMachine(false)

	targets := m.ValidTargets()
	assert.Contains(t, targets, StateMenu)
	assert.Contains(t, targets, StateCallIncoming)
	assert.NotContains(t, targets, StateCallActive)
}

func TestMachine_CanTransition(t *testing.T) {
	m := newTestMachine(true)

	assert.True(t, m.CanTransition(StateIdle, "whatever"), "self-transition is always allowed")
	assert.True(t, m.CanTransition(StateMenu, TriggerOpenMenu))
	assert.False(t, m.CanTransition(StateMenu, TriggerBack))
}
