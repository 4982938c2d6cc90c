package fsm

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// historyLimit bounds the state history used by GoBack.
const historyLimit = 50

// Machine validates and applies state transitions against a static table.
//
// The machine is designed for a single writer: all transitions are applied
// from the coordinator goroutine. Readers (Current, History) may run
// concurrently from any goroutine. Enter/exit callbacks are fired on the
// writer's goroutine, outside the internal lock, so a callback may safely
// call back into the machine.
type Machine struct {
	mu          sync.RWMutex
	current     State
	previous    State
	history     []State
	transitions []Transition
	onEnter     map[State][]func()
	onExit      map[State][]func()
}

// New creates a machine in StateIdle with the default transition table.
func New(g Guards) *Machine {
	m := &Machine{
		current:     StateIdle,
		history:     []State{StateIdle},
		transitions: defaultTransitions(g),
		onEnter:     make(map[State][]func()),
		onExit:      make(map[State][]func()),
	}
	zlog.Info().Msgf("state machine initialized: state=%s transitions=%d", m.current, len(m.transitions))
	return m
}

// NewWithTable creates a machine with a caller-supplied transition table.
// Used by tests and by callers that need a reduced table.
func NewWithTable(transitions []Transition) *Machine {
	return &Machine{
		current:     StateIdle,
		history:     []State{StateIdle},
		transitions: transitions,
		onEnter:     make(map[State][]func()),
		onExit:      make(map[State][]func()),
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Previous returns the most recently exited state.
func (m *Machine) Previous() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.previous
}

// History returns a copy of the bounded state history, oldest first.
func (m *Machine) History() []State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

// OnEnter registers a callback fired after entering the given state.
func (m *Machine) OnEnter(s State, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnter[s] = append(m.onEnter[s], fn)
}

// OnExit registers a callback fired before leaving the given state.
func (m *Machine) OnExit(s State, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExit[s] = append(m.onExit[s], fn)
}

// CanTransition reports whether the transition to the given state is legal
// from the current state with the given trigger. Self-transitions are always
// allowed.
func (m *Machine) CanTransition(to State, trigger string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if to == m.current {
		return true
	}
	return m.matchLocked(to, trigger) != nil
}

// TransitionTo applies a transition. It returns true if the machine is in the
// target state afterwards. A self-transition is a no-op that fires no
// callbacks. An illegal transition or a false guard leaves the state unchanged
// and returns false.
func (m *Machine) TransitionTo(to State, trigger string) bool {
	m.mu.Lock()
	if to == m.current {
		m.mu.Unlock()
		zlog.Debug().Msgf("state machine: already in %s", to)
		return true
	}

	match := m.matchLocked(to, trigger)
	if match == nil {
		from := m.current
		m.mu.Unlock()
		zlog.Warn().Msgf("state machine: invalid transition %s -> %s (trigger: %s)", from, to, trigger)
		return false
	}

	old := m.current
	exitCbs := append([]func(){}, m.onExit[old]...)
	m.mu.Unlock()

	zlog.Info().Msgf("state machine: %s -> %s (trigger: %s)", old, to, trigger)
	fireCallbacks(exitCbs, old, "exit")

	m.mu.Lock()
	m.previous = old
	m.current = to
	m.history = append(m.history, to)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
	enterCbs := append([]func(){}, m.onEnter[to]...)
	m.mu.Unlock()

	fireCallbacks(enterCbs, to, "enter")
	return true
}

// GoBack transitions to the state entered before the current one using the
// back trigger. When the history predecessor is not a legal back target
// (a missed call leaves call_incoming in the history) it falls back to the
// table's back row for the current state. It fails when neither applies.
func (m *Machine) GoBack() bool {
	m.mu.RLock()
	if len(m.history) < 2 {
		m.mu.RUnlock()
		zlog.Warn().Msg("state machine: cannot go back, no previous state")
		return false
	}
	prev := m.history[len(m.history)-2]
	m.mu.RUnlock()

	if m.CanTransition(prev, TriggerBack) {
		return m.TransitionTo(prev, TriggerBack)
	}
	if to, ok := m.backTarget(); ok {
		return m.TransitionTo(to, TriggerBack)
	}
	zlog.Warn().Msgf("state machine: no back transition from %s", m.Current())
	return false
}

// backTarget returns the table's back target for the current state, if any.
func (m *Machine) backTarget() (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.transitions {
		t := &m.transitions[i]
		if t.From != m.current || t.Trigger != TriggerBack {
			continue
		}
		if t.Guard != nil && !t.Guard() {
			continue
		}
		return t.To, true
	}
	return StateIdle, false
}

// Reset forces the machine back to StateIdle and clears the history. It is a
// recovery operation and bypasses the transition table; no callbacks fire.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	zlog.Info().Msgf("state machine: reset %s -> %s", m.current, StateIdle)
	m.previous = m.current
	m.current = StateIdle
	m.history = []State{StateIdle}
}

// ValidTargets returns the states reachable from the current state with a
// passing guard, deduplicated in table order.
func (m *Machine) ValidTargets() []State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[State]bool)
	var targets []State
	for _, t := range m.transitions {
		if t.From != m.current {
			continue
		}
		if t.Guard != nil && !t.Guard() {
			continue
		}
		if !seen[t.To] {
			seen[t.To] = true
			targets = append(targets, t.To)
		}
	}
	return targets
}

// matchLocked finds the first transition matching (current, trigger, to) with
// a passing guard. Must be called with the lock held.
func (m *Machine) matchLocked(to State, trigger string) *Transition {
	for i := range m.transitions {
		t := &m.transitions[i]
		if t.From != m.current || t.To != to || t.Trigger != trigger {
			continue
		}
		if t.Guard != nil && !t.Guard() {
			zlog.Warn().Msgf("state machine: transition %s -> %s blocked by guard", t.From, t.To)
			continue
		}
		return t
	}
	return nil
}

// fireCallbacks runs callbacks in registration order. A panicking callback is
// recovered and logged; remaining callbacks still fire and the state change is
// not rolled back.
func fireCallbacks(cbs []func(), s State, kind string) {
	for _, cb := range cbs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					zlog.Error().Msgf("state machine: %s callback for %s panicked: %v", kind, s, r)
				}
			}()
			cb()
		}()
	}
}
