package ui

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// Stack is a LIFO of registered screens. The coordinator is the only writer;
// reads may come from any goroutine.
type Stack struct {
	mu      sync.RWMutex
	screens map[string]Screen
	stack   []Screen
}

// NewStack creates an empty screen stack.
func NewStack() *Stack {
	return &Stack{
		screens: make(map[string]Screen),
	}
}

// Register adds a screen under its name. Registering the same name twice
// replaces the earlier screen.
func (s *Stack) Register(screen Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screens[screen.Name()] = screen
	zlog.Debug().Msgf("screen registered: %s", screen.Name())
}

// Push makes the named screen current. Pushing the screen that is already on
// top is a no-op returning true. Pushing an unregistered name fails.
func (s *Stack) Push(name string) bool {
	s.mu.Lock()

	screen, ok := s.screens[name]
	if !ok {
		s.mu.Unlock()
		zlog.Warn().Msgf("screen push failed: %s not registered", name)
		return false
	}

	if top := s.topLocked(); top != nil && top.Name() == name {
		s.mu.Unlock()
		return true
	}

	covered := s.topLocked()
	s.stack = append(s.stack, screen)
	s.mu.Unlock()

	if ee, ok := covered.(EnterExiter); ok {
		ee.Exit()
	}
	if ee, ok := screen.(EnterExiter); ok {
		ee.Enter()
	}
	zlog.Info().Msgf("screen pushed: %s (depth: %d)", name, s.Depth())
	return true
}

// Pop removes the top screen. Popping an empty stack is a safe no-op
// returning false.
func (s *Stack) Pop() bool {
	s.mu.Lock()
	if len(s.stack) == 0 {
		s.mu.Unlock()
		return false
	}

	popped := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	revealed := s.topLocked()
	s.mu.Unlock()

	if ee, ok := popped.(EnterExiter); ok {
		ee.Exit()
	}
	if ee, ok := revealed.(EnterExiter); ok {
		ee.Enter()
	}
	zlog.Info().Msgf("screen popped: %s (depth: %d)", popped.Name(), s.Depth())
	return true
}

// Current returns the top screen, or nil when the stack is empty.
func (s *Stack) Current() Screen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topLocked()
}

// CurrentName returns the top screen name, or "" when the stack is empty.
func (s *Stack) CurrentName() string {
	if top := s.Current(); top != nil {
		return top.Name()
	}
	return ""
}

// Depth returns the number of screens on the stack.
func (s *Stack) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stack)
}

func (s *Stack) topLocked() Screen {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}
