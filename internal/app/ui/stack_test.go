package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookScreen records enter/exit calls.
type hookScreen struct {
	name string
	log  *[]string
}

func (h *hookScreen) Name() string { return h.name }
func (h *hookScreen) Enter()       { *h.log = append(*h.log, "enter:"+h.name) }
func (h *hookScreen) Exit()        { *h.log = append(*h.log, "exit:"+h.name) }

func TestStack_PushPopOrdering(t *testing.T) {
	s := NewStack()
	s.Register(NewBasicScreen(ScreenMenu))
	s.Register(NewBasicScreen(ScreenNowPlaying))
	s.Register(NewBasicScreen(ScreenIncomingCall))

	require.True(t, s.Push(ScreenMenu))
	require.True(t, s.Push(ScreenNowPlaying))
	require.True(t, s.Push(ScreenIncomingCall))

	assert.Equal(t, ScreenIncomingCall, s.CurrentName())
	assert.Equal(t, 3, s.Depth())

	assert.True(t, s.Pop())
	assert.Equal(t, ScreenNowPlaying, s.CurrentName())
	assert.True(t, s.Pop())
	assert.Equal(t, ScreenMenu, s.CurrentName())
}

func TestStack_PushUnregistered(t *testing.T) {
	s := NewStack()
	assert.False(t, s.Push("nope"))
	assert.Equal(t, 0, s.Depth())
}

func TestStack_PushTopIsIdempotent(t *testing.T) {
	s := NewStack()
	s.Register(NewBasicScreen(ScreenIncomingCall))

	require.True(t, s.Push(ScreenIncomingCall))
	require.True(t, s.Push(ScreenIncomingCall))

	assert.Equal(t, 1, s.Depth(), "re-pushing the active screen must not grow the stack")
}

func TestStack_PopEmptyIsNoop(t *testing.T) {
	s := NewStack()
	assert.False(t, s.Pop())
	assert.Nil(t, s.Current())
	assert.Equal(t, "", s.CurrentName())
}

func TestStack_EnterExitHooks(t *testing.T) {
	var log []string
	s := NewStack()
	s.Register(&hookScreen{name: "a", log: &log})
	s.Register(&hookScreen{name: "b", log: &log})

	require.True(t, s.Push("a"))
	require.True(t, s.Push("b"))
	require.True(t, s.Pop())

	assert.Equal(t, []string{"enter:a", "exit:a", "enter:b", "exit:b", "enter:a"}, log)
}
