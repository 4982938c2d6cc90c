package voip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineIncomingCall(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantAddr string
	}{
		{
			name:     "with display name",
			line:     `Receiving new incoming call from "Alice" <sip:alice@example.com>, assigned id 1`,
			wantName: "Alice",
			wantAddr: "sip:alice@example.com",
		},
		{
			name:     "without display name",
			line:     `Receiving new incoming call from <sip:100@192.168.1.10>, assigned id 3`,
			wantName: "",
			wantAddr: "sip:100@192.168.1.10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseLine(tt.line)
			require.True(t, ok)
			assert.True(t, ev.CallChanged)
			assert.Equal(t, CallIncomingRinging, ev.Call)
			assert.Equal(t, tt.wantName, ev.Caller.Name)
			assert.Equal(t, tt.wantAddr, ev.Caller.Address)
		})
	}
}

func TestParseLineRegistration(t *testing.T) {
	tests := []struct {
		name string
		line string
		want RegistrationState
	}{
		{
			name: "successful",
			line: "Registration on <sip:example.com> for sip:bob@example.com successful.",
			want: RegistrationOK,
		},
		{
			name: "failed",
			line: "Registration on <sip:example.com> for sip:bob@example.com failed: Forbidden",
			want: RegistrationFailed,
		},
		{
			name: "in progress",
			line: "Registration on <sip:example.com> in progress",
			want: RegistrationInProgress,
		},
		{
			name: "cleared",
			line: "Registration on <sip:example.com> for sip:bob@example.com cleared.",
			want: RegistrationCleared,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseLine(tt.line)
			require.True(t, ok)
			assert.True(t, ev.RegChanged)
			assert.False(t, ev.CallChanged)
			assert.Equal(t, tt.want, ev.Registration)
		})
	}
}

func TestParseLineCallLifecycle(t *testing.T) {
	tests := []struct {
		name string
		line string
		want CallState
	}{
		{name: "answered", line: "Call answered by remote.", want: CallConnected},
		{name: "connected", line: "Connected.", want: CallConnected},
		{name: "ended", line: "Call ended", want: CallReleased},
		{name: "terminated", line: "Call terminated.", want: CallReleased},
		{name: "released", line: "Call 2 with <sip:alice@example.com> Call released.", want: CallReleased},
		{name: "declined", line: "Call declined.", want: CallReleased},
		{name: "error", line: "Call error: User is busy.", want: CallError},
		{name: "outgoing", line: "Establishing call id to <sip:alice@example.com>, assigned id 2", want: CallOutgoingProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseLine(tt.line)
			require.True(t, ok)
			assert.True(t, ev.CallChanged)
			assert.Equal(t, tt.want, ev.Call)
		})
	}
}

func TestParseLineIgnoresNoise(t *testing.T) {
	for _, line := range []string{
		"",
		"linphonec> ",
		"Ready",
		"Warning: video is disabled",
	} {
		_, ok := ParseLine(line)
		assert.False(t, ok, "line %q should carry no state change", line)
	}
}

func TestCallerDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", Caller{Name: "Alice", Address: "sip:alice@example.com"}.DisplayName())
	assert.Equal(t, "sip:alice@example.com", Caller{Address: "sip:alice@example.com"}.DisplayName())
}
