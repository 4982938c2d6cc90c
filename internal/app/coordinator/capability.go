package coordinator

import (
	"context"

	"github.com/osa030/handset/internal/infra/mopidy"
)

// MusicControl is the playback capability the coordinator drives.
// Implemented by the Mopidy client.
type MusicControl interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	PlaybackState(ctx context.Context) (mopidy.PlaybackState, error)
}

// CallControl is the telephony capability the coordinator drives.
// Implemented by the linphonec driver.
type CallControl interface {
	Answer() error
	Decline() error
	Hangup() error
	Dial(address string) error
}

// NopMusic is a MusicControl that does nothing. Used when the music daemon
// is not configured and in tests.
type NopMusic struct{}

func (NopMusic) Play(context.Context) error  { return nil }
func (NopMusic) Pause(context.Context) error { return nil }
func (NopMusic) Stop(context.Context) error  { return nil }
func (NopMusic) PlaybackState(context.Context) (mopidy.PlaybackState, error) {
	return mopidy.StateStopped, nil
}

// NopPhone is a CallControl that does nothing.
type NopPhone struct{}

func (NopPhone) Answer() error     { return nil }
func (NopPhone) Decline() error    { return nil }
func (NopPhone) Hangup() error     { return nil }
func (NopPhone) Dial(string) error { return nil }
