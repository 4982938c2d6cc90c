package mopidy

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/handset/internal/domain/track"
)

// Event represents a change observed by the playback monitor.
type Event struct {
	State        PlaybackState
	StateChanged bool
	Track        *track.Track
	TrackChanged bool
}

// Monitor polls the Mopidy daemon and emits an event whenever the playback
// state or the current track changes.
type Monitor struct {
	client   *Client
	interval time.Duration
	eventCh  chan Event

	lastState PlaybackState
	lastTrack *track.Track
	primed    bool
}

// NewMonitor creates a playback monitor. A non-positive interval falls back
// to two seconds.
func NewMonitor(client *Client, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Monitor{
		client:    client,
		interval:  interval,
		eventCh:   make(chan Event, 16),
		lastState: StateStopped,
	}
}

// Events returns the channel on which playback changes are delivered.
func (m *Monitor) Events() <-chan Event {
	return m.eventCh
}

// Run polls until the context is cancelled. Poll failures are logged and the
// previous observation is kept, so a transient daemon outage does not emit
// spurious stop events.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	state, err := m.client.PlaybackState(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to poll playback state")
		return
	}
	current, err := m.client.CurrentTrack(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to poll current track")
		return
	}

	ev := Event{State: state, Track: current}
	if m.primed {
		ev.StateChanged = state != m.lastState
		ev.TrackChanged = !current.Same(m.lastTrack)
	} else {
		// First successful poll establishes the baseline.
		ev.StateChanged = true
		ev.TrackChanged = current != nil
		m.primed = true
	}
	m.lastState = state
	m.lastTrack = current

	if !ev.StateChanged && !ev.TrackChanged {
		return
	}

	select {
	case m.eventCh <- ev:
	default:
		zlog.Warn().Msg("playback event channel full, dropping event")
	}
}
