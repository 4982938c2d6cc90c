package input

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Poller samples a button device at a fixed interval and emits classified
// events. It holds no application state, only the debounce state of the
// classifier.
type Poller struct {
	device     Device
	classifier *Classifier
	interval   time.Duration
	eventCh    chan Event
}

// NewPoller creates a poller for the given device.
func NewPoller(device Device, timing Timing) *Poller {
	return &Poller{
		device:     device,
		classifier: NewClassifier(timing),
		interval:   timing.PollInterval,
		eventCh:    make(chan Event, 16),
	}
}

// Events returns the channel of classified input events.
func (p *Poller) Events() <-chan Event {
	return p.eventCh
}

// Run polls the device until the context is cancelled. It fires at most one
// read per tick; read errors are logged and the sample is skipped.
func (p *Poller) Run(ctx context.Context) error {
	zlog.Debug().Msgf("input poller started: interval=%v", p.interval)
	defer zlog.Debug().Msg("input poller stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			pressed, err := p.device.Pressed()
			if err != nil {
				zlog.Error().Msgf("input poller: failed to read button: %v", err)
				continue
			}
			for _, ev := range p.classifier.Step(now, pressed) {
				zlog.Debug().Msgf("input action: %s", ev.Action)
				select {
				case p.eventCh <- ev:
				default:
					zlog.Warn().Msgf("input poller: event channel full, dropping %s", ev.Action)
				}
			}
		}
	}
}
