package input

import "time"

// Timing holds the press classification timing parameters.
type Timing struct {
	Debounce     time.Duration // Raw edge must persist this long to count
	LongPress    time.Duration // Hold threshold for ActionLongPress
	DoubleWindow time.Duration // Window after a short press for a double press
	PollInterval time.Duration // Poll loop period
}

// DefaultTiming returns the timing used on the device hardware.
func DefaultTiming() Timing {
	return Timing{
		Debounce:     50 * time.Millisecond,
		LongPress:    800 * time.Millisecond,
		DoubleWindow: 300 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}
}

// classifierPhase tracks where the classifier is within a press cycle.
type classifierPhase int

const (
	phaseReleased   classifierPhase = iota // Button up, nothing pending
	phaseDebouncing                        // Raw press seen, waiting out the debounce delay
	phasePressed                           // Debounced press in progress
)

// Classifier turns a sampled button level into semantic events. It is a pure
// state machine driven by Step, which makes the timing behavior fully
// deterministic under test: callers feed it (now, pressed) samples.
//
// Classification rules:
//   - a press shorter than LongPress produces ActionSelect, delayed by
//     DoubleWindow so a double press can suppress it;
//   - a second press starting within DoubleWindow of the first release
//     produces ActionBack and swallows the pending ActionSelect;
//   - holding past LongPress produces ActionLongPress exactly once and
//     suppresses the ActionSelect for that hold;
//   - ActionPTTPress/ActionPTTRelease mirror the debounced edges.
type Classifier struct {
	timing Timing

	phase         classifierPhase
	debounceStart time.Time
	pressStart    time.Time
	longFired     bool
	doublePress   bool // Current press is the second of a double

	pendingSelectAt time.Time // Deadline to emit the delayed ActionSelect; zero if none
}

// NewClassifier creates a classifier with the given timing.
func NewClassifier(timing Timing) *Classifier {
	return &Classifier{timing: timing}
}

// Step feeds one sample to the classifier and returns the events it produced.
// Samples must be fed in non-decreasing time order.
func (c *Classifier) Step(now time.Time, pressed bool) []Event {
	var events []Event

	// Flush a delayed short press once its double window has expired.
	if !c.pendingSelectAt.IsZero() && c.phase == phaseReleased && !now.Before(c.pendingSelectAt) {
		if !pressed {
			events = append(events, Event{Action: ActionSelect, At: now})
			c.pendingSelectAt = time.Time{}
		}
	}

	switch c.phase {
	case phaseReleased:
		if pressed {
			c.phase = phaseDebouncing
			c.debounceStart = now
		}

	case phaseDebouncing:
		if !pressed {
			// Edge did not survive the debounce delay.
			c.phase = phaseReleased
			break
		}
		if now.Sub(c.debounceStart) >= c.timing.Debounce {
			c.phase = phasePressed
			c.pressStart = c.debounceStart
			c.longFired = false
			c.doublePress = false

			if !c.pendingSelectAt.IsZero() {
				// Second press within the double window.
				events = append(events, Event{Action: ActionBack, At: now})
				c.pendingSelectAt = time.Time{}
				c.doublePress = true
			}
			events = append(events, Event{Action: ActionPTTPress, At: now})
		}

	case phasePressed:
		if pressed {
			if !c.longFired && now.Sub(c.pressStart) >= c.timing.LongPress {
				c.longFired = true
				events = append(events, Event{Action: ActionLongPress, At: now})
			}
			break
		}

		// Release edge.
		c.phase = phaseReleased
		duration := now.Sub(c.pressStart)
		events = append(events, Event{Action: ActionPTTRelease, At: now, Duration: duration})

		if !c.longFired && !c.doublePress {
			c.pendingSelectAt = now.Add(c.timing.DoubleWindow)
		}
		c.doublePress = false
	}

	return events
}
