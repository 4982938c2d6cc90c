// Package ringtone plays the incoming call alert tone.
package ringtone

import (
	"os/exec"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Ringer starts and stops the incoming call alert.
type Ringer interface {
	Start() error
	Stop() error
}

// NullRinger is a Ringer that does nothing. Used when no audio output is
// available and in tests.
type NullRinger struct{}

func (NullRinger) Start() error { return nil }
func (NullRinger) Stop() error  { return nil }

// ToneRinger rings by running speaker-test with a sine tone. The process is
// killed on Stop.
type ToneRinger struct {
	device    string
	frequency int

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewToneRinger creates a ringer on the given ALSA device. An empty device
// means the default output; a non-positive frequency falls back to 440 Hz.
func NewToneRinger(device string, frequency int) *ToneRinger {
	if frequency <= 0 {
		frequency = 440
	}
	return &ToneRinger{device: device, frequency: frequency}
}

// Start begins ringing. Calling Start while already ringing is a no-op.
func (r *ToneRinger) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil {
		return nil
	}

	args := []string{"-t", "sine", "-f", strconv.Itoa(r.frequency), "-l", "0"}
	if r.device != "" {
		args = append(args, "-D", r.device)
	}
	cmd := exec.Command("speaker-test", args...)
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start ringer")
	}
	r.cmd = cmd

	// Reap the process so a self-exiting ringer does not leave a zombie.
	go func() {
		_ = cmd.Wait()
	}()

	zlog.Debug().Int("frequency", r.frequency).Msg("ringer started")
	return nil
}

// Stop silences the ringer. Stopping a silent ringer is a no-op.
func (r *ToneRinger) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd == nil {
		return nil
	}
	if err := r.cmd.Process.Kill(); err != nil {
		r.cmd = nil
		return errors.Wrap(err, "failed to stop ringer")
	}
	r.cmd = nil
	zlog.Debug().Msg("ringer stopped")
	return nil
}
