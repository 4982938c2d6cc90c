package voip

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Config represents linphonec driver configuration.
type Config struct {
	Binary    string // path to the linphonec binary
	Server    string // SIP registrar, host or host:port
	Username  string
	Password  string
	Transport string // udp, tcp or tls
}

// Phone is the SIP calling capability exposed to the rest of the app.
type Phone interface {
	Answer() error
	Decline() error
	Hangup() error
	Dial(address string) error
	Registration() RegistrationState
}

// Driver runs linphonec as a child process, writes commands to its stdin
// and parses state changes from its stdout.
type Driver struct {
	cfg     Config
	eventCh chan Event

	mu           sync.Mutex
	cmd          *exec.Cmd
	stdin        io.WriteCloser
	regState     RegistrationState
	callState    CallState
	activeCallID string
	caller       Caller
}

// NewDriver creates a linphonec driver. Call Start before using it.
func NewDriver(cfg Config) *Driver {
	if cfg.Binary == "" {
		cfg.Binary = "linphonec"
	}
	if cfg.Transport == "" {
		cfg.Transport = "udp"
	}
	return &Driver{
		cfg:     cfg,
		eventCh: make(chan Event, 16),
	}
}

// Events returns the channel on which call and registration changes are
// delivered.
func (d *Driver) Events() <-chan Event {
	return d.eventCh
}

// Start spawns linphonec and registers with the configured SIP server.
// The process is terminated when ctx is cancelled.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd != nil {
		return errors.New("linphonec already started")
	}

	cmd := exec.CommandContext(ctx, d.cfg.Binary)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "failed to open linphonec stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to open linphonec stdout")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start linphonec")
	}
	d.cmd = cmd
	d.stdin = stdin

	go d.readLoop(stdout)

	d.regState = RegistrationInProgress
	identity := fmt.Sprintf("sip:%s@%s", d.cfg.Username, d.cfg.Server)
	proxy := "sip:" + d.cfg.Server
	if d.cfg.Transport != "udp" {
		proxy += ";transport=" + d.cfg.Transport
	}
	if err := d.writeLocked(fmt.Sprintf("register %s %s %s", identity, proxy, d.cfg.Password)); err != nil {
		return err
	}
	zlog.Info().Str("identity", identity).Msg("linphonec started, registering")
	return nil
}

// Stop asks linphonec to quit and waits for the process to exit.
func (d *Driver) Stop() error {
	d.mu.Lock()
	cmd := d.cmd
	if cmd == nil {
		d.mu.Unlock()
		return nil
	}
	_ = d.writeLocked("quit")
	d.cmd = nil
	d.mu.Unlock()

	if err := cmd.Wait(); err != nil {
		return errors.Wrap(err, "linphonec exit")
	}
	return nil
}

func (d *Driver) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		ev, ok := ParseLine(line)
		if !ok {
			continue
		}
		d.apply(ev)
	}
	if err := scanner.Err(); err != nil {
		zlog.Warn().Err(err).Msg("linphonec output read failed")
	}
	zlog.Info().Msg("linphonec output closed")
}

// apply updates the tracked state and forwards the event.
func (d *Driver) apply(ev Event) {
	d.mu.Lock()
	if ev.RegChanged {
		d.regState = ev.Registration
	}
	if ev.CallChanged {
		switch ev.Call {
		case CallIncomingRinging, CallOutgoingProgress:
			d.activeCallID = uuid.NewString()
			d.caller = ev.Caller
			d.callState = ev.Call
			ev.CallID = d.activeCallID
		case CallReleased, CallError:
			// The event still carries the id and caller of the call
			// that just ended.
			ev.CallID = d.activeCallID
			ev.Caller = d.caller
			d.activeCallID = ""
			d.caller = Caller{}
			d.callState = CallIdle
		default:
			d.callState = ev.Call
			ev.CallID = d.activeCallID
			ev.Caller = d.caller
		}
	}
	d.mu.Unlock()

	select {
	case d.eventCh <- ev:
	default:
		zlog.Warn().Msg("voip event channel full, dropping event")
	}
}

func (d *Driver) write(command string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(command)
}

func (d *Driver) writeLocked(command string) error {
	if d.stdin == nil {
		return errors.New("linphonec not started")
	}
	if _, err := fmt.Fprintln(d.stdin, command); err != nil {
		return errors.Wrapf(err, "failed to send linphonec command %q", command)
	}
	return nil
}

// Answer accepts the ringing call.
func (d *Driver) Answer() error {
	return d.write("answer")
}

// Decline rejects the ringing call.
func (d *Driver) Decline() error {
	return d.write("terminate")
}

// Hangup terminates the active call.
func (d *Driver) Hangup() error {
	return d.write("terminate")
}

// Dial places an outgoing call. Bare usernames are expanded against the
// configured server.
func (d *Driver) Dial(address string) error {
	if address == "" {
		return errors.New("empty dial address")
	}
	if len(address) < 4 || address[:4] != "sip:" {
		address = fmt.Sprintf("sip:%s@%s", address, d.cfg.Server)
	}
	return d.write("call " + address)
}

// Registration returns the last observed registration state.
func (d *Driver) Registration() RegistrationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regState
}

// Call returns the current call state and remote party.
func (d *Driver) Call() (CallState, Caller) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.callState, d.caller
}
