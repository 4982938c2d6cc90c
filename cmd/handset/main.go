// Package main provides the handset entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/handset/internal/api/status"
	"github.com/osa030/handset/internal/app/coordinator"
	"github.com/osa030/handset/internal/app/input"
	"github.com/osa030/handset/internal/infra/config"
	"github.com/osa030/handset/internal/infra/logger"
	"github.com/osa030/handset/internal/infra/mopidy"
	"github.com/osa030/handset/internal/infra/ringtone"
	"github.com/osa030/handset/internal/infra/voip"
)

var (
	app        = kingpin.New("handset", "VoIP music handset controller")
	configPath = app.Flag("config", "Path to config file").Default("config/handset.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: console)").String()
	simulate   = app.Flag("simulate", "Run without hardware: no GPIO, no linphonec, no ringer").Bool()

	checkCmd = app.Command("check-config", "Validate the config file and exit")
)

func init() {
	app.Command("start", "Start the handset (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.Logging.File != "" && *logfile == "" {
		_ = logger.Init(logger.Config{Level: cfg.Logging.Level, File: cfg.Logging.File})
	}

	if command == checkCmd.FullCommand() {
		fmt.Println("config OK")
		return
	}

	if err := run(cfg); err != nil && err != context.Canceled {
		zlog.Error().Msgf("Handset error: %v", err)
		os.Exit(1)
	}
}

// run wires the subsystems together and blocks until a shutdown signal.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Music daemon client and playback monitor.
	player := mopidy.New(mopidy.Config{
		Host: cfg.Audio.MopidyHost,
		Port: cfg.Audio.MopidyPort,
	})
	monitor := mopidy.NewMonitor(player, time.Duration(cfg.Audio.PollIntervalMs)*time.Millisecond)

	if version, err := player.Ping(ctx); err != nil {
		zlog.Warn().Err(err).Msg("Mopidy not reachable yet, monitor will keep polling")
	} else {
		zlog.Info().Msgf("Connected to Mopidy %s at %s:%d", version, cfg.Audio.MopidyHost, cfg.Audio.MopidyPort)
		if err := player.SetVolume(ctx, cfg.Audio.DefaultVolume); err != nil {
			zlog.Warn().Err(err).Msg("Failed to set default volume")
		}
	}

	// Button input.
	deviceType := cfg.Input.Type
	if *simulate {
		deviceType = "null"
	}
	device, err := input.NewDeviceFromConfig(deviceType, cfg.Input.Settings)
	if err != nil {
		return err
	}
	poller := input.NewPoller(device, input.Timing{
		Debounce:     time.Duration(cfg.Input.DebounceMs) * time.Millisecond,
		LongPress:    time.Duration(cfg.Input.LongPressMs) * time.Millisecond,
		DoubleWindow: time.Duration(cfg.Input.DoubleWindowMs) * time.Millisecond,
		PollInterval: time.Duration(cfg.Input.PollIntervalMs) * time.Millisecond,
	})

	// SIP and ringer.
	var phone coordinator.CallControl = coordinator.NopPhone{}
	var driver *voip.Driver
	var ringer ringtone.Ringer = ringtone.NullRinger{}
	if !*simulate {
		driver = voip.NewDriver(voip.Config{
			Binary:    cfg.VoIP.LinphonecPath,
			Server:    cfg.VoIP.Server,
			Username:  cfg.VoIP.Username,
			Password:  cfg.VoIP.Password,
			Transport: cfg.VoIP.Transport,
		})
		phone = driver
		if !cfg.Ringtone.Disabled {
			ringer = ringtone.NewToneRinger(cfg.Ringtone.Device, cfg.Ringtone.FrequencyHz)
		}
	}

	var speedDial string
	if len(cfg.Contacts) > 0 {
		speedDial = cfg.Contacts[0].Address
	}
	coord := coordinator.New(coordinator.Deps{
		Music:               player,
		Phone:               phone,
		Ringer:              ringer,
		StayPausedAfterCall: cfg.Audio.StayPausedAfterCall,
		SpeedDial:           speedDial,
	})

	var statusSrv *status.Server
	if cfg.Status.Enabled {
		statusSrv = status.New(cfg.Status.Addr, coord)
		coord.SetNotifier(statusSrv.Publish)
	}

	if driver != nil {
		if err := driver.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := driver.Stop(); err != nil {
				zlog.Warn().Err(err).Msg("linphonec did not stop cleanly")
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return coord.Run(gctx) })
	g.Go(func() error { return poller.Run(gctx) })
	g.Go(func() error { return monitor.Run(gctx) })
	if statusSrv != nil {
		g.Go(func() error { return statusSrv.Run(gctx) })
	}

	// Producer events converge on the coordinator channel.
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case ev := <-poller.Events():
				coord.SubmitInput(ev)
			case ev := <-monitor.Events():
				coord.SubmitPlayback(ev)
			}
		}
	})
	if driver != nil {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case ev := <-driver.Events():
					coord.SubmitVoIP(ev)
				}
			}
		})
	}

	executeHooks(cfg.Hooks.OnStarted, "on_started")
	zlog.Info().Msgf("Handset %s running", cfg.Device.Name)

	<-ctx.Done()
	zlog.Info().Msg("Received shutdown signal...")
	err = g.Wait()

	executeHooks(cfg.Hooks.OnStopped, "on_stopped")
	zlog.Info().Msg("Handset stopped")
	return err
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
