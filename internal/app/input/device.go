package input

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Device reads the instantaneous level of the physical button.
type Device interface {
	// Pressed returns true while the button is held down.
	Pressed() (bool, error)
}

// NullDevice is a Device that never reports a press. Used in simulation mode.
type NullDevice struct{}

// Pressed always returns false.
func (NullDevice) Pressed() (bool, error) { return false, nil }

// gpioSettings configures a sysfs GPIO button.
type gpioSettings struct {
	Pin       int  `mapstructure:"pin" validate:"gte=0"`
	ActiveLow bool `mapstructure:"active_low"`
}

// GPIODevice reads a button wired to a sysfs GPIO line.
type GPIODevice struct {
	path      string
	activeLow bool
}

// NewGPIODevice creates a device for the given GPIO pin. The pin must already
// be exported and configured as an input by the system.
func NewGPIODevice(settings map[string]any) (*GPIODevice, error) {
	var cfg gpioSettings
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode gpio settings")
	}

	path := gpioValuePath(cfg.Pin)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "gpio pin %d not available", cfg.Pin)
	}

	zlog.Info().Msgf("gpio button device: pin=%d active_low=%v", cfg.Pin, cfg.ActiveLow)
	return &GPIODevice{path: path, activeLow: cfg.ActiveLow}, nil
}

// Pressed reads the current GPIO level.
func (d *GPIODevice) Pressed() (bool, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return false, errors.Wrap(err, "failed to read gpio value")
	}
	high := strings.TrimSpace(string(data)) == "1"
	if d.activeLow {
		return !high, nil
	}
	return high, nil
}

func gpioValuePath(pin int) string {
	return "/sys/class/gpio/gpio" + strconv.Itoa(pin) + "/value"
}

// NewDeviceFromConfig creates a button device from a typed settings map.
func NewDeviceFromConfig(deviceType string, settings map[string]any) (Device, error) {
	switch deviceType {
	case "gpio":
		return NewGPIODevice(settings)
	case "null", "":
		return NullDevice{}, nil
	default:
		return nil, errors.Newf("unsupported input device type: %s", deviceType)
	}
}
