// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Audio    AudioConfig    `yaml:"audio"`
	VoIP     VoIPConfig     `yaml:"voip"`
	Input    InputConfig    `yaml:"input"`
	Status   StatusConfig   `yaml:"status"`
	Logging  LoggingConfig  `yaml:"logging"`
	Contacts []Contact      `yaml:"contacts" validate:"omitempty,dive"`
	Hooks    HooksConfig    `yaml:"hooks"`
	Ringtone RingtoneConfig `yaml:"ringtone"`
}

// DeviceConfig represents device identity configuration.
type DeviceConfig struct {
	Name string `yaml:"name" default:"handset"`
}

// AudioConfig represents the music daemon connection and playback policy.
type AudioConfig struct {
	MopidyHost          string `yaml:"mopidy_host" default:"localhost"`
	MopidyPort          int    `yaml:"mopidy_port" default:"6680" validate:"gt=0,lte=65535"`
	PollIntervalMs      int    `yaml:"poll_interval_ms" default:"2000" validate:"gte=200,lte=60000"`
	DefaultVolume       int    `yaml:"default_volume" default:"60" validate:"gte=0,lte=100"`
	StayPausedAfterCall bool   `yaml:"stay_paused_after_call"`
}

// VoIPConfig represents SIP configuration.
type VoIPConfig struct {
	Server        string `yaml:"server" validate:"required"`
	Username      string `yaml:"username" validate:"required"`
	Password      string `yaml:"password"`
	Transport     string `yaml:"transport" default:"udp" validate:"oneof=udp tcp tls"`
	LinphonecPath string `yaml:"linphonec_path" default:"linphonec"`
}

// InputConfig represents button input configuration.
type InputConfig struct {
	Type           string         `yaml:"type" default:"gpio" validate:"oneof=gpio null"`
	Settings       map[string]any `yaml:"settings"`
	DebounceMs     int            `yaml:"debounce_ms" default:"50" validate:"gte=0,lte=1000"`
	LongPressMs    int            `yaml:"long_press_ms" default:"800" validate:"gte=100,lte=5000"`
	DoubleWindowMs int            `yaml:"double_window_ms" default:"300" validate:"gte=0,lte=2000"`
	PollIntervalMs int            `yaml:"poll_interval_ms" default:"10" validate:"gte=1,lte=1000"`
}

// StatusConfig represents the status HTTP server configuration.
// The server is off unless enabled explicitly.
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" default:":8090"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	File  string `yaml:"file"`
}

// Contact represents a speed dial entry.
type Contact struct {
	Name    string `yaml:"name" validate:"required"`
	Address string `yaml:"address" validate:"required"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// RingtoneConfig represents alert tone configuration.
type RingtoneConfig struct {
	Disabled    bool   `yaml:"disabled"`
	Device      string `yaml:"device"`
	FrequencyHz int    `yaml:"frequency_hz" default:"440" validate:"gte=20,lte=20000"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SIP_USERNAME"); v != "" {
		c.VoIP.Username = v
	}
	if v := os.Getenv("SIP_PASSWORD"); v != "" {
		c.VoIP.Password = v
	}
	if v := os.Getenv("MOPIDY_HOST"); v != "" {
		c.Audio.MopidyHost = v
	}
	if v := os.Getenv("MOPIDY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Audio.MopidyPort = port
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	if c.Input.DebounceMs >= c.Input.LongPressMs {
		return errors.New("debounce_ms must be smaller than long_press_ms")
	}
	return nil
}

// ContactByName looks up a speed dial entry by display name.
func (c *Config) ContactByName(name string) (Contact, bool) {
	for _, contact := range c.Contacts {
		if contact.Name == name {
			return contact, true
		}
	}
	return Contact{}, false
}
