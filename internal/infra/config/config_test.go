package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
voip:
  server: sip.example.com
  username: handset01
  password: secret
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "handset", cfg.Device.Name)
	assert.Equal(t, "localhost", cfg.Audio.MopidyHost)
	assert.Equal(t, 6680, cfg.Audio.MopidyPort)
	assert.Equal(t, 2000, cfg.Audio.PollIntervalMs)
	assert.Equal(t, 60, cfg.Audio.DefaultVolume)
	assert.False(t, cfg.Audio.StayPausedAfterCall)
	assert.Equal(t, "udp", cfg.VoIP.Transport)
	assert.Equal(t, "linphonec", cfg.VoIP.LinphonecPath)
	assert.Equal(t, "gpio", cfg.Input.Type)
	assert.Equal(t, 50, cfg.Input.DebounceMs)
	assert.Equal(t, 800, cfg.Input.LongPressMs)
	assert.Equal(t, 300, cfg.Input.DoubleWindowMs)
	assert.Equal(t, 10, cfg.Input.PollIntervalMs)
	assert.Equal(t, ":8090", cfg.Status.Addr)
	assert.False(t, cfg.Status.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 440, cfg.Ringtone.FrequencyHz)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
device:
  name: kitchen-handset
audio:
  mopidy_host: media.local
  mopidy_port: 6681
  stay_paused_after_call: true
voip:
  server: sip.example.com
  username: kitchen
  password: secret
  transport: tcp
input:
  type: gpio
  settings:
    pin: 17
    active_low: true
status:
  enabled: true
  addr: ":9000"
contacts:
  - name: Living Room
    address: sip:living@sip.example.com
  - name: Office
    address: "201"
hooks:
  on_started:
    - /usr/local/bin/led green
  on_stopped:
    - /usr/local/bin/led off
`))
	require.NoError(t, err)

	assert.Equal(t, "kitchen-handset", cfg.Device.Name)
	assert.Equal(t, "media.local", cfg.Audio.MopidyHost)
	assert.Equal(t, 6681, cfg.Audio.MopidyPort)
	assert.True(t, cfg.Audio.StayPausedAfterCall)
	assert.Equal(t, "tcp", cfg.VoIP.Transport)
	assert.Equal(t, 17, cfg.Input.Settings["pin"])
	assert.True(t, cfg.Status.Enabled)
	assert.Equal(t, ":9000", cfg.Status.Addr)
	require.Len(t, cfg.Contacts, 2)
	assert.Equal(t, "Living Room", cfg.Contacts[0].Name)
	require.Len(t, cfg.Hooks.OnStarted, 1)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SIP_USERNAME", "env-user")
	t.Setenv("SIP_PASSWORD", "env-pass")
	t.Setenv("MOPIDY_HOST", "env-mopidy")
	t.Setenv("MOPIDY_PORT", "7000")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-user", cfg.VoIP.Username)
	assert.Equal(t, "env-pass", cfg.VoIP.Password)
	assert.Equal(t, "env-mopidy", cfg.Audio.MopidyHost)
	assert.Equal(t, 7000, cfg.Audio.MopidyPort)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing voip server",
			content: "voip:\n  username: handset01\n",
		},
		{
			name:    "bad transport",
			content: minimalConfig + "  transport: sctp\n",
		},
		{
			name:    "volume out of range",
			content: minimalConfig + "audio:\n  default_volume: 150\n",
		},
		{
			name:    "debounce not below long press",
			content: minimalConfig + "input:\n  debounce_ms: 900\n  long_press_ms: 800\n",
		},
		{
			name:    "contact without address",
			content: minimalConfig + "contacts:\n  - name: Office\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestContactByName(t *testing.T) {
	cfg := &Config{Contacts: []Contact{
		{Name: "Office", Address: "sip:office@example.com"},
	}}

	contact, ok := cfg.ContactByName("Office")
	require.True(t, ok)
	assert.Equal(t, "sip:office@example.com", contact.Address)

	_, ok = cfg.ContactByName("Nobody")
	assert.False(t, ok)
}
