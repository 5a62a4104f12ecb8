package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Mavwarf/moodscape/internal/paths"
)

// Defaults.
const (
	DefaultSampleRate           = 44100
	DefaultMasterVolume         = 0.3
	DefaultFadeOutSeconds       = 1.5
	DefaultFadeInSeconds        = 2.0
	DefaultTeardownDelaySeconds = 2.0
	DefaultBufferMillis         = 100
	DefaultDwellSeconds         = 20
	DefaultTopic                = "moodscape/mood"
	DefaultClientID             = "moodscape"
)

// ErrNotFound is returned by Load when no config file exists in any of the
// searched locations.
var ErrNotFound = errors.New("no " + paths.ConfigFileName + " found")

// Audio holds engine and device settings.
type Audio struct {
	SampleRate           int     `json:"sample_rate,omitempty" env:"MOODSCAPE_SAMPLE_RATE"`
	MasterVolume         float64 `json:"master_volume" env:"MOODSCAPE_MASTER_VOLUME"`
	FadeOutSeconds       float64 `json:"fade_out_seconds,omitempty" env:"MOODSCAPE_FADE_OUT_SECONDS"`
	FadeInSeconds        float64 `json:"fade_in_seconds,omitempty" env:"MOODSCAPE_FADE_IN_SECONDS"`
	TeardownDelaySeconds float64 `json:"teardown_delay_seconds,omitempty" env:"MOODSCAPE_TEARDOWN_DELAY_SECONDS"`
	BufferMillis         int     `json:"buffer_millis,omitempty" env:"MOODSCAPE_BUFFER_MILLIS"`
	Seed                 uint64  `json:"seed,omitempty" env:"MOODSCAPE_SEED"` // 0 = random detune
}

// MQTT holds the broker used by listen and send.
type MQTT struct {
	Broker   string `json:"broker,omitempty" env:"MOODSCAPE_MQTT_BROKER"`
	ClientID string `json:"client_id,omitempty" env:"MOODSCAPE_MQTT_CLIENT_ID"`
	Topic    string `json:"topic,omitempty" env:"MOODSCAPE_MQTT_TOPIC"`
	Username string `json:"username,omitempty" env:"MOODSCAPE_MQTT_USERNAME"`
	Password string `json:"password,omitempty" env:"MOODSCAPE_MQTT_PASSWORD"`
	QoS      byte   `json:"qos,omitempty" env:"MOODSCAPE_MQTT_QOS"`
}

// History controls the transition log.
type History struct {
	Enabled bool   `json:"enabled" env:"MOODSCAPE_HISTORY"`
	Path    string `json:"path,omitempty" env:"MOODSCAPE_HISTORY_PATH"` // "" = data dir
}

// Config is the top-level configuration.
type Config struct {
	Audio        Audio   `json:"audio"`
	MQTT         MQTT    `json:"mqtt"`
	History      History `json:"history"`
	DwellSeconds float64 `json:"dwell_seconds,omitempty" env:"MOODSCAPE_DWELL_SECONDS"`
	Debug        bool    `json:"debug,omitempty" env:"MOODSCAPE_DEBUG"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.Audio = Audio{
		SampleRate:           DefaultSampleRate,
		MasterVolume:         DefaultMasterVolume,
		FadeOutSeconds:       DefaultFadeOutSeconds,
		FadeInSeconds:        DefaultFadeInSeconds,
		TeardownDelaySeconds: DefaultTeardownDelaySeconds,
		BufferMillis:         DefaultBufferMillis,
	}
	c.MQTT = MQTT{ClientID: DefaultClientID, Topic: DefaultTopic}
	c.History = History{Enabled: true}
	c.DwellSeconds = DefaultDwellSeconds
}

// UnmarshalJSON sets defaults then decodes the JSON structure.
// Go's json.Unmarshal merges into existing struct fields, so only
// values present in JSON override the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	c.setDefaults()
	type Alias Config
	return json.Unmarshal(data, (*Alias)(c))
}

// Validate reports settings the engine cannot run with.
func (c Config) Validate() error {
	a := c.Audio
	var errs []error
	if a.SampleRate < 8000 || a.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d out of range 8000-192000", a.SampleRate))
	}
	if a.MasterVolume < 0 || a.MasterVolume > 1 || math.IsNaN(a.MasterVolume) {
		errs = append(errs, fmt.Errorf("audio.master_volume %v out of range 0-1", a.MasterVolume))
	}
	if a.FadeOutSeconds <= 0 || a.FadeInSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio fade durations must be positive"))
	}
	if a.TeardownDelaySeconds < a.FadeOutSeconds {
		errs = append(errs, fmt.Errorf("audio.teardown_delay_seconds %v must be >= fade_out_seconds %v",
			a.TeardownDelaySeconds, a.FadeOutSeconds))
	}
	if a.BufferMillis <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_millis must be positive"))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos %d out of range 0-2", c.MQTT.QoS))
	}
	if c.DwellSeconds <= 0 {
		errs = append(errs, fmt.Errorf("dwell_seconds must be positive"))
	}
	return errors.Join(errs...)
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

// FadeOut returns the fade-out duration.
func (a Audio) FadeOut() time.Duration { return seconds(a.FadeOutSeconds) }

// FadeIn returns the fade-in duration.
func (a Audio) FadeIn() time.Duration { return seconds(a.FadeInSeconds) }

// TeardownDelay returns the delay before retired chains are released.
func (a Audio) TeardownDelay() time.Duration { return seconds(a.TeardownDelaySeconds) }

// Buffer returns the device buffer duration.
func (a Audio) Buffer() time.Duration { return time.Duration(a.BufferMillis) * time.Millisecond }

// Dwell returns how long play and render hold each mood.
func (c Config) Dwell() time.Duration { return seconds(c.DwellSeconds) }

// HistoryPath returns the configured history database path.
func (c Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(paths.DataDir(), paths.HistoryFileName)
}

// Load reads the config file, applies MOODSCAPE_* environment overrides and
// validates the result. The file is looked up, in order:
//  1. explicitPath (if non-empty)
//  2. moodscape-config.json next to the running binary
//  3. the user data directory (see paths.DataDir)
//
// When no file is found the built-in defaults are used.
func Load(explicitPath string) (Config, error) {
	cfg, err := find(explicitPath)
	if errors.Is(err, ErrNotFound) {
		cfg = Default()
	} else if err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from MOODSCAPE_* environment variables.
// Unset variables leave fields untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func find(explicitPath string) (Config, error) {
	if explicitPath != "" {
		return readConfig(explicitPath)
	}

	// Next to binary
	exe, err := os.Executable()
	if err == nil {
		p := filepath.Join(filepath.Dir(exe), paths.ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return readConfig(p)
		}
	}

	// User data directory
	p := filepath.Join(paths.DataDir(), paths.ConfigFileName)
	if _, err := os.Stat(p); err == nil {
		return readConfig(p)
	}

	return Config{}, ErrNotFound
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Write stores cfg as indented JSON at path, creating parent directories.
func Write(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return paths.AtomicWrite(path, append(data, '\n'))
}
