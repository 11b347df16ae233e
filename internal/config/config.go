package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/hdmirx/internal/capture"
	"github.com/danmuck/hdmirx/internal/framesync"
	"github.com/danmuck/hdmirx/internal/lane"
	"github.com/danmuck/hdmirx/internal/link"
	"github.com/danmuck/hdmirx/internal/logging"
	"github.com/danmuck/hdmirx/internal/stimulus"
	gotoml "github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Node     string         `toml:"node"`
	Receiver ReceiverConfig `toml:"receiver"`
	Link     LinkConfig     `toml:"link"`
	Stimulus StimulusConfig `toml:"stimulus"`
	Status   StatusConfig   `toml:"status"`
	Log      LogConfig      `toml:"log"`
}

type ReceiverConfig struct {
	Oversample      int  `toml:"oversample"`
	MaxDelay        int  `toml:"max_delay"`
	LockRun         int  `toml:"lock_run"`
	GateUntilLocked bool `toml:"gate_until_locked"`
}

type LinkConfig struct {
	ClockLockCycles int `toml:"clock_lock_cycles"`
	SettleCycles    int `toml:"settle_cycles"`
}

type StimulusConfig struct {
	// Timing is a preset name, or "custom" to use Custom.
	Timing  string          `toml:"timing"`
	Pattern string          `toml:"pattern"`
	Offsets []int           `toml:"offsets"`
	Jitter  float64         `toml:"jitter"`
	Seed    int64           `toml:"seed"`
	Custom  stimulus.Timing `toml:"custom"`
}

type StatusConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	// TickRate paces the serve loop in pixel clocks per second.
	TickRate int `toml:"tick_rate"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func Default() Config {
	lc := lane.DefaultConfig()
	return Config{
		Node: "hdmirx.local",
		Receiver: ReceiverConfig{
			Oversample:      lc.Oversample,
			MaxDelay:        lc.MaxDelay,
			LockRun:         lc.LockRun,
			GateUntilLocked: lc.GateUntilLocked,
		},
		Link: LinkConfig{
			ClockLockCycles: 10,
			SettleCycles:    link.DefaultSettleCycles,
		},
		Stimulus: StimulusConfig{
			Timing:  "tiny",
			Pattern: "bars",
			Offsets: []int{3, 17, 29},
			Seed:    1,
		},
		Status: StatusConfig{
			Addr:        "127.0.0.1:9200",
			CorsOrigins: []string{"http://localhost:3000"},
			TickRate:    20000,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}
	if meta.IsDefined("stimulus", "timing") {
		cfg.Stimulus.Timing = strings.ToLower(strings.TrimSpace(cfg.Stimulus.Timing))
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Node) == "" {
		return fmt.Errorf("%w: node is required", ErrInvalidConfig)
	}
	r := cfg.Receiver
	if r.Oversample <= 0 || r.Oversample > capture.MaxOversample {
		return fmt.Errorf("%w: receiver.oversample must be in [1,%d]", ErrInvalidConfig, capture.MaxOversample)
	}
	window := 10 * r.Oversample
	if r.MaxDelay < r.Oversample-1 || r.MaxDelay >= window {
		return fmt.Errorf("%w: receiver.max_delay must be in [%d,%d)", ErrInvalidConfig, r.Oversample-1, window)
	}
	if r.LockRun < 1 {
		return fmt.Errorf("%w: receiver.lock_run must be at least 1", ErrInvalidConfig)
	}
	if cfg.Link.ClockLockCycles < 0 || cfg.Link.SettleCycles < 0 {
		return fmt.Errorf("%w: link cycle counts cannot be negative", ErrInvalidConfig)
	}
	if _, err := cfg.StimulusConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if strings.TrimSpace(cfg.Status.Addr) == "" {
		return fmt.Errorf("%w: status.addr is required", ErrInvalidConfig)
	}
	if cfg.Status.TickRate <= 0 {
		return fmt.Errorf("%w: status.tick_rate must be positive", ErrInvalidConfig)
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok && strings.TrimSpace(cfg.Log.Level) != "" {
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalidConfig, cfg.Log.Level)
	}
	return nil
}

// LaneConfig converts the receiver section.
func (c Config) LaneConfig() lane.Config {
	return lane.Config{
		Oversample:      c.Receiver.Oversample,
		MaxDelay:        c.Receiver.MaxDelay,
		LockRun:         c.Receiver.LockRun,
		GateUntilLocked: c.Receiver.GateUntilLocked,
	}
}

// StimulusConfig resolves the stimulus section against the receiver's
// oversample factor.
func (c Config) StimulusConfig() (stimulus.Config, error) {
	s := c.Stimulus
	var timing stimulus.Timing
	if strings.EqualFold(strings.TrimSpace(s.Timing), "custom") {
		timing = s.Custom
		if timing.Name == "" {
			timing.Name = "custom"
		}
	} else {
		t, err := stimulus.Preset(s.Timing)
		if err != nil {
			return stimulus.Config{}, err
		}
		timing = t
	}
	if err := timing.Validate(); err != nil {
		return stimulus.Config{}, err
	}
	pattern, err := stimulus.PatternByName(s.Pattern)
	if err != nil {
		return stimulus.Config{}, err
	}
	if len(s.Offsets) != framesync.Lanes {
		return stimulus.Config{}, fmt.Errorf("stimulus.offsets needs %d entries, got %d", framesync.Lanes, len(s.Offsets))
	}
	window := 10 * c.Receiver.Oversample
	var offsets [framesync.Lanes]int
	for i, off := range s.Offsets {
		if off < 0 || off >= window {
			return stimulus.Config{}, fmt.Errorf("stimulus.offsets[%d]=%d outside [0,%d)", i, off, window)
		}
		offsets[i] = off
	}
	if s.Jitter < 0 || s.Jitter > 1 {
		return stimulus.Config{}, fmt.Errorf("stimulus.jitter=%v outside [0,1]", s.Jitter)
	}
	return stimulus.Config{
		Timing:     timing,
		Pattern:    pattern,
		Oversample: c.Receiver.Oversample,
		Offsets:    offsets,
		Jitter:     s.Jitter,
		Seed:       s.Seed,
	}, nil
}

// Template renders the default configuration as TOML.
func Template() ([]byte, error) {
	return gotoml.Marshal(Default())
}

func WriteTemplate(path string, overwrite bool) error {
	data, err := Template()
	if err != nil {
		return fmt.Errorf("config template: %w", err)
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, data, 0o600)
}
