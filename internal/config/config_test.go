package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hdmirx.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
node = "bench-rx"

[receiver]
lock_run = 24

[stimulus]
timing = " VGA "
pattern = "gradient"
offsets = [0, 25, 45]
jitter = 0.1

[link]
settle_cycles = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Node != "bench-rx" {
		t.Fatalf("node: %q", cfg.Node)
	}
	if cfg.Receiver.LockRun != 24 || cfg.Receiver.Oversample != 5 || cfg.Receiver.MaxDelay != 4 {
		t.Fatalf("receiver: %+v", cfg.Receiver)
	}
	if !cfg.Receiver.GateUntilLocked {
		t.Fatalf("gate_until_locked default lost")
	}
	if cfg.Link.SettleCycles != 3 || cfg.Link.ClockLockCycles != 10 {
		t.Fatalf("link: %+v", cfg.Link)
	}
	if cfg.Stimulus.Timing != "vga" {
		t.Fatalf("timing not normalized: %q", cfg.Stimulus.Timing)
	}

	sc, err := cfg.StimulusConfig()
	if err != nil {
		t.Fatalf("stimulus config: %v", err)
	}
	if sc.Timing.HActive != 640 || sc.Pattern.Name() != "gradient" || sc.Offsets[2] != 45 || sc.Jitter != 0.1 {
		t.Fatalf("stimulus: %+v", sc)
	}
	lc := cfg.LaneConfig()
	if lc.LockRun != 24 || lc.Oversample != 5 {
		t.Fatalf("lane config: %+v", lc)
	}
}

func TestLoadCustomTiming(t *testing.T) {
	path := writeConfig(t, `
[stimulus]
timing = "custom"

[stimulus.custom]
h_active = 32
h_front = 2
h_sync = 4
h_back = 6
v_active = 4
v_front = 1
v_sync = 1
v_back = 1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sc, err := cfg.StimulusConfig()
	if err != nil {
		t.Fatalf("stimulus config: %v", err)
	}
	if sc.Timing.Name != "custom" || sc.Timing.HTotal() != 44 || sc.Timing.VTotal() != 7 {
		t.Fatalf("custom timing: %+v", sc.Timing)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "bogus = 1\n",
		"lock run":       "[receiver]\nlock_run = 0\n",
		"oversample":     "[receiver]\noversample = 300\nmax_delay = 299\n",
		"tap range":      "[receiver]\nmax_delay = 2\n",
		"offset range":   "[stimulus]\noffsets = [0, 1, 50]\n",
		"offset count":   "[stimulus]\noffsets = [0, 1]\n",
		"pattern":        "[stimulus]\npattern = \"plaid\"\n",
		"timing":         "[stimulus]\ntiming = \"ntsc\"\n",
		"jitter":         "[stimulus]\njitter = 2.0\n",
		"log level":      "[log]\nlevel = \"loud\"\n",
		"tick rate":      "[status]\ntick_rate = 0\n",
		"custom timing":  "[stimulus]\ntiming = \"custom\"\n",
		"negative cycle": "[link]\nsettle_cycles = -1\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("expected load failure, got %v", err)
	}
}

func TestWriteTemplateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdmirx.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	def := Default()
	if cfg.Node != def.Node || cfg.Receiver != def.Receiver || cfg.Link != def.Link || cfg.Status.Addr != def.Status.Addr {
		t.Fatalf("template round trip: got=%+v want=%+v", cfg, def)
	}
}
