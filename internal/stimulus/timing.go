package stimulus

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidTiming = errors.New("stimulus: invalid timing")
	ErrUnknownTiming = errors.New("stimulus: unknown timing preset")
)

// Timing describes one raster. Porches and sync widths are in pixels for
// the horizontal axis and lines for the vertical axis.
type Timing struct {
	Name          string `toml:"name"`
	HActive       int    `toml:"h_active"`
	HFront        int    `toml:"h_front"`
	HSync         int    `toml:"h_sync"`
	HBack         int    `toml:"h_back"`
	VActive       int    `toml:"v_active"`
	VFront        int    `toml:"v_front"`
	VSync         int    `toml:"v_sync"`
	VBack         int    `toml:"v_back"`
	HSyncPositive bool   `toml:"h_sync_positive"`
	VSyncPositive bool   `toml:"v_sync_positive"`
}

var presets = map[string]Timing{
	"vga":  {Name: "vga", HActive: 640, HFront: 16, HSync: 96, HBack: 48, VActive: 480, VFront: 10, VSync: 2, VBack: 33},
	"svga": {Name: "svga", HActive: 800, HFront: 40, HSync: 128, HBack: 88, VActive: 600, VFront: 1, VSync: 4, VBack: 23, HSyncPositive: true, VSyncPositive: true},
	"tiny": {Name: "tiny", HActive: 16, HFront: 2, HSync: 4, HBack: 4, VActive: 8, VFront: 1, VSync: 2, VBack: 2, HSyncPositive: true, VSyncPositive: true},
}

// Preset returns a named timing.
func Preset(name string) (Timing, error) {
	t, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Timing{}, fmt.Errorf("%w: %q", ErrUnknownTiming, name)
	}
	return t, nil
}

// PresetNames lists presets in stable order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t Timing) HTotal() int { return t.HActive + t.HFront + t.HSync + t.HBack }

func (t Timing) VTotal() int { return t.VActive + t.VFront + t.VSync + t.VBack }

// FrameTicks is the number of pixel clocks in one frame.
func (t Timing) FrameTicks() int { return t.HTotal() * t.VTotal() }

func (t Timing) Validate() error {
	if t.HActive <= 0 || t.VActive <= 0 {
		return fmt.Errorf("%w: active area %dx%d", ErrInvalidTiming, t.HActive, t.VActive)
	}
	if t.HSync <= 0 || t.VSync <= 0 {
		return fmt.Errorf("%w: sync width h=%d v=%d", ErrInvalidTiming, t.HSync, t.VSync)
	}
	if t.HFront < 0 || t.HBack < 0 || t.VFront < 0 || t.VBack < 0 {
		return fmt.Errorf("%w: negative porch", ErrInvalidTiming)
	}
	return nil
}

// levels returns the blank flag and sync line levels at raster position
// (x, y).
func (t Timing) levels(x, y int) (blank, hsync, vsync bool) {
	blank = x >= t.HActive || y >= t.VActive
	hStart := t.HActive + t.HFront
	inH := x >= hStart && x < hStart+t.HSync
	vStart := t.VActive + t.VFront
	inV := y >= vStart && y < vStart+t.VSync
	return blank, inH == t.HSyncPositive, inV == t.VSyncPositive
}
