package stimulus

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Pattern colors one active pixel of a frame.
type Pattern interface {
	Name() string
	At(x, y, frame int, t Timing) color.RGBA
}

var barColors = [8]color.RGBA{
	{0xFF, 0xFF, 0xFF, 0xFF},
	{0xFF, 0xFF, 0x00, 0xFF},
	{0x00, 0xFF, 0xFF, 0xFF},
	{0x00, 0xFF, 0x00, 0xFF},
	{0xFF, 0x00, 0xFF, 0xFF},
	{0xFF, 0x00, 0x00, 0xFF},
	{0x00, 0x00, 0xFF, 0xFF},
	{0x00, 0x00, 0x00, 0xFF},
}

// Bars is the classic eight-bar pattern.
type Bars struct{}

func (Bars) Name() string { return "bars" }

func (Bars) At(x, _, _ int, t Timing) color.RGBA {
	i := x * len(barColors) / t.HActive
	return barColors[i]
}

// Gradient ramps red across x and green down y; blue carries the frame
// number so consecutive frames differ.
type Gradient struct{}

func (Gradient) Name() string { return "gradient" }

func (Gradient) At(x, y, frame int, t Timing) color.RGBA {
	return color.RGBA{
		R: uint8(ramp(x, t.HActive)),
		G: uint8(ramp(y, t.VActive)),
		B: uint8(frame),
		A: 0xFF,
	}
}

// Solid fills every pixel with one color.
type Solid struct {
	Color color.RGBA
}

func (Solid) Name() string { return "solid" }

func (s Solid) At(_, _, _ int, _ Timing) color.RGBA {
	c := s.Color
	c.A = 0xFF
	return c
}

func ramp(v, span int) int {
	if span <= 1 {
		return 0
	}
	return v * 255 / (span - 1)
}

// PatternByName resolves "bars", "gradient" or "solid".
func PatternByName(name string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bars", "":
		return Bars{}, nil
	case "gradient":
		return Gradient{}, nil
	case "solid":
		return Solid{Color: color.RGBA{R: 0x10, G: 0x20, B: 0x30}}, nil
	default:
		return nil, fmt.Errorf("stimulus: unknown pattern %q", name)
	}
}

// RenderFrame draws the active area of one frame.
func RenderFrame(t Timing, p Pattern, frame int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.HActive, t.VActive))
	for y := 0; y < t.VActive; y++ {
		for x := 0; x < t.HActive; x++ {
			img.SetRGBA(x, y, p.At(x, y, frame, t))
		}
	}
	return img
}
