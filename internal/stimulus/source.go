package stimulus

import (
	"fmt"
	"math/rand"

	"github.com/danmuck/hdmirx/internal/framesync"
)

// Config describes a transmit-side signal.
type Config struct {
	Timing     Timing
	Pattern    Pattern
	Oversample int
	// Offsets is each lane's delay in samples, in [0, 10*Oversample).
	Offsets [framesync.Lanes]int
	Jitter  float64
	Seed    int64
}

func DefaultConfig() Config {
	t, _ := Preset("tiny")
	return Config{
		Timing:     t,
		Pattern:    Bars{},
		Oversample: 5,
		Offsets:    [framesync.Lanes]int{3, 17, 29},
		Seed:       1,
	}
}

// Tick is one pixel clock of transmitted signal.
type Tick struct {
	Sent  framesync.PixelSample
	Lanes [framesync.Lanes][]byte
}

// Source produces per-lane sample windows for a generated raster.
type Source struct {
	gen   *Generator
	lanes [framesync.Lanes]*Serializer
}

func NewSource(cfg Config) (*Source, error) {
	if err := cfg.Timing.Validate(); err != nil {
		return nil, err
	}
	if cfg.Pattern == nil {
		cfg.Pattern = Bars{}
	}
	src := &Source{gen: NewGenerator(cfg.Timing, cfg.Pattern)}
	for i := range src.lanes {
		// Independent jitter per lane, reproducible from one seed.
		rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
		ser, err := NewSerializer(cfg.Oversample, cfg.Offsets[i], cfg.Jitter, rng)
		if err != nil {
			return nil, fmt.Errorf("lane %d: %w", i, err)
		}
		src.lanes[i] = ser
	}
	return src, nil
}

func (s *Source) Timing() Timing { return s.gen.Timing() }

// Frame is the frame index of the next generated pixel.
func (s *Source) Frame() int { return s.gen.Frame() }

func (s *Source) Next() Tick {
	px := s.gen.Next()
	words := EncodePixel(px)
	t := Tick{Sent: px}
	for i, ser := range s.lanes {
		t.Lanes[i] = ser.Tick(words[i])
	}
	return t
}
