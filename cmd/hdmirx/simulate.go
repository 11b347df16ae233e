package main

import (
	"context"
	"strings"

	"github.com/danmuck/hdmirx/internal/bench"
	"github.com/danmuck/hdmirx/internal/config"
	"github.com/danmuck/hdmirx/internal/stimulus"
	"github.com/rs/zerolog/log"
)

type SimulateCmd struct {
	Frames    int     `help:"Number of frames to generate" default:"6"`
	Pattern   string  `help:"Override stimulus.pattern (bars, gradient, solid)"`
	Timing    string  `help:"Override stimulus.timing preset"`
	Jitter    float64 `help:"Override stimulus.jitter when >= 0" default:"-1"`
	Snapshots string  `help:"Directory for BMP snapshots of complete frames" type:"path"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	sc, err := stimulusOverrides(&cfg, c.Pattern, c.Timing, c.Jitter)
	if err != nil {
		return err
	}
	feed, err := bench.NewSourceFeed(sc, linkConfig(cfg))
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, cfg.LaneConfig(), sc.Timing.VSyncPositive, c.Snapshots)
	if err != nil {
		return err
	}

	ticks := uint64(c.Frames) * uint64(sc.Timing.FrameTicks())
	log.Info().
		Str("node", cfg.Node).
		Str("timing", sc.Timing.Name).
		Str("pattern", sc.Pattern.Name()).
		Ints("offsets", sc.Offsets[:]).
		Float64("jitter", sc.Jitter).
		Uint64("ticks", ticks).
		Msg("simulate")
	if err := p.Run(context.Background(), feed, ticks); err != nil {
		return err
	}
	return summarize(p)
}

// stimulusOverrides applies command-line overrides and resolves the
// stimulus section.
func stimulusOverrides(cfg *config.Config, pattern, timing string, jitter float64) (stimulus.Config, error) {
	if strings.TrimSpace(pattern) != "" {
		cfg.Stimulus.Pattern = pattern
	}
	if strings.TrimSpace(timing) != "" {
		cfg.Stimulus.Timing = timing
	}
	if jitter >= 0 {
		cfg.Stimulus.Jitter = jitter
	}
	if err := config.Validate(*cfg); err != nil {
		return stimulus.Config{}, err
	}
	return cfg.StimulusConfig()
}

func linkConfig(cfg config.Config) bench.LinkConfig {
	return bench.LinkConfig{
		ClockLockCycles: cfg.Link.ClockLockCycles,
		SettleCycles:    cfg.Link.SettleCycles,
	}
}
