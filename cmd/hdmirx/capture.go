package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/danmuck/hdmirx/internal/bench"
	"github.com/danmuck/hdmirx/internal/capture"
	"github.com/rs/zerolog/log"
)

type CaptureCmd struct {
	Out         string  `arg:"" help:"Capture file to write" type:"path"`
	Frames      int     `help:"Number of frames to record" default:"4"`
	Pattern     string  `help:"Override stimulus.pattern"`
	Timing      string  `help:"Override stimulus.timing preset"`
	Jitter      float64 `help:"Override stimulus.jitter when >= 0" default:"-1"`
	NoReference bool    `name:"no-reference" help:"Omit transmitted pixels from records"`
}

func (c *CaptureCmd) Run(g *Globals) error {
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

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("create capture: %w", err)
	}
	defer f.Close()
	buf := bufio.NewWriter(f)

	ticks := c.Frames * sc.Timing.FrameTicks()
	hdr := capture.NewHeader(sc.Oversample, !c.NoReference)
	hdr.TickHint = uint64(ticks)
	w, err := capture.NewWriter(buf, hdr)
	if err != nil {
		return err
	}
	for i := 0; i < ticks; i++ {
		s, err := feed.Next()
		if err != nil {
			return err
		}
		rec := capture.Record{LinkReady: s.Input.LinkReady, Lanes: s.Input.Lanes, Sent: s.Sent}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	log.Info().
		Str("path", c.Out).
		Str("id", hdr.ID.String()).
		Uint64("records", w.Records()).
		Bool("reference", hdr.HasReference()).
		Str("timing", sc.Timing.Name).
		Str("pattern", sc.Pattern.Name()).
		Msg("capture written")
	return f.Close()
}

type ReplayCmd struct {
	Path      string `arg:"" help:"Capture file to replay" type:"existingfile"`
	Timing    string `help:"Timing preset the capture was recorded with, for vsync polarity"`
	Snapshots string `help:"Directory for BMP snapshots of complete frames" type:"path"`
}

func (c *ReplayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	sc, err := stimulusOverrides(&cfg, "", c.Timing, -1)
	if err != nil {
		return err
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()
	r, err := capture.NewReader(bufio.NewReader(f))
	if err != nil {
		return err
	}
	hdr := r.Header()

	lc := cfg.LaneConfig()
	if int(hdr.Oversample) != lc.Oversample {
		log.Warn().
			Int("config", lc.Oversample).
			Uint8("capture", hdr.Oversample).
			Msg("oversample differs from config; using capture value")
		lc.Oversample = int(hdr.Oversample)
		lc.MaxDelay = lc.Oversample - 1
	}
	p, err := newPipeline(cfg, lc, sc.Timing.VSyncPositive, c.Snapshots)
	if err != nil {
		return err
	}
	log.Info().
		Str("path", c.Path).
		Str("id", hdr.ID.String()).
		Time("created", hdr.Created).
		Uint64("tick_hint", hdr.TickHint).
		Bool("reference", hdr.HasReference()).
		Msg("replay")
	if err := p.Run(context.Background(), bench.NewCaptureFeed(r), 0); err != nil {
		return fmt.Errorf("replay after %d ticks: %w", p.Ticks(), err)
	}
	return summarize(p)
}
