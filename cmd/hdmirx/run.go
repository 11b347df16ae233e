package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danmuck/hdmirx/internal/bench"
	"github.com/danmuck/hdmirx/internal/config"
	"github.com/danmuck/hdmirx/internal/lane"
	"github.com/danmuck/hdmirx/internal/observability"
	"github.com/danmuck/hdmirx/internal/receiver"
	"github.com/danmuck/hdmirx/internal/video"
	"github.com/rs/zerolog/log"
)

// newPipeline builds a receiver with metrics attached and wires frame
// logging, metrics and optional BMP snapshots.
func newPipeline(cfg config.Config, lc lane.Config, vsyncActiveHigh bool, snapshots string) (*bench.Pipeline, error) {
	rx, err := receiver.New(lc, receiver.WithObserver(observability.NewReceiverMetrics(cfg.Node)))
	if err != nil {
		return nil, err
	}
	if snapshots != "" {
		if err := os.MkdirAll(snapshots, 0o755); err != nil {
			return nil, fmt.Errorf("snapshot dir: %w", err)
		}
	}
	p := bench.NewPipeline(rx, vsyncActiveHigh)
	p.OnFrame(func(ev bench.FrameEvent) {
		result := ev.Result()
		observability.RecordFrame(cfg.Node, result)
		event := log.Info()
		if result == "mismatched" {
			event = log.Warn()
		}
		event.
			Int("frame", ev.Frame.Index).
			Int("width", ev.Frame.Width()).
			Int("height", ev.Frame.Height()).
			Bool("regular", ev.Frame.Regular).
			Str("result", result).
			Str("digest", ev.Digest).
			Msg("frame")
		if snapshots == "" || !ev.Frame.Complete {
			return
		}
		path := filepath.Join(snapshots, fmt.Sprintf("frame-%04d.bmp", ev.Frame.Index))
		if err := video.WriteBMP(path, ev.Frame.Image); err != nil {
			log.Error().Err(err).Str("path", path).Msg("snapshot failed")
		}
	})
	return p, nil
}

func summarize(p *bench.Pipeline) error {
	st := p.Stats()
	status := p.Receiver().Status()
	for _, l := range status.Lanes {
		log.Info().
			Int("lane", l.Index).
			Str("lock", l.State.Lock.String()).
			Int("tap", l.State.PhaseTap).
			Int("slip", l.State.SlipCount).
			Uint64("invalid", l.Stats.InvalidSymbols).
			Uint64("locks", l.Stats.Locks).
			Uint64("unlocks", l.Stats.Unlocks).
			Msg("lane")
	}
	log.Info().
		Bool("ready", status.Ready()).
		Ints("deskew_delays", status.Deskew.Delays[:]).
		Uint64("ticks", p.Ticks()).
		Uint64("frames", st.Emitted).
		Uint64("complete", st.Complete).
		Uint64("matched", st.Matched).
		Uint64("mismatched", st.Mismatched).
		Msg("run complete")
	if st.Mismatched > 0 {
		return fmt.Errorf("%d of %d checked frames did not match the reference", st.Mismatched, st.Matched+st.Mismatched)
	}
	return nil
}
