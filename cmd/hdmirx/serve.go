package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/hdmirx/internal/bench"
	"github.com/danmuck/hdmirx/internal/status"
	"github.com/rs/zerolog/log"
)

// serveInterval is how often the serve loop runs a batch of ticks and
// republishes status.
const serveInterval = 50 * time.Millisecond

type ServeCmd struct {
	Addr      string        `help:"Override status.addr"`
	DropEvery time.Duration `name:"drop-every" help:"Drop upstream clock lock at this interval (0 disables)"`
	Duration  time.Duration `help:"Stop after this long (0 runs until interrupted)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Status.Addr = c.Addr
	}
	sc, err := cfg.StimulusConfig()
	if err != nil {
		return err
	}
	feed, err := bench.NewSourceFeed(sc, linkConfig(cfg))
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, cfg.LaneConfig(), sc.Timing.VSyncPositive, "")
	if err != nil {
		return err
	}
	srv := status.New(cfg.Node, cfg.Status.Addr, cfg.Status.CorsOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if c.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	errc := make(chan error, 1)
	go func() {
		err := srv.Serve(ctx)
		if err != nil {
			stop()
		}
		errc <- err
	}()

	batch := uint64(cfg.Status.TickRate) * uint64(serveInterval) / uint64(time.Second)
	if batch == 0 {
		batch = 1
	}
	log.Info().
		Str("node", cfg.Node).
		Int("tick_rate", cfg.Status.TickRate).
		Uint64("batch", batch).
		Dur("drop_every", c.DropEvery).
		Msg("serve")

	err = runLoop(ctx, p, feed, srv, batch, c.DropEvery)
	stop()
	if srvErr := <-errc; srvErr != nil {
		return srvErr
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return summarize(p)
}

func runLoop(ctx context.Context, p *bench.Pipeline, feed *bench.SourceFeed, srv *status.Server, batch uint64, dropEvery time.Duration) error {
	ticker := time.NewTicker(serveInterval)
	defer ticker.Stop()

	var drops <-chan time.Time
	if dropEvery > 0 {
		dt := time.NewTicker(dropEvery)
		defer dt.Stop()
		drops = dt.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-drops:
			log.Warn().Msg("dropping upstream clock lock")
			feed.DropLink()
		case <-ticker.C:
			if err := p.Run(ctx, feed, batch); err != nil {
				return err
			}
			srv.Publish(p.Receiver().Status(), p.Stats())
		}
	}
}
