package bench

import (
	"errors"
	"io"

	"github.com/danmuck/hdmirx/internal/capture"
	"github.com/danmuck/hdmirx/internal/framesync"
	"github.com/danmuck/hdmirx/internal/link"
	"github.com/danmuck/hdmirx/internal/receiver"
	"github.com/danmuck/hdmirx/internal/stimulus"
)

// Sample is one tick of receiver input with the optional transmitted pixel.
type Sample struct {
	Input   receiver.Input
	Sent    framesync.PixelSample
	HasSent bool
}

// Feed yields samples until io.EOF.
type Feed interface {
	Next() (Sample, error)
}

// LinkConfig models the upstream clock and reset collaborators.
type LinkConfig struct {
	ClockLockCycles int
	SettleCycles    int
}

func DefaultLinkConfig() LinkConfig {
	return LinkConfig{ClockLockCycles: 10, SettleCycles: link.DefaultSettleCycles}
}

// SourceFeed is an endless feed from a stimulus source.
type SourceFeed struct {
	src  *stimulus.Source
	pll  *link.ClockLock
	hold *link.ResetHold
}

func NewSourceFeed(cfg stimulus.Config, lc LinkConfig) (*SourceFeed, error) {
	src, err := stimulus.NewSource(cfg)
	if err != nil {
		return nil, err
	}
	return &SourceFeed{
		src:  src,
		pll:  link.NewClockLock(lc.ClockLockCycles),
		hold: link.NewResetHold(lc.SettleCycles),
	}, nil
}

func (f *SourceFeed) Source() *stimulus.Source { return f.src }

// DropLink makes the upstream clock lose lock; linkReady falls on the next
// tick and rises again after the lock and settle delays.
func (f *SourceFeed) DropLink() { f.pll.Drop() }

func (f *SourceFeed) Next() (Sample, error) {
	tick := f.src.Next()
	ready := f.hold.Tick(f.pll.Tick())
	return Sample{
		Input:   receiver.Input{LinkReady: ready, Lanes: tick.Lanes},
		Sent:    tick.Sent,
		HasSent: true,
	}, nil
}

// CaptureFeed replays a recorded capture.
type CaptureFeed struct {
	r *capture.Reader
}

func NewCaptureFeed(r *capture.Reader) *CaptureFeed { return &CaptureFeed{r: r} }

func (f *CaptureFeed) Next() (Sample, error) {
	rec, err := f.r.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Sample{}, io.EOF
		}
		return Sample{}, err
	}
	return Sample{
		Input:   receiver.Input{LinkReady: rec.LinkReady, Lanes: rec.Lanes},
		Sent:    rec.Sent,
		HasSent: f.r.Header().HasReference(),
	}, nil
}
