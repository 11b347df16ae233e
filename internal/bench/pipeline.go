package bench

import (
	"context"
	"errors"
	"io"

	"github.com/danmuck/hdmirx/internal/framesync"
	"github.com/danmuck/hdmirx/internal/receiver"
	"github.com/danmuck/hdmirx/internal/video"
)

// recentReferences bounds how many reference digests a received frame is
// compared against.
const recentReferences = 4

// FrameEvent describes one frame emitted by the receive-side assembler.
type FrameEvent struct {
	Frame  video.Frame
	Digest string
	// Checked is true when a complete reference frame was available.
	Checked bool
	Matched bool
}

// Result classifies the event for metrics and logs.
func (e FrameEvent) Result() string {
	switch {
	case !e.Frame.Complete:
		return "partial"
	case !e.Checked:
		return "unchecked"
	case e.Matched:
		return "matched"
	default:
		return "mismatched"
	}
}

// Pipeline feeds a receiver and assembles both the received and the
// reference pixel streams into frames.
type Pipeline struct {
	rx     *receiver.Receiver
	asm    *video.Assembler
	ref    *video.Assembler
	recent []string
	stats  video.Stats
	ticks  uint64

	onFrame func(FrameEvent)
}

func NewPipeline(rx *receiver.Receiver, vsyncActiveHigh bool) *Pipeline {
	return &Pipeline{
		rx:  rx,
		asm: video.NewAssembler(vsyncActiveHigh),
		ref: video.NewAssembler(vsyncActiveHigh),
	}
}

// OnFrame registers a callback for every emitted frame.
func (p *Pipeline) OnFrame(fn func(FrameEvent)) { p.onFrame = fn }

func (p *Pipeline) Receiver() *receiver.Receiver { return p.rx }

func (p *Pipeline) Stats() video.Stats { return p.stats }

func (p *Pipeline) Ticks() uint64 { return p.ticks }

// Step runs one tick.
func (p *Pipeline) Step(s Sample) (FrameEvent, bool, error) {
	out, err := p.rx.Tick(s.Input)
	if err != nil {
		return FrameEvent{}, false, err
	}
	p.ticks++

	if s.HasSent {
		if f, ok := p.ref.Push(s.Sent, referenceOutcome(s.Sent)); ok && f.Complete {
			p.remember(video.DigestHex(f.Image))
		}
	}

	if !p.rx.Ready() {
		p.asm.Resync()
	}
	f, ok := p.asm.Push(out.Pixel, out.Outcome)
	if !ok {
		return FrameEvent{}, false, nil
	}
	ev := p.classify(f)
	if p.onFrame != nil {
		p.onFrame(ev)
	}
	return ev, true, nil
}

// Run steps until the feed ends, maxTicks is reached (0 for no limit) or
// ctx is done.
func (p *Pipeline) Run(ctx context.Context, feed Feed, maxTicks uint64) error {
	for n := uint64(0); maxTicks == 0 || n < maxTicks; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		s, err := feed.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if _, _, err := p.Step(s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) classify(f video.Frame) FrameEvent {
	ev := FrameEvent{Frame: f, Digest: video.DigestHex(f.Image)}
	p.stats.Emitted++
	if !f.Complete {
		return ev
	}
	p.stats.Complete++
	p.stats.LastDigest = ev.Digest
	if len(p.recent) == 0 {
		return ev
	}
	ev.Checked = true
	for _, d := range p.recent {
		if d == ev.Digest {
			ev.Matched = true
			break
		}
	}
	if ev.Matched {
		p.stats.Matched++
	} else {
		p.stats.Mismatched++
	}
	return ev
}

func (p *Pipeline) remember(digest string) {
	if len(p.recent) == recentReferences {
		copy(p.recent, p.recent[1:])
		p.recent = p.recent[:recentReferences-1]
	}
	p.recent = append(p.recent, digest)
}

func referenceOutcome(px framesync.PixelSample) framesync.Outcome {
	if px.Blank {
		return framesync.OutcomeControl
	}
	return framesync.OutcomeData
}
