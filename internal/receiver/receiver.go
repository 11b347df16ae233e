package receiver

import (
	"errors"
	"fmt"

	"github.com/danmuck/hdmirx/internal/framesync"
	"github.com/danmuck/hdmirx/internal/lane"
)

var ErrLaneWindow = errors.New("receiver: lane window length mismatch")

// Observer receives core events. Implementations must not block.
type Observer interface {
	LaneLockChanged(lane int, locked bool)
	InvalidSymbol(lane int)
	SyncOutcome(outcome string)
}

type nopObserver struct{}

func (nopObserver) LaneLockChanged(int, bool) {}
func (nopObserver) InvalidSymbol(int)         {}
func (nopObserver) SyncOutcome(string)        {}

// Input is one pixel-clock tick of link input.
type Input struct {
	LinkReady bool
	Lanes     [framesync.Lanes][]lane.Sample
}

// LaneStatus is the diagnostic view of one lane.
type LaneStatus struct {
	Index    int                 `json:"index"`
	State    lane.AlignmentState `json:"state"`
	Stats    lane.AlignmentStats `json:"stats"`
	Unlocked bool                `json:"unlocked"`
	InReset  bool                `json:"in_reset"`
}

// Status is a copy of the receiver's externally visible state.
type Status struct {
	Ticks     uint64                       `json:"ticks"`
	LinkReady bool                         `json:"link_ready"`
	Lanes     [framesync.Lanes]LaneStatus  `json:"lanes"`
	Deskew    DeskewStatus                 `json:"deskew"`
	Sync      framesync.Stats              `json:"sync"`
	Pixel     framesync.PixelSample        `json:"pixel"`
	Last      [framesync.Lanes]lane.Output `json:"last_outputs"`
}

// Locked reports whether every lane is locked.
func (s Status) Locked() bool {
	for _, l := range s.Lanes {
		if l.Unlocked {
			return false
		}
	}
	return true
}

// Ready reports that every lane is locked and the lanes are deskewed.
func (s Status) Ready() bool { return s.Locked() && s.Deskew.Aligned }

// Output is the result of one tick: the registered pixel and what the
// synchronizer did to it.
type Output struct {
	Pixel   framesync.PixelSample
	Outcome framesync.Outcome
}

type Option func(*Receiver)

func WithObserver(obs Observer) Option {
	return func(r *Receiver) {
		if obs != nil {
			r.obs = obs
		}
	}
}

// Receiver is the full receive core.
type Receiver struct {
	lanes     [framesync.Lanes]*lane.Channel
	sync      *framesync.Synchronizer
	deskew    deskewer
	obs       Observer
	ticks     uint64
	linkReady bool
	last      [framesync.Lanes]lane.Output
}

func New(cfg lane.Config, opts ...Option) (*Receiver, error) {
	r := &Receiver{sync: framesync.New(), obs: nopObserver{}}
	for i := range r.lanes {
		ch, err := lane.NewChannel(i, cfg)
		if err != nil {
			return nil, fmt.Errorf("lane %d: %w", i, err)
		}
		r.lanes[i] = ch
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// WindowLen is the number of samples each lane consumes per tick.
func (r *Receiver) WindowLen() int { return r.lanes[0].WindowLen() }

// Tick runs one pixel-clock cycle and returns the registered pixel.
func (r *Receiver) Tick(in Input) (Output, error) {
	w := r.WindowLen()
	for i, win := range in.Lanes {
		if len(win) != w {
			return Output{Pixel: r.sync.Pixel()}, fmt.Errorf("%w: lane %d got=%d want=%d", ErrLaneWindow, i, len(win), w)
		}
	}

	var (
		outs   [framesync.Lanes]lane.Output
		locked [framesync.Lanes]bool
	)
	for i, ch := range r.lanes {
		locked[i] = ch.State().Lock == lane.Locked
		ch.SetReset(!in.LinkReady)
		res, err := ch.Tick(in.Lanes[i])
		if err != nil {
			// Window lengths were checked above.
			return Output{Pixel: r.sync.Pixel()}, fmt.Errorf("lane %d: %w", i, err)
		}
		if !ch.InReset() && !res.Unit.Valid() {
			r.obs.InvalidSymbol(i)
		}
		if res.Changed {
			r.obs.LaneLockChanged(i, res.Transition.To == lane.Locked)
		}
		outs[i] = res.Output
	}

	r.last = outs
	if all(locked) {
		outs = r.deskew.step(r.ticks, outs)
	} else {
		r.deskew.reset()
	}

	outcome := r.sync.Tick(outs, locked)
	r.obs.SyncOutcome(outcome.String())
	r.linkReady = in.LinkReady
	r.ticks++
	return Output{Pixel: r.sync.Pixel(), Outcome: outcome}, nil
}

// Pixel returns the registered pixel without advancing.
func (r *Receiver) Pixel() framesync.PixelSample { return r.sync.Pixel() }

// Ready reports whether every lane is locked and the lanes are deskewed.
func (r *Receiver) Ready() bool {
	if !r.deskew.aligned {
		return false
	}
	for _, ch := range r.lanes {
		if ch.State().Lock != lane.Locked {
			return false
		}
	}
	return true
}

// LockStates returns each lane's lock state.
func (r *Receiver) LockStates() [framesync.Lanes]lane.LockState {
	var out [framesync.Lanes]lane.LockState
	for i, ch := range r.lanes {
		out[i] = ch.State().Lock
	}
	return out
}

func (r *Receiver) Status() Status {
	st := Status{
		Ticks:     r.ticks,
		LinkReady: r.linkReady,
		Deskew:    r.deskew.status(),
		Sync:      r.sync.Stats(),
		Pixel:     r.sync.Pixel(),
		Last:      r.last,
	}
	for i, ch := range r.lanes {
		state := ch.State()
		st.Lanes[i] = LaneStatus{
			Index:    i,
			State:    state,
			Stats:    ch.Stats(),
			Unlocked: state.Lock != lane.Locked,
			InReset:  ch.InReset(),
		}
	}
	return st
}

func all(flags [framesync.Lanes]bool) bool {
	for _, f := range flags {
		if !f {
			return false
		}
	}
	return true
}
