package lane

import (
	"fmt"

	"github.com/danmuck/hdmirx/internal/tmds"
)

// Output is one lane's classified result for a cycle. At most one of
// CtlValid and DataValid is set.
type Output struct {
	CtlValid  bool  `json:"ctl_valid"`
	Ctl       uint8 `json:"ctl"`
	DataValid bool  `json:"data_valid"`
	Data      uint8 `json:"data"`
}

// OutputFor maps a decoded unit onto the lane output flags.
func OutputFor(u tmds.Unit) Output {
	switch u.Kind {
	case tmds.KindControl:
		return Output{CtlValid: true, Ctl: u.Ctl}
	case tmds.KindData:
		return Output{DataValid: true, Data: u.Data}
	default:
		return Output{}
	}
}

// Config sizes one lane.
type Config struct {
	Oversample int
	MaxDelay   int
	LockRun    int
	// GateUntilLocked suppresses classified output while the lane's
	// registered state is Searching.
	GateUntilLocked bool
}

func DefaultConfig() Config {
	return Config{
		Oversample:      5,
		MaxDelay:        4,
		LockRun:         DefaultLockRun,
		GateUntilLocked: true,
	}
}

// Result is everything a channel produced in one tick.
type Result struct {
	Word       tmds.CodeWord
	Unit       tmds.Unit
	Output     Output
	Transition Transition
	Changed    bool
}

// Channel wires a deserializer, the decoder and an aligner for one lane.
type Channel struct {
	index int
	cfg   Config
	des   *Deserializer
	align *Aligner
	reset bool
}

func NewChannel(index int, cfg Config) (*Channel, error) {
	des, err := NewDeserializer(cfg.Oversample, cfg.MaxDelay)
	if err != nil {
		return nil, err
	}
	align, err := NewAligner(des, cfg.LockRun)
	if err != nil {
		return nil, err
	}
	return &Channel{index: index, cfg: cfg, des: des, align: align}, nil
}

func (c *Channel) Index() int { return c.index }

func (c *Channel) WindowLen() int { return c.des.WindowLen() }

// SetReset drives the level-sensitive reset input. While asserted every
// tick holds the lane at Searching, tap 0 and slip 0.
func (c *Channel) SetReset(asserted bool) {
	c.reset = asserted
}

func (c *Channel) InReset() bool { return c.reset }

// Tick consumes one sample window and returns this cycle's result.
func (c *Channel) Tick(window []Sample) (Result, error) {
	if c.reset {
		if len(window) != c.des.WindowLen() {
			return Result{}, fmt.Errorf("%w: got=%d want=%d", ErrWindowLength, len(window), c.des.WindowLen())
		}
		res := Result{Unit: tmds.Invalid}
		if c.align.State() == Locked {
			res.Transition = Transition{From: Locked, To: Searching}
			res.Changed = true
		}
		c.hold()
		return res, nil
	}

	registered := c.align.State()
	word, err := c.des.Tick(window)
	if err != nil {
		return Result{}, err
	}
	unit := tmds.Decode(word)
	tr, changed := c.align.Observe(unit)

	res := Result{Word: word, Unit: unit, Transition: tr, Changed: changed}
	if registered == Locked || !c.cfg.GateUntilLocked {
		res.Output = OutputFor(unit)
	}
	return res, nil
}

// State snapshots the alignment register.
func (c *Channel) State() AlignmentState {
	return AlignmentState{
		PhaseTap:  c.des.Tap(),
		SlipCount: c.des.Slip(),
		Lock:      c.align.State(),
		GoodRun:   c.align.GoodRun(),
	}
}

func (c *Channel) Stats() AlignmentStats { return c.align.Stats() }

func (c *Channel) hold() {
	c.des.Reset()
	c.align.Reset()
}
