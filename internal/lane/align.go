package lane

import (
	"fmt"

	"github.com/danmuck/hdmirx/internal/tmds"
)

// LockState is the alignment state of one lane.
type LockState uint8

const (
	Searching LockState = iota
	Locked
)

func (s LockState) String() string {
	if s == Locked {
		return "locked"
	}
	return "searching"
}

func (s LockState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *LockState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "locked":
		*s = Locked
	case "searching":
		*s = Searching
	default:
		return fmt.Errorf("lane: unknown lock state %q", b)
	}
	return nil
}

// DefaultLockRun is the number of consecutive valid classifications a lane
// needs before it reports Locked.
const DefaultLockRun = 16

// AlignmentState is the externally visible per-lane alignment register.
type AlignmentState struct {
	PhaseTap  int       `json:"phase_tap"`
	SlipCount int       `json:"slip_count"`
	Lock      LockState `json:"lock_state"`
	GoodRun   int       `json:"good_run"`
}

// AlignmentStats counts alignment events since construction.
type AlignmentStats struct {
	InvalidSymbols uint64 `json:"invalid_symbols"`
	Locks          uint64 `json:"locks"`
	Unlocks        uint64 `json:"unlocks"`
	TapSteps       uint64 `json:"tap_steps"`
	Bitslips       uint64 `json:"bitslips"`
}

// Phase is the subset of the deserializer the aligner drives.
type Phase interface {
	Tap() int
	MaxDelay() int
	ApplyDelay(tap int)
	Bitslip()
}

// Transition reports a lock state change. From and To are never equal.
type Transition struct {
	From LockState
	To   LockState
}

// Aligner searches tap positions first and bit-slips only when the tap
// range is exhausted. It never gives up.
type Aligner struct {
	phase   Phase
	lockRun int
	state   LockState
	goodRun int
	stats   AlignmentStats
}

func NewAligner(phase Phase, lockRun int) (*Aligner, error) {
	if lockRun < 1 {
		return nil, ErrLockRunLength
	}
	return &Aligner{phase: phase, lockRun: lockRun}, nil
}

func (a *Aligner) State() LockState { return a.state }

func (a *Aligner) Stats() AlignmentStats { return a.stats }

func (a *Aligner) LockRun() int { return a.lockRun }

// GoodRun is the current count of consecutive valid classifications while
// searching.
func (a *Aligner) GoodRun() int { return a.goodRun }

// Observe feeds one classification and updates the phase for the next
// tick. It returns the lock transition taken this tick, if any.
func (a *Aligner) Observe(u tmds.Unit) (Transition, bool) {
	if !u.Valid() {
		a.stats.InvalidSymbols++
		a.goodRun = 0
		if a.state == Locked {
			// Re-search from the frozen phase; a small drift should be
			// recovered without scanning from tap 0.
			a.state = Searching
			a.stats.Unlocks++
			return Transition{From: Locked, To: Searching}, true
		}
		a.advance()
		return Transition{}, false
	}

	if a.state == Locked {
		return Transition{}, false
	}
	a.goodRun++
	if a.goodRun >= a.lockRun {
		a.state = Locked
		a.stats.Locks++
		return Transition{From: Searching, To: Locked}, true
	}
	return Transition{}, false
}

// Reset returns to Searching and clears the good run. Leaving Locked counts
// as an unlock. The phase itself is owned by the deserializer; callers reset
// it there.
func (a *Aligner) Reset() {
	if a.state == Locked {
		a.stats.Unlocks++
	}
	a.state = Searching
	a.goodRun = 0
}

func (a *Aligner) advance() {
	next := a.phase.Tap() + 1
	if next > a.phase.MaxDelay() {
		a.phase.Bitslip()
		a.stats.Bitslips++
		next = 0
	}
	a.phase.ApplyDelay(next)
	a.stats.TapSteps++
}
