package lane

import (
	"testing"

	"github.com/danmuck/hdmirx/internal/tmds"
)

func tickUntilLocked(t *testing.T, c *Channel, windows [][]Sample) int {
	t.Helper()
	for i, win := range windows {
		if _, err := c.Tick(win); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if c.State().Lock == Locked {
			return i + 1
		}
	}
	return -1
}

func TestOutputForMapsKinds(t *testing.T) {
	cases := []struct {
		unit tmds.Unit
		want Output
	}{
		{tmds.Control(0b11), Output{CtlValid: true, Ctl: 0b11}},
		{tmds.Data(0xA5), Output{DataValid: true, Data: 0xA5}},
		{tmds.Invalid, Output{}},
	}
	for _, tc := range cases {
		if got := OutputFor(tc.unit); got != tc.want {
			t.Fatalf("unit %v: got=%+v want=%+v", tc.unit, got, tc.want)
		}
	}
}

func TestChannelConvergesFromEveryOffset(t *testing.T) {
	cfg := DefaultConfig()
	w := tmds.WordBits * cfg.Oversample
	bound := (cfg.MaxDelay+1)*tmds.WordBits + cfg.LockRun + 1

	for _, word := range []tmds.CodeWord{tmds.ControlToken(0), tmds.ControlToken(3), tmds.Encode(0x10), tmds.Encode(0x00)} {
		for offset := 0; offset < w; offset++ {
			c, err := NewChannel(0, cfg)
			if err != nil {
				t.Fatalf("new channel: %v", err)
			}
			ticks := tickUntilLocked(t, c, repeatedWindows(word, cfg.Oversample, offset, bound+4))
			if ticks < 0 || ticks > bound {
				t.Fatalf("word=0x%03x offset=%d: lock after %d ticks, bound %d", word, offset, ticks, bound)
			}
		}
	}
}

func TestChannelLocksOnControlBoundary(t *testing.T) {
	cfg := DefaultConfig()
	word := tmds.ControlToken(0b10)
	for _, offset := range []int{0, 13, 37} {
		c, err := NewChannel(0, cfg)
		if err != nil {
			t.Fatalf("new channel: %v", err)
		}
		windows := repeatedWindows(word, cfg.Oversample, offset, 120)
		if tickUntilLocked(t, c, windows) < 0 {
			t.Fatalf("offset=%d: never locked", offset)
		}
		res, err := c.Tick(windows[len(windows)-1])
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if res.Word != word || res.Output != (Output{CtlValid: true, Ctl: 0b10}) {
			t.Fatalf("offset=%d: word=0x%03x output=%+v", offset, res.Word, res.Output)
		}
	}
}

func TestChannelGatesOutputUntilLocked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LockRun = 4
	c, err := NewChannel(0, cfg)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	windows := repeatedWindows(tmds.ControlToken(1), cfg.Oversample, 0, 40)
	for i, win := range windows {
		before := c.State().Lock
		res, err := c.Tick(win)
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if before == Searching && res.Output != (Output{}) {
			t.Fatalf("tick %d: output before lock: %+v", i, res.Output)
		}
		if before == Locked && !res.Output.CtlValid {
			t.Fatalf("tick %d: locked lane produced no control output", i)
		}
	}

	cfg.GateUntilLocked = false
	open, err := NewChannel(1, cfg)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	var sawValid bool
	for _, win := range windows {
		res, _ := open.Tick(win)
		if res.Unit.Valid() && res.Output.CtlValid {
			sawValid = true
		}
		if res.Unit.Valid() && open.Stats().Locks == 0 {
			break
		}
	}
	if !sawValid {
		t.Fatalf("ungated channel never produced output")
	}
}

func TestChannelSingleInvalidRelocksAtSamePhase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LockRun = 8
	c, err := NewChannel(0, cfg)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	windows := repeatedWindows(tmds.ControlToken(0), cfg.Oversample, 0, 200)
	n := tickUntilLocked(t, c, windows)
	if n < 0 {
		t.Fatalf("never locked")
	}
	locked := c.State()

	// An all-zero window decodes as one invalid word on the following tick.
	windows[n+2] = make([]Sample, c.WindowLen())
	for i := n; i < len(windows); i++ {
		if _, err := c.Tick(windows[i]); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	st := c.State()
	if st.Lock != Locked {
		t.Fatalf("expected relock, state=%v", st.Lock)
	}
	if st.PhaseTap != locked.PhaseTap || st.SlipCount != locked.SlipCount {
		t.Fatalf("phase moved: before=%+v after=%+v", locked, st)
	}
	stats := c.Stats()
	if stats.Unlocks != 1 || stats.Locks != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestChannelResetHoldsSearchingAtZero(t *testing.T) {
	cfg := DefaultConfig()
	c, err := NewChannel(2, cfg)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	windows := repeatedWindows(tmds.ControlToken(2), cfg.Oversample, 21, 200)
	n := tickUntilLocked(t, c, windows)
	if n < 0 {
		t.Fatalf("never locked")
	}

	c.SetReset(true)
	res, err := c.Tick(windows[n])
	if err != nil {
		t.Fatalf("tick in reset: %v", err)
	}
	if !res.Changed || res.Transition.From != Locked || res.Transition.To != Searching {
		t.Fatalf("expected unlock transition on reset, got %+v", res)
	}
	if st := c.Stats(); st.Unlocks != 1 || st.Locks != 1 {
		t.Fatalf("reset out of lock should count one unlock, got %+v", st)
	}
	for i := n + 1; i < n+5; i++ {
		res, err := c.Tick(windows[i])
		if err != nil {
			t.Fatalf("tick in reset: %v", err)
		}
		if res.Output != (Output{}) || res.Changed {
			t.Fatalf("reset tick produced %+v", res)
		}
		st := c.State()
		if st.Lock != Searching || st.PhaseTap != 0 || st.SlipCount != 0 {
			t.Fatalf("reset state: %+v", st)
		}
	}

	c.SetReset(false)
	if tickUntilLocked(t, c, windows[n+5:]) < 0 {
		t.Fatalf("no relock after reset release")
	}
}
