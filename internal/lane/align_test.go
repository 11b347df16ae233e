package lane

import (
	"errors"
	"testing"

	"github.com/danmuck/hdmirx/internal/tmds"
)

func TestNewAlignerRejectsZeroLockRun(t *testing.T) {
	if _, err := NewAligner(&fakePhase{maxDelay: 4}, 0); !errors.Is(err, ErrLockRunLength) {
		t.Fatalf("expected ErrLockRunLength, got %v", err)
	}
}

func TestAlignerScansTapsBeforeBitslip(t *testing.T) {
	phase := &fakePhase{maxDelay: 4}
	a, err := NewAligner(phase, 3)
	if err != nil {
		t.Fatalf("new aligner: %v", err)
	}

	wantTaps := []int{1, 2, 3, 4, 0, 1}
	wantSlips := []int{0, 0, 0, 0, 1, 1}
	for i := range wantTaps {
		if _, changed := a.Observe(tmds.Invalid); changed {
			t.Fatalf("step %d: unexpected transition while searching", i)
		}
		if phase.tap != wantTaps[i] || phase.slips != wantSlips[i] {
			t.Fatalf("step %d: tap=%d slips=%d want tap=%d slips=%d", i, phase.tap, phase.slips, wantTaps[i], wantSlips[i])
		}
	}
	if a.Stats().Bitslips != 1 || a.Stats().TapSteps != 6 {
		t.Fatalf("unexpected stats: %+v", a.Stats())
	}
}

func TestAlignerLocksAfterRun(t *testing.T) {
	phase := &fakePhase{maxDelay: 4}
	a, err := NewAligner(phase, 4)
	if err != nil {
		t.Fatalf("new aligner: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, changed := a.Observe(tmds.Control(0)); changed {
			t.Fatalf("locked early at %d", i)
		}
	}
	// An invalid word mid-run restarts the count.
	a.Observe(tmds.Invalid)
	for i := 0; i < 3; i++ {
		a.Observe(tmds.Data(0x42))
	}
	if a.State() != Searching {
		t.Fatalf("expected searching after interrupted run")
	}
	tr, changed := a.Observe(tmds.Data(0x43))
	if !changed || tr.From != Searching || tr.To != Locked {
		t.Fatalf("expected lock transition, got %+v changed=%v", tr, changed)
	}
	if a.State() != Locked {
		t.Fatalf("expected locked")
	}
}

func TestAlignerRelocksFromFrozenPhase(t *testing.T) {
	phase := &fakePhase{maxDelay: 4}
	a, err := NewAligner(phase, 2)
	if err != nil {
		t.Fatalf("new aligner: %v", err)
	}
	a.Observe(tmds.Invalid)
	a.Observe(tmds.Invalid)
	a.Observe(tmds.Control(1))
	a.Observe(tmds.Control(1))
	if a.State() != Locked || phase.tap != 2 {
		t.Fatalf("setup: state=%v tap=%d", a.State(), phase.tap)
	}

	tr, changed := a.Observe(tmds.Invalid)
	if !changed || tr.To != Searching {
		t.Fatalf("expected unlock, got %+v changed=%v", tr, changed)
	}
	if phase.tap != 2 || phase.slips != 0 {
		t.Fatalf("phase moved on unlock: tap=%d slips=%d", phase.tap, phase.slips)
	}

	a.Observe(tmds.Control(1))
	a.Observe(tmds.Control(1))
	if a.State() != Locked {
		t.Fatalf("expected relock")
	}
	if phase.tap != 2 || phase.slips != 0 {
		t.Fatalf("relock rescanned: tap=%d slips=%d", phase.tap, phase.slips)
	}
	st := a.Stats()
	if st.Locks != 2 || st.Unlocks != 1 || st.InvalidSymbols != 3 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestAlignerLockedIgnoresValidWords(t *testing.T) {
	phase := &fakePhase{maxDelay: 4}
	a, err := NewAligner(phase, 1)
	if err != nil {
		t.Fatalf("new aligner: %v", err)
	}
	a.Observe(tmds.Data(1))
	for i := 0; i < 100; i++ {
		if _, changed := a.Observe(tmds.Data(uint8(i))); changed {
			t.Fatalf("unexpected transition at %d", i)
		}
	}
	if phase.tap != 0 || a.State() != Locked {
		t.Fatalf("phase changed while locked: tap=%d state=%v", phase.tap, a.State())
	}
}

func TestAlignerResetCountsUnlockAndLeavesPhase(t *testing.T) {
	phase := &fakePhase{tap: 3, maxDelay: 4}
	a, err := NewAligner(phase, 2)
	if err != nil {
		t.Fatalf("new aligner: %v", err)
	}
	a.Reset()
	if st := a.Stats(); st.Unlocks != 0 {
		t.Fatalf("reset while searching counted an unlock: %+v", st)
	}

	a.Observe(tmds.Data(0x10))
	a.Observe(tmds.Data(0x11))
	if a.State() != Locked {
		t.Fatalf("expected lock after run")
	}
	a.Reset()
	if a.State() != Searching || a.GoodRun() != 0 {
		t.Fatalf("reset state=%v good_run=%d", a.State(), a.GoodRun())
	}
	if st := a.Stats(); st.Unlocks != 1 || st.Locks != 1 {
		t.Fatalf("reset out of lock: %+v", st)
	}
	if phase.tap != 3 || phase.slips != 0 {
		t.Fatalf("aligner reset moved the phase: tap=%d slips=%d", phase.tap, phase.slips)
	}
}
