package receiver

import (
	"testing"

	"github.com/danmuck/hdmirx/internal/framesync"
	"github.com/danmuck/hdmirx/internal/lane"
)

// lineStream is three pixels of data followed by two control cycles,
// repeated.
func lineStream(n int) []lane.Output {
	out := make([]lane.Output, n)
	for i := range out {
		if i%5 < 3 {
			out[i] = lane.Output{DataValid: true, Data: uint8(i)}
		} else {
			out[i] = lane.Output{CtlValid: true, Ctl: uint8(i % 4)}
		}
	}
	return out
}

func skewedTick(stream []lane.Output, t int, lags [framesync.Lanes]int) [framesync.Lanes]lane.Output {
	var outs [framesync.Lanes]lane.Output
	for i, lag := range lags {
		if t-lag >= 0 {
			outs[i] = stream[t-lag]
		}
	}
	return outs
}

func TestDeskewerAlignsOnFirstBlankingEdge(t *testing.T) {
	cases := [][framesync.Lanes]int{
		{0, 0, 0},
		{0, 0, 1},
		{1, 0, 0},
		{0, 2, 1},
	}
	for _, lags := range cases {
		stream := lineStream(40)
		var d deskewer
		alignedAt := -1
		for tick := 0; tick < len(stream); tick++ {
			got := d.step(uint64(tick), skewedTick(stream, tick, lags))
			if !d.aligned {
				if got != ([framesync.Lanes]lane.Output{}) {
					t.Fatalf("lags=%v tick=%d: output before alignment %+v", lags, tick, got)
				}
				continue
			}
			if alignedAt < 0 {
				alignedAt = tick
			}
			if got[0] != got[1] || got[1] != got[2] {
				t.Fatalf("lags=%v tick=%d: lanes disagree %+v", lags, tick, got)
			}
		}
		if alignedAt < 0 || alignedAt > 10 {
			t.Fatalf("lags=%v: aligned at tick %d", lags, alignedAt)
		}
		maxLag := max(lags[0], lags[1], lags[2])
		for i, lag := range lags {
			if d.delay[i] != maxLag-lag {
				t.Fatalf("lags=%v: lane %d delay=%d want %d", lags, i, d.delay[i], maxLag-lag)
			}
		}
	}
}

func TestDeskewerDropsStaleEdges(t *testing.T) {
	stream := lineStream(60)
	var d deskewer
	// An edge lane 2 saw long ago must not pair with the fresh edges of
	// lanes 0 and 1.
	d.seen[2] = 1
	for tick := 10; tick < 30 && !d.aligned; tick++ {
		d.step(uint64(tick), skewedTick(stream, tick, [framesync.Lanes]int{0, 0, 1}))
	}
	if !d.aligned || d.delay != [framesync.Lanes]int{1, 1, 0} {
		t.Fatalf("aligned=%v delay=%v", d.aligned, d.delay)
	}
}

func TestDeskewerResetKeepsAlignCount(t *testing.T) {
	stream := lineStream(20)
	var d deskewer
	for tick := 0; tick < len(stream); tick++ {
		d.step(uint64(tick), skewedTick(stream, tick, [framesync.Lanes]int{}))
	}
	if !d.aligned || d.aligns != 1 {
		t.Fatalf("setup: aligned=%v aligns=%d", d.aligned, d.aligns)
	}
	d.reset()
	st := d.status()
	if st.Aligned || st.Aligns != 1 || st.Delays != [framesync.Lanes]int{} {
		t.Fatalf("after reset: %+v", st)
	}
}
