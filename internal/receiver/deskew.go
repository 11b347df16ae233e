package receiver

import (
	"github.com/danmuck/hdmirx/internal/framesync"
	"github.com/danmuck/hdmirx/internal/lane"
)

// MaxSkew is the largest inter-lane skew, in ticks, the deskewer absorbs.
// A lane whose phase lands near the end of the sample window can lock onto
// a symbol boundary one word later than its neighbours.
const MaxSkew = 2

// DeskewStatus reports the per-lane output delays.
type DeskewStatus struct {
	Aligned bool                 `json:"aligned"`
	Delays  [framesync.Lanes]int `json:"delays"`
	Aligns  uint64               `json:"aligns"`
}

// deskewer lines the locked lanes up on the end of active video. Every line
// ends with a data to control edge transmitted on all lanes in the same
// cycle; lanes that see it early are delayed until the latest one does.
// Until that happens no lane output passes through.
type deskewer struct {
	hist     [framesync.Lanes][MaxSkew + 1]lane.Output
	prevData [framesync.Lanes]bool
	// seen is the tick of the lane's last edge plus one; zero means none.
	seen    [framesync.Lanes]uint64
	delay   [framesync.Lanes]int
	aligned bool
	aligns  uint64
}

func (d *deskewer) reset() {
	*d = deskewer{aligns: d.aligns}
}

func (d *deskewer) status() DeskewStatus {
	return DeskewStatus{Aligned: d.aligned, Delays: d.delay, Aligns: d.aligns}
}

// step records this tick's lane outputs and returns the skew-corrected set.
func (d *deskewer) step(tick uint64, outs [framesync.Lanes]lane.Output) [framesync.Lanes]lane.Output {
	for i := range outs {
		h := &d.hist[i]
		copy(h[1:], h[:MaxSkew])
		h[0] = outs[i]
	}
	if !d.aligned {
		d.observe(tick, outs)
	}

	var aligned [framesync.Lanes]lane.Output
	if !d.aligned {
		return aligned
	}
	for i := range aligned {
		aligned[i] = d.hist[i][d.delay[i]]
	}
	return aligned
}

func (d *deskewer) observe(tick uint64, outs [framesync.Lanes]lane.Output) {
	for i, o := range outs {
		if o.CtlValid && d.prevData[i] {
			d.seen[i] = tick + 1
		}
		d.prevData[i] = o.DataValid
	}

	var latest uint64
	for _, s := range d.seen {
		latest = max(latest, s)
	}
	if latest == 0 {
		return
	}
	for i, s := range d.seen {
		if s != 0 && latest-s > MaxSkew {
			d.seen[i] = 0
		}
	}
	for _, s := range d.seen {
		if s == 0 {
			return
		}
	}
	for i, s := range d.seen {
		d.delay[i] = int(latest - s)
	}
	d.aligned = true
	d.aligns++
}
