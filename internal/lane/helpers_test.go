package lane

import "github.com/danmuck/hdmirx/internal/tmds"

// repeatedWindows serializes word n times, LSB first, at oversample samples
// per bit, delayed by offset samples, and cuts the stream into tick windows.
func repeatedWindows(word tmds.CodeWord, oversample, offset, ticks int) [][]Sample {
	w := tmds.WordBits * oversample
	stream := make([]Sample, offset, offset+ticks*w)
	for len(stream) < ticks*w {
		for i := 0; i < tmds.WordBits; i++ {
			bit := Sample(word>>i) & 1
			for s := 0; s < oversample; s++ {
				stream = append(stream, bit)
			}
		}
	}
	out := make([][]Sample, ticks)
	for t := range out {
		out[t] = stream[t*w : (t+1)*w]
	}
	return out
}

type fakePhase struct {
	tap, maxDelay, slips int
}

func (f *fakePhase) Tap() int           { return f.tap }
func (f *fakePhase) MaxDelay() int      { return f.maxDelay }
func (f *fakePhase) ApplyDelay(tap int) { f.tap = tap }
func (f *fakePhase) Bitslip()           { f.slips++ }
