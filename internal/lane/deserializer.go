package lane

import (
	"errors"
	"fmt"

	"github.com/danmuck/hdmirx/internal/tmds"
)

var (
	ErrWindowLength  = errors.New("lane: sample window length mismatch")
	ErrOversample    = errors.New("lane: oversample factor must be positive")
	ErrDelayRange    = errors.New("lane: max delay cannot reach every sample offset")
	ErrLockRunLength = errors.New("lane: lock run must be at least one cycle")
)

// Sample is one oversampled line bit (0 or 1; any non-zero value reads as 1).
type Sample = byte

// Deserializer turns a stream of oversampled windows into code words at a
// programmable sampling offset.
type Deserializer struct {
	oversample int
	maxDelay   int
	tap        int
	slip       int

	// history holds the most recent windows, oldest first.
	history []Sample
}

// NewDeserializer returns a deserializer for the given samples-per-bit
// factor and coarse tap range [0, maxDelay].
func NewDeserializer(oversample, maxDelay int) (*Deserializer, error) {
	if oversample <= 0 {
		return nil, ErrOversample
	}
	w := tmds.WordBits * oversample
	if maxDelay < oversample-1 || maxDelay >= w {
		return nil, fmt.Errorf("%w: max_delay=%d oversample=%d", ErrDelayRange, maxDelay, oversample)
	}
	// Highest sample read: last slip, last tap, last bit.
	maxOffset := (tmds.WordBits-1)*oversample + maxDelay + (tmds.WordBits-1)*oversample
	windows := maxOffset/w + 1
	return &Deserializer{
		oversample: oversample,
		maxDelay:   maxDelay,
		history:    make([]Sample, windows*w),
	}, nil
}

// WindowLen is the number of samples consumed per tick.
func (d *Deserializer) WindowLen() int { return tmds.WordBits * d.oversample }

func (d *Deserializer) Oversample() int { return d.oversample }

func (d *Deserializer) MaxDelay() int { return d.maxDelay }

func (d *Deserializer) Tap() int { return d.tap }

func (d *Deserializer) Slip() int { return d.slip }

// Offset is the sample index of bit 0 within the history.
func (d *Deserializer) Offset() int { return d.slip*d.oversample + d.tap }

// ApplyDelay sets the coarse sampling tap, clamped to [0, maxDelay].
func (d *Deserializer) ApplyDelay(tap int) {
	if tap < 0 {
		tap = 0
	}
	if tap > d.maxDelay {
		tap = d.maxDelay
	}
	d.tap = tap
}

// Bitslip moves the symbol boundary one line bit later.
func (d *Deserializer) Bitslip() {
	d.slip = (d.slip + 1) % tmds.WordBits
}

// Reset returns to tap 0, slip 0 and clears the sample history.
func (d *Deserializer) Reset() {
	d.tap = 0
	d.slip = 0
	clear(d.history)
}

// Tick shifts in one window of samples and latches a code word at the
// current offset.
func (d *Deserializer) Tick(window []Sample) (tmds.CodeWord, error) {
	w := d.WindowLen()
	if len(window) != w {
		return 0, fmt.Errorf("%w: got=%d want=%d", ErrWindowLength, len(window), w)
	}
	copy(d.history, d.history[w:])
	copy(d.history[len(d.history)-w:], window)

	var word tmds.CodeWord
	off := d.Offset()
	for i := 0; i < tmds.WordBits; i++ {
		if d.history[off+i*d.oversample] != 0 {
			word |= 1 << i
		}
	}
	return word, nil
}
