package video

import (
	"image"
	"image/color"

	"github.com/danmuck/hdmirx/internal/framesync"
)

// DefaultMaxLine caps a line so a stuck data stream cannot grow without
// bound.
const DefaultMaxLine = 4096

// Frame is one assembled frame.
type Frame struct {
	Index int
	// Complete is false for the frame in progress when the sink started.
	Complete bool
	// Regular reports that every line had the same width.
	Regular bool
	Image   *image.RGBA
}

func (f Frame) Width() int  { return f.Image.Bounds().Dx() }
func (f Frame) Height() int { return f.Image.Bounds().Dy() }

// Assembler splits the committed pixel stream into frames at the start of
// each vsync pulse and into lines at the end of each run of data cycles.
type Assembler struct {
	vsyncActiveHigh bool
	maxLine         int

	line    []color.RGBA
	lines   [][]color.RGBA
	inPulse bool
	synced  bool
	index   int
}

func NewAssembler(vsyncActiveHigh bool) *Assembler {
	return &Assembler{vsyncActiveHigh: vsyncActiveHigh, maxLine: DefaultMaxLine}
}

// Push feeds one tick. Held cycles are ignored. It returns a frame when a
// vsync pulse begins after at least one line.
func (a *Assembler) Push(px framesync.PixelSample, outcome framesync.Outcome) (Frame, bool) {
	switch outcome {
	case framesync.OutcomeData:
		if len(a.line) < a.maxLine {
			a.line = append(a.line, color.RGBA{R: px.Red, G: px.Green, B: px.Blue, A: 0xFF})
		}
		return Frame{}, false

	case framesync.OutcomeControl:
		a.endLine()
		pulse := px.VSync == a.vsyncActiveHigh
		start := pulse && !a.inPulse
		a.inPulse = pulse
		if !start {
			return Frame{}, false
		}
		frame, ok := a.emit()
		a.synced = true
		return frame, ok
	}
	return Frame{}, false
}

// Resync drops the frame in progress and marks the next frame incomplete.
// Callers use it when the link loses lock mid-frame.
func (a *Assembler) Resync() {
	a.line = nil
	a.lines = nil
	a.inPulse = false
	a.synced = false
}

// Flush returns the frame in progress, if it has any lines.
func (a *Assembler) Flush() (Frame, bool) {
	a.endLine()
	return a.emit()
}

func (a *Assembler) endLine() {
	if len(a.line) == 0 {
		return
	}
	a.lines = append(a.lines, a.line)
	a.line = nil
}

func (a *Assembler) emit() (Frame, bool) {
	if len(a.lines) == 0 {
		return Frame{}, false
	}
	width := 0
	regular := true
	for _, l := range a.lines {
		if width != 0 && len(l) != width {
			regular = false
		}
		if len(l) > width {
			width = len(l)
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, width, len(a.lines)))
	for y, l := range a.lines {
		for x, c := range l {
			img.SetRGBA(x, y, c)
		}
	}
	f := Frame{Index: a.index, Complete: a.synced, Regular: regular, Image: img}
	a.index++
	a.lines = nil
	return f, true
}
