// Package framesync combines three lane outputs into one registered pixel.
package framesync

import "github.com/danmuck/hdmirx/internal/lane"

// Lanes is the number of TMDS data lanes. Lane 0 carries sync.
const Lanes = 3

// PixelSample is the registered pixel. It only changes on cycles where all
// lanes agree on symbol kind.
type PixelSample struct {
	Blank bool  `json:"blank"`
	HSync bool  `json:"hsync"`
	VSync bool  `json:"vsync"`
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

// Outcome classifies what one cycle did to the register.
type Outcome uint8

const (
	OutcomeHold Outcome = iota
	OutcomeControl
	OutcomeData
)

func (o Outcome) String() string {
	switch o {
	case OutcomeControl:
		return "control"
	case OutcomeData:
		return "data"
	default:
		return "hold"
	}
}

// Stats counts synchronizer cycles by outcome.
type Stats struct {
	ControlCycles uint64 `json:"control_cycles"`
	DataCycles    uint64 `json:"data_cycles"`
	HeldCycles    uint64 `json:"held_cycles"`
	// Disagreements counts held cycles where every lane was locked and at
	// least one lane reported a classification.
	Disagreements uint64 `json:"disagreements"`
}

// Synchronizer owns the PixelSample register.
type Synchronizer struct {
	pixel PixelSample
	stats Stats
}

func New() *Synchronizer {
	return &Synchronizer{}
}

// Pixel returns a copy of the register.
func (s *Synchronizer) Pixel() PixelSample { return s.pixel }

func (s *Synchronizer) Stats() Stats { return s.stats }

// Tick applies one cycle of lane outputs. locked reports each lane's
// registered lock state and only feeds the disagreement counter.
func (s *Synchronizer) Tick(in [Lanes]lane.Output, locked [Lanes]bool) Outcome {
	switch {
	case in[0].CtlValid && in[1].CtlValid && in[2].CtlValid:
		s.pixel.Blank = true
		s.pixel.VSync = in[0].Ctl&0b10 != 0
		s.pixel.HSync = in[0].Ctl&0b01 != 0
		s.pixel.Red = 0
		s.pixel.Green = 0
		s.pixel.Blue = 0
		s.stats.ControlCycles++
		return OutcomeControl

	case in[0].DataValid && in[1].DataValid && in[2].DataValid:
		s.pixel.Blank = false
		s.pixel.HSync = false
		s.pixel.VSync = false
		s.pixel.Blue = in[0].Data
		s.pixel.Green = in[1].Data
		s.pixel.Red = in[2].Data
		s.stats.DataCycles++
		return OutcomeData
	}

	// Mixed or invalid cycle: the register keeps every field.
	s.stats.HeldCycles++
	if locked[0] && locked[1] && locked[2] && anyClassified(in) {
		s.stats.Disagreements++
	}
	return OutcomeHold
}

func anyClassified(in [Lanes]lane.Output) bool {
	for _, o := range in {
		if o.CtlValid || o.DataValid {
			return true
		}
	}
	return false
}
