package stimulus

import (
	"github.com/danmuck/hdmirx/internal/framesync"
	"github.com/danmuck/hdmirx/internal/tmds"
)

// Generator walks the raster one pixel clock at a time.
type Generator struct {
	timing  Timing
	pattern Pattern
	x, y    int
	frame   int
}

func NewGenerator(t Timing, p Pattern) *Generator {
	return &Generator{timing: t, pattern: p}
}

func (g *Generator) Timing() Timing { return g.timing }

// Frame is the index of the frame the next pixel belongs to.
func (g *Generator) Frame() int { return g.frame }

// Next returns the pixel for the current raster position and advances.
func (g *Generator) Next() framesync.PixelSample {
	blank, hsync, vsync := g.timing.levels(g.x, g.y)
	px := framesync.PixelSample{Blank: blank, HSync: hsync, VSync: vsync}
	if !blank {
		c := g.pattern.At(g.x, g.y, g.frame, g.timing)
		px.Red, px.Green, px.Blue = c.R, c.G, c.B
	}

	g.x++
	if g.x == g.timing.HTotal() {
		g.x = 0
		g.y++
		if g.y == g.timing.VTotal() {
			g.y = 0
			g.frame++
		}
	}
	return px
}

// EncodePixel maps a pixel to the three lane code words. Lane 0 carries
// blue and, while blanking, the sync levels; lanes 1 and 2 carry green and
// red and send control 0 while blanking.
func EncodePixel(px framesync.PixelSample) [framesync.Lanes]tmds.CodeWord {
	if px.Blank {
		var ctl uint8
		if px.VSync {
			ctl |= 0b10
		}
		if px.HSync {
			ctl |= 0b01
		}
		return [framesync.Lanes]tmds.CodeWord{
			tmds.ControlToken(ctl),
			tmds.ControlToken(0),
			tmds.ControlToken(0),
		}
	}
	return [framesync.Lanes]tmds.CodeWord{
		tmds.Encode(px.Blue),
		tmds.Encode(px.Green),
		tmds.Encode(px.Red),
	}
}
