// Package render draws world frames to images for demo playback and
// frame dumps. Like the viewer, it is a pure reader of frame data;
// nothing it does feeds back into the simulation.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
)

// DefaultScale is the rendered size of one world unit in pixels
const DefaultScale float64 = 6.0

// gridSpacing is the world-unit spacing of the background grid
const gridSpacing float64 = 10.0

// Renderer draws world frames at a fixed pixel scale
type Renderer struct {
	config blob.Config
	scale  float64

	background color.Color
	grid       color.Color
	pellet     color.Color
	heading    color.Color
	blobShades []color.Color
}

// New returns a renderer for worlds with the given config, drawing
// DefaultScale pixels per world unit. The first blob renders blue and
// the second red, matching the colour code of the console reports.
func New(config blob.Config) *Renderer {
	return &Renderer{
		config:     config,
		scale:      DefaultScale,
		background: color.RGBA{R: 18, G: 18, B: 28, A: 255},
		grid:       color.RGBA{R: 40, G: 40, B: 55, A: 255},
		pellet:     color.RGBA{R: 50, G: 220, B: 50, A: 255},
		heading:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
		blobShades: []color.Color{
			color.RGBA{R: 50, G: 120, B: 220, A: 255},
			color.RGBA{R: 220, G: 50, B: 50, A: 255},
		},
	}
}

// Size returns the side length in pixels of rendered frames
func (r *Renderer) Size() int {
	return int(r.config.MapSize * r.scale)
}

// Render draws a single frame: the grid, then the pellets, then the
// blobs with their heading ticks on top
func (r *Renderer) Render(frame blob.Frame) image.Image {
	size := r.Size()
	dc := gg.NewContext(size, size)
	dc.SetColor(r.background)
	dc.Clear()

	r.drawGrid(dc)

	for _, pellet := range frame.Pellets {
		dc.DrawCircle(pellet[0]*r.scale, pellet[1]*r.scale,
			blob.PelletRadius*r.scale)
		dc.SetColor(r.pellet)
		dc.Fill()
	}

	for i, b := range frame.Blobs {
		r.drawBlob(dc, b, r.blobShades[i%len(r.blobShades)])
	}

	return dc.Image()
}

// SavePNG renders a frame and writes it to path
func (r *Renderer) SavePNG(frame blob.Frame, path string) error {
	return gg.SavePNG(path, r.Render(frame))
}

func (r *Renderer) drawGrid(dc *gg.Context) {
	dc.SetColor(r.grid)
	dc.SetLineWidth(1)

	limit := r.config.MapSize * r.scale
	for line := gridSpacing; line < r.config.MapSize; line += gridSpacing {
		at := line * r.scale
		dc.DrawLine(at, 0, at, limit)
		dc.DrawLine(0, at, limit, at)
	}
	dc.Stroke()
}

// drawBlob draws one blob as a filled circle whose drawn radius grows
// and shrinks with its mass, plus a tick along its heading
func (r *Renderer) drawBlob(dc *gg.Context, b blob.BlobState,
	shade color.Color) {
	radius := r.config.AgentRadius * r.scale * b.Mass / r.config.InitialMass
	x := b.X * r.scale
	y := b.Y * r.scale

	dc.DrawCircle(x, y, radius)
	dc.SetColor(shade)
	dc.Fill()

	dc.SetColor(r.heading)
	dc.SetLineWidth(2)
	dc.DrawLine(x, y, x+1.5*radius*math.Cos(b.Heading),
		y+1.5*radius*math.Sin(b.Heading))
	dc.Stroke()
}
