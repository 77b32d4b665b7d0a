package render

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob/harvest"
)

func sameColor(have color.Color, want color.Color) bool {
	hr, hg, hb, ha := have.RGBA()
	wr, wg, wb, wa := want.RGBA()
	return hr == wr && hg == wg && hb == wb && ha == wa
}

func TestRenderImageSize(t *testing.T) {
	r := New(harvest.DefaultConfig())
	img := r.Render(blob.Frame{MapSize: 100})

	if r.Size() != 600 {
		t.Errorf("wrong frame size \n\twant(%v) \n\thave(%v)", 600, r.Size())
	}
	bounds := img.Bounds()
	if bounds.Dx() != 600 || bounds.Dy() != 600 {
		t.Errorf("wrong image bounds \n\twant(%vx%v) \n\thave(%vx%v)",
			600, 600, bounds.Dx(), bounds.Dy())
	}
}

func TestRenderBackground(t *testing.T) {
	r := New(harvest.DefaultConfig())
	img := r.Render(blob.Frame{MapSize: 100})

	// Off the grid lines, away from everything else
	want := color.RGBA{R: 18, G: 18, B: 28, A: 255}
	if !sameColor(img.At(12, 12), want) {
		t.Errorf("wrong background colour \n\twant(%v) \n\thave(%v)",
			want, img.At(12, 12))
	}
}

func TestRenderDrawsPellets(t *testing.T) {
	r := New(harvest.DefaultConfig())
	frame := blob.Frame{
		MapSize: 100,
		Pellets: [][2]float64{{20, 20}},
	}
	img := r.Render(frame)

	// Pellet centre at pixel (120, 120), filled over the grid lines
	want := color.RGBA{R: 50, G: 220, B: 50, A: 255}
	if !sameColor(img.At(120, 120), want) {
		t.Errorf("wrong pellet colour \n\twant(%v) \n\thave(%v)", want,
			img.At(120, 120))
	}
}

func TestRenderDrawsBlobs(t *testing.T) {
	r := New(harvest.DefaultConfig())
	frame := blob.Frame{
		MapSize: 100,
		Blobs: []blob.BlobState{
			{X: 25, Y: 25, Heading: 0, Mass: 5},
			{X: 75, Y: 75, Heading: 0, Mass: 5},
		},
	}
	img := r.Render(frame)

	// Full mass draws at the full agent radius of 15 pixels. Sample
	// below each centre, inside the circle but clear of the heading
	// tick.
	blue := color.RGBA{R: 50, G: 120, B: 220, A: 255}
	if !sameColor(img.At(150, 157), blue) {
		t.Errorf("wrong first blob colour \n\twant(%v) \n\thave(%v)",
			blue, img.At(150, 157))
	}

	red := color.RGBA{R: 220, G: 50, B: 50, A: 255}
	if !sameColor(img.At(450, 457), red) {
		t.Errorf("wrong second blob colour \n\twant(%v) \n\thave(%v)",
			red, img.At(450, 457))
	}
}

func TestRenderScalesBlobWithMass(t *testing.T) {
	r := New(harvest.DefaultConfig())
	frame := blob.Frame{
		MapSize: 100,
		Blobs: []blob.BlobState{
			// Half the initial mass of 5 halves the drawn radius to
			// 7.5 pixels
			{X: 50, Y: 50, Heading: 0, Mass: 2.5},
		},
	}
	img := r.Render(frame)

	blue := color.RGBA{R: 50, G: 120, B: 220, A: 255}
	if !sameColor(img.At(300, 305), blue) {
		t.Errorf("interior pixel lost the blob colour "+
			"\n\twant(%v) \n\thave(%v)", blue, img.At(300, 305))
	}

	// Off the blob, the heading tick, and the grid lines through the
	// map centre
	background := color.RGBA{R: 18, G: 18, B: 28, A: 255}
	if !sameColor(img.At(305, 311), background) {
		t.Errorf("shrunken blob still covers pixel outside its radius "+
			"\n\twant(%v) \n\thave(%v)", background, img.At(305, 311))
	}
}

func TestSavePNG(t *testing.T) {
	r := New(harvest.DefaultConfig())
	path := filepath.Join(t.TempDir(), "frame.png")

	frame := blob.Frame{
		MapSize: 100,
		Blobs:   []blob.BlobState{{X: 50, Y: 50, Mass: 5}},
		Pellets: [][2]float64{{20, 20}},
	}
	if err := r.SavePNG(frame, path); err != nil {
		t.Fatalf("could not save frame: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("frame file was not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("frame file is empty")
	}
}
