package tracker

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SmoothingWindow is the number of episodes averaged into each point
// of a learning curve's smoothed series
const SmoothingWindow = 50

// LearningCurve renders the data saved by a tracker as a line plot:
// the raw per-episode series, plus a SmoothingWindow-episode moving
// average once enough episodes exist. The plot file's extension picks
// the image format.
func LearningCurve(dataFile, plotFile, title, yLabel string) error {
	data := LoadData(dataFile)
	if len(data) == 0 {
		return fmt.Errorf("learningcurve: no episodes recorded in %v",
			dataFile)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = yLabel

	raw := make(plotter.XYs, len(data))
	for i, v := range data {
		raw[i].X = float64(i)
		raw[i].Y = v
	}
	rawLine, err := plotter.NewLine(raw)
	if err != nil {
		return fmt.Errorf("learningcurve: could not plot data: %v", err)
	}
	rawLine.Color = color.Gray{Y: 0xb0}
	p.Add(rawLine)
	p.Legend.Add(yLabel, rawLine)

	if len(data) >= SmoothingWindow {
		smoothed := movingAverage(data, SmoothingWindow)
		pts := make(plotter.XYs, len(smoothed))
		for i, v := range smoothed {
			pts[i].X = float64(i + SmoothingWindow - 1)
			pts[i].Y = v
		}
		smoothLine, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("learningcurve: could not plot moving "+
				"average: %v", err)
		}
		smoothLine.Width = vg.Points(2)
		smoothLine.Color = color.RGBA{R: 0xc0, G: 0x30, B: 0x30, A: 0xff}
		p.Add(smoothLine)
		p.Legend.Add(fmt.Sprintf("%v-episode average", SmoothingWindow),
			smoothLine)
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, plotFile); err != nil {
		return fmt.Errorf("learningcurve: could not save plot: %v", err)
	}
	return nil
}

// movingAverage returns the window-sized moving average of data. The
// result has len(data)-window+1 points, the i'th averaging
// data[i:i+window].
func movingAverage(data []float64, window int) []float64 {
	averaged := make([]float64, len(data)-window+1)
	for i := range averaged {
		averaged[i] = floats.Sum(data[i:i+window]) / float64(window)
	}
	return averaged
}
