package tracker

import (
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// EpisodeLength tracks and saves the number of ticks survived in each
// episode of an experiment
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength tracker which will save
// its data at filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length whenever the timestep passed to it
// is the last of its episode
func (e *EpisodeLength) Track(t ts.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(t.Number))
	}
}

// Save writes the episode lengths tracked so far to disk
func (e *EpisodeLength) Save() {
	saveData(e.filename, e.episodeLengths)
}
