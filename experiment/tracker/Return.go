package tracker

import (
	"fmt"

	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// Return tracks and saves the episodic return of an experiment. Each
// timestep's reward is accumulated into the running return of the
// current episode; when the episode's last timestep arrives, the
// accumulated return is cached and a new episode begins.
//
// An episode must finish for its return to be saved. If the last
// episode of an experiment never finishes, its return is dropped.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn returns a new Return tracker which will save its data at
// filename
func NewReturn(filename string) *Return {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track accumulates the reward seen on a timestep into the current
// episode's return. Track panics when called with non-sequential
// timesteps, since a gap means the return no longer measures a single
// episode.
func (r *Return) Track(step ts.TimeStep) {
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: non-sequential timesteps: "+
			"timestep %v -> timestep %v", r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward
	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0
		r.lastTimeStep = -1
	} else {
		r.lastTimeStep = step.Number
	}
}

// Save writes the episodic returns tracked so far to disk
func (r *Return) Save() {
	saveData(r.filename, r.episodeReturns)
}
