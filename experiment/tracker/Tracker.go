// Package tracker implements trackers that accumulate per-episode
// training metrics and save them to disk for later inspection and
// plotting.
package tracker

import (
	"encoding/gob"
	"log"
	"os"

	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// Tracker tracks an experiment metric from the stream of environment
// timesteps and saves the accumulated data after the experiment has
// finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save()
}

// saveData gob-encodes the tracked data to filename
func saveData(filename string, data []float64) {
	file, err := os.Create(filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(data); err != nil {
		log.Fatalf("could not encode tracked data: %v", err)
	}
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) []float64 {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		log.Fatalf("could not decode data: %v", err)
	}

	return data
}
