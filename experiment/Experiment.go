// Package experiment implements training loops that drive learning
// agents through episodes of the blob world, tracking metrics as they
// go.
package experiment

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Metric and weight files written into a run's data directory. The
// competitive loop prefixes per-blob files through BlobFile.
const (
	ReturnsFile = "returns.bin"
	LengthsFile = "lengths.bin"
	PickupsFile = "pickups.bin"
	WinsFile    = "wins.bin"
	WeightsFile = "weights.bin"
)

// summaryInterval is the episode cadence of console progress reports
const summaryInterval = 50

// barWidth is the character width of the training progress bar
const barWidth = 40

// divider matches the width of the console progress reports
var divider = strings.Repeat("-", 70)

// Interface Experiment outlines structs that can run experiments.
// Experiments drive an agent through episodes of an environment,
// caching per-episode metrics in RAM. The Save() function then takes
// all cached data, along with the final agent weights, and writes it
// to the run's data directory. This is usually performed after an
// experiment has been run.
type Experiment interface {
	// Run runs all episodes of the experiment
	Run() error

	// Save all tracked data and final weights to disk
	Save()
}

// Config holds the parameters shared by every training loop
type Config struct {
	// Episodes is the number of training episodes to run
	Episodes int

	// DataDir is the directory metric and weight files are written
	// to. It is created if it does not exist.
	DataDir string

	// CheckpointEvery is the number of episodes between weight
	// snapshots. The snapshot file is overwritten each time, so the
	// newest checkpoint survives an interrupted run. Zero disables
	// checkpointing; Save still writes the final weights.
	CheckpointEvery int
}

// Validate returns an error describing the first illegal parameter
// found, or nil if the config describes a run that can proceed
func (c Config) Validate() error {
	if c.Episodes <= 0 {
		return fmt.Errorf("validate: episodes must be positive "+
			"\n\twant(> 0) \n\thave(%v)", c.Episodes)
	}
	if c.DataDir == "" {
		return fmt.Errorf("validate: no data directory given")
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("validate: checkpoint cadence cannot be negative "+
			"\n\twant(>= 0) \n\thave(%v)", c.CheckpointEvery)
	}
	return nil
}

// BlobFile prefixes a metric filename with the blob it belongs to.
// Blobs are indexed from 0, matching the world's blob indices, but
// filenames use 1-based names to match the console reports.
func BlobFile(blob int, name string) string {
	return fmt.Sprintf("blob%d_%s", blob+1, name)
}

// tailMean returns the mean of the last window values, or of all
// values when fewer than window have been recorded
func tailMean(data []float64, window int) float64 {
	if len(data) == 0 {
		return 0
	}
	if len(data) > window {
		data = data[len(data)-window:]
	}
	return floats.Sum(data) / float64(len(data))
}
