// Package expreplay implements experience replay buffers: fixed-size
// stores of environment transitions that agents sample minibatches
// from during training. Transitions are removed first-in-first-out
// once the buffer fills, and sampling is uniform without replacement.
package expreplay

import (
	"fmt"
	"os"

	"github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleSize        int
	MaxReplayCapacity int
	MinReplayCapacity int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config
func (c Config) Create(featureSize, actionSize int,
	seed int64) (ExperienceReplayer, error) {

	sampler := NewUniformSelector(c.SampleSize, seed)
	return New(sampler, c.MinReplayCapacity, c.MaxReplayCapacity,
		featureSize, actionSize)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer and
	// returns the batch as flattened []float64 columns of states,
	// actions, rewards, discounts, and next states
	Sample() ([]float64, []float64, []float64, []float64, []float64, error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// New creates and returns a new ExperienceReplayer. The sampler
// parameter is a Selector which determines how data is sampled from
// the replay buffer. The featureSize and actionSize parameters define
// the size of the feature and action vectors.
//
// Pixel observations should be flattened before adding to the buffer.
func New(sampler Selector, minCapacity, maxCapacity, featureSize,
	actionSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if maxCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > max "+
			"buffer capacity (%v)", sampler.BatchSize(), maxCapacity)
	}

	// If minCapacity == maxCapacity == 1, then the replay buffer
	// only stores the most recent online transition. In this case,
	// onlineCache makes a number of efficiency improvements
	if minCapacity == 1 && maxCapacity == 1 {
		if sampler.BatchSize() > 1 {
			msg := "new: using online sampler, ignoring batch size > 1"
			fmt.Fprintln(os.Stderr, msg)
		}
		return newOnline(), nil
	}

	// Sampling is without replacement, so a batch can only be drawn
	// once the buffer holds at least a full batch
	if minCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > min "+
			"buffer capacity (%v)", sampler.BatchSize(), minCapacity)
	}

	return newDefaultCache(sampler, minCapacity, maxCapacity, featureSize,
		actionSize), nil
}

// copyInto copies src into dst[start:end]
func copyInto(dst []float64, start, end int, src []float64) int {
	return copy(dst[start:end], src)
}
