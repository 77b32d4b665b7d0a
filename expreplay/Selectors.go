package expreplay

import (
	"math/rand"
)

// Selector implements functionality for choosing how data should be
// sampled from an experience replay buffer
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer
	choose(d *defaultCache) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly without replacement
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data
// uniformly randomly from an experience replay buffer. Each index in
// the buffer appears at most once per batch.
func NewUniformSelector(samples int, seed int64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of indices at which to draw data from the
// buffer. A partial shuffle of a scratch copy of the candidate indices
// yields a batch without replacement.
func (u *uniformSelector) choose(d *defaultCache) []int {
	candidates := d.sampleFrom()
	scratch := make([]int, len(candidates))
	copy(scratch, candidates)

	n := u.BatchSize()
	if n > len(scratch) {
		n = len(scratch)
	}

	for i := 0; i < n; i++ {
		j := i + u.rng.Intn(len(scratch)-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}

	return scratch[:n]
}
