// Package blob implements the shared core of the blob survival world:
// a bounded toroidal 2D map on which circular blob agents steer left
// or right while moving forward at constant speed, losing mass every
// tick and regaining it by colliding with food pellets. The harvest
// and arena subpackages build the single-agent and the competitive
// environment on top of this core.
package blob

import (
	"fmt"
)

// Steering actions. A blob always moves forward; the only control is
// the direction it turns.
const (
	SteerLeft  int = 0
	SteerRight int = 1

	NumActions int = 2
)

// World holds the state shared by both environment variants: the blob
// poses, the pellet field, and the tick counter. All randomness is
// drawn from sources seeded at construction.
type World struct {
	Config

	blobs   []*Blob
	pellets *Pellets
	steps   int
}

// NewWorld validates config and returns a world holding numBlobs
// blobs. The blobs start zero-valued; callers place them through
// BeginEpisode and direct field writes.
func NewWorld(config Config, numBlobs int, seed uint64) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if numBlobs < 1 {
		return nil, fmt.Errorf("newworld: number of blobs must be positive "+
			"\n\twant(>0) \n\thave(%v)", numBlobs)
	}

	blobs := make([]*Blob, numBlobs)
	for i := range blobs {
		blobs[i] = &Blob{}
	}

	return &World{
		Config:  config,
		blobs:   blobs,
		pellets: NewPellets(config.MaxFoods, config.MapSize, seed),
	}, nil
}

// CheckAction validates a steering action, returning an error for any
// value other than SteerLeft or SteerRight
func CheckAction(action int) error {
	if action != SteerLeft && action != SteerRight {
		return fmt.Errorf("step: invalid action \n\twant(%v or %v) "+
			"\n\thave(%v)", SteerLeft, SteerRight, action)
	}
	return nil
}

// Blob returns the i'th blob. Index order is also pickup tie-break
// order.
func (w *World) Blob(i int) *Blob {
	return w.blobs[i]
}

// NumBlobs returns the number of blobs in the world
func (w *World) NumBlobs() int {
	return len(w.blobs)
}

// Pellets returns the world's pellet field
func (w *World) Pellets() *Pellets {
	return w.pellets
}

// Steps returns the number of ticks taken in the current episode
func (w *World) Steps() int {
	return w.steps
}

// BeginEpisode clears the tick counter, restores every blob to its
// initial mass with no pickups, and respawns the pellet field. The
// caller places the blobs afterward.
func (w *World) BeginEpisode() {
	w.steps = 0
	for _, b := range w.blobs {
		b.Mass = w.InitialMass
		b.Pickups = 0
	}
	w.pellets.Respawn()
}

// Advance applies one tick of motion: steering and forward movement
// for every blob in index order, then the unconditional mass decay.
// Actions must already be validated.
func (w *World) Advance(actions []int) {
	w.steps++
	for i, b := range w.blobs {
		b.Steer(actions[i], w.TurnRate)
		b.Advance(w.MovementSpeed, w.MapSize)
	}
	for _, b := range w.blobs {
		b.Mass -= w.MassDecayRate
	}
}

// CollectPellets resolves pickups for the current tick. Pellets are
// tested in field order against each blob in index order, so when two
// blobs are in range of the same pellet on the same tick the lower
// index wins it. Consumed pellets grant FoodMassGain to the winner and
// are respawned within the same tick, restoring the field to MaxFoods.
// The returned slice holds the number of pellets each blob collected.
func (w *World) CollectPellets() []int {
	collected := make([]int, len(w.blobs))

	kept := make([][2]float64, 0, w.pellets.Count())
	for _, pos := range w.pellets.positions {
		taken := false
		for i, b := range w.blobs {
			if Distance(b.X, b.Y, pos[0], pos[1]) < w.AgentRadius+PelletRadius {
				b.Mass += w.FoodMassGain
				b.Pickups++
				collected[i]++
				taken = true
				break
			}
		}
		if !taken {
			kept = append(kept, pos)
		}
	}
	w.pellets.positions = kept
	w.pellets.Replenish()

	return collected
}

// AnyStarved reports whether any blob's mass has reached the minimum
// mass floor
func (w *World) AnyStarved() bool {
	for _, b := range w.blobs {
		if b.Starved(w.MinMass) {
			return true
		}
	}
	return false
}
