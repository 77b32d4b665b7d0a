// Package environment outlines the interfaces needed to implement
// concrete environments and provides the starters and enders shared
// between them
package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/alsterverse/labday-eat-big-screen-simulation/spec"
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when and how episodes end. An Ender inspects each
// new TimeStep and, if it ends the episode, flips the StepType field
// to timestep.Last and records the end type on the step.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Specced describes any environment that reports its observation,
// action, and discount specifications. Agents size their networks and
// validate their action spaces against these specifications alone, so
// environments that step differently from Environment (the two-blob
// arena takes an action per blob) can still construct agents.
type Specced interface {
	ObservationSpec() spec.Environment
	ActionSpec() spec.Environment
	DiscountSpec() spec.Environment
}

// Environment implements a simulated world that a single agent steps
// through one tick at a time. Actions are discrete indices into the
// action spec. Step validates its action and returns an error for any
// value outside the spec, leaving the world untouched.
type Environment interface {
	fmt.Stringer
	Specced
	Reset() ts.TimeStep
	Step(action int) (ts.TimeStep, bool, error)

	// SurvivalTime returns the number of ticks taken so far in the
	// current episode
	SurvivalTime() int
}
