// Package agent defines the interfaces implemented by learning agents
package agent

import (
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a
// Policy which chooses actions in each state. The Policy chooses which
// actions are taken, and the Learner uses these actions to update the
// Policy.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner, returning the
	// loss and whether an update actually occurred. Insufficient
	// replay data is a signalled no-op, not an error.
	Step() (loss float64, updated bool, err error)

	// Observe records that an action led to some timestep
	Observe(action int, nextStep ts.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(ts.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should have pointers to the same weights so that
// any changes the Learner makes to the weights are reflected in the
// actions the Policy chooses.
type Policy interface {
	SelectAction(t ts.TimeStep) int
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// TargetUpdater is an agent that keeps a frozen copy of its learned
// weights for computing bootstrapped update targets. The frozen copy
// is refreshed to an exact copy of the learned weights only by
// UpdateTarget, which the training loop invokes on a fixed episode
// cadence read from TargetInterval.
type TargetUpdater interface {
	UpdateTarget() error
	TargetInterval() int
}

// EpsilonDecayer is an agent whose exploration rate anneals on an
// external schedule.
type EpsilonDecayer interface {
	// DecayEpsilon applies one multiplicative decay step to the
	// exploration rate, respecting its floor
	DecayEpsilon()

	// Epsilon returns the current exploration rate
	Epsilon() float64
}

// Saver is an agent whose learned weights can be written to and
// restored from a weight file.
type Saver interface {
	Save(path string) error
	Load(path string) error
}
