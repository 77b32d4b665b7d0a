package deepq

import (
	"fmt"
	"math"

	"github.com/alsterverse/labday-eat-big-screen-simulation/agent"
	env "github.com/alsterverse/labday-eat-big-screen-simulation/environment"
	"github.com/alsterverse/labday-eat-big-screen-simulation/initwfn"
	"github.com/alsterverse/labday-eat-big-screen-simulation/solver"
)

// Default configuration values
const (
	DefaultHidden1        int     = 128
	DefaultHidden2        int     = 128
	DefaultBatchSize      int     = 64
	DefaultBufferSize     int     = 50000
	DefaultEpsilon        float64 = 1.0
	DefaultEpsilonDecay   float64 = 0.995
	DefaultEpsilonMin     float64 = 0.01
	DefaultLearningRate   float64 = 0.001
	DefaultTargetInterval int     = 10
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	// Hidden layer widths of the action value network
	Hidden1 int
	Hidden2 int

	// Experience replay parameters
	BatchSize  int
	BufferSize int

	// Exploration schedule. Epsilon is the starting exploration rate,
	// multiplied by EpsilonDecay after each episode and floored at
	// EpsilonMin.
	Epsilon      float64
	EpsilonDecay float64
	EpsilonMin   float64

	// Episodes between target network refreshes. The cadence is
	// applied by the training loop, not per gradient step.
	TargetInterval int

	Solver  *solver.Solver   // Solver for learning weights
	InitWFn *initwfn.InitWFn // Initialization algorithm for weights
}

// DefaultConfig returns a Config with every knob at its default value
func DefaultConfig() Config {
	adam, err := solver.NewDefaultAdam(DefaultLearningRate,
		DefaultBatchSize)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: could not create solver: %v",
			err))
	}
	glorot, err := initwfn.NewGlorotU(math.Sqrt(2))
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: could not create weight "+
			"initializer: %v", err))
	}

	return Config{
		Hidden1:        DefaultHidden1,
		Hidden2:        DefaultHidden2,
		BatchSize:      DefaultBatchSize,
		BufferSize:     DefaultBufferSize,
		Epsilon:        DefaultEpsilon,
		EpsilonDecay:   DefaultEpsilonDecay,
		EpsilonMin:     DefaultEpsilonMin,
		TargetInterval: DefaultTargetInterval,
		Solver:         adam,
		InitWFn:        glorot,
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if c.Hidden1 < 1 || c.Hidden2 < 1 {
		return fmt.Errorf("config: hidden layer widths must be positive "+
			"\n\twant(> 0) \n\thave(%v, %v)", c.Hidden1, c.Hidden2)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be positive "+
			"\n\twant(> 0) \n\thave(%v)", c.BatchSize)
	}
	if c.BufferSize < c.BatchSize {
		return fmt.Errorf("config: replay buffer must hold at least one "+
			"batch \n\twant(>= %v) \n\thave(%v)", c.BatchSize, c.BufferSize)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("config: epsilon must be a probability "+
			"\n\twant(0 to 1) \n\thave(%v)", c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("config: epsilon decay must keep epsilon "+
			"non-increasing \n\twant(0 to 1] \n\thave(%v)", c.EpsilonDecay)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		return fmt.Errorf("config: epsilon floor must be between 0 and "+
			"the starting epsilon \n\twant(0 to %v) \n\thave(%v)",
			c.Epsilon, c.EpsilonMin)
	}
	if c.TargetInterval < 1 {
		return fmt.Errorf("config: target networks must be updated at "+
			"positive episode intervals \n\twant(> 0) \n\thave(%v)",
			c.TargetInterval)
	}
	if c.Solver == nil {
		return fmt.Errorf("config: no solver")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("config: no weight initializer")
	}

	return nil
}

// CreateAgent creates a new DeepQ agent based on the configuration
func (c Config) CreateAgent(e env.Specced, seed int64) (agent.Agent,
	error) {
	return New(e, c, seed)
}
