// Package harvest implements the single-blob survival environment.
// One blob steers around the toroidal map collecting pellets to offset
// its mass decay. Episodes end when the blob starves or at the step
// limit.
//
// Rewards are dense: a small living bonus each tick, a shaping term
// proportional to the distance closed toward the nearest pellet, and a
// large bonus per pellet consumed.
package harvest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/alsterverse/labday-eat-big-screen-simulation/environment"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/spec"
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

const (
	// Default world parameters
	DefaultMapSize       float64 = 100.0
	DefaultAgentRadius   float64 = 2.5
	DefaultInitialMass   float64 = 5.0
	DefaultMinMass       float64 = 0.5
	DefaultMassDecayRate float64 = 0.08
	DefaultFoodMassGain  float64 = 2.0
	DefaultMovementSpeed float64 = 1.2
	DefaultTurnRate      float64 = 0.12
	DefaultMaxFoods      int     = 8
	DefaultMaxSteps      int     = 1000
	DefaultDiscount      float64 = 0.99

	// Reward structure
	BaseReward    float64 = 0.01
	ApproachScale float64 = 0.02
	PickupReward  float64 = 10.0

	// Observation layout: x, y, heading, bearing to nearest pellet,
	// distance to nearest pellet, mass
	ObservationSize int = 6

	// MassScale divides the blob mass in observations
	MassScale float64 = 10.0
)

// DefaultConfig returns the world parameters the environment was tuned
// with
func DefaultConfig() blob.Config {
	return blob.Config{
		MapSize:       DefaultMapSize,
		AgentRadius:   DefaultAgentRadius,
		InitialMass:   DefaultInitialMass,
		MinMass:       DefaultMinMass,
		MassDecayRate: DefaultMassDecayRate,
		MassStealRate: 0.0,
		FoodMassGain:  DefaultFoodMassGain,
		MovementSpeed: DefaultMovementSpeed,
		TurnRate:      DefaultTurnRate,
		MaxFoods:      DefaultMaxFoods,
		MaxSteps:      DefaultMaxSteps,
		Discount:      DefaultDiscount,
	}
}

// Harvest implements the single-blob survival environment. The blob
// starts each episode at the map centre with a uniformly random
// heading, and the shaping term tracks the nearest-pellet distance
// between consecutive ticks.
type Harvest struct {
	*blob.World
	heading      env.Starter
	stepLimit    env.Ender
	prevFoodDist float64
	lastStep     ts.TimeStep
}

// New returns a new Harvest environment with its first timestep. The
// seed determines pellet placement and the starting heading.
func New(config blob.Config, seed uint64) (*Harvest, ts.TimeStep, error) {
	world, err := blob.NewWorld(config, 1, seed)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("harvest: %v", err)
	}

	heading := env.NewUniformStarter([]r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
	}, seed+1)

	harvest := &Harvest{
		World:     world,
		heading:   heading,
		stepLimit: env.NewStepLimit(config.MaxSteps),
	}
	firstStep := harvest.Reset()

	return harvest, firstStep, nil
}

// Reset resets the environment to the start of a new episode: the blob
// at the map centre with a fresh heading and mass, and a fresh pellet
// field
func (h *Harvest) Reset() ts.TimeStep {
	h.BeginEpisode()

	b := h.Blob(0)
	b.X = h.MapSize / 2.0
	b.Y = h.MapSize / 2.0
	b.Heading = h.heading.Start().AtVec(0)

	_, h.prevFoodDist = h.Pellets().Nearest(b.X, b.Y)

	startStep := ts.New(ts.First, 0, h.Discount, h.observe(), 0)
	h.lastStep = startStep

	return startStep
}

// Step takes one environmental step given the steering action,
// returning the next timestep and whether it ended the episode
func (h *Harvest) Step(action int) (ts.TimeStep, bool, error) {
	if err := blob.CheckAction(action); err != nil {
		return ts.TimeStep{}, false, err
	}

	h.Advance([]int{action})
	b := h.Blob(0)

	// Shaping pays for distance closed toward the nearest pellet
	// since the previous tick
	_, dist := h.Pellets().Nearest(b.X, b.Y)
	reward := BaseReward + ApproachScale*(h.prevFoodDist-dist)
	h.prevFoodDist = dist

	if n := h.CollectPellets()[0]; n > 0 {
		reward += PickupReward * float64(n)

		// The shaping baseline must refer to the replenished field,
		// otherwise the next tick pays for a pellet that is gone
		_, h.prevFoodDist = h.Pellets().Nearest(b.X, b.Y)
	}

	nextStep := ts.New(ts.Mid, reward, h.Discount, h.observe(),
		h.lastStep.Number+1)
	h.stepLimit.End(&nextStep)
	if b.Starved(h.MinMass) {
		nextStep.StepType = ts.Last
		nextStep.SetEnd(ts.TerminalStateReached)
	}
	if nextStep.Last() {
		nextStep.Discount = 0
	}

	h.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// observe constructs the observation: the blob position scaled to
// [0, 1], its heading, the bearing to and scaled distance of the
// nearest pellet, and the scaled mass
func (h *Harvest) observe() *mat.VecDense {
	b := h.Blob(0)
	nearest, dist := h.Pellets().Nearest(b.X, b.Y)
	foodX, foodY := h.Pellets().At(nearest)

	return mat.NewVecDense(ObservationSize, []float64{
		b.X / h.MapSize,
		b.Y / h.MapSize,
		b.Heading,
		blob.RelativeBearing(b.X, b.Y, b.Heading, foodX, foodY),
		dist / (math.Sqrt2 * h.MapSize),
		b.Mass / MassScale,
	})
}

// ObservationSpec returns the observation specification of the
// environment
func (h *Harvest) ObservationSpec() spec.Environment {
	shape := mat.NewVecDense(ObservationSize, nil)
	lowerBound := mat.NewVecDense(ObservationSize, []float64{
		0, 0, -math.Pi, -math.Pi, 0, 0,
	})
	upperBound := mat.NewVecDense(ObservationSize, []float64{
		1, 1, math.Pi, math.Pi, 1, 10,
	})

	return spec.NewEnvironment(shape, spec.Observation, lowerBound,
		upperBound, spec.Continuous)
}

// ActionSpec returns the action specification of the environment
func (h *Harvest) ActionSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(blob.SteerLeft)})
	upperBound := mat.NewVecDense(1, []float64{float64(blob.SteerRight)})

	return spec.NewEnvironment(shape, spec.Action, lowerBound,
		upperBound, spec.Discrete)
}

// DiscountSpec returns the discounting specification of the
// environment
func (h *Harvest) DiscountSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{h.Discount})

	return spec.NewEnvironment(shape, spec.Discount, bound, bound,
		spec.Continuous)
}

// SurvivalTime returns the number of ticks survived so far in the
// current episode
func (h *Harvest) SurvivalTime() int {
	return h.Steps()
}

// String returns a string representation of the environment state
func (h *Harvest) String() string {
	b := h.Blob(0)
	str := "Harvest  |  Position: (%.2f, %.2f)  |  Heading: %.2f  |  " +
		"Mass: %.2f"

	return fmt.Sprintf(str, b.X, b.Y, b.Heading, b.Mass)
}
