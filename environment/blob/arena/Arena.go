// Package arena implements the competitive two-blob environment. Two
// blobs share one map and one pellet field, racing to out-survive each
// other. An episode ends as soon as either blob starves or when the
// step limit is reached, and the surviving blob wins. Rewards are
// sparse: a small living bonus each tick and a bonus per pellet
// consumed, with no shaping.
package arena

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"

	env "github.com/alsterverse/labday-eat-big-screen-simulation/environment"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/spec"
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

const (
	// Default world parameters. The arena decays mass more slowly and
	// pays less per pellet than the harvest environment, stretching
	// episodes out so that blob interaction matters.
	DefaultMapSize       float64 = 100.0
	DefaultAgentRadius   float64 = 2.5
	DefaultInitialMass   float64 = 5.0
	DefaultMinMass       float64 = 0.5
	DefaultMassDecayRate float64 = 0.05
	DefaultMassStealRate float64 = 0.15
	DefaultFoodMassGain  float64 = 1.5
	DefaultMovementSpeed float64 = 1.2
	DefaultTurnRate      float64 = 0.12
	DefaultMaxFoods      int     = 10
	DefaultMaxSteps      int     = 2000
	DefaultDiscount      float64 = 0.99

	// Reward structure
	BaseReward   float64 = 0.01
	PickupReward float64 = 5.0

	// Observation layout per blob: x, y, heading, mass, distance to
	// and bearing of the opponent, distance to and bearing of the
	// nearest pellet
	ObservationSize int = 8

	// MassScale divides the blob mass in observations
	MassScale float64 = 10.0

	// SeparationFactor divides the map size to give the minimum
	// spawn separation between the blobs
	SeparationFactor float64 = 3.0
)

// Episode outcomes
const (
	Draw      int = 0
	Blob1Wins int = 1
	Blob2Wins int = 2
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
		MassStealRate: DefaultMassStealRate,
		FoodMassGain:  DefaultFoodMassGain,
		MovementSpeed: DefaultMovementSpeed,
		TurnRate:      DefaultTurnRate,
		MaxFoods:      DefaultMaxFoods,
		MaxSteps:      DefaultMaxSteps,
		Discount:      DefaultDiscount,
	}
}

// Result records the outcome of a finished episode. Winner is Draw
// when both blobs starve on the same tick or when neither has starved
// by the step limit.
type Result struct {
	Winner       int
	Masses       [2]float64
	Pickups      [2]int
	SurvivalTime int
}

// Arena implements the competitive two-blob environment. Both blobs
// spawn uniformly inside the spawn inset, at least a third of the map
// apart.
type Arena struct {
	*blob.World
	place     *distmv.Uniform
	headings  env.Starter
	stepLimit env.Ender
	lastSteps [2]ts.TimeStep
	result    Result
	finished  bool
}

// New returns a new Arena environment with the first timestep of each
// blob. The seed determines pellet placement, blob placement, and
// starting headings.
func New(config blob.Config, seed uint64) (*Arena, [2]ts.TimeStep, error) {
	world, err := blob.NewWorld(config, 2, seed)
	if err != nil {
		return nil, [2]ts.TimeStep{}, fmt.Errorf("arena: %v", err)
	}

	// The spawn box must be able to satisfy the separation re-roll
	maxSeparation := math.Sqrt2 * (config.MapSize - 2.0*blob.SpawnInset)
	if maxSeparation <= config.MapSize/SeparationFactor {
		return nil, [2]ts.TimeStep{}, fmt.Errorf("arena: map too small "+
			"to separate spawns \n\twant(max separation >%v) \n\thave(%v)",
			config.MapSize/SeparationFactor, maxSeparation)
	}

	bounds := []r1.Interval{
		{Min: blob.SpawnInset, Max: config.MapSize - blob.SpawnInset},
		{Min: blob.SpawnInset, Max: config.MapSize - blob.SpawnInset},
	}
	place := distmv.NewUniform(bounds, rand.NewSource(seed+1))

	headings := env.NewUniformStarter([]r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -math.Pi, Max: math.Pi},
	}, seed+2)

	arena := &Arena{
		World:     world,
		place:     place,
		headings:  headings,
		stepLimit: env.NewStepLimit(config.MaxSteps),
	}
	firstSteps := arena.Reset()

	return arena, firstSteps, nil
}

// Reset resets the environment to the start of a new episode,
// re-rolling the second blob's position until the blobs start at least
// a third of the map apart
func (a *Arena) Reset() [2]ts.TimeStep {
	a.BeginEpisode()
	a.result = Result{}
	a.finished = false

	pos1 := a.place.Rand(nil)
	pos2 := a.place.Rand(nil)
	minSeparation := a.MapSize / SeparationFactor
	for blob.Distance(pos1[0], pos1[1], pos2[0], pos2[1]) < minSeparation {
		pos2 = a.place.Rand(nil)
	}

	headings := a.headings.Start()
	a.Blob(0).X, a.Blob(0).Y = pos1[0], pos1[1]
	a.Blob(1).X, a.Blob(1).Y = pos2[0], pos2[1]
	a.Blob(0).Heading = headings.AtVec(0)
	a.Blob(1).Heading = headings.AtVec(1)

	for i := range a.lastSteps {
		a.lastSteps[i] = ts.New(ts.First, 0, a.Discount, a.observe(i), 0)
	}

	return a.lastSteps
}

// Step takes one environmental step given both blobs' steering
// actions, returning the next timestep of each blob and whether the
// episode ended. Both timesteps share the step type, end type, and
// step number; rewards and observations are per blob.
func (a *Arena) Step(action1, action2 int) ([2]ts.TimeStep, bool, error) {
	if err := blob.CheckAction(action1); err != nil {
		return [2]ts.TimeStep{}, false, err
	}
	if err := blob.CheckAction(action2); err != nil {
		return [2]ts.TimeStep{}, false, err
	}

	a.Advance([]int{action1, action2})

	rewards := [2]float64{BaseReward, BaseReward}
	for i, n := range a.CollectPellets() {
		rewards[i] += PickupReward * float64(n)
	}

	number := a.lastSteps[0].Number + 1
	var steps [2]ts.TimeStep
	for i := range steps {
		steps[i] = ts.New(ts.Mid, rewards[i], a.Discount, a.observe(i),
			number)
	}

	dead1 := a.Blob(0).Starved(a.MinMass)
	dead2 := a.Blob(1).Starved(a.MinMass)
	for i := range steps {
		a.stepLimit.End(&steps[i])
		if dead1 || dead2 {
			steps[i].StepType = ts.Last
			steps[i].SetEnd(ts.TerminalStateReached)
		}
		if steps[i].Last() {
			steps[i].Discount = 0
		}
	}

	done := steps[0].Last()
	if done {
		a.endEpisode(dead1, dead2)
	}

	a.lastSteps = steps
	return steps, done, nil
}

// endEpisode records the episode outcome. A blob wins when its
// opponent starves first; simultaneous starvation and running out the
// step limit are draws.
func (a *Arena) endEpisode(dead1, dead2 bool) {
	winner := Draw
	switch {
	case dead1 && dead2:
		winner = Draw
	case dead2:
		winner = Blob1Wins
	case dead1:
		winner = Blob2Wins
	}

	a.result = Result{
		Winner:       winner,
		Masses:       [2]float64{a.Blob(0).Mass, a.Blob(1).Mass},
		Pickups:      [2]int{a.Blob(0).Pickups, a.Blob(1).Pickups},
		SurvivalTime: a.Steps(),
	}
	a.finished = true
}

// Result returns the outcome of the last episode and whether an
// episode has actually finished since the last reset
func (a *Arena) Result() (Result, bool) {
	return a.result, a.finished
}

// observe constructs blob i's observation: its position scaled to
// [0, 1], its heading and scaled mass, then the scaled distance and
// bearing of the opponent, then the scaled distance and bearing of the
// nearest pellet
func (a *Arena) observe(i int) *mat.VecDense {
	b, other := a.Blob(i), a.Blob(1-i)
	nearest, foodDist := a.Pellets().Nearest(b.X, b.Y)
	foodX, foodY := a.Pellets().At(nearest)
	scale := math.Sqrt2 * a.MapSize

	return mat.NewVecDense(ObservationSize, []float64{
		b.X / a.MapSize,
		b.Y / a.MapSize,
		b.Heading,
		b.Mass / MassScale,
		b.DistanceTo(other) / scale,
		b.BearingTo(other),
		foodDist / scale,
		blob.RelativeBearing(b.X, b.Y, b.Heading, foodX, foodY),
	})
}

// ObservationSpec returns the observation specification of a single
// blob
func (a *Arena) ObservationSpec() spec.Environment {
	shape := mat.NewVecDense(ObservationSize, nil)
	lowerBound := mat.NewVecDense(ObservationSize, []float64{
		0, 0, -math.Pi, 0, 0, -math.Pi, 0, -math.Pi,
	})
	upperBound := mat.NewVecDense(ObservationSize, []float64{
		1, 1, math.Pi, 15, 1, math.Pi, 1, math.Pi,
	})

	return spec.NewEnvironment(shape, spec.Observation, lowerBound,
		upperBound, spec.Continuous)
}

// ActionSpec returns the action specification of a single blob
func (a *Arena) ActionSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(blob.SteerLeft)})
	upperBound := mat.NewVecDense(1, []float64{float64(blob.SteerRight)})

	return spec.NewEnvironment(shape, spec.Action, lowerBound,
		upperBound, spec.Discrete)
}

// DiscountSpec returns the discounting specification of the
// environment
func (a *Arena) DiscountSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{a.Discount})

	return spec.NewEnvironment(shape, spec.Discount, bound, bound,
		spec.Continuous)
}

// SurvivalTime returns the number of ticks taken so far in the current
// episode
func (a *Arena) SurvivalTime() int {
	return a.Steps()
}

// String returns a string representation of the environment state
func (a *Arena) String() string {
	b1, b2 := a.Blob(0), a.Blob(1)
	str := "Arena  |  Blob 1: (%.1f, %.1f) mass %.2f  |  " +
		"Blob 2: (%.1f, %.1f) mass %.2f"

	return fmt.Sprintf(str, b1.X, b1.Y, b1.Mass, b2.X, b2.Y, b2.Mass)
}
