package arena_test

import (
	"math"
	"testing"

	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob/arena"
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

func TestNewSeparatesSpawns(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		a, steps, err := arena.New(arena.DefaultConfig(), seed)
		if err != nil {
			t.Fatal(err)
		}
		if !steps[0].First() || !steps[1].First() {
			t.Error("new: both first steps should have type First")
		}

		for trial := 0; trial < 3; trial++ {
			b1, b2 := a.Blob(0), a.Blob(1)
			for i, b := range []*blob.Blob{b1, b2} {
				if b.X < blob.SpawnInset || b.X > a.MapSize-blob.SpawnInset ||
					b.Y < blob.SpawnInset || b.Y > a.MapSize-blob.SpawnInset {
					t.Errorf("seed %v: blob %v spawned outside the inset: "+
						"(%v, %v)", seed, i, b.X, b.Y)
				}
			}

			minSeparation := a.MapSize / arena.SeparationFactor
			if d := b1.DistanceTo(b2); d < minSeparation {
				t.Errorf("seed %v: spawn separation \n\twant(>=%v) "+
					"\n\thave(%v)", seed, minSeparation, d)
			}

			a.Reset()
		}
	}
}

func TestNewRejectsCrampedMap(t *testing.T) {
	config := arena.DefaultConfig()
	config.MapSize = 25.0
	config.MaxFoods = 4

	if _, _, err := arena.New(config, 1); err == nil {
		t.Error("new: map too cramped to separate spawns should fail")
	}
}

func TestStepRejectsInvalidAction(t *testing.T) {
	a, _, err := arena.New(arena.DefaultConfig(), 8)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := a.Step(3, blob.SteerLeft); err == nil {
		t.Error("step: invalid first action should fail")
	}
	if _, _, err := a.Step(blob.SteerLeft, -2); err == nil {
		t.Error("step: invalid second action should fail")
	}
	if a.Steps() != 0 {
		t.Errorf("step: rejected action advanced the world to tick %v",
			a.Steps())
	}
}

func TestContestedPelletGoesToFirstBlob(t *testing.T) {
	config := arena.DefaultConfig()
	config.MaxFoods = 1

	a, _, err := arena.New(config, 4)
	if err != nil {
		t.Fatal(err)
	}

	// Park both blobs in range of the one pellet between them
	b1, b2 := a.Blob(0), a.Blob(1)
	b1.X, b1.Y, b1.Heading = 49.0, 50.0, 0.0
	b2.X, b2.Y, b2.Heading = 51.0, 50.0, math.Pi
	a.Pellets().Place([][2]float64{{50.0, 50.0}})

	steps, done, err := a.Step(blob.SteerLeft, blob.SteerLeft)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("step: episode should not end on a pickup")
	}

	if b1.Pickups != 1 || b2.Pickups != 0 {
		t.Errorf("contested pellet pickups \n\twant(1, 0) \n\thave(%v, %v)",
			b1.Pickups, b2.Pickups)
	}

	wantReward := arena.BaseReward + arena.PickupReward
	if math.Abs(steps[0].Reward-wantReward) > 1e-9 {
		t.Errorf("winner reward \n\twant(%v) \n\thave(%v)", wantReward,
			steps[0].Reward)
	}
	if math.Abs(steps[1].Reward-arena.BaseReward) > 1e-9 {
		t.Errorf("loser reward \n\twant(%v) \n\thave(%v)",
			arena.BaseReward, steps[1].Reward)
	}

	wantMass := config.InitialMass - config.MassDecayRate +
		config.FoodMassGain
	if math.Abs(b1.Mass-wantMass) > 1e-12 {
		t.Errorf("winner mass \n\twant(%v) \n\thave(%v)", wantMass, b1.Mass)
	}
}

func TestMultiplePickupsInOneTick(t *testing.T) {
	config := arena.DefaultConfig()
	config.MaxFoods = 2

	a, _, err := arena.New(config, 6)
	if err != nil {
		t.Fatal(err)
	}

	b1, b2 := a.Blob(0), a.Blob(1)
	b1.X, b1.Y, b1.Heading = 50.0, 50.0, 0.0
	b2.X, b2.Y, b2.Heading = 80.0, 80.0, 0.0
	a.Pellets().Place([][2]float64{{51.5, 50.5}, {51.0, 49.5}})

	steps, _, err := a.Step(blob.SteerLeft, blob.SteerLeft)
	if err != nil {
		t.Fatal(err)
	}

	if b1.Pickups != 2 {
		t.Fatalf("pickups \n\twant(2) \n\thave(%v)", b1.Pickups)
	}
	wantReward := arena.BaseReward + 2.0*arena.PickupReward
	if math.Abs(steps[0].Reward-wantReward) > 1e-9 {
		t.Errorf("reward \n\twant(%v) \n\thave(%v)", wantReward,
			steps[0].Reward)
	}
	wantMass := config.InitialMass - config.MassDecayRate +
		2.0*config.FoodMassGain
	if math.Abs(b1.Mass-wantMass) > 1e-12 {
		t.Errorf("mass \n\twant(%v) \n\thave(%v)", wantMass, b1.Mass)
	}
	if a.Pellets().Count() != 2 {
		t.Errorf("pellet count \n\twant(2) \n\thave(%v)",
			a.Pellets().Count())
	}
}

func TestStarvationDeclaresWinner(t *testing.T) {
	config := arena.DefaultConfig()
	config.MaxFoods = 1

	a, _, err := arena.New(config, 12)
	if err != nil {
		t.Fatal(err)
	}

	// Blob 2 starves after exactly one tick of decay, blob 1 stays
	// healthy, and the only pellet is out of everyone's reach
	b1, b2 := a.Blob(0), a.Blob(1)
	b1.X, b1.Y, b1.Heading = 20.0, 20.0, 0.0
	b2.X, b2.Y, b2.Heading = 70.0, 70.0, 0.0
	b2.Mass = config.MinMass + config.MassDecayRate
	a.Pellets().Place([][2]float64{{90.0, 10.0}})

	steps, done, err := a.Step(blob.SteerLeft, blob.SteerLeft)
	if err != nil {
		t.Fatal(err)
	}

	if !done {
		t.Fatal("starvation should end the episode")
	}
	for i := range steps {
		if steps[i].EndType != ts.TerminalStateReached {
			t.Errorf("step %v: end type \n\twant(%v) \n\thave(%v)",
				i, ts.TerminalStateReached, steps[i].EndType)
		}
		if steps[i].Discount != 0 {
			t.Errorf("step %v: discount \n\twant(0) \n\thave(%v)",
				i, steps[i].Discount)
		}
	}

	result, finished := a.Result()
	if !finished {
		t.Fatal("result should be available after the episode ends")
	}
	if result.Winner != arena.Blob1Wins {
		t.Errorf("winner \n\twant(%v) \n\thave(%v)", arena.Blob1Wins,
			result.Winner)
	}
	if result.SurvivalTime != 1 {
		t.Errorf("survival time \n\twant(1) \n\thave(%v)",
			result.SurvivalTime)
	}
	if result.Masses[1] > config.MinMass {
		t.Errorf("loser mass should be at or below the floor, got %v",
			result.Masses[1])
	}
}

func TestSimultaneousStarvationIsDraw(t *testing.T) {
	config := arena.DefaultConfig()
	config.MaxFoods = 1

	a, _, err := arena.New(config, 14)
	if err != nil {
		t.Fatal(err)
	}

	b1, b2 := a.Blob(0), a.Blob(1)
	b1.X, b1.Y, b1.Heading = 20.0, 20.0, 0.0
	b2.X, b2.Y, b2.Heading = 70.0, 70.0, 0.0
	b1.Mass = config.MinMass + config.MassDecayRate
	b2.Mass = config.MinMass + config.MassDecayRate
	a.Pellets().Place([][2]float64{{90.0, 10.0}})

	_, done, err := a.Step(blob.SteerLeft, blob.SteerLeft)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("simultaneous starvation should end the episode")
	}

	result, finished := a.Result()
	if !finished {
		t.Fatal("result should be available after the episode ends")
	}
	if result.Winner != arena.Draw {
		t.Errorf("winner \n\twant(%v) \n\thave(%v)", arena.Draw,
			result.Winner)
	}
}

func TestTimeoutIsDraw(t *testing.T) {
	config := arena.DefaultConfig()
	config.MaxFoods = 1
	config.MaxSteps = 3

	a, _, err := arena.New(config, 16)
	if err != nil {
		t.Fatal(err)
	}

	b1, b2 := a.Blob(0), a.Blob(1)
	b1.X, b1.Y, b1.Heading = 20.0, 20.0, 0.0
	b2.X, b2.Y, b2.Heading = 70.0, 70.0, 0.0
	a.Pellets().Place([][2]float64{{90.0, 10.0}})

	var steps [2]ts.TimeStep
	var done bool
	for i := 0; i < config.MaxSteps; i++ {
		steps, done, err = a.Step(blob.SteerLeft, blob.SteerLeft)
		if err != nil {
			t.Fatal(err)
		}
	}

	if !done {
		t.Fatal("episode should time out at the step limit")
	}
	if steps[0].EndType != ts.Timeout || steps[1].EndType != ts.Timeout {
		t.Errorf("end types \n\twant(Timeout, Timeout) \n\thave(%v, %v)",
			steps[0].EndType, steps[1].EndType)
	}

	result, finished := a.Result()
	if !finished {
		t.Fatal("result should be available after a timeout")
	}
	if result.Winner != arena.Draw {
		t.Errorf("winner \n\twant(%v) \n\thave(%v)", arena.Draw,
			result.Winner)
	}
	if result.SurvivalTime != config.MaxSteps {
		t.Errorf("survival time \n\twant(%v) \n\thave(%v)",
			config.MaxSteps, result.SurvivalTime)
	}
}

func TestResultClearsOnReset(t *testing.T) {
	config := arena.DefaultConfig()
	config.MaxFoods = 1
	config.MaxSteps = 1

	a, _, err := arena.New(config, 18)
	if err != nil {
		t.Fatal(err)
	}

	if _, finished := a.Result(); finished {
		t.Error("result should not be available before any episode ends")
	}

	if _, _, err := a.Step(blob.SteerLeft, blob.SteerLeft); err != nil {
		t.Fatal(err)
	}
	if _, finished := a.Result(); !finished {
		t.Error("result should be available after the episode ends")
	}

	a.Reset()
	if _, finished := a.Result(); finished {
		t.Error("reset should clear the previous result")
	}
}

func TestObservationLayout(t *testing.T) {
	a, _, err := arena.New(arena.DefaultConfig(), 23)
	if err != nil {
		t.Fatal(err)
	}

	steps, _, err := a.Step(blob.SteerRight, blob.SteerLeft)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		b, other := a.Blob(i), a.Blob(1-i)
		obs := steps[i].Observation
		if obs.Len() != arena.ObservationSize {
			t.Fatalf("blob %v: observation length \n\twant(%v) \n\thave(%v)",
				i, arena.ObservationSize, obs.Len())
		}

		scale := math.Sqrt2 * a.MapSize
		nearest, foodDist := a.Pellets().Nearest(b.X, b.Y)
		foodX, foodY := a.Pellets().At(nearest)

		want := []float64{
			b.X / a.MapSize,
			b.Y / a.MapSize,
			b.Heading,
			b.Mass / arena.MassScale,
			b.DistanceTo(other) / scale,
			b.BearingTo(other),
			foodDist / scale,
			blob.RelativeBearing(b.X, b.Y, b.Heading, foodX, foodY),
		}
		for j, w := range want {
			if math.Abs(obs.AtVec(j)-w) > 1e-12 {
				t.Errorf("blob %v: observation %v \n\twant(%v) \n\thave(%v)",
					i, j, w, obs.AtVec(j))
			}
		}
	}
}

func TestSpecs(t *testing.T) {
	a, _, err := arena.New(arena.DefaultConfig(), 2)
	if err != nil {
		t.Fatal(err)
	}

	obsSpec := a.ObservationSpec()
	if obsSpec.Shape.Len() != arena.ObservationSize {
		t.Errorf("obs spec: shape \n\twant(%v) \n\thave(%v)",
			arena.ObservationSize, obsSpec.Shape.Len())
	}
	if obsSpec.UpperBound.AtVec(3) != 15.0 {
		t.Errorf("obs spec: mass upper bound \n\twant(15) \n\thave(%v)",
			obsSpec.UpperBound.AtVec(3))
	}

	actionSpec := a.ActionSpec()
	if actionSpec.LowerBound.AtVec(0) != 0 ||
		actionSpec.UpperBound.AtVec(0) != 1 {
		t.Error("action spec: bounds should be [0, 1]")
	}
}
