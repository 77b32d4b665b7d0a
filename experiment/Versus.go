package experiment

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/alsterverse/labday-eat-big-screen-simulation/agent"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob/arena"
	"github.com/alsterverse/labday-eat-big-screen-simulation/experiment/tracker"
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
	"github.com/alsterverse/labday-eat-big-screen-simulation/utils/progressbar"
)

// Versus is an Experiment that trains two agents against each other on
// the arena environment through self-play. Each agent sees only its
// own observations and learns only from its own transitions, but both
// learn on every tick of the shared episode. Target weights and
// exploration rates follow the same per-agent cadence as the solo
// loop.
type Versus struct {
	*arena.Arena
	config Config

	agents   [2]agent.Agent
	winners  [2]int
	updaters [2]agent.TargetUpdater
	decayers [2]agent.EpsilonDecayer
	savers   [2]agent.Saver

	returns [2]*tracker.Return
	pickups [2]*tracker.Pickups
	wins    [2]*tracker.Wins
	lengths *tracker.EpisodeLength
}

// NewVersus creates and returns a new competitive experiment on a
// given arena with a given pair of agents. The first agent steers the
// world's blob 0 and the second its blob 1.
func NewVersus(a *arena.Arena, agent1, agent2 agent.Agent,
	config Config) (*Versus, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newversus: %v", err)
	}
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("newversus: could not create data "+
			"directory: %v", err)
	}

	v := &Versus{
		Arena:   a,
		config:  config,
		agents:  [2]agent.Agent{agent1, agent2},
		winners: [2]int{arena.Blob1Wins, arena.Blob2Wins},
		lengths: tracker.NewEpisodeLength(filepath.Join(config.DataDir,
			LengthsFile)),
	}

	for i := range v.agents {
		v.updaters[i], _ = v.agents[i].(agent.TargetUpdater)
		v.decayers[i], _ = v.agents[i].(agent.EpsilonDecayer)
		v.savers[i], _ = v.agents[i].(agent.Saver)

		v.returns[i] = tracker.NewReturn(filepath.Join(config.DataDir,
			BlobFile(i, ReturnsFile)))
		v.pickups[i] = tracker.NewPickups(filepath.Join(config.DataDir,
			BlobFile(i, PickupsFile)))
		v.wins[i] = tracker.NewWins(filepath.Join(config.DataDir,
			BlobFile(i, WinsFile)), v.winners[i])
	}

	return v, nil
}

// Run runs the entire experiment for all episodes, printing a windowed
// progress report every summaryInterval episodes
func (v *Versus) Run() error {
	v.banner()

	lengths := make([]float64, 0, v.config.Episodes)
	var wins [2][]float64
	bar := progressbar.New(barWidth, v.config.Episodes)

	for episode := 0; episode < v.config.Episodes; episode++ {
		result, err := v.runEpisode()
		if err != nil {
			return fmt.Errorf("run: episode %v: %v", episode, err)
		}

		for i := range v.agents {
			v.agents[i].EndEpisode()
			if v.updaters[i] != nil &&
				episode%v.updaters[i].TargetInterval() == 0 {
				if err := v.updaters[i].UpdateTarget(); err != nil {
					return fmt.Errorf("run: episode %v: %v", episode, err)
				}
			}
			if v.decayers[i] != nil {
				v.decayers[i].DecayEpsilon()
			}
		}

		lengths = append(lengths, float64(result.SurvivalTime))
		for i := range v.agents {
			v.pickups[i].Record(result.Pickups[i])
			v.wins[i].Record(result.Winner)
			if result.Winner == v.winners[i] {
				wins[i] = append(wins[i], 1)
			} else {
				wins[i] = append(wins[i], 0)
			}
		}

		if err := v.checkpoint(episode); err != nil {
			return err
		}

		if (episode+1)%summaryInterval == 0 {
			fmt.Printf("Episode %d/%d | Avg Length: %.1f | Blob1 WR: %.2f | "+
				"Blob2 WR: %.2f | Epsilon: %.3f\n", episode+1,
				v.config.Episodes, tailMean(lengths, summaryInterval),
				tailMean(wins[0], summaryInterval),
				tailMean(wins[1], summaryInterval), v.epsilon())
		}
		bar.Increment()
		bar.Display()
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Println("Training completed!")
	fmt.Printf("Final episode length (last %d): %.1f steps\n",
		summaryInterval, tailMean(lengths, summaryInterval))
	fmt.Printf("Blob 1 win rate (last %d): %.2f\n", summaryInterval,
		tailMean(wins[0], summaryInterval))
	fmt.Printf("Blob 2 win rate (last %d): %.2f\n", summaryInterval,
		tailMean(wins[1], summaryInterval))

	return nil
}

// runEpisode drives a single shared episode, learning both agents on
// every tick, and returns the arena's episode result
func (v *Versus) runEpisode() (arena.Result, error) {
	steps := v.Arena.Reset()
	for i := range v.agents {
		if err := v.agents[i].ObserveFirst(steps[i]); err != nil {
			return arena.Result{}, err
		}
	}
	v.track(steps)

	for !steps[0].Last() {
		// Both agents act from their own observations before the
		// world advances
		action1 := v.agents[0].SelectAction(steps[0])
		action2 := v.agents[1].SelectAction(steps[1])

		next, _, err := v.Arena.Step(action1, action2)
		if err != nil {
			return arena.Result{}, err
		}
		v.track(next)

		actions := [2]int{action1, action2}
		for i := range v.agents {
			if err := v.agents[i].Observe(actions[i], next[i]); err != nil {
				return arena.Result{}, err
			}
			if _, _, err := v.agents[i].Step(); err != nil {
				return arena.Result{}, err
			}
		}

		steps = next
	}

	result, finished := v.Arena.Result()
	if !finished {
		return arena.Result{}, fmt.Errorf("runepisode: episode ended " +
			"without a result")
	}
	return result, nil
}

// Save saves all tracked metrics and both agents' final weights to the
// data directory
func (v *Versus) Save() {
	v.lengths.Save()
	for i := range v.agents {
		v.returns[i].Save()
		v.pickups[i].Save()
		v.wins[i].Save()

		if v.savers[i] != nil {
			file := filepath.Join(v.config.DataDir,
				BlobFile(i, WeightsFile))
			if err := v.savers[i].Save(file); err != nil {
				log.Fatalf("save: could not save weights to %v: %v", file,
					err)
			}
		}
	}
}

// track caches each blob's timestep in its trackers. Episode lengths
// are shared, so only the first blob's timestep feeds the length
// tracker.
func (v *Versus) track(steps [2]ts.TimeStep) {
	for i := range steps {
		v.returns[i].Track(steps[i])
	}
	v.lengths.Track(steps[0])
}

// checkpoint overwrites both weight snapshots on the configured
// episode cadence
func (v *Versus) checkpoint(episode int) error {
	if v.config.CheckpointEvery == 0 {
		return nil
	}
	if (episode+1)%v.config.CheckpointEvery != 0 {
		return nil
	}

	for i := range v.savers {
		if v.savers[i] == nil {
			continue
		}
		file := filepath.Join(v.config.DataDir, BlobFile(i, WeightsFile))
		if err := v.savers[i].Save(file); err != nil {
			return fmt.Errorf("checkpoint: could not save weights to %v: %v",
				file, err)
		}
	}
	return nil
}

func (v *Versus) epsilon() float64 {
	if v.decayers[0] == nil {
		return 0
	}
	return v.decayers[0].Epsilon()
}

func (v *Versus) banner() {
	c := v.Arena.Config
	fmt.Println("Starting competitive blob training...")
	fmt.Printf("State size: %v, Action size: %v\n", arena.ObservationSize,
		blob.NumActions)
	fmt.Printf("Initial mass: %v, Decay rate: %v\n", c.InitialMass,
		c.MassDecayRate)
	fmt.Printf("Food pellets: %v\n", c.MaxFoods)
	fmt.Println(divider)
}
