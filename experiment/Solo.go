package experiment

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/alsterverse/labday-eat-big-screen-simulation/agent"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob/harvest"
	"github.com/alsterverse/labday-eat-big-screen-simulation/experiment/tracker"
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
	"github.com/alsterverse/labday-eat-big-screen-simulation/utils/progressbar"
)

// Solo is an Experiment that trains a single agent on the harvest
// environment. The agent learns on every tick, its target weights are
// refreshed on the agent's episode cadence, and its exploration rate
// decays once per episode.
type Solo struct {
	*harvest.Harvest
	agent.Agent
	config Config

	// Optional agent capabilities, nil when the agent does not have
	// them
	updater agent.TargetUpdater
	decayer agent.EpsilonDecayer
	saver   agent.Saver

	returns *tracker.Return
	lengths *tracker.EpisodeLength
	pickups *tracker.Pickups
}

// NewSolo creates and returns a new solo experiment on a given harvest
// environment with a given agent
func NewSolo(world *harvest.Harvest, a agent.Agent, config Config) (*Solo,
	error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newsolo: %v", err)
	}
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("newsolo: could not create data directory: %v",
			err)
	}

	s := &Solo{
		Harvest: world,
		Agent:   a,
		config:  config,
		returns: tracker.NewReturn(filepath.Join(config.DataDir, ReturnsFile)),
		lengths: tracker.NewEpisodeLength(filepath.Join(config.DataDir,
			LengthsFile)),
		pickups: tracker.NewPickups(filepath.Join(config.DataDir, PickupsFile)),
	}
	s.updater, _ = a.(agent.TargetUpdater)
	s.decayer, _ = a.(agent.EpsilonDecayer)
	s.saver, _ = a.(agent.Saver)

	return s, nil
}

// Run runs the entire experiment for all episodes, printing a windowed
// progress report every summaryInterval episodes
func (s *Solo) Run() error {
	s.banner()

	lengths := make([]float64, 0, s.config.Episodes)
	returns := make([]float64, 0, s.config.Episodes)
	foods := make([]float64, 0, s.config.Episodes)
	bar := progressbar.New(barWidth, s.config.Episodes)

	for episode := 0; episode < s.config.Episodes; episode++ {
		length, episodeReturn, picked, err := s.runEpisode()
		if err != nil {
			return fmt.Errorf("run: episode %v: %v", episode, err)
		}

		s.Agent.EndEpisode()
		if s.updater != nil && episode%s.updater.TargetInterval() == 0 {
			if err := s.updater.UpdateTarget(); err != nil {
				return fmt.Errorf("run: episode %v: %v", episode, err)
			}
		}
		if s.decayer != nil {
			s.decayer.DecayEpsilon()
		}

		s.pickups.Record(picked)
		lengths = append(lengths, float64(length))
		returns = append(returns, episodeReturn)
		foods = append(foods, float64(picked))

		if err := s.checkpoint(episode); err != nil {
			return err
		}

		if (episode+1)%summaryInterval == 0 {
			fmt.Printf("Episode %d/%d | Avg Length: %.1f | Avg Reward: %.2f | "+
				"Avg Foods: %.1f | Epsilon: %.3f\n", episode+1,
				s.config.Episodes, tailMean(lengths, summaryInterval),
				tailMean(returns, summaryInterval),
				tailMean(foods, summaryInterval), s.epsilon())
		}
		bar.Increment()
		bar.Display()
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Println("Training completed!")
	fmt.Printf("Final average episode length (last %d): %.1f steps\n",
		summaryInterval, tailMean(lengths, summaryInterval))
	fmt.Printf("Final average foods collected (last %d): %.1f\n",
		summaryInterval, tailMean(foods, summaryInterval))

	return nil
}

// runEpisode drives a single episode, learning on every tick, and
// returns the episode's length, return, and pellet count
func (s *Solo) runEpisode() (int, float64, int, error) {
	step := s.Harvest.Reset()
	if err := s.Agent.ObserveFirst(step); err != nil {
		return 0, 0, 0, err
	}
	s.track(step)

	episodeReturn := 0.0
	for !step.Last() {
		// Select action, step in environment
		action := s.Agent.SelectAction(step)
		next, _, err := s.Harvest.Step(action)
		if err != nil {
			return 0, 0, 0, err
		}
		s.track(next)

		// Observe the timestep and step the agent
		if err := s.Agent.Observe(action, next); err != nil {
			return 0, 0, 0, err
		}
		if _, _, err := s.Agent.Step(); err != nil {
			return 0, 0, 0, err
		}

		episodeReturn += next.Reward
		step = next
	}

	return s.Harvest.SurvivalTime(), episodeReturn, s.Harvest.Blob(0).Pickups,
		nil
}

// Save saves all tracked metrics and the final agent weights to the
// data directory
func (s *Solo) Save() {
	s.returns.Save()
	s.lengths.Save()
	s.pickups.Save()

	if s.saver != nil {
		file := filepath.Join(s.config.DataDir, WeightsFile)
		if err := s.saver.Save(file); err != nil {
			log.Fatalf("save: could not save weights to %v: %v", file, err)
		}
	}
}

// track caches the timestep's data in each tracker
func (s *Solo) track(t ts.TimeStep) {
	s.returns.Track(t)
	s.lengths.Track(t)
}

// checkpoint overwrites the weight snapshot on the configured episode
// cadence
func (s *Solo) checkpoint(episode int) error {
	if s.saver == nil || s.config.CheckpointEvery == 0 {
		return nil
	}
	if (episode+1)%s.config.CheckpointEvery != 0 {
		return nil
	}

	file := filepath.Join(s.config.DataDir, WeightsFile)
	if err := s.saver.Save(file); err != nil {
		return fmt.Errorf("checkpoint: could not save weights to %v: %v",
			file, err)
	}
	return nil
}

func (s *Solo) epsilon() float64 {
	if s.decayer == nil {
		return 0
	}
	return s.decayer.Epsilon()
}

func (s *Solo) banner() {
	c := s.Harvest.Config
	fmt.Println("Starting blob harvest training...")
	fmt.Printf("State size: %v, Action size: %v\n", harvest.ObservationSize,
		blob.NumActions)
	fmt.Printf("Initial mass: %v, Decay rate: %v\n", c.InitialMass,
		c.MassDecayRate)
	fmt.Printf("Agent radius: %v (constant)\n", c.AgentRadius)
	fmt.Printf("Expected survival without food: ~%v steps\n",
		int((c.InitialMass-c.MinMass)/c.MassDecayRate))
	fmt.Println(divider)
}
