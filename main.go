// Command blob trains, replays, and plots the blob survival
// simulation.
//
// Usage:
//
//	blob train [-variant harvest|arena] [-config file] [-episodes n]
//	           [-data dir] [-checkpoint n] [-seed n]
//	blob demo  [-variant harvest|arena] [-config file] [-episodes n]
//	           [-data dir] [-addr host:port] [-frames dir] [-delay d]
//	           [-seed n]
//	blob plot  [-data dir]
//
// Training writes metric files, learning curve images, the final
// weight snapshot, and the environment config export into the data
// directory. Demo loads the weights back, replays greedy episodes,
// and can stream frames to the websocket viewer or dump them as PNGs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alsterverse/labday-eat-big-screen-simulation/agent"
	"github.com/alsterverse/labday-eat-big-screen-simulation/agent/deepq"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob/arena"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/envconfig"
	"github.com/alsterverse/labday-eat-big-screen-simulation/experiment"
	"github.com/alsterverse/labday-eat-big-screen-simulation/experiment/tracker"
	"github.com/alsterverse/labday-eat-big-screen-simulation/render"
	"github.com/alsterverse/labday-eat-big-screen-simulation/viewer"
)

// Episode defaults from the tuned training runs
const (
	defaultHarvestEpisodes = 800
	defaultArenaEpisodes   = 300
)

// envConfigFile is the environment config export written alongside
// weight snapshots for external visualisation tooling
const envConfigFile = "env_config.json"

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "train":
		err = train(os.Args[2:])
	case "demo":
		err = demo(os.Args[2:])
	case "plot":
		err = plot(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%v: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %v train|demo|plot [flags]\n",
		filepath.Base(os.Args[0]))
	os.Exit(2)
}

func train(args []string) error {
	flags := flag.NewFlagSet("train", flag.ExitOnError)
	variant := flags.String("variant", "harvest",
		"environment to train on: harvest or arena")
	configPath := flags.String("config", "",
		"environment config file overriding the variant defaults")
	episodes := flags.Int("episodes", 0,
		"training episodes (0 selects the variant default)")
	dataDir := flags.String("data", "data",
		"directory for metric and weight files")
	checkpoint := flags.Int("checkpoint", 100,
		"episodes between weight snapshots (0 disables)")
	seed := flags.Uint64("seed", 42, "world and agent seed")
	flags.Parse(args)

	envConf, err := resolveConfig(*configPath, *variant)
	if err != nil {
		return err
	}

	config := experiment.Config{
		Episodes:        *episodes,
		DataDir:         *dataDir,
		CheckpointEvery: *checkpoint,
	}

	switch envConf.Variant {
	case envconfig.Harvest:
		if config.Episodes == 0 {
			config.Episodes = defaultHarvestEpisodes
		}
		return trainSolo(envConf, config, *seed)
	case envconfig.Arena:
		if config.Episodes == 0 {
			config.Episodes = defaultArenaEpisodes
		}
		return trainVersus(envConf, config, *seed)
	}
	return fmt.Errorf("no such variant %q", envConf.Variant)
}

func trainSolo(envConf envconfig.Config, config experiment.Config,
	seed uint64) error {
	world, _, err := envConf.CreateHarvest(seed)
	if err != nil {
		return err
	}

	a, err := deepq.DefaultConfig().CreateAgent(world, int64(seed)+1)
	if err != nil {
		return err
	}
	defer closeAgent(a)

	solo, err := experiment.NewSolo(world, a, config)
	if err != nil {
		return err
	}
	if err := solo.Run(); err != nil {
		return err
	}
	solo.Save()

	if err := exportEnvConfig(envConf, config.DataDir); err != nil {
		return err
	}
	return plotCurves(config.DataDir)
}

func trainVersus(envConf envconfig.Config, config experiment.Config,
	seed uint64) error {
	world, _, err := envConf.CreateArena(seed)
	if err != nil {
		return err
	}

	agent1, err := deepq.DefaultConfig().CreateAgent(world, int64(seed)+1)
	if err != nil {
		return err
	}
	defer closeAgent(agent1)

	agent2, err := deepq.DefaultConfig().CreateAgent(world, int64(seed)+2)
	if err != nil {
		return err
	}
	defer closeAgent(agent2)

	versus, err := experiment.NewVersus(world, agent1, agent2, config)
	if err != nil {
		return err
	}
	if err := versus.Run(); err != nil {
		return err
	}
	versus.Save()

	if err := exportEnvConfig(envConf, config.DataDir); err != nil {
		return err
	}
	return plotCurves(config.DataDir)
}

func demo(args []string) error {
	flags := flag.NewFlagSet("demo", flag.ExitOnError)
	variant := flags.String("variant", "harvest",
		"environment to replay: harvest or arena")
	configPath := flags.String("config", "",
		"environment config file overriding the variant defaults")
	dataDir := flags.String("data", "data",
		"directory holding trained weight files")
	episodes := flags.Int("episodes", 5, "episodes to replay")
	addr := flags.String("addr", ":8080",
		"viewer address (empty disables the live feed)")
	frames := flags.String("frames", "",
		"directory for rendered PNG frames (empty disables)")
	delay := flags.Duration("delay", 30*time.Millisecond,
		"pause between ticks while streaming to the viewer")
	seed := flags.Uint64("seed", uint64(time.Now().UnixNano()),
		"world seed")
	flags.Parse(args)

	envConf, err := resolveConfig(*configPath, *variant)
	if err != nil {
		return err
	}

	st, err := newStage(envConf.World, *addr, *frames, *delay)
	if err != nil {
		return err
	}

	switch envConf.Variant {
	case envconfig.Harvest:
		return demoSolo(envConf, *dataDir, *episodes, *seed, st)
	case envconfig.Arena:
		return demoVersus(envConf, *dataDir, *episodes, *seed, st)
	}
	return fmt.Errorf("no such variant %q", envConf.Variant)
}

func demoSolo(envConf envconfig.Config, dataDir string, episodes int,
	seed uint64, st *stage) error {
	world, _, err := envConf.CreateHarvest(seed)
	if err != nil {
		return err
	}

	a, err := deepq.DefaultConfig().CreateAgent(world, int64(seed))
	if err != nil {
		return err
	}
	defer closeAgent(a)
	if err := loadWeights(a,
		filepath.Join(dataDir, experiment.WeightsFile)); err != nil {
		return err
	}
	a.Eval()

	for episode := 1; episode <= episodes; episode++ {
		step := world.Reset()
		if err := st.show(world.Frame(), episode); err != nil {
			return err
		}

		episodeReturn := 0.0
		for !step.Last() {
			next, _, err := world.Step(a.SelectAction(step))
			if err != nil {
				return err
			}
			episodeReturn += next.Reward
			step = next

			if err := st.show(world.Frame(), episode); err != nil {
				return err
			}
		}

		fmt.Printf("Episode %d: survived %d steps, return %.2f, foods %d\n",
			episode, world.SurvivalTime(), episodeReturn,
			world.Blob(0).Pickups)
	}
	return nil
}

func demoVersus(envConf envconfig.Config, dataDir string, episodes int,
	seed uint64, st *stage) error {
	world, _, err := envConf.CreateArena(seed)
	if err != nil {
		return err
	}

	agents := [2]agent.Agent{}
	for i := range agents {
		a, err := deepq.DefaultConfig().CreateAgent(world, int64(seed)+int64(i))
		if err != nil {
			return err
		}
		defer closeAgent(a)

		file := filepath.Join(dataDir,
			experiment.BlobFile(i, experiment.WeightsFile))
		if err := loadWeights(a, file); err != nil {
			return err
		}
		a.Eval()
		agents[i] = a
	}

	outcomes := map[int]string{
		arena.Draw:      "draw",
		arena.Blob1Wins: "blob 1 wins",
		arena.Blob2Wins: "blob 2 wins",
	}
	var tally [3]int

	for episode := 1; episode <= episodes; episode++ {
		steps := world.Reset()
		if err := st.show(world.Frame(), episode); err != nil {
			return err
		}

		for !steps[0].Last() {
			action1 := agents[0].SelectAction(steps[0])
			action2 := agents[1].SelectAction(steps[1])
			steps, _, err = world.Step(action1, action2)
			if err != nil {
				return err
			}

			if err := st.show(world.Frame(), episode); err != nil {
				return err
			}
		}

		result, finished := world.Result()
		if !finished {
			return fmt.Errorf("episode %d ended without a result", episode)
		}
		tally[result.Winner]++

		fmt.Printf("Episode %d: %v after %d steps (foods %d vs %d)\n",
			episode, outcomes[result.Winner], result.SurvivalTime,
			result.Pickups[0], result.Pickups[1])
	}

	fmt.Printf("Final score: blob 1 %d, blob 2 %d, draws %d\n",
		tally[arena.Blob1Wins], tally[arena.Blob2Wins], tally[arena.Draw])
	return nil
}

func plot(args []string) error {
	flags := flag.NewFlagSet("plot", flag.ExitOnError)
	dataDir := flags.String("data", "data",
		"directory holding recorded metric files")
	flags.Parse(args)

	return plotCurves(*dataDir)
}

// plotCurves writes a learning curve image for every metric file a
// run produced in dir
func plotCurves(dir string) error {
	type curve struct {
		data   string
		title  string
		yLabel string
	}

	curves := []curve{
		{experiment.ReturnsFile, "Episode Rewards", "Total Reward"},
		{experiment.LengthsFile, "Episode Length (Survival Time)",
			"Steps Survived"},
		{experiment.PickupsFile, "Foods Collected per Episode",
			"Foods Collected"},
	}
	for i := 0; i < 2; i++ {
		name := fmt.Sprintf("Blob %d", i+1)
		curves = append(curves,
			curve{experiment.BlobFile(i, experiment.ReturnsFile),
				name + " Rewards", "Total Reward"},
			curve{experiment.BlobFile(i, experiment.PickupsFile),
				name + " Foods Collected", "Foods Collected"},
			curve{experiment.BlobFile(i, experiment.WinsFile),
				name + " Win Rate", "Win Rate"})
	}

	plotted := 0
	for _, c := range curves {
		dataFile := filepath.Join(dir, c.data)
		if _, err := os.Stat(dataFile); err != nil {
			continue
		}

		imageFile := strings.TrimSuffix(dataFile, filepath.Ext(dataFile)) +
			".png"
		if err := tracker.LearningCurve(dataFile, imageFile, c.title,
			c.yLabel); err != nil {
			return err
		}
		fmt.Printf("Plot saved to %v\n", imageFile)
		plotted++
	}

	if plotted == 0 {
		return fmt.Errorf("no metric files found in %v", dir)
	}
	return nil
}

// resolveConfig returns the environment configuration for a run: the
// built-in defaults for the named variant, or the config file when
// one is given
func resolveConfig(path, variant string) (envconfig.Config, error) {
	if path != "" {
		return envconfig.Load(path)
	}

	switch envconfig.Variant(variant) {
	case envconfig.Harvest:
		return envconfig.DefaultHarvest(), nil
	case envconfig.Arena:
		return envconfig.DefaultArena(), nil
	}
	return envconfig.Config{}, fmt.Errorf("no such variant %q", variant)
}

// exportEnvConfig writes the environment parameters next to the
// weight snapshots they were trained with, in the format the
// visualisation tooling reads
func exportEnvConfig(c envconfig.Config, dataDir string) error {
	return c.Export().Save(filepath.Join(dataDir, envConfigFile))
}

func loadWeights(a agent.Agent, path string) error {
	saver, ok := a.(agent.Saver)
	if !ok {
		return fmt.Errorf("agent cannot load weight files")
	}
	return saver.Load(path)
}

func closeAgent(a agent.Agent) {
	if closer, ok := a.(agent.Closer); ok {
		closer.Close()
	}
}

// stage streams demo frames to the viewer and/or dumps them as PNGs.
// Both outputs are optional; a stage with neither is silent.
type stage struct {
	server   *viewer.Server
	renderer *render.Renderer
	frames   string
	delay    time.Duration
	count    int
}

func newStage(config blob.Config, addr, frames string,
	delay time.Duration) (*stage, error) {
	st := &stage{frames: frames, delay: delay}

	if addr != "" {
		st.server = viewer.NewServer(config)
		go func() {
			if err := st.server.ListenAndServe(addr); err != nil {
				log.Fatalf("demo: %v", err)
			}
		}()
	}

	if frames != "" {
		if err := os.MkdirAll(frames, 0755); err != nil {
			return nil, fmt.Errorf("could not create frame directory: %v",
				err)
		}
		st.renderer = render.New(config)
	}

	return st, nil
}

// show publishes one frame. Demo playback is greedy, so the epsilon
// shown alongside the frame is always zero.
func (st *stage) show(frame blob.Frame, episode int) error {
	if st.server != nil {
		st.server.Broadcast(viewer.Update{Episode: episode, Frame: frame})
		time.Sleep(st.delay)
	}

	if st.renderer != nil {
		file := filepath.Join(st.frames,
			fmt.Sprintf("frame_%06d.png", st.count))
		st.count++
		if err := st.renderer.SavePNG(frame, file); err != nil {
			return err
		}
	}
	return nil
}
