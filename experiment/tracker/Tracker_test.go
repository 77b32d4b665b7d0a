package tracker

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// step builds a timestep carrying only the fields trackers read
func step(number int, reward float64, last bool) ts.TimeStep {
	stepType := ts.Mid
	if number == 0 {
		stepType = ts.First
	}
	if last {
		stepType = ts.Last
	}
	return ts.New(stepType, reward, 0.99, nil, number)
}

// trackEpisode feeds one whole episode of rewards to a Tracker. The
// first timestep carries no reward, like an environment reset.
func trackEpisode(tr Tracker, rewards []float64) {
	tr.Track(step(0, 0, false))
	for i, r := range rewards {
		tr.Track(step(i+1, r, i == len(rewards)-1))
	}
}

func TestReturnAccumulatesPerEpisode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.bin")
	r := NewReturn(path)

	trackEpisode(r, []float64{1, 2, 3})
	trackEpisode(r, []float64{0.5, 0.5})
	r.Save()

	data := LoadData(path)
	want := []float64{6, 1}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("wrong episodic returns \n\twant(%v) \n\thave(%v)", want,
			data)
	}
}

func TestReturnDropsUnfinishedEpisode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.bin")
	r := NewReturn(path)

	trackEpisode(r, []float64{2, 2})
	r.Track(step(0, 0, false))
	r.Track(step(1, 100, false))
	r.Save()

	data := LoadData(path)
	want := []float64{4}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("unfinished episode was saved \n\twant(%v) \n\thave(%v)",
			want, data)
	}
}

func TestReturnPanicsOnNonSequentialSteps(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))
	r.Track(step(0, 0, false))

	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a gap in tracked timesteps")
		}
	}()
	r.Track(step(5, 1, false))
}

func TestEpisodeLengthRecordsLastStepNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lengths.bin")
	e := NewEpisodeLength(path)

	trackEpisode(e, make([]float64, 57))
	trackEpisode(e, make([]float64, 3))
	e.Save()

	data := LoadData(path)
	want := []float64{57, 3}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("wrong episode lengths \n\twant(%v) \n\thave(%v)", want,
			data)
	}
}

func TestPickupsRecordsEpisodeCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pickups.bin")
	p := NewPickups(path)

	p.Record(3)
	p.Record(0)
	p.Record(7)
	p.Save()

	data := LoadData(path)
	want := []float64{3, 0, 7}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("wrong pickup counts \n\twant(%v) \n\thave(%v)", want,
			data)
	}
}

func TestWinsRecordsOutcomes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wins.bin")
	w := NewWins(path, 2)

	w.Record(1)
	w.Record(2)
	w.Record(0)
	w.Record(2)
	w.Save()

	data := LoadData(path)
	want := []float64{0, 1, 0, 1}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("wrong win indicators \n\twant(%v) \n\thave(%v)", want,
			data)
	}
}

func TestMovingAverage(t *testing.T) {
	have := movingAverage([]float64{1, 2, 3, 4}, 2)
	want := []float64{1.5, 2.5, 3.5}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("wrong moving average \n\twant(%v) \n\thave(%v)", want,
			have)
	}

	have = movingAverage([]float64{2, 4}, 2)
	want = []float64{3}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("wrong full-width average \n\twant(%v) \n\thave(%v)",
			want, have)
	}
}

func TestLearningCurveWritesPlot(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "returns.bin")
	plotFile := filepath.Join(dir, "returns.png")

	r := NewReturn(dataFile)
	for i := 0; i < SmoothingWindow+10; i++ {
		trackEpisode(r, []float64{float64(i)})
	}
	r.Save()

	if err := LearningCurve(dataFile, plotFile, "Episodic Return",
		"Return"); err != nil {
		t.Fatalf("could not render learning curve: %v", err)
	}

	info, err := os.Stat(plotFile)
	if err != nil {
		t.Fatalf("plot file was not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestLearningCurveRejectsEmptyData(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "empty.bin")
	saveData(dataFile, []float64{})

	err := LearningCurve(dataFile, filepath.Join(dir, "empty.png"),
		"Empty", "Nothing")
	if err == nil {
		t.Error("expected an error for a data file with no episodes")
	}
}
