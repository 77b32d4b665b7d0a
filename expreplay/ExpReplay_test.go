package expreplay

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// fill returns a transition whose state features all hold value and
// whose next state features all hold value + 0.5
func fill(value float64, featureSize, actionSize int) timestep.Transition {
	state := mat.NewVecDense(featureSize, nil)
	nextState := mat.NewVecDense(featureSize, nil)
	for i := 0; i < featureSize; i++ {
		state.SetVec(i, value)
		nextState.SetVec(i, value+0.5)
	}

	action := mat.NewVecDense(actionSize, nil)
	action.SetVec(0, 1.0)

	return timestep.Transition{
		State:     state,
		Action:    action,
		Reward:    value,
		Discount:  0.99,
		NextState: nextState,
	}
}

func newTestBuffer(t *testing.T, batch, min, max int) ExperienceReplayer {
	t.Helper()
	buffer, err := New(NewUniformSelector(batch, 14), min, max, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	return buffer
}

func TestNewValidatesCapacities(t *testing.T) {
	sampler := NewUniformSelector(4, 1)

	if _, err := New(sampler, 0, 10, 1, 2); err == nil {
		t.Error("new: zero min capacity should fail")
	}
	if _, err := New(sampler, 4, 0, 1, 2); err == nil {
		t.Error("new: zero max capacity should fail")
	}
	if _, err := New(sampler, 4, 3, 1, 2); err == nil {
		t.Error("new: batch size above max capacity should fail")
	}
	if _, err := New(sampler, 2, 10, 1, 2); err == nil {
		t.Error("new: batch size above min capacity should fail")
	}
}

func TestSampleEmptyBuffer(t *testing.T) {
	buffer := newTestBuffer(t, 2, 2, 5)

	_, _, _, _, _, err := buffer.Sample()
	if err == nil {
		t.Fatal("sample: empty buffer should fail")
	}
	if !IsEmptyBuffer(err) {
		t.Errorf("sample: error should report an empty buffer, got %v", err)
	}
	if IsInsufficientSamples(err) {
		t.Error("sample: empty buffer misreported as insufficient samples")
	}
}

func TestSampleInsufficientSamples(t *testing.T) {
	buffer := newTestBuffer(t, 3, 3, 5)

	for i := 0; i < 2; i++ {
		if err := buffer.Add(fill(float64(i), 1, 2)); err != nil {
			t.Fatal(err)
		}
	}

	_, _, _, _, _, err := buffer.Sample()
	if err == nil {
		t.Fatal("sample: under-filled buffer should fail")
	}
	if !IsInsufficientSamples(err) {
		t.Errorf("sample: error should report insufficient samples, got %v",
			err)
	}
	if IsEmptyBuffer(err) {
		t.Error("sample: under-filled buffer misreported as empty")
	}
}

func TestAddValidatesSizes(t *testing.T) {
	buffer := newTestBuffer(t, 2, 2, 5)

	if err := buffer.Add(fill(1.0, 3, 2)); err == nil {
		t.Error("add: wrong feature size should fail")
	}
	if err := buffer.Add(fill(1.0, 1, 4)); err == nil {
		t.Error("add: wrong action size should fail")
	}
	if buffer.Capacity() != 0 {
		t.Errorf("add: rejected transition changed capacity to %v",
			buffer.Capacity())
	}
}

func TestOldestTransitionOverwrittenFirst(t *testing.T) {
	buffer := newTestBuffer(t, 3, 3, 3)

	// Fill past capacity: the first transition should fall out
	for i := 1; i <= 4; i++ {
		if err := buffer.Add(fill(float64(i), 1, 2)); err != nil {
			t.Fatal(err)
		}
	}
	if buffer.Capacity() != 3 {
		t.Fatalf("capacity \n\twant(3) \n\thave(%v)", buffer.Capacity())
	}

	states, _, _, _, _, err := buffer.Sample()
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[float64]bool)
	for _, s := range states {
		seen[s] = true
	}
	if seen[1.0] {
		t.Error("oldest transition should have been overwritten")
	}
	for want := 2.0; want <= 4.0; want++ {
		if !seen[want] {
			t.Errorf("transition %v missing from full-buffer sample", want)
		}
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	buffer := newTestBuffer(t, 10, 10, 10)

	for i := 0; i < 10; i++ {
		if err := buffer.Add(fill(float64(i), 1, 2)); err != nil {
			t.Fatal(err)
		}
	}

	// A full-buffer batch must be a permutation of the contents
	for trial := 0; trial < 20; trial++ {
		states, _, _, _, _, err := buffer.Sample()
		if err != nil {
			t.Fatal(err)
		}

		seen := make(map[float64]bool)
		for _, s := range states {
			if seen[s] {
				t.Fatalf("trial %v: state %v sampled twice in one batch",
					trial, s)
			}
			seen[s] = true
		}
		if len(seen) != 10 {
			t.Fatalf("trial %v: batch holds %v distinct states, want 10",
				trial, len(seen))
		}
	}
}

func TestSampleColumnsStayAligned(t *testing.T) {
	featureSize, actionSize := 2, 2
	buffer, err := New(NewUniformSelector(2, 99), 2, 4, featureSize,
		actionSize)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		if err := buffer.Add(fill(float64(i), featureSize, actionSize)); err != nil {
			t.Fatal(err)
		}
	}

	states, actions, rewards, discounts, nextStates, err := buffer.Sample()
	if err != nil {
		t.Fatal(err)
	}

	if len(states) != 2*featureSize || len(nextStates) != 2*featureSize {
		t.Fatalf("state columns \n\twant(%v) \n\thave(%v, %v)",
			2*featureSize, len(states), len(nextStates))
	}
	if len(actions) != 2*actionSize {
		t.Fatalf("action column \n\twant(%v) \n\thave(%v)", 2*actionSize,
			len(actions))
	}
	if len(rewards) != 2 || len(discounts) != 2 {
		t.Fatalf("reward and discount columns \n\twant(2) \n\thave(%v, %v)",
			len(rewards), len(discounts))
	}

	// Rows are written by fill, so every column of row i must agree
	for i := 0; i < 2; i++ {
		value := states[i*featureSize]
		if states[i*featureSize+1] != value {
			t.Errorf("row %v: state features differ", i)
		}
		if nextStates[i*featureSize] != value+0.5 {
			t.Errorf("row %v: next state does not match state", i)
		}
		if rewards[i] != value {
			t.Errorf("row %v: reward %v does not match state %v", i,
				rewards[i], value)
		}
		if discounts[i] != 0.99 {
			t.Errorf("row %v: discount \n\twant(0.99) \n\thave(%v)", i,
				discounts[i])
		}
		if actions[i*actionSize] != 1.0 || actions[i*actionSize+1] != 0.0 {
			t.Errorf("row %v: action one-hot corrupted", i)
		}
	}
}

func TestOnlineCache(t *testing.T) {
	buffer, err := New(NewUniformSelector(1, 7), 1, 1, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := buffer.(*onlineCache); !ok {
		t.Fatalf("new: capacity-1 buffer should be an online cache, got %T",
			buffer)
	}

	if _, _, _, _, _, err := buffer.Sample(); !IsEmptyBuffer(err) {
		t.Error("sample: fresh online cache should report empty")
	}

	for i := 1; i <= 2; i++ {
		if err := buffer.Add(fill(float64(i), 1, 2)); err != nil {
			t.Fatal(err)
		}
	}

	states, _, rewards, _, _, err := buffer.Sample()
	if err != nil {
		t.Fatal(err)
	}
	if states[0] != 2.0 || rewards[0] != 2.0 {
		t.Errorf("online cache should hold only the newest transition, "+
			"got state %v reward %v", states[0], rewards[0])
	}
}

func TestConfigCreate(t *testing.T) {
	config := Config{
		SampleSize:        4,
		MaxReplayCapacity: 16,
		MinReplayCapacity: 4,
	}

	buffer, err := config.Create(6, 2, 42)
	if err != nil {
		t.Fatal(err)
	}
	if buffer.BatchSize() != 4 {
		t.Errorf("create: batch size \n\twant(4) \n\thave(%v)",
			buffer.BatchSize())
	}
	if buffer.MaxCapacity() != 16 || buffer.MinCapacity() != 4 {
		t.Errorf("create: capacities \n\twant(16, 4) \n\thave(%v, %v)",
			buffer.MaxCapacity(), buffer.MinCapacity())
	}
}

func BenchmarkSample(b *testing.B) {
	buffer, err := New(NewUniformSelector(64, 14), 64, 1000, 6, 2)
	if err != nil {
		b.Error(err)
	}
	for i := 0; i < 1000; i++ {
		if err := buffer.Add(fill(float64(i), 6, 2)); err != nil {
			b.Error(err)
		}
	}

	for i := 0; i < b.N; i++ {
		if _, _, _, _, _, err := buffer.Sample(); err != nil {
			b.Error(err)
		}
	}
}
