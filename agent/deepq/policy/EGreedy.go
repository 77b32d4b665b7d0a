// Package policy implements action selection policies over neural
// network function approximators.
package policy

import (
	"fmt"
	"math/rand"

	"github.com/alsterverse/labday-eat-big-screen-simulation/network"
	"github.com/alsterverse/labday-eat-big-screen-simulation/utils/floatutils"
	G "gorgonia.org/gorgonia"
)

// EGreedy implements an epsilon greedy policy over the action values
// predicted by a neural network. With probability epsilon a uniformly
// random action is chosen; otherwise the policy is greedy in the
// predicted action values, breaking ties uniformly at random.
//
// The policy owns the virtual machine that runs its network's
// computational graph, so selecting an action is a single call.
type EGreedy struct {
	network.NeuralNet
	vm G.VM

	epsilon float64
	rng     *rand.Rand
	seed    int64
}

// NewEGreedy returns a new EGreedy policy selecting among the actions
// predicted by net, which must take single observations as input.
func NewEGreedy(net network.NeuralNet, epsilon float64,
	seed int64) (*EGreedy, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newegreedy: action selection networks "+
			"take one observation at a time \n\twant(batch size 1) "+
			"\n\thave(%v)", net.BatchSize())
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newegreedy: epsilon must be a "+
			"probability \n\twant(0 to 1) \n\thave(%v)", epsilon)
	}

	source := rand.NewSource(seed)

	return &EGreedy{
		NeuralNet: net,
		vm:        G.NewTapeMachine(net.Graph()),
		epsilon:   epsilon,
		rng:       rand.New(source),
		seed:      seed,
	}, nil
}

// Epsilon returns the policy's current exploration rate
func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

// SetEpsilon sets the policy's exploration rate
func (e *EGreedy) SetEpsilon(epsilon float64) {
	e.epsilon = epsilon
}

// SelectAction selects an action for the observation obs: a uniformly
// random action with probability epsilon, otherwise the greedy action.
func (e *EGreedy) SelectAction(obs []float64) (int, error) {
	if e.rng.Float64() < e.epsilon {
		return e.rng.Intn(e.Outputs()), nil
	}
	return e.SelectGreedy(obs)
}

// SelectGreedy selects the action of maximal predicted value for the
// observation obs, ignoring epsilon. If multiple actions share the
// maximal value, one of them is chosen uniformly at random.
func (e *EGreedy) SelectGreedy(obs []float64) (int, error) {
	actionValues, err := e.actionValues(obs)
	if err != nil {
		return 0, err
	}

	_, maxIndices := floatutils.MaxSlice(actionValues)
	return maxIndices[e.rng.Intn(len(maxIndices))], nil
}

// ActionValues returns the network's predicted value of every action
// for the observation obs.
func (e *EGreedy) ActionValues(obs []float64) ([]float64, error) {
	values, err := e.actionValues(obs)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	copy(out, values)
	return out, nil
}

// actionValues runs the network forward on obs and returns the
// predicted action values, which alias the graph's output
func (e *EGreedy) actionValues(obs []float64) ([]float64, error) {
	if err := e.SetInput(obs); err != nil {
		return nil, fmt.Errorf("actionvalues: could not set "+
			"observation: %v", err)
	}
	if err := e.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("actionvalues: could not run policy "+
			"network: %v", err)
	}
	actionValues := e.Output().Data().([]float64)
	e.vm.Reset()

	return actionValues, nil
}

// Close releases the policy's virtual machine
func (e *EGreedy) Close() error {
	return e.vm.Close()
}
