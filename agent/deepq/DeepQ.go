// Package deepq implements deep Q-learning with experience replay and
// a frozen target network.
package deepq

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/alsterverse/labday-eat-big-screen-simulation/agent/deepq/policy"
	env "github.com/alsterverse/labday-eat-big-screen-simulation/environment"
	"github.com/alsterverse/labday-eat-big-screen-simulation/expreplay"
	"github.com/alsterverse/labday-eat-big-screen-simulation/network"
	"github.com/alsterverse/labday-eat-big-screen-simulation/spec"
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
	"github.com/alsterverse/labday-eat-big-screen-simulation/utils/floatutils"
)

// DeepQ implements the deep Q-learning algorithm: epsilon greedy
// action selection from a live action value network, minibatch updates
// from an experience replay buffer, and bootstrapped update targets
// from a frozen copy of the live network.
//
// Three instances of the same network share one set of learned
// weights. The training instance takes batches of observations and is
// the only one the solver writes to. The behaviour instance takes
// single observations for action selection and is refreshed from the
// training instance after every update. The target instance provides
// the update targets and is refreshed only by UpdateTarget, which the
// training loop calls on a fixed episode cadence.
type DeepQ struct {
	behaviour *policy.EGreedy

	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     G.Solver

	targetNet   network.NeuralNet
	targetNetVM G.VM

	// Nodes of the training graph fed with sampled batch columns
	selectedActions       *G.Node
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node
	lossVal               G.Value

	replay expreplay.ExperienceReplayer

	numActions  int
	numFeatures int
	batchSize   int

	epsilonDecay   float64
	epsilonMin     float64
	targetInterval int

	// Step the next observed action will be taken in
	lastStep ts.TimeStep

	eval bool
}

// New creates and returns a new DeepQ agent acting in an environment
// with e's specifications
func New(e env.Specced, config Config, seed int64) (*DeepQ, error) {
	// Ensure environment has discrete, 0-enumerated actions
	if e.ActionSpec().Cardinality != spec.Discrete {
		return nil, fmt.Errorf("new: cannot use non-discrete actions")
	}
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("new: actions must be 1-dimensional")
	}
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("new: actions must be enumerated " +
			"starting from 0")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	batchSize := config.BatchSize
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	numFeatures := e.ObservationSpec().Shape.Len()
	init := config.InitWFn.InitWFn()

	// Live network, learned by the solver
	gTrain := G.NewGraph()
	trainNet, err := network.NewQNetwork(numFeatures, batchSize,
		numActions, gTrain, config.Hidden1, config.Hidden2, init, "")
	if err != nil {
		return nil, fmt.Errorf("new: could not create training "+
			"network: %v", err)
	}

	// Frozen copy providing the update targets
	targetNet, err := trainNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	// Live weights at batch size 1 for action selection
	behaviourNet, err := trainNet.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"network: %v", err)
	}
	behaviour, err := policy.NewEGreedy(behaviourNet, config.Epsilon,
		seed+1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"policy: %v", err)
	}

	d := &DeepQ{
		behaviour:      behaviour,
		trainNet:       trainNet,
		targetNet:      targetNet,
		targetNetVM:    targetNetVM,
		numActions:     numActions,
		numFeatures:    numFeatures,
		batchSize:      batchSize,
		epsilonDecay:   config.EpsilonDecay,
		epsilonMin:     config.EpsilonMin,
		targetInterval: config.TargetInterval,
	}

	// Nodes fed with the sampled batch each training step
	d.nextStateActionValues = G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	d.rewards = G.NewVector(gTrain, tensor.Float64,
		G.WithShape(batchSize), G.WithName("reward"))
	d.discounts = G.NewVector(gTrain, tensor.Float64,
		G.WithShape(batchSize), G.WithName("discount"))

	// Update target: r + discount * max[Q(s', a')]. Environments emit
	// a discount of 0 on episode-ending steps, which cuts the
	// bootstrap off at episode boundaries.
	updateTarget := G.Must(G.Max(d.nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, d.discounts))
	updateTarget = G.Must(G.Add(updateTarget, d.rewards))

	// One-hot selected actions mask the network output down to the
	// value of the action actually taken in each sampled state
	d.selectedActions = G.NewMatrix(gTrain, tensor.Float64,
		G.WithName("actionSelected"), G.WithShape(batchSize, numActions))
	selectedActionsValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		d.selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Mean squared TD error
	losses := G.Must(G.Sub(updateTarget, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))
	G.Read(cost, &d.lossVal)

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}

	d.trainNetVM = G.NewTapeMachine(gTrain,
		G.BindDualValues(trainNet.Learnables()...))
	d.solver = config.Solver

	replayConf := expreplay.Config{
		SampleSize:        batchSize,
		MaxReplayCapacity: config.BufferSize,
		MinReplayCapacity: batchSize,
	}
	d.replay, err = replayConf.Create(numFeatures, numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience "+
			"replay buffer: %v", err)
	}

	return d, nil
}

// ObserveFirst records the first timestep of an episode
func (d *DeepQ) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not the first "+
			"of an episode", t.Number)
	}

	d.lastStep = t
	return nil
}

// Observe records that taking action in the last observed step led to
// nextStep, pushing the resulting transition into the replay buffer.
// Episode-ending transitions carry a discount of 0 and are stored like
// any other.
func (d *DeepQ) Observe(action int, nextStep ts.TimeStep) error {
	if action < 0 || action >= d.numActions {
		return fmt.Errorf("observe: invalid action \n\twant(0 to %v) "+
			"\n\thave(%v)", d.numActions-1, action)
	}

	oneHot := mat.NewVecDense(d.numActions, nil)
	oneHot.SetVec(action, 1.0)

	transition := ts.NewTransition(d.lastStep, oneHot, nextStep)
	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: could not buffer transition: %v", err)
	}

	d.lastStep = nextStep
	return nil
}

// Step updates the weights of the agent's live network with one
// minibatch gradient step, returning the loss and whether an update
// occurred. A buffer with insufficient samples is a signalled no-op,
// not an error.
func (d *DeepQ) Step() (float64, bool, error) {
	states, actions, rewards, discounts, nextStates, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("step: could not sample batch: %v", err)
	}

	// One-hot vectors of the actions taken in the sampled states
	prevActions := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(actions),
	)
	if err := G.Let(d.selectedActions, prevActions); err != nil {
		return 0, false, fmt.Errorf("step: could not set selected "+
			"actions: %v", err)
	}

	if err := d.trainNet.SetInput(states); err != nil {
		return 0, false, fmt.Errorf("step: could not set training net "+
			"input: %v", err)
	}
	if err := d.targetNet.SetInput(nextStates); err != nil {
		return 0, false, fmt.Errorf("step: could not set target net "+
			"input: %v", err)
	}

	// Compute the action values of the next states under the frozen
	// target weights
	if err := d.targetNetVM.RunAll(); err != nil {
		return 0, false, fmt.Errorf("step: could not run target net: %v",
			err)
	}
	if err := G.Let(d.nextStateActionValues, d.targetNet.Output()); err != nil {
		return 0, false, fmt.Errorf("step: could not set next state "+
			"action values: %v", err)
	}
	d.targetNetVM.Reset()

	rewardTensor := tensor.New(tensor.WithBacking(rewards),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.rewards, rewardTensor); err != nil {
		return 0, false, fmt.Errorf("step: could not set rewards: %v", err)
	}
	discountTensor := tensor.New(tensor.WithBacking(discounts),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.discounts, discountTensor); err != nil {
		return 0, false, fmt.Errorf("step: could not set discounts: %v",
			err)
	}

	// Run the learning step on the live weights only
	if err := d.trainNetVM.RunAll(); err != nil {
		return 0, false, fmt.Errorf("step: could not run training net: %v",
			err)
	}
	loss, ok := d.lossVal.Data().(float64)
	if !ok {
		return 0, false, fmt.Errorf("step: loss is not a scalar")
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return 0, false, fmt.Errorf("step: could not apply gradients: %v",
			err)
	}
	d.trainNetVM.Reset()

	// Reflect the newly learned weights in the behaviour policy
	if err := d.behaviour.Set(d.trainNet); err != nil {
		return 0, false, fmt.Errorf("step: could not update behaviour "+
			"policy: %v", err)
	}

	return loss, true, nil
}

// SelectAction returns an action for the observation in t: epsilon
// greedy in training mode, greedy in evaluation mode.
func (d *DeepQ) SelectAction(t ts.TimeStep) int {
	obs := t.Observation.RawVector().Data

	var action int
	var err error
	if d.eval {
		action, err = d.behaviour.SelectGreedy(obs)
	} else {
		action, err = d.behaviour.SelectAction(obs)
	}
	if err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	return action
}

// UpdateTarget overwrites the frozen target weights with an exact copy
// of the live weights
func (d *DeepQ) UpdateTarget() error {
	return d.targetNet.Set(d.trainNet)
}

// TargetInterval returns the number of episodes between target network
// refreshes
func (d *DeepQ) TargetInterval() int {
	return d.targetInterval
}

// DecayEpsilon applies one multiplicative decay step to the
// exploration rate, keeping it at or above its floor
func (d *DeepQ) DecayEpsilon() {
	d.behaviour.SetEpsilon(floatutils.Max(d.epsilonMin,
		d.behaviour.Epsilon()*d.epsilonDecay))
}

// Epsilon returns the current exploration rate
func (d *DeepQ) Epsilon() float64 {
	return d.behaviour.Epsilon()
}

// BufferCapacity returns the current number of buffered transitions
func (d *DeepQ) BufferCapacity() int {
	return d.replay.Capacity()
}

// Save writes the live network weights to path as JSON
func (d *DeepQ) Save(path string) error {
	weights, err := d.trainNet.Snapshot()
	if err != nil {
		return fmt.Errorf("save: could not read weights: %v", err)
	}
	return weights.Save(path)
}

// Load restores the live network weights from the JSON file at path
// and re-syncs the target and behaviour copies. A malformed or
// incompatible file leaves the agent unchanged.
func (d *DeepQ) Load(path string) error {
	weights, err := network.LoadSnapshot(path)
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}
	if err := d.trainNet.SetSnapshot(weights); err != nil {
		return fmt.Errorf("load: %v", err)
	}

	if err := d.targetNet.Set(d.trainNet); err != nil {
		return fmt.Errorf("load: could not sync target network: %v", err)
	}
	if err := d.behaviour.Set(d.trainNet); err != nil {
		return fmt.Errorf("load: could not sync behaviour policy: %v", err)
	}
	return nil
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DeepQ) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.eval
}

// EndEpisode performs cleanup at the end of an episode. Target network
// refreshes and epsilon decay run on the training loop's schedule, not
// here.
func (d *DeepQ) EndEpisode() {}

// Close releases the agent's virtual machines
func (d *DeepQ) Close() error {
	if err := d.behaviour.Close(); err != nil {
		return fmt.Errorf("close: could not close behaviour policy: %v",
			err)
	}
	if err := d.targetNetVM.Close(); err != nil {
		return fmt.Errorf("close: could not close target net vm: %v", err)
	}
	return d.trainNetVM.Close()
}
