package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// qNetwork implements the action value network shared by all agents:
// two ReLU hidden layers followed by a linear output head with one
// value per action.
type qNetwork struct {
	g      *G.ExprGraph
	layers []Layer
	input  *G.Node

	numOutputs int
	numInputs  int
	batchSize  int
	hidden1    int
	hidden2    int
	prefix     string

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewQNetwork creates and returns a new action value network on graph
// g, taking batch rows of features inputs and predicting one value
// per action. The hidden1 and hidden2 parameters size the two hidden
// layers, init determines the weight initialization scheme, and
// prefix namespaces the weight node names so that multiple networks
// can share a graph.
func NewQNetwork(features, batch, actions int, g *G.ExprGraph, hidden1,
	hidden2 int, init G.InitWFn, prefix string) (NeuralNet, error) {
	if features < 1 || batch < 1 || actions < 1 {
		return nil, fmt.Errorf("newqnetwork: sizes must be positive "+
			"\n\twant(features, batch, actions > 0) \n\thave(%v, %v, %v)",
			features, batch, actions)
	}
	if hidden1 < 1 || hidden2 < 1 {
		return nil, fmt.Errorf("newqnetwork: hidden sizes must be positive "+
			"\n\twant(> 0) \n\thave(%v, %v)", hidden1, hidden2)
	}

	// Set up the input node
	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName(prefix+"input"),
		G.WithInit(G.Zeroes()),
	)

	layers := []Layer{
		newFCLayer(g, prefix+"fc1", features, hidden1, init, ReLU()),
		newFCLayer(g, prefix+"fc2", hidden1, hidden2, init, ReLU()),
		newFCLayer(g, prefix+"fc3", hidden2, actions, init, Identity()),
	}

	network := &qNetwork{
		g:          g,
		layers:     layers,
		input:      input,
		numOutputs: actions,
		numInputs:  features,
		batchSize:  batch,
		hidden1:    hidden1,
		hidden2:    hidden2,
		prefix:     prefix,
	}
	if _, err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newqnetwork: could not compute forward "+
			"pass: %v", err)
	}

	return network, nil
}

// Graph returns the computational graph of the qNetwork
func (q *qNetwork) Graph() *G.ExprGraph {
	return q.g
}

// Clone clones a qNetwork onto a fresh graph
func (q *qNetwork) Clone() (NeuralNet, error) {
	return q.CloneWithBatch(q.batchSize)
}

// CloneWithBatch clones a qNetwork onto a fresh graph with a new input
// batch size
func (q *qNetwork) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("clonewithbatch: batch size must be "+
			"positive \n\twant(> 0) \n\thave(%v)", batchSize)
	}

	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, q.numInputs),
		G.WithName(q.prefix+"input"),
		G.WithInit(G.Zeroes()),
	)

	// Copy fully connected layers
	layers := make([]Layer, len(q.layers))
	for i := range q.layers {
		layers[i] = q.layers[i].CloneTo(graph)
	}

	network := &qNetwork{
		g:          graph,
		layers:     layers,
		input:      input,
		numOutputs: q.numOutputs,
		numInputs:  q.numInputs,
		batchSize:  batchSize,
		hidden1:    q.hidden1,
		hidden2:    q.hidden2,
		prefix:     q.prefix,
	}
	if _, err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute "+
			"forward pass: %v", err)
	}

	return network, nil
}

// BatchSize returns the batch size of inputs to the network
func (q *qNetwork) BatchSize() int {
	return q.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input
func (q *qNetwork) Features() int {
	return q.numInputs
}

// Outputs returns the number of action values predicted per input row
func (q *qNetwork) Outputs() int {
	return q.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass
func (q *qNetwork) SetInput(input []float64) error {
	if len(input) != q.numInputs*q.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs "+
			"\n\twant(%v) \n\thave(%v)", q.numInputs*q.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(q.input.Shape()...),
	)
	return G.Let(q.input, inputTensor)
}

// Set sets the weights of a qNetwork to be equal to the weights of
// another qNetwork
func (q *qNetwork) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: incompatible networks \n\twant(%v "+
			"learnables) \n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in a qNetwork
func (q *qNetwork) Learnables() G.Nodes {
	// Lazy instantiation
	if q.learnables == nil {
		q.learnables = q.computeLearnables()
	}
	return q.learnables
}

// computeLearnables computes all the learnables for the network
func (q *qNetwork) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(q.layers))

	for i := range q.layers {
		learnables = append(learnables, q.layers[i].Weights())
		if bias := q.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients
func (q *qNetwork) Model() []G.ValueGrad {
	// Lazy instantiation
	if q.model == nil {
		q.model = q.computeModel()
	}
	return q.model
}

// computeModel computes the model for the network
func (q *qNetwork) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(q.layers))
	for _, node := range q.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the qNetwork on the input node
func (q *qNetwork) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range q.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	q.prediction = pred
	G.Read(q.prediction, &q.predVal)

	return pred, nil
}

// Output returns the output of the qNetwork
func (q *qNetwork) Output() G.Value {
	return q.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the qNetwork
func (q *qNetwork) Prediction() *G.Node {
	return q.prediction
}
