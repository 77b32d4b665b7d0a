// Package network implements the neural network function
// approximators that agents learn action values with, together with
// the weight snapshot format used to exchange trained parameters with
// external tooling.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a feedforward neural network on a gorgonia
// graph. A NeuralNet owns its input node; callers set input values
// with SetInput, run the graph's virtual machine, then read the
// forward pass result from Output.
type NeuralNet interface {
	// Graph returns the computational graph the network is built on
	Graph() *G.ExprGraph

	// Clone clones the network onto a fresh graph, keeping the batch
	// size
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network onto a fresh graph with a new
	// input batch size
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of rows of the input node
	BatchSize() int

	// Features returns the number of features in a single input
	// observation vector
	Features() int

	// Outputs returns the number of values the network predicts per
	// input row
	Outputs() int

	// SetInput sets the value of the input node before running the
	// forward pass
	SetInput([]float64) error

	// Set copies the learnable weights of another network of the same
	// architecture into this one
	Set(NeuralNet) error

	// Learnables returns the learnable nodes of the network
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the value of the network's prediction after the
	// last virtual machine run
	Output() G.Value

	// Prediction returns the node of the computational graph that
	// stores the network's prediction
	Prediction() *G.Node

	// Snapshot extracts the current weights in the interchange format
	Snapshot() (Snapshot, error)

	// SetSnapshot overwrites the current weights from a snapshot,
	// rejecting snapshots whose shapes do not match the architecture
	SetSnapshot(Snapshot) error
}

// Layer implements a single layer of a NeuralNet
type Layer interface {
	fwd(*G.Node) (*G.Node, error)

	// CloneTo clones the layer onto a new computational graph
	CloneTo(g *G.ExprGraph) Layer

	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}
