package network

import (
	"encoding/json"
	"fmt"
	"os"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// LayerWeights holds the parameters of a single fully connected layer
// with the weight matrix in (outputs x inputs) orientation, the
// layout consumed by the visualization tooling.
type LayerWeights struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// Snapshot is the interchange format for trained network weights. It
// stores each of the three fully connected layers under the key the
// visualization tooling expects.
type Snapshot struct {
	FC1 LayerWeights `json:"fc1"`
	FC2 LayerWeights `json:"fc2"`
	FC3 LayerWeights `json:"fc3"`
}

// Save writes the weights to path as indented JSON
func (s Snapshot) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("save: could not marshal weights: %v", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadSnapshot reads network weights from the JSON file at path
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loadsnapshot: %v", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("loadsnapshot: could not "+
			"unmarshal weights: %v", err)
	}
	return s, nil
}

// Snapshot returns the current weights of the network
func (q *qNetwork) Snapshot() (Snapshot, error) {
	weights := make([]LayerWeights, len(q.layers))
	for i, layer := range q.layers {
		layerWeights, err := snapshotLayer(layer)
		if err != nil {
			return Snapshot{}, fmt.Errorf("snapshot: layer %v: %v", i, err)
		}
		weights[i] = layerWeights
	}

	return Snapshot{FC1: weights[0], FC2: weights[1], FC3: weights[2]}, nil
}

// snapshotLayer copies one layer's parameters out of the graph,
// transposing the weight matrix from the graph's (inputs x outputs)
// orientation to the stored (outputs x inputs) orientation.
func snapshotLayer(layer Layer) (LayerWeights, error) {
	weightsTensor, ok := layer.Weights().Value().(*tensor.Dense)
	if !ok {
		return LayerWeights{}, fmt.Errorf("weights value is not a dense " +
			"tensor")
	}
	biasTensor, ok := layer.Bias().Value().(*tensor.Dense)
	if !ok {
		return LayerWeights{}, fmt.Errorf("bias value is not a dense tensor")
	}

	shape := weightsTensor.Shape()
	inputs, outputs := shape[0], shape[1]
	weightsData := weightsTensor.Data().([]float64)

	weight := make([][]float64, outputs)
	for o := 0; o < outputs; o++ {
		weight[o] = make([]float64, inputs)
		for i := 0; i < inputs; i++ {
			weight[o][i] = weightsData[i*outputs+o]
		}
	}

	biasData := biasTensor.Data().([]float64)
	bias := make([]float64, outputs)
	copy(bias, biasData)

	return LayerWeights{Weight: weight, Bias: bias}, nil
}

// SetSnapshot overwrites the network's weights with those stored in
// s. The shapes of all layers are checked before any weight is
// touched so that a malformed snapshot leaves the network unchanged.
func (q *qNetwork) SetSnapshot(s Snapshot) error {
	stored := []LayerWeights{s.FC1, s.FC2, s.FC3}
	names := []string{"fc1", "fc2", "fc3"}
	inputs := []int{q.numInputs, q.hidden1, q.hidden2}
	outputs := []int{q.hidden1, q.hidden2, q.numOutputs}

	for i := range stored {
		err := checkLayerShape(stored[i], inputs[i], outputs[i])
		if err != nil {
			return fmt.Errorf("setsnapshot: layer %v: %v", names[i], err)
		}
	}

	for i, layer := range q.layers {
		err := restoreLayer(layer, stored[i], inputs[i], outputs[i])
		if err != nil {
			return fmt.Errorf("setsnapshot: layer %v: %v", names[i], err)
		}
	}
	return nil
}

// checkLayerShape verifies that stored layer weights match the
// expected dimensions
func checkLayerShape(w LayerWeights, inputs, outputs int) error {
	if len(w.Weight) != outputs {
		return fmt.Errorf("invalid number of weight rows \n\twant(%v) "+
			"\n\thave(%v)", outputs, len(w.Weight))
	}
	for o, row := range w.Weight {
		if len(row) != inputs {
			return fmt.Errorf("invalid number of weight columns in row "+
				"%v \n\twant(%v) \n\thave(%v)", o, inputs, len(row))
		}
	}
	if len(w.Bias) != outputs {
		return fmt.Errorf("invalid number of bias terms \n\twant(%v) "+
			"\n\thave(%v)", outputs, len(w.Bias))
	}
	return nil
}

// restoreLayer writes stored weights into a layer's graph nodes,
// transposing back to the graph's (inputs x outputs) orientation
func restoreLayer(layer Layer, w LayerWeights, inputs, outputs int) error {
	weightsData := make([]float64, inputs*outputs)
	for o := 0; o < outputs; o++ {
		for i := 0; i < inputs; i++ {
			weightsData[i*outputs+o] = w.Weight[o][i]
		}
	}
	weightsTensor := tensor.New(
		tensor.WithBacking(weightsData),
		tensor.WithShape(inputs, outputs),
	)
	if err := G.Let(layer.Weights(), weightsTensor); err != nil {
		return fmt.Errorf("could not set weights: %v", err)
	}

	biasData := make([]float64, outputs)
	copy(biasData, w.Bias)
	biasTensor := tensor.New(
		tensor.WithBacking(biasData),
		tensor.WithShape(1, outputs),
	)
	if err := G.Let(layer.Bias(), biasTensor); err != nil {
		return fmt.Errorf("could not set bias: %v", err)
	}
	return nil
}
