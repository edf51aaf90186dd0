// Package nnff loads and evaluates learned steering torque response models.
// A model maps a feature vector (speed, lateral acceleration, friction input,
// road roll and the past/future context) to a normalized steering torque.
package nnff

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	activationSigmoid  = "σ"
	activationIdentity = "identity"
)

// layer is one dense layer: y = act(W*x + b)
type layer struct {
	weights    *mat.Dense // out x in
	bias       *mat.VecDense
	activation string
	outSize    int
}

// Model is a feedforward torque response network. It implements the torque
// model contract of the lateral controller.
type Model struct {
	name       string
	inputSize  int
	outputSize int
	mean       []float64
	std        []float64
	layers     []layer
}

type rawModel struct {
	InputSize  int                          `json:"input_size"`
	OutputSize int                          `json:"output_size"`
	InputMean  []float64                    `json:"input_mean"`
	InputStd   []float64                    `json:"input_std"`
	Layers     []map[string]json.RawMessage `json:"layers"`
}

// LoadModel reads a model from its JSON file. The file name (without
// extension) becomes the model name.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := ParseModel(name, data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	return m, nil
}

// ParseModel builds a model from raw JSON
func ParseModel(name string, data []byte) (*Model, error) {
	var raw rawModel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if raw.InputSize < 1 {
		return nil, fmt.Errorf("input_size must be positive, got %d", raw.InputSize)
	}
	if raw.OutputSize != 1 {
		return nil, fmt.Errorf("output_size must be 1, got %d", raw.OutputSize)
	}
	if len(raw.InputMean) != raw.InputSize || len(raw.InputStd) != raw.InputSize {
		return nil, fmt.Errorf("normalization length %d/%d does not match input_size %d",
			len(raw.InputMean), len(raw.InputStd), raw.InputSize)
	}
	for i, s := range raw.InputStd {
		if s == 0 {
			return nil, fmt.Errorf("input_std[%d] is zero", i)
		}
	}
	if len(raw.Layers) == 0 {
		return nil, fmt.Errorf("no layers")
	}

	m := &Model{
		name:       name,
		inputSize:  raw.InputSize,
		outputSize: raw.OutputSize,
		mean:       raw.InputMean,
		std:        raw.InputStd,
	}
	prevSize := raw.InputSize
	for i, rl := range raw.Layers {
		l, err := parseLayer(rl, prevSize)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		m.layers = append(m.layers, l)
		prevSize = l.outSize
	}
	if prevSize != raw.OutputSize {
		return nil, fmt.Errorf("final layer width %d does not match output_size %d", prevSize, raw.OutputSize)
	}
	return m, nil
}

// parseLayer decodes one layer entry. Weights arrive under a key ending in
// "_W" as rows of per-output weights, the bias under "_b".
func parseLayer(rl map[string]json.RawMessage, inSize int) (layer, error) {
	var rows [][]float64
	var bias []float64
	activation := activationIdentity
	haveW, haveB := false, false

	for key, val := range rl {
		switch {
		case strings.HasSuffix(key, "_W"):
			if err := json.Unmarshal(val, &rows); err != nil {
				return layer{}, fmt.Errorf("weights %s: %w", key, err)
			}
			haveW = true
		case strings.HasSuffix(key, "_b"):
			if err := json.Unmarshal(val, &bias); err != nil {
				return layer{}, fmt.Errorf("bias %s: %w", key, err)
			}
			haveB = true
		case key == "activation":
			if err := json.Unmarshal(val, &activation); err != nil {
				return layer{}, fmt.Errorf("activation: %w", err)
			}
		}
	}
	if !haveW || !haveB {
		return layer{}, fmt.Errorf("missing weights or bias")
	}
	if activation != activationSigmoid && activation != activationIdentity {
		return layer{}, fmt.Errorf("unknown activation %q", activation)
	}
	out := len(rows)
	if out == 0 || len(bias) != out {
		return layer{}, fmt.Errorf("bias length %d does not match %d output rows", len(bias), out)
	}
	flat := make([]float64, 0, out*inSize)
	for r, row := range rows {
		if len(row) != inSize {
			return layer{}, fmt.Errorf("row %d has %d weights, expected %d", r, len(row), inSize)
		}
		flat = append(flat, row...)
	}
	return layer{
		weights:    mat.NewDense(out, inSize, flat),
		bias:       mat.NewVecDense(out, bias),
		activation: activation,
		outSize:    out,
	}, nil
}

// Name returns the model name
func (m *Model) Name() string { return m.name }

// InputSize returns the expected feature vector length
func (m *Model) InputSize() int { return m.inputSize }

// LayerCount returns the number of dense layers
func (m *Model) LayerCount() int { return len(m.layers) }

// Evaluate normalizes the features and runs the forward pass. Feature vectors
// shorter than the input size are zero padded, which lets probes supply only
// the leading features; a longer vector is a caller bug and panics.
func (m *Model) Evaluate(features []float64) float64 {
	if len(features) > m.inputSize {
		panic(fmt.Sprintf("model %s: %d features exceed input size %d", m.name, len(features), m.inputSize))
	}
	normed := make([]float64, m.inputSize)
	for i := range normed {
		v := 0.0
		if i < len(features) {
			v = features[i]
		}
		normed[i] = (v - m.mean[i]) / m.std[i]
	}

	x := mat.NewVecDense(m.inputSize, normed)
	for _, l := range m.layers {
		y := mat.NewVecDense(l.outSize, nil)
		y.MulVec(l.weights, x)
		y.AddVec(y, l.bias)
		if l.activation == activationSigmoid {
			for i := 0; i < y.Len(); i++ {
				y.SetVec(i, sigmoid(y.AtVec(i)))
			}
		}
		x = y
	}
	return x.AtVec(0)
}

// FrictionOverride probes the learned friction response at highway speed with
// zero lateral acceleration and a small friction input. Models trained on
// cars with weak torque friction barely respond; those need the analytic
// friction added back downstream.
func (m *Model) FrictionOverride() bool {
	return m.Evaluate([]float64{10.0, 0.0, 0.2}) < 0.1
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
