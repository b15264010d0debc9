// Package model implements the tiny logistic-regression signal model: a
// bias plus one weight per feature, trained online from labeled fills.
package model

import (
	"errors"
	"fmt"
	"math"
)

// FeatureCount is the width of the trader's feature vector
// [price, size, spread].
const FeatureCount = 3

var (
	// ErrEmptyDataset means Train was given no rows.
	ErrEmptyDataset = errors.New("model: empty training set")
	// ErrSingleClass means every label in the training set is identical.
	ErrSingleClass = errors.New("model: need both classes to fit")
	// ErrDiverged means the fit produced non-finite parameters.
	ErrDiverged = errors.New("model: fit diverged")
)

const (
	learnRate = 0.05
	epochs    = 300
)

// Logistic holds the fitted parameters. params[0] is the bias, the rest are
// per-feature weights. An empty parameter vector is the uninitialized state
// and predicts the neutral prior.
type Logistic struct {
	params []float64
}

// NewFromParams wraps an explicit parameter vector. The slice is copied.
func NewFromParams(params []float64) *Logistic {
	return &Logistic{params: append([]float64(nil), params...)}
}

// Params returns a copy of the parameter vector.
func (m *Logistic) Params() []float64 {
	return append([]float64(nil), m.params...)
}

// Train fits a logistic classifier by gradient descent over the full set.
// labels must hold one 0/1 value per feature row and contain both classes.
func Train(features [][]float64, labels []float64) (*Logistic, error) {
	if len(features) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("model: %d feature rows but %d labels", len(features), len(labels))
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return nil, fmt.Errorf("model: row %d has %d features, want %d", i, len(row), width)
		}
	}
	var pos, neg bool
	for _, y := range labels {
		if y > 0.5 {
			pos = true
		} else {
			neg = true
		}
	}
	if !pos || !neg {
		return nil, ErrSingleClass
	}

	m := &Logistic{params: make([]float64, width+1)}
	for e := 0; e < epochs; e++ {
		for i, row := range features {
			p := m.Predict(row)
			grad := p - labels[i]
			m.params[0] -= learnRate * grad
			for j, x := range row {
				m.params[j+1] -= learnRate * grad * x
			}
		}
	}
	for _, v := range m.params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrDiverged
		}
	}
	return m, nil
}

// Predict returns the probability of an up-move for one feature vector.
// A model without parameters returns exactly 0.5, the deliberate neutral
// prior for the first run.
func (m *Logistic) Predict(features []float64) float64 {
	if len(m.params) == 0 {
		return 0.5
	}
	z := m.params[0]
	weights := m.params[1:]
	n := len(weights)
	if len(features) < n {
		n = len(features)
	}
	for i := 0; i < n; i++ {
		z += weights[i] * features[i]
	}
	return sigmoid(z)
}

// sigmoid is clamped for numerical stability.
func sigmoid(z float64) float64 {
	if z > 20 {
		return 1
	}
	if z < -20 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
