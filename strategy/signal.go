// Package strategy maps model probabilities to discrete trade signals.
package strategy

import "sync"

// Side is the direction of a trade signal.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// DefaultThreshold gives the symmetric [0.45, 0.55] dead zone.
const DefaultThreshold = 0.55

// Predictor produces an up-move probability for one feature vector.
type Predictor interface {
	Predict(features []float64) float64
}

// Strategy wraps a predictor with a decision threshold. The model is
// swapped after each retrain while the threshold may be tuned at runtime,
// so both sit behind a lock.
type Strategy struct {
	mu        sync.RWMutex
	model     Predictor
	threshold float64
}

// New builds a Strategy; a threshold <= 0 falls back to the default.
func New(model Predictor, threshold float64) *Strategy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Strategy{model: model, threshold: threshold}
}

// GenerateSignal returns Buy when the probability clears the threshold,
// Sell when it falls below the mirrored threshold, and no signal inside
// the dead zone. Boundary values yield no signal.
func (s *Strategy) GenerateSignal(features []float64) (Side, bool) {
	s.mu.RLock()
	model, threshold := s.model, s.threshold
	s.mu.RUnlock()

	p := model.Predict(features)
	switch {
	case p > threshold:
		return Buy, true
	case p < 1-threshold:
		return Sell, true
	default:
		return 0, false
	}
}

// SetModel installs a freshly trained predictor.
func (s *Strategy) SetModel(model Predictor) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}

// SetThreshold adjusts the dead zone; values <= 0 or >= 1 are ignored.
func (s *Strategy) SetThreshold(threshold float64) {
	if threshold <= 0 || threshold >= 1 {
		return
	}
	s.mu.Lock()
	s.threshold = threshold
	s.mu.Unlock()
}

// Threshold reports the current decision threshold.
func (s *Strategy) Threshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}
