// Package store holds the trader state shared across goroutines: the
// append-only training dataset and the running realized P&L. Each piece
// sits behind its own mutex, held only for the read or append itself.
package store

import "sync"

// Observation pairs a feature vector with its retrospective label:
// 1.0 when the following trade printed higher, else 0.0.
type Observation struct {
	Features []float64
	Label    float64
}

// Store is created once at startup and torn down at shutdown; the final
// P&L is the only externally visible artifact.
type Store struct {
	mu      sync.Mutex
	dataset []Observation

	pnlMu sync.Mutex
	pnl   float64
}

func New() *Store {
	return &Store{}
}

// Append adds one labeled observation. The dataset only ever grows within
// a run.
func (s *Store) Append(features []float64, label float64) {
	s.mu.Lock()
	s.dataset = append(s.dataset, Observation{Features: features, Label: label})
	s.mu.Unlock()
}

// Len reports the current dataset size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dataset)
}

// Snapshot returns a consistent copy for training, so the fit never holds
// the dataset lock.
func (s *Store) Snapshot() []Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Observation, len(s.dataset))
	copy(out, s.dataset)
	return out
}

// AddPnL applies a realized trade result.
func (s *Store) AddPnL(delta float64) {
	s.pnlMu.Lock()
	s.pnl += delta
	s.pnlMu.Unlock()
}

// PnL reports the running realized P&L.
func (s *Store) PnL() float64 {
	s.pnlMu.Lock()
	defer s.pnlMu.Unlock()
	return s.pnl
}
