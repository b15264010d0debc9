package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedPredictor struct{ p float64 }

func (f fixedPredictor) Predict([]float64) float64 { return f.p }

func TestGenerateSignalDeadZone(t *testing.T) {
	cases := []struct {
		prob     float64
		wantSide Side
		wantOK   bool
	}{
		{0.56, Buy, true},
		{0.99, Buy, true},
		{0.44, Sell, true},
		{0.01, Sell, true},
		{0.55, 0, false}, // boundary: no signal
		{0.45, 0, false}, // boundary: no signal
		{0.50, 0, false},
	}
	for _, tc := range cases {
		s := New(fixedPredictor{p: tc.prob}, DefaultThreshold)
		side, ok := s.GenerateSignal([]float64{1, 2, 3})
		assert.Equal(t, tc.wantOK, ok, "prob %v", tc.prob)
		if tc.wantOK {
			assert.Equal(t, tc.wantSide, side, "prob %v", tc.prob)
		}
	}
}

func TestGenerateSignalCustomThreshold(t *testing.T) {
	s := New(fixedPredictor{p: 0.62}, 0.6)
	side, ok := s.GenerateSignal(nil)
	assert.True(t, ok)
	assert.Equal(t, Buy, side)

	s.SetThreshold(0.7)
	_, ok = s.GenerateSignal(nil)
	assert.False(t, ok)

	// Out-of-range thresholds are ignored.
	s.SetThreshold(1.5)
	assert.Equal(t, 0.7, s.Threshold())
}

func TestSetModelSwaps(t *testing.T) {
	s := New(fixedPredictor{p: 0.5}, DefaultThreshold)
	_, ok := s.GenerateSignal(nil)
	assert.False(t, ok)

	s.SetModel(fixedPredictor{p: 0.9})
	side, ok := s.GenerateSignal(nil)
	assert.True(t, ok)
	assert.Equal(t, Buy, side)
}

func TestSideString(t *testing.T) {
	assert.Equal(t, "BUY", Buy.String())
	assert.Equal(t, "SELL", Sell.String())
}
