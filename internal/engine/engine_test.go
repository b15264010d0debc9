package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openbook-trader-go/feed"
	"openbook-trader-go/infrastructure/logger"
	"openbook-trader-go/internal/store"
	"openbook-trader-go/strategy"
)

type stubPredictor struct{ p float64 }

func (s stubPredictor) Predict([]float64) float64 { return s.p }

type stubExecutor struct {
	calls []struct {
		side   strategy.Side
		amount float64
	}
	err error
}

func (s *stubExecutor) Execute(_ context.Context, side strategy.Side, amount float64) (string, error) {
	s.calls = append(s.calls, struct {
		side   strategy.Side
		amount float64
	}{side, amount})
	if s.err != nil {
		return "", s.err
	}
	return "tx-stub", nil
}

func newEngine(t *testing.T, cfg Config, prob float64, exec OrderExecutor) (*Engine, *store.Store) {
	t.Helper()
	if cfg.Symbol == "" {
		cfg.Symbol = "SOL/USDC"
	}
	st := store.New()
	e, err := New(cfg, Components{
		Strategy: strategy.New(stubPredictor{p: prob}, strategy.DefaultThreshold),
		Store:    st,
		Executor: exec,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	return e, st
}

func trade(price float64) feed.TradeEvent {
	return feed.TradeEvent{Price: price, Size: 1.0, Side: feed.SideBid, Spread: 0.5}
}

func TestNewValidation(t *testing.T) {
	comps := Components{
		Strategy: strategy.New(stubPredictor{}, strategy.DefaultThreshold),
		Store:    store.New(),
		Logger:   logger.Nop(),
	}

	_, err := New(Config{PaperMode: true}, comps)
	assert.Error(t, err, "symbol is required")

	// Live mode without an executor must be rejected up front.
	_, err = New(Config{Symbol: "SOL/USDC"}, comps)
	assert.Error(t, err)

	e, err := New(Config{Symbol: "SOL/USDC", PaperMode: true}, comps)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, e.State())
}

func TestLabelingArrivesOneEventLate(t *testing.T) {
	e, st := newEngine(t, Config{PaperMode: true}, 0.5, nil)
	ctx := context.Background()

	for _, p := range []float64{10, 12, 9} {
		e.handleTrade(ctx, trade(p))
	}

	snap := st.Snapshot()
	require.Len(t, snap, 2, "first event has no label yet, last is pending")
	assert.Equal(t, []float64{10, 1.0, 0.5}, snap[0].Features)
	assert.Equal(t, 1.0, snap[0].Label, "10 -> 12 is an up move")
	assert.Equal(t, []float64{12, 1.0, 0.5}, snap[1].Features)
	assert.Equal(t, 0.0, snap[1].Label, "12 -> 9 is a down move")
}

func TestRetrainAtBatchThreshold(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "model.bin")
	e, _ := newEngine(t, Config{
		PaperMode:       true,
		RetrainBatch:    4,
		MinTrainSamples: 4,
		ModelPath:       modelPath,
	}, 0.5, nil)
	ctx := context.Background()

	// Alternating prices yield labels 1,0,1,0: both classes are present.
	prices := []float64{10, 11, 10, 11}
	for _, p := range prices {
		e.handleTrade(ctx, trade(p))
	}
	_, err := os.Stat(modelPath)
	assert.True(t, os.IsNotExist(err), "three labeled samples are below the batch")

	e.handleTrade(ctx, trade(10))
	_, err = os.Stat(modelPath)
	require.NoError(t, err, "fourth labeled sample completes the batch")

	// The watermark moved: the next few events must not retrain again.
	require.NoError(t, os.Remove(modelPath))
	for _, p := range []float64{11, 10, 11} {
		e.handleTrade(ctx, trade(p))
	}
	_, err = os.Stat(modelPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRetrainFailureAdvancesWatermark(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "model.bin")
	e, _ := newEngine(t, Config{
		PaperMode:       true,
		RetrainBatch:    4,
		MinTrainSamples: 4,
		ModelPath:       modelPath,
	}, 0.5, nil)
	ctx := context.Background()

	// Monotone prices produce a single-class batch the fit rejects.
	for _, p := range []float64{10, 11, 12, 13, 14} {
		e.handleTrade(ctx, trade(p))
	}
	_, err := os.Stat(modelPath)
	assert.True(t, os.IsNotExist(err), "failed fit writes nothing")
	assert.Equal(t, 4, e.lastTrained, "bad batch is not retried on every event")
}

func TestNoRetrainInLiveMode(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "model.bin")
	exec := &stubExecutor{}
	e, _ := newEngine(t, Config{
		RetrainBatch:    2,
		MinTrainSamples: 2,
		ModelPath:       modelPath,
	}, 0.5, exec)
	ctx := context.Background()

	for _, p := range []float64{10, 11, 10, 11, 10, 11} {
		e.handleTrade(ctx, trade(p))
	}
	_, err := os.Stat(modelPath)
	assert.True(t, os.IsNotExist(err), "live mode trades the frozen model")
}

func TestExecutionMovesPnLOnSuccessOnly(t *testing.T) {
	exec := &stubExecutor{}
	e, st := newEngine(t, Config{TradeAmount: 2.0}, 0.9, exec)
	ctx := context.Background()

	e.handleTrade(ctx, trade(100))
	require.Len(t, exec.calls, 1)
	assert.Equal(t, strategy.Buy, exec.calls[0].side)
	assert.Equal(t, 2.0, exec.calls[0].amount)
	assert.InDelta(t, -200.0, st.PnL(), 1e-9, "buys spend quote units")

	exec.err = errors.New("rpc unavailable")
	e.handleTrade(ctx, trade(50))
	assert.InDelta(t, -200.0, st.PnL(), 1e-9, "failed execution leaves P&L alone")
}

func TestSellAddsToPnL(t *testing.T) {
	exec := &stubExecutor{}
	e, st := newEngine(t, Config{TradeAmount: 1.0}, 0.1, exec)

	e.handleTrade(context.Background(), trade(40))
	require.Len(t, exec.calls, 1)
	assert.Equal(t, strategy.Sell, exec.calls[0].side)
	assert.InDelta(t, 40.0, st.PnL(), 1e-9)
}

func TestSetTradeAmountHotReload(t *testing.T) {
	exec := &stubExecutor{}
	e, _ := newEngine(t, Config{TradeAmount: 1.0}, 0.9, exec)
	ctx := context.Background()

	e.SetTradeAmount(-3) // ignored
	e.SetTradeAmount(5)
	e.handleTrade(ctx, trade(10))
	require.Len(t, exec.calls, 1)
	assert.Equal(t, 5.0, exec.calls[0].amount)
}

func TestRunLifecycle(t *testing.T) {
	e, _ := newEngine(t, Config{PaperMode: true}, 0.5, nil)

	events := make(chan feed.TradeEvent)
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background(), events) }()

	require.Eventually(t, func() bool {
		return e.State() == StateRunning
	}, time.Second, 5*time.Millisecond)

	assert.Error(t, e.Run(context.Background(), events), "second Run is rejected")

	events <- trade(10)
	close(events)

	require.NoError(t, <-done)
	assert.Equal(t, StateShuttingDown, e.State())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e, _ := newEngine(t, Config{PaperMode: true}, 0.5, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan feed.TradeEvent)
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, events) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop on cancel")
	}
}
