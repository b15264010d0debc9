// Package engine drives the trading loop: it consumes fills from the
// market feed, grows the labeled dataset, retrains the signal model at a
// fixed cadence and routes signals to execution or the paper log.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"openbook-trader-go/feed"
	"openbook-trader-go/infrastructure/logger"
	"openbook-trader-go/internal/store"
	"openbook-trader-go/metrics"
	"openbook-trader-go/model"
	"openbook-trader-go/strategy"
)

// State tracks the engine lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	default:
		return "UNKNOWN"
	}
}

// OrderExecutor submits one order and reports the transaction id once the
// execution is confirmed. Implementations are fallible network calls.
type OrderExecutor interface {
	Execute(ctx context.Context, side strategy.Side, amount float64) (string, error)
}

// Config holds the loop parameters.
type Config struct {
	Symbol          string
	PaperMode       bool
	TradeAmount     float64 // base units per order
	RetrainBatch    int     // new samples between retrains (paper mode)
	MinTrainSamples int     // below this a retrain is skipped
	ModelPath       string
}

// Components are the engine's collaborators.
type Components struct {
	Strategy *strategy.Strategy
	Store    *store.Store
	Executor OrderExecutor
	Logger   *logger.Logger
	Metrics  *metrics.Collector // optional
}

// Engine processes one trade event at a time; the strict previous-vs-
// current ordering is what the labeling logic depends on.
type Engine struct {
	cfg      Config
	strategy *strategy.Strategy
	store    *store.Store
	executor OrderExecutor
	log      *logger.Logger
	metrics  *metrics.Collector

	state   State
	stateMu sync.RWMutex

	// Rolling observation state, touched only by Run's goroutine.
	lastFeatures []float64
	lastPrice    float64
	hasLast      bool
	lastTrained  int

	amountMu sync.RWMutex
	amount   float64
}

// New validates the wiring and returns an idle engine.
func New(cfg Config, comps Components) (*Engine, error) {
	if cfg.Symbol == "" {
		return nil, errors.New("engine: symbol is required")
	}
	if comps.Strategy == nil {
		return nil, errors.New("engine: strategy is required")
	}
	if comps.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if comps.Logger == nil {
		return nil, errors.New("engine: logger is required")
	}
	if !cfg.PaperMode && comps.Executor == nil {
		return nil, errors.New("engine: executor is required in live mode")
	}
	if cfg.TradeAmount <= 0 {
		cfg.TradeAmount = 1.0
	}
	if cfg.RetrainBatch <= 0 {
		cfg.RetrainBatch = 500
	}
	if cfg.MinTrainSamples <= 0 {
		cfg.MinTrainSamples = 10
	}
	return &Engine{
		cfg:      cfg,
		strategy: comps.Strategy,
		store:    comps.Store,
		executor: comps.Executor,
		log:      comps.Logger,
		metrics:  comps.Metrics,
		state:    StateIdle,
		amount:   cfg.TradeAmount,
	}, nil
}

// Run consumes events until the channel closes or ctx is cancelled, then
// reports the final P&L. It may be called once per engine.
func (e *Engine) Run(ctx context.Context, events <-chan feed.TradeEvent) error {
	e.stateMu.Lock()
	if e.state != StateIdle {
		e.stateMu.Unlock()
		return fmt.Errorf("engine already started (state: %s)", e.state)
	}
	e.state = StateRunning
	e.stateMu.Unlock()

	e.log.Info("trading loop started",
		zap.String("symbol", e.cfg.Symbol),
		zap.Bool("paper_mode", e.cfg.PaperMode),
		zap.Int("retrain_batch", e.cfg.RetrainBatch))

	defer func() {
		e.stateMu.Lock()
		e.state = StateShuttingDown
		e.stateMu.Unlock()
		e.log.Info("trading loop stopped", zap.Float64("final_pnl", e.store.PnL()))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				e.log.Warn("feed stream ended")
				return nil
			}
			e.handleTrade(ctx, ev)
		}
	}
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// SetTradeAmount applies a hot-reloaded order size; non-positive values
// are ignored.
func (e *Engine) SetTradeAmount(amount float64) {
	if amount <= 0 {
		return
	}
	e.amountMu.Lock()
	e.amount = amount
	e.amountMu.Unlock()
}

func (e *Engine) tradeAmount() float64 {
	e.amountMu.RLock()
	defer e.amountMu.RUnlock()
	return e.amount
}

// handleTrade is one atomic step of the Running state.
func (e *Engine) handleTrade(ctx context.Context, ev feed.TradeEvent) {
	features := []float64{ev.Price, ev.Size, ev.Spread}

	// The previous trade's features are labeled with whether this trade
	// printed higher: supervision arrives one event late.
	if e.hasLast {
		label := 0.0
		if ev.Price > e.lastPrice {
			label = 1.0
		}
		e.store.Append(e.lastFeatures, label)
	}
	e.lastFeatures = features
	e.lastPrice = ev.Price
	e.hasLast = true

	if e.metrics != nil {
		e.metrics.FillsTotal.Inc()
		e.metrics.DatasetSize.Set(float64(e.store.Len()))
		e.metrics.LastPrice.Set(ev.Price)
		e.metrics.Spread.Set(ev.Spread)
	}

	if e.cfg.PaperMode && e.store.Len()-e.lastTrained >= e.cfg.RetrainBatch {
		e.retrain()
	}

	side, ok := e.strategy.GenerateSignal(features)
	if !ok {
		return
	}
	if e.metrics != nil {
		e.metrics.Signals.WithLabelValues(side.String()).Inc()
	}
	if e.cfg.PaperMode {
		e.log.Info("paper signal",
			zap.String("side", side.String()),
			zap.Float64("price", ev.Price))
		return
	}
	e.executeOrder(ctx, side, ev.Price)
}

// retrain snapshots the dataset, fits a fresh model and swaps it into the
// strategy. A failed fit keeps the previous model; the watermark advances
// either way so a bad batch is not retried on every event.
func (e *Engine) retrain() {
	data := e.store.Snapshot()
	if len(data) < e.cfg.MinTrainSamples {
		return
	}
	features := make([][]float64, len(data))
	labels := make([]float64, len(data))
	for i, obs := range data {
		features[i] = obs.Features
		labels[i] = obs.Label
	}
	e.lastTrained = len(data)

	m, err := model.Train(features, labels)
	if err != nil {
		e.log.Error("retrain failed, keeping previous model",
			zap.Int("samples", len(data)), zap.Error(err))
		if e.metrics != nil {
			e.metrics.TrainErrors.Inc()
		}
		return
	}
	if err := m.Save(e.cfg.ModelPath); err != nil {
		// The in-memory model is still good; only persistence failed.
		e.log.Error("model save failed", zap.String("path", e.cfg.ModelPath), zap.Error(err))
	}
	e.strategy.SetModel(m)
	if e.metrics != nil {
		e.metrics.Retrains.Inc()
	}
	e.log.Info("model retrained",
		zap.Int("samples", len(data)),
		zap.String("path", e.cfg.ModelPath))
}

// executeOrder runs one live execution. P&L moves only after the executor
// reports a confirmed fill; a failed attempt changes nothing.
func (e *Engine) executeOrder(ctx context.Context, side strategy.Side, price float64) {
	amount := e.tradeAmount()
	txID, err := e.executor.Execute(ctx, side, amount)
	if err != nil {
		e.log.Error("order execution failed",
			zap.String("side", side.String()),
			zap.Float64("price", price),
			zap.Error(err))
		if e.metrics != nil {
			e.metrics.ExecErrors.Inc()
		}
		return
	}

	delta := amount * price
	if side == strategy.Buy {
		delta = -delta
	}
	e.store.AddPnL(delta)
	if e.metrics != nil {
		e.metrics.OrdersExecuted.Inc()
		e.metrics.PnL.Set(e.store.PnL())
	}
	e.log.Info("order executed",
		zap.String("side", side.String()),
		zap.Float64("price", price),
		zap.Float64("amount", amount),
		zap.String("tx", txID),
		zap.Float64("pnl", e.store.PnL()))
}
