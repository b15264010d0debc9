package config

import (
	"errors"
	"fmt"
)

// Validate ensures required fields are present and bounds hold.
func Validate(cfg AppConfig) error {
	if cfg.Feed.APIKey == "" {
		return errors.New("feed.apiKey is required (or OB_FEED_API_KEY)")
	}
	if cfg.Market.Symbol == "" {
		return errors.New("market.symbol is required")
	}
	if cfg.Market.EventQueue == "" || cfg.Market.Bids == "" || cfg.Market.Asks == "" {
		return errors.New("market.eventQueue/bids/asks accounts are required")
	}
	if cfg.Cluster.URL == "" {
		return errors.New("cluster.url is required")
	}
	if cfg.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if !cfg.PaperMode() {
		if cfg.Swap.BaseURL == "" {
			return errors.New("swap.baseURL is required in live mode")
		}
		if cfg.Wallet.PrivateKey == "" {
			return errors.New("wallet.privateKey is required in live mode (or OB_WALLET_KEY)")
		}
		if cfg.Market.BaseMint == "" || cfg.Market.QuoteMint == "" {
			return errors.New("market.baseMint/quoteMint are required in live mode")
		}
	}
	if cfg.Trading.Amount <= 0 {
		return fmt.Errorf("trading.amount must be > 0, got %f", cfg.Trading.Amount)
	}
	if cfg.Trading.SlippageBps <= 0 {
		return fmt.Errorf("trading.slippageBps must be > 0, got %d", cfg.Trading.SlippageBps)
	}
	if cfg.Trading.ConfirmTimeoutSecs <= 0 {
		return fmt.Errorf("trading.confirmTimeoutSecs must be > 0, got %d", cfg.Trading.ConfirmTimeoutSecs)
	}
	if cfg.Trading.Threshold <= 0.5 || cfg.Trading.Threshold >= 1 {
		return fmt.Errorf("trading.threshold must be in (0.5, 1), got %f", cfg.Trading.Threshold)
	}
	if cfg.Trading.RetrainBatch <= 0 {
		return fmt.Errorf("trading.retrainBatch must be > 0, got %d", cfg.Trading.RetrainBatch)
	}
	if cfg.Trading.MinTrainSamples <= 0 {
		return fmt.Errorf("trading.minTrainSamples must be > 0, got %d", cfg.Trading.MinTrainSamples)
	}
	return nil
}
