// Package config loads and validates the trader's YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"openbook-trader-go/infrastructure/logger"
	"openbook-trader-go/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Feed        FeedConfig    `yaml:"feed"`
	Market      MarketConfig  `yaml:"market"`
	Swap        SwapConfig    `yaml:"swap"`
	Wallet      WalletConfig  `yaml:"wallet"`
	Cluster     ClusterConfig `yaml:"cluster"`
	Model       ModelConfig   `yaml:"model"`
	Trading     TradingConfig `yaml:"trading"`
	Logger      logger.Config `yaml:"logger"`
	MetricsAddr string        `yaml:"metricsAddr"`
}

type FeedConfig struct {
	APIKey   string `yaml:"apiKey"`
	Token    string `yaml:"token"`    // optional transport auth token
	Endpoint string `yaml:"endpoint"` // optional override of the derived host
	Buffer   int    `yaml:"buffer"`
}

// MarketConfig names the on-chain accounts of one OpenBook market.
type MarketConfig struct {
	Symbol     string `yaml:"symbol"`
	EventQueue string `yaml:"eventQueue"`
	Bids       string `yaml:"bids"`
	Asks       string `yaml:"asks"`
	BaseMint   string `yaml:"baseMint"`
	QuoteMint  string `yaml:"quoteMint"`
}

type SwapConfig struct {
	BaseURL string `yaml:"baseURL"`
}

type WalletConfig struct {
	PrivateKey string `yaml:"privateKey"` // base58; prefer the env override
}

type ClusterConfig struct {
	URL       string `yaml:"url"`
	ProgramID string `yaml:"programId"`
}

type ModelConfig struct {
	Path string `yaml:"path"`
}

type TradingConfig struct {
	Amount             float64 `yaml:"amount"`             // base units per order
	SlippageBps        int     `yaml:"slippageBps"`        // 1 bp = 0.01%
	ConfirmTimeoutSecs int     `yaml:"confirmTimeoutSecs"` // max wait for tx confirmation
	Threshold          float64 `yaml:"threshold"`          // signal dead-zone boundary
	RetrainBatch       int     `yaml:"retrainBatch"`       // new samples between retrains
	MinTrainSamples    int     `yaml:"minTrainSamples"`    // skip retrain below this
}

// Load reads YAML config from path, applies defaults and validates.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides secrets from env vars
// if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("OB_FEED_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := os.Getenv("OB_FEED_TOKEN"); v != "" {
		cfg.Feed.Token = v
	}
	if v := os.Getenv("OB_WALLET_KEY"); v != "" {
		cfg.Wallet.PrivateKey = v
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Trading.Amount == 0 {
		cfg.Trading.Amount = 1.0
	}
	if cfg.Trading.SlippageBps == 0 {
		cfg.Trading.SlippageBps = 50
	}
	if cfg.Trading.ConfirmTimeoutSecs == 0 {
		cfg.Trading.ConfirmTimeoutSecs = 30
	}
	if cfg.Trading.Threshold == 0 {
		cfg.Trading.Threshold = strategy.DefaultThreshold
	}
	if cfg.Trading.RetrainBatch == 0 {
		cfg.Trading.RetrainBatch = 500
	}
	if cfg.Trading.MinTrainSamples == 0 {
		cfg.Trading.MinTrainSamples = 10
	}
	if cfg.Logger.Level == "" {
		cfg.Logger = logger.DefaultConfig()
	}
}

// PaperMode reports whether the trader only logs signals: devnet clusters
// and configurations without a program id never submit real orders.
func (c AppConfig) PaperMode() bool {
	return strings.Contains(c.Cluster.URL, "devnet") || c.Cluster.ProgramID == ""
}
