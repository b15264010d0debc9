package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openbook-trader-go/strategy"
)

const paperYAML = `
feed:
  apiKey: key-123
market:
  symbol: SOL/USDC
  eventQueue: EQacct
  bids: BIDacct
  asks: ASKacct
cluster:
  url: https://api.devnet.solana.com
model:
  path: data/model.bin
`

const liveYAML = `
feed:
  apiKey: key-123
market:
  symbol: SOL/USDC
  eventQueue: EQacct
  bids: BIDacct
  asks: ASKacct
  baseMint: So11111111111111111111111111111111111111112
  quoteMint: EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
swap:
  baseURL: https://quote-api.jup.ag
wallet:
  privateKey: base58-key
cluster:
  url: https://api.mainnet-beta.solana.com
  programId: srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX
model:
  path: data/model.bin
trading:
  amount: 0.5
  threshold: 0.6
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, paperYAML))
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Trading.Amount)
	assert.Equal(t, 50, cfg.Trading.SlippageBps)
	assert.Equal(t, 30, cfg.Trading.ConfirmTimeoutSecs)
	assert.Equal(t, strategy.DefaultThreshold, cfg.Trading.Threshold)
	assert.Equal(t, 500, cfg.Trading.RetrainBatch)
	assert.Equal(t, 10, cfg.Trading.MinTrainSamples)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadExplicitValuesSurviveDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, liveYAML))
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Trading.Amount)
	assert.Equal(t, 0.6, cfg.Trading.Threshold)
}

func TestPaperMode(t *testing.T) {
	cfg, err := Load(writeConfig(t, paperYAML))
	require.NoError(t, err)
	assert.True(t, cfg.PaperMode(), "devnet cluster without program id")

	cfg, err = Load(writeConfig(t, liveYAML))
	require.NoError(t, err)
	assert.False(t, cfg.PaperMode())

	cfg.Cluster.ProgramID = ""
	assert.True(t, cfg.PaperMode(), "no program id means no live orders")
}

func TestLoadValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		edit func(*AppConfig)
	}{
		{"missing api key", func(c *AppConfig) { c.Feed.APIKey = "" }},
		{"missing symbol", func(c *AppConfig) { c.Market.Symbol = "" }},
		{"missing event queue", func(c *AppConfig) { c.Market.EventQueue = "" }},
		{"missing cluster url", func(c *AppConfig) { c.Cluster.URL = "" }},
		{"missing model path", func(c *AppConfig) { c.Model.Path = "" }},
		{"negative amount", func(c *AppConfig) { c.Trading.Amount = -1 }},
		{"threshold at coin flip", func(c *AppConfig) { c.Trading.Threshold = 0.5 }},
		{"threshold at certainty", func(c *AppConfig) { c.Trading.Threshold = 1.0 }},
		{"zero retrain batch", func(c *AppConfig) { c.Trading.RetrainBatch = -5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, liveYAML))
			require.NoError(t, err)
			tc.edit(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLiveModeRequiresWalletAndSwap(t *testing.T) {
	cfg, err := Load(writeConfig(t, liveYAML))
	require.NoError(t, err)

	broken := cfg
	broken.Wallet.PrivateKey = ""
	assert.Error(t, Validate(broken))

	broken = cfg
	broken.Swap.BaseURL = ""
	assert.Error(t, Validate(broken))

	broken = cfg
	broken.Market.BaseMint = ""
	assert.Error(t, Validate(broken))

	// The same gaps are fine in paper mode.
	broken = cfg
	broken.Cluster.ProgramID = ""
	broken.Wallet.PrivateKey = ""
	broken.Swap.BaseURL = ""
	broken.Market.BaseMint = ""
	assert.NoError(t, Validate(broken))
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("OB_FEED_API_KEY", "env-key")
	t.Setenv("OB_WALLET_KEY", "env-wallet")

	cfg, err := LoadWithEnvOverrides(writeConfig(t, liveYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Feed.APIKey)
	assert.Equal(t, "env-wallet", cfg.Wallet.PrivateKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "feed: [unclosed"))
	assert.Error(t, err)
}
