// The trader binary wires the market feed, the signal model and the
// trading loop together and runs until the stream ends or a shutdown
// signal arrives.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"openbook-trader-go/config"
	"openbook-trader-go/feed"
	"openbook-trader-go/infrastructure/logger"
	"openbook-trader-go/internal/engine"
	"openbook-trader-go/internal/store"
	"openbook-trader-go/metrics"
	"openbook-trader-go/model"
	"openbook-trader-go/strategy"
	"openbook-trader-go/swap"
)

func main() {
	cfgPath := flag.String("config", "configs/trader.yaml", "path to config file")
	paper := flag.Bool("paper", false, "force paper mode regardless of cluster")
	metricsAddr := flag.String("metricsAddr", "", "override metrics listen address")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Close()

	coll := metrics.NewCollector()
	addr := cfg.MetricsAddr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	metrics.Serve(addr)

	paperMode := cfg.PaperMode() || *paper

	m, err := model.Load(cfg.Model.Path)
	if err != nil {
		zl.Fatal("load model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	strat := strategy.New(m, cfg.Trading.Threshold)
	st := store.New()

	var executor engine.OrderExecutor
	if !paperMode {
		wallet, err := solana.PrivateKeyFromBase58(cfg.Wallet.PrivateKey)
		if err != nil {
			zl.Fatal("invalid wallet key", zap.Error(err))
		}
		client := swap.NewClient(cfg.Swap.BaseURL, cfg.Cluster.URL, wallet,
			cfg.Market.BaseMint, cfg.Market.QuoteMint, cfg.Trading.SlippageBps)
		confirmer := swap.NewConfirmer(client.RPC,
			time.Duration(cfg.Trading.ConfirmTimeoutSecs)*time.Second)
		executor = swap.NewExecutor(client, confirmer, zl)
	}

	feedClient := feed.New(feed.Config{
		Endpoint:   cfg.Feed.Endpoint,
		ClusterURL: cfg.Cluster.URL,
		APIKey:     cfg.Feed.APIKey,
		Token:      cfg.Feed.Token,
		EventQueue: cfg.Market.EventQueue,
		Bids:       cfg.Market.Bids,
		Asks:       cfg.Market.Asks,
		Buffer:     cfg.Feed.Buffer,
	}, zl)
	feedClient.OnDrop = coll.EventsDropped.Inc
	feedClient.OnDecodeSkip = coll.DecodeSkips.Inc
	feedClient.OnDisconnect = func(error) { coll.FeedDisconnects.Inc() }

	eng, err := engine.New(engine.Config{
		Symbol:          cfg.Market.Symbol,
		PaperMode:       paperMode,
		TradeAmount:     cfg.Trading.Amount,
		RetrainBatch:    cfg.Trading.RetrainBatch,
		MinTrainSamples: cfg.Trading.MinTrainSamples,
		ModelPath:       cfg.Model.Path,
	}, engine.Components{
		Strategy: strat,
		Store:    st,
		Executor: executor,
		Logger:   zl,
		Metrics:  coll,
	})
	if err != nil {
		zl.Fatal("init engine", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		w := config.Watcher{Path: *cfgPath}
		_ = w.Start(ctx, func(next config.AppConfig) {
			eng.SetTradeAmount(next.Trading.Amount)
			strat.SetThreshold(next.Trading.Threshold)
			zl.Info("config reloaded",
				zap.Float64("amount", next.Trading.Amount),
				zap.Float64("threshold", next.Trading.Threshold))
		})
	}()

	events, err := feedClient.Connect(ctx)
	if err != nil {
		zl.Fatal("connect feed", zap.Error(err))
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	if err := eng.Run(ctx, events); err != nil {
		zl.Error("trading loop", zap.Error(err))
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	zl.Info("final pnl", zap.String("symbol", cfg.Market.Symbol), zap.Float64("pnl", st.PnL()))
}
