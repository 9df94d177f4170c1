package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goldcross/internal/audit"
	"goldcross/internal/broker"
	"goldcross/internal/config"
	"goldcross/internal/engine"
	"goldcross/internal/funds"
	"goldcross/internal/gather"
	"goldcross/internal/store"
	"goldcross/internal/strategy"
	"goldcross/internal/util"
)

func main() {
	cfgPath := flag.String("config", defaultConfigPath(), "path to YAML config")
	evalEvery := flag.Duration("eval-interval", 24*time.Hour, "time between signal evaluations")
	pollEvery := flag.Duration("poll-interval", time.Minute, "time between order status polls")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("alpaca credentials are required for live trading")
	}

	auditLog, err := audit.Open(cfg.Audit.LogPath)
	if err != nil {
		log.Fatalf("failed to open audit log: %v", err)
	}
	defer auditLog.Close()

	var orders store.OrderStore
	var trades store.TradeStore
	if cfg.Storage.SQLitePath != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer db.Close()
		orders, trades = db, db
	}

	var archive store.BarStore
	if cfg.Storage.DataDir != "" {
		archive = store.NewParquetStore(cfg.Storage.DataDir)
	}
	fetcher := gather.NewDailyBarFetcher(
		cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
		cfg.Trading.Symbols, archive)

	alp := broker.NewAlpacaBroker(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	eng := engine.New(alp, funds.NewGuard(alp), auditLog, orders, trades)
	for _, spec := range cfg.Strategies {
		ev, err := strategy.FromSpec(spec)
		if err != nil {
			log.Fatalf("invalid strategy config: %v", err)
		}
		if _, err := eng.AddInstance(ev, spec.InvestmentFraction); err != nil {
			log.Fatalf("failed to add strategy: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("goldcross trader starting",
		"symbols", cfg.Trading.Symbols,
		"strategies", len(cfg.Strategies),
		"eval_interval", evalEvery.String(),
		"poll_interval", pollEvery.String())

	if err := runLoop(ctx, eng, alp, fetcher, *evalEvery, *pollEvery); err != nil && ctx.Err() == nil {
		log.Fatalf("trader error: %v", err)
	}
	logger.Info("goldcross trader stopped")
}

// runLoop alternates between two cadences: a slow one that fetches the
// latest daily bars and evaluates signals, and a fast one that polls open
// orders so fills reconcile long before the next evaluation. The first
// evaluation runs immediately.
func runLoop(ctx context.Context, eng *engine.Engine, alp *broker.AlpacaBroker, fetcher *gather.DailyBarFetcher, evalEvery, pollEvery time.Duration) error {
	if err := evaluate(ctx, eng, fetcher); err != nil {
		return err
	}

	evalTicker := time.NewTicker(evalEvery)
	defer evalTicker.Stop()
	pollTicker := time.NewTicker(pollEvery)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pollTicker.C:
			if err := alp.PollUpdates(ctx, eng); err != nil {
				return err
			}
		case <-evalTicker.C:
			// Settle anything still open before taking new decisions, so
			// the ledgers reflect yesterday's fills.
			if err := alp.PollUpdates(ctx, eng); err != nil {
				return err
			}
			if err := evaluate(ctx, eng, fetcher); err != nil {
				return err
			}
		}
	}
}

func evaluate(ctx context.Context, eng *engine.Engine, fetcher *gather.DailyBarFetcher) error {
	bars, err := fetcher.Latest(ctx)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return nil
	}
	return eng.OnBar(ctx, bars)
}

func defaultConfigPath() string {
	if p := os.Getenv("GOLDCROSS_CONFIG"); p != "" {
		return p
	}
	return "config/goldcross.yaml"
}
