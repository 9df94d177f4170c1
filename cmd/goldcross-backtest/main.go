package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"goldcross/internal/audit"
	"goldcross/internal/backtest"
	"goldcross/internal/config"
	"goldcross/internal/domain"
	"goldcross/internal/store"
	"goldcross/internal/strategy"
	"goldcross/internal/util"
)

func main() {
	cfgPath := flag.String("config", defaultConfigPath(), "path to YAML config")
	csvDir := flag.String("csv", "", "override CSV data directory")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

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

	symbols, series, err := loadBars(cfg, *csvDir)
	if err != nil {
		log.Fatalf("failed to load bars: %v", err)
	}

	runner, err := backtest.NewRunner(cfg.Trading.Cash, auditLog, orders, trades)
	if err != nil {
		log.Fatalf("failed to create runner: %v", err)
	}
	for _, spec := range cfg.Strategies {
		ev, err := strategy.FromSpec(spec)
		if err != nil {
			log.Fatalf("invalid strategy config: %v", err)
		}
		if err := runner.AddStrategy(ev, spec.InvestmentFraction); err != nil {
			log.Fatalf("failed to add strategy: %v", err)
		}
	}

	result, err := runner.Run(context.Background(), symbols, series)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	fmt.Printf("steps:        %d\n", result.Steps)
	fmt.Printf("assets:       %d\n", len(symbols))
	fmt.Printf("initial cash: %.2f\n", result.InitialCash)
	fmt.Printf("final equity: %.2f\n", result.FinalEquity)
	fmt.Printf("total return: %.2f%%\n", result.TotalReturn*100)
	fmt.Printf("trades:       %d (%d wins, %.0f%% win rate)\n",
		result.Trades, result.Wins, result.WinRate*100)
	fmt.Printf("max drawdown: %.2f%%\n", result.MaxDrawdown*100)
	fmt.Printf("audit log:    %s\n", cfg.Audit.LogPath)
}

func defaultConfigPath() string {
	if p := os.Getenv("GOLDCROSS_CONFIG"); p != "" {
		return p
	}
	return "config/goldcross.yaml"
}

// loadBars reads the replay data set: a directory of per-symbol CSV files
// when one is configured (or passed via -csv), the parquet archive
// otherwise.
func loadBars(cfg *config.Config, csvOverride string) ([]string, map[string][]domain.Bar, error) {
	start, err := parseDate(cfg.Trading.StartDate)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := parseDate(cfg.Trading.EndDate)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end_date: %w", err)
	}

	dir := cfg.Storage.CSVDir
	if csvOverride != "" {
		dir = csvOverride
	}
	if dir != "" {
		return store.LoadCSVDir(dir, start, end)
	}

	if start.IsZero() || end.IsZero() {
		return nil, nil, fmt.Errorf("start_date and end_date are required when reading the parquet archive")
	}
	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	series := make(map[string][]domain.Bar, len(cfg.Trading.Symbols))
	for _, symbol := range cfg.Trading.Symbols {
		bars, err := pstore.ReadBars(context.Background(), symbol, start, end)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s bars: %w", symbol, err)
		}
		if len(bars) > 0 {
			series[symbol] = bars
		}
	}
	return cfg.Trading.Symbols, series, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
