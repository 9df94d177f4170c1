// Package backtest replays historical daily bars through the strategy
// engine against the simulated order broker and summarises the outcome.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"goldcross/internal/audit"
	"goldcross/internal/broker"
	"goldcross/internal/domain"
	"goldcross/internal/engine"
	"goldcross/internal/funds"
	"goldcross/internal/store"
	"goldcross/internal/strategy"
)

// Result summarises one backtest run.
type Result struct {
	InitialCash float64
	FinalEquity float64
	TotalReturn float64 // fraction of initial cash
	Trades      int     // closed round trips
	Wins        int     // round trips with positive P&L
	WinRate     float64 // Wins / Trades, 0 when no trades closed
	MaxDrawdown float64 // worst peak-to-trough equity fraction
	Steps       int     // time steps replayed
}

// Runner owns one engine/simulator pair for the duration of a run.
type Runner struct {
	engine      *engine.Engine
	sim         *broker.Simulator
	initialCash float64
	log         *slog.Logger
}

// NewRunner builds a runner with a fresh simulator holding initialCash and
// an engine whose funds guard draws on that simulator. The order and trade
// stores may be nil.
func NewRunner(initialCash float64, auditLog *audit.Log, orders store.OrderStore, trades store.TradeStore) (*Runner, error) {
	if initialCash <= 0 {
		return nil, fmt.Errorf("backtest: initial cash must be positive, got %v", initialCash)
	}
	sim := broker.NewSimulator(initialCash)
	guard := funds.NewGuard(sim)
	eng := engine.New(sim, guard, auditLog, orders, trades)
	sim.SetSink(eng)
	return &Runner{
		engine:      eng,
		sim:         sim,
		initialCash: initialCash,
		log:         slog.Default().With("component", "backtest"),
	}, nil
}

// AddStrategy registers one strategy instance with its sizing fraction.
func (r *Runner) AddStrategy(ev strategy.Evaluator, fraction float64) error {
	_, err := r.engine.AddInstance(ev, fraction)
	return err
}

// Engine exposes the underlying engine, mainly for reporting.
func (r *Runner) Engine() *engine.Engine { return r.engine }

// Run replays the series through the engine. symbols fixes the per-step
// asset order; series maps each symbol to its bars sorted by date. Bars are
// grouped by timestamp: every step first settles orders submitted at the
// previous step (fills land at the current close), then evaluates signals.
// After the last step, still-pending orders are settled once more at the
// final closes so the run ends with no order in flight.
func (r *Runner) Run(ctx context.Context, symbols []string, series map[string][]domain.Bar) (*Result, error) {
	if len(r.engine.Instances()) == 0 {
		return nil, fmt.Errorf("backtest: no strategy instances registered")
	}

	steps := groupByTimestamp(symbols, series)
	if len(steps) == 0 {
		return nil, fmt.Errorf("backtest: no bars to replay")
	}
	r.log.Info("starting run",
		"symbols", len(symbols), "steps", len(steps),
		"strategies", len(r.engine.Instances()), "cash", r.initialCash)

	peak := r.initialCash
	maxDrawdown := 0.0
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.sim.Advance(ctx, step); err != nil {
			return nil, fmt.Errorf("settling step: %w", err)
		}
		if err := r.engine.OnBar(ctx, step); err != nil {
			return nil, fmt.Errorf("evaluating step: %w", err)
		}

		acct, err := r.sim.Account(ctx)
		if err != nil {
			return nil, err
		}
		if acct.Equity > peak {
			peak = acct.Equity
		} else if dd := (peak - acct.Equity) / peak; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	// Orders submitted on the last step would otherwise never resolve.
	if r.engine.OpenOrderCount() > 0 {
		if err := r.sim.Advance(ctx, steps[len(steps)-1]); err != nil {
			return nil, fmt.Errorf("settling final step: %w", err)
		}
	}

	acct, err := r.sim.Account(ctx)
	if err != nil {
		return nil, err
	}
	trades := r.sim.Trades()
	result := &Result{
		InitialCash: r.initialCash,
		FinalEquity: acct.Equity,
		TotalReturn: (acct.Equity - r.initialCash) / r.initialCash,
		Trades:      len(trades),
		MaxDrawdown: maxDrawdown,
		Steps:       len(steps),
	}
	for _, t := range trades {
		if t.PnL > 0 {
			result.Wins++
		}
	}
	if result.Trades > 0 {
		result.WinRate = float64(result.Wins) / float64(result.Trades)
	}
	r.log.Info("run finished",
		"equity", result.FinalEquity, "return", result.TotalReturn,
		"trades", result.Trades, "win_rate", result.WinRate,
		"max_drawdown", result.MaxDrawdown)
	for _, inst := range r.engine.Instances() {
		for _, symbol := range inst.Ledger().Symbols() {
			r.log.Info("position still open at run end",
				"strategy", inst.ID(), "symbol", symbol,
				"units", inst.Ledger().Units(symbol))
		}
	}
	return result, nil
}

// groupByTimestamp turns per-symbol series into per-step bar slices in
// chronological order. Within a step, bars follow the symbols order; a
// symbol without a bar at a timestamp (a listing gap) is simply absent
// from that step.
func groupByTimestamp(symbols []string, series map[string][]domain.Bar) [][]domain.Bar {
	byTime := make(map[time.Time]map[string]domain.Bar)
	for _, symbol := range symbols {
		for _, bar := range series[symbol] {
			step, ok := byTime[bar.Timestamp]
			if !ok {
				step = make(map[string]domain.Bar, len(symbols))
				byTime[bar.Timestamp] = step
			}
			step[symbol] = bar
		}
	}

	timestamps := make([]time.Time, 0, len(byTime))
	for ts := range byTime {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	steps := make([][]domain.Bar, 0, len(timestamps))
	for _, ts := range timestamps {
		step := make([]domain.Bar, 0, len(symbols))
		for _, symbol := range symbols {
			if bar, ok := byTime[ts][symbol]; ok {
				step = append(step, bar)
			}
		}
		steps = append(steps, step)
	}
	return steps
}
