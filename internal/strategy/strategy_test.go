package strategy_test

import (
	"testing"
	"time"

	"goldcross/internal/config"
	"goldcross/internal/domain"
	"goldcross/internal/strategy"
)

func bar(symbol string, close float64) domain.Bar {
	return domain.Bar{Symbol: symbol, Timestamp: time.Now(), Close: close}
}

func TestSMACrossSignals(t *testing.T) {
	ev := strategy.NewSMACross(3)

	// Warm-up: no signals until the window fills.
	ev.Observe(bar("AAPL", 90))
	ev.Observe(bar("AAPL", 90))
	if ev.ShouldEnter("AAPL") || ev.ShouldExit("AAPL") {
		t.Fatal("no signal expected before warm-up completes")
	}

	// Window [90, 90, 90], close 90: exact equality fires nothing.
	ev.Observe(bar("AAPL", 90))
	if ev.ShouldEnter("AAPL") {
		t.Error("close equal to SMA must not enter")
	}
	if ev.ShouldExit("AAPL") {
		t.Error("close equal to SMA must not exit")
	}

	// Close 100 above SMA (90+90+100)/3 ≈ 93.3: enter.
	ev.Observe(bar("AAPL", 100))
	if !ev.ShouldEnter("AAPL") {
		t.Error("close above SMA should enter")
	}
	if ev.ShouldExit("AAPL") {
		t.Error("close above SMA must not exit")
	}

	// Close 80 below SMA (90+100+80)/3 = 90: exit.
	ev.Observe(bar("AAPL", 80))
	if !ev.ShouldExit("AAPL") {
		t.Error("close below SMA should exit")
	}
	if ev.ShouldEnter("AAPL") {
		t.Error("close below SMA must not enter")
	}
}

func TestSMACrossUnknownSymbol(t *testing.T) {
	ev := strategy.NewSMACross(3)
	if ev.ShouldEnter("NVDA") || ev.ShouldExit("NVDA") {
		t.Error("never-observed symbol must produce no signal")
	}
}

func TestSMACrossTracksSymbolsIndependently(t *testing.T) {
	ev := strategy.NewSMACross(2)
	for i := 0; i < 2; i++ {
		ev.Observe(bar("AAPL", 100))
		ev.Observe(bar("MSFT", 100))
	}
	ev.Observe(bar("AAPL", 200)) // AAPL above its SMA
	ev.Observe(bar("MSFT", 50))  // MSFT below its SMA

	if !ev.ShouldEnter("AAPL") {
		t.Error("AAPL should signal entry")
	}
	if !ev.ShouldExit("MSFT") {
		t.Error("MSFT should signal exit")
	}
}

func TestGoldenDeathCrossSignals(t *testing.T) {
	ev := strategy.NewGoldenDeathCross(2, 4)

	// Flat prices: short == long once warm, neither side fires.
	for i := 0; i < 4; i++ {
		ev.Observe(bar("TSLA", 100))
	}
	if ev.ShouldEnter("TSLA") {
		t.Error("equal SMAs must not enter")
	}
	if ev.ShouldExit("TSLA") {
		t.Error("equal SMAs must not exit")
	}

	// Rising price lifts the short SMA above the long: golden cross.
	ev.Observe(bar("TSLA", 120))
	if !ev.ShouldEnter("TSLA") {
		t.Error("short SMA above long should enter")
	}
	if ev.ShouldExit("TSLA") {
		t.Error("golden cross must not exit")
	}

	// A slide drags the short SMA below the long: death cross.
	ev.Observe(bar("TSLA", 60))
	ev.Observe(bar("TSLA", 60))
	if !ev.ShouldExit("TSLA") {
		t.Error("short SMA below long should exit")
	}
	if ev.ShouldEnter("TSLA") {
		t.Error("death cross must not enter")
	}
}

func TestGoldenDeathCrossWarmup(t *testing.T) {
	ev := strategy.NewGoldenDeathCross(2, 4)
	ev.Observe(bar("TSLA", 100))
	ev.Observe(bar("TSLA", 200))
	// Short window is full but the long is not: still warming up.
	if ev.ShouldEnter("TSLA") || ev.ShouldExit("TSLA") {
		t.Error("no signal until both windows fill")
	}
}

func TestEvaluatorNames(t *testing.T) {
	if got := strategy.NewSMACross(10).Name(); got != "sma-cross(10)" {
		t.Errorf("unexpected name %q", got)
	}
	if got := strategy.NewGoldenDeathCross(10, 30).Name(); got != "golden-death(10,30)" {
		t.Errorf("unexpected name %q", got)
	}
}

func TestFromSpec(t *testing.T) {
	ev, err := strategy.FromSpec(config.StrategySpec{Type: "sma-cross", Period: 30})
	if err != nil {
		t.Fatalf("FromSpec failed: %v", err)
	}
	if ev.Name() != "sma-cross(30)" {
		t.Errorf("unexpected name %q", ev.Name())
	}

	ev, err = strategy.FromSpec(config.StrategySpec{Type: "golden-death", ShortPeriod: 10, LongPeriod: 30})
	if err != nil {
		t.Fatalf("FromSpec failed: %v", err)
	}
	if ev.Name() != "golden-death(10,30)" {
		t.Errorf("unexpected name %q", ev.Name())
	}

	if _, err := strategy.FromSpec(config.StrategySpec{Type: "bollinger"}); err == nil {
		t.Error("expected error for unknown type")
	}
}
