// Package gather fetches daily OHLCV bars from the Alpaca market-data API,
// for live trading and for backfilling the local bar archive.
package gather

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"goldcross/internal/domain"
	"goldcross/internal/store"
	"goldcross/internal/util"
)

// DailyBarFetcher pulls daily bars for a fixed symbol universe. When an
// archive store is attached, every fetched bar is also written there.
type DailyBarFetcher struct {
	client  *marketdata.Client
	archive store.BarStore // optional
	symbols []string
	seen    map[string]time.Time // newest bar timestamp delivered per symbol
	log     *slog.Logger
}

// NewDailyBarFetcher creates a fetcher with the given Alpaca credentials.
// archive may be nil to skip local persistence.
func NewDailyBarFetcher(apiKey, apiSecret, dataURL string, symbols []string, archive store.BarStore) *DailyBarFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &DailyBarFetcher{
		client:  marketdata.NewClient(opts),
		archive: archive,
		symbols: symbols,
		seen:    make(map[string]time.Time, len(symbols)),
		log:     slog.Default().With("component", "gather"),
	}
}

// Fetch pulls daily bars for every configured symbol in [start, end] and
// returns them sorted by timestamp, then symbol. The API call is retried
// with backoff on transient failures.
func (f *DailyBarFetcher) Fetch(ctx context.Context, start, end time.Time) ([]domain.Bar, error) {
	var multiBars map[string][]marketdata.Bar
	err := util.Retry(ctx, 3, 2*time.Second, func() error {
		var err error
		multiBars, err = f.client.GetMultiBars(f.symbols, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      "iex",
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching daily bars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	sort.Slice(bars, func(i, j int) bool {
		if !bars[i].Timestamp.Equal(bars[j].Timestamp) {
			return bars[i].Timestamp.Before(bars[j].Timestamp)
		}
		return bars[i].Symbol < bars[j].Symbol
	})

	if f.archive != nil && len(bars) > 0 {
		if err := f.archive.WriteBars(ctx, bars); err != nil {
			return nil, fmt.Errorf("archiving bars: %w", err)
		}
	}
	f.log.Debug("fetched daily bars", "symbols", len(f.symbols), "bars", len(bars))
	return bars, nil
}

// Latest returns each symbol's most recent completed daily bar within the
// last week, in the configured symbol order. Symbols with no recent bar
// (delistings, long halts) are absent from the result. A bar is delivered
// at most once across calls: on a weekend or holiday evaluation, when the
// market has produced nothing new since the previous call, the symbol is
// skipped so downstream indicator state never sees the same session twice.
func (f *DailyBarFetcher) Latest(ctx context.Context) ([]domain.Bar, error) {
	end := time.Now().UTC()
	bars, err := f.Fetch(ctx, end.AddDate(0, 0, -7), end)
	if err != nil {
		return nil, err
	}

	return freshBars(f.seen, latestPerSymbol(f.symbols, bars)), nil
}

// freshBars drops bars not strictly newer than the symbol's last delivered
// timestamp and advances the watermark for the bars it keeps.
func freshBars(seen map[string]time.Time, bars []domain.Bar) []domain.Bar {
	fresh := make([]domain.Bar, 0, len(bars))
	for _, bar := range bars {
		if last, ok := seen[bar.Symbol]; ok && !bar.Timestamp.After(last) {
			continue
		}
		seen[bar.Symbol] = bar.Timestamp
		fresh = append(fresh, bar)
	}
	return fresh
}

// latestPerSymbol keeps each symbol's newest bar, ordered per symbols.
func latestPerSymbol(symbols []string, bars []domain.Bar) []domain.Bar {
	newest := make(map[string]domain.Bar, len(symbols))
	for _, bar := range bars {
		if cur, ok := newest[bar.Symbol]; !ok || bar.Timestamp.After(cur.Timestamp) {
			newest[bar.Symbol] = bar
		}
	}
	latest := make([]domain.Bar, 0, len(newest))
	for _, symbol := range symbols {
		if bar, ok := newest[symbol]; ok {
			latest = append(latest, bar)
		}
	}
	return latest
}
