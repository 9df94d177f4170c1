package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"goldcross/internal/domain"
)

// LoadCSVDir loads Yahoo-Finance-style daily CSV files from a directory,
// one asset per file, named <SYMBOL>.csv. Bars outside [start, end] are
// dropped; a zero start or end leaves that side unbounded. It returns the
// symbols sorted alphabetically (the run's fixed asset order) and each
// symbol's bars sorted by date.
//
// Expected header: Date,Open,High,Low,Close,Adj Close,Volume. The Adj Close
// column is optional.
func LoadCSVDir(dir string, start, end time.Time) ([]string, map[string][]domain.Bar, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv directory: %w", err)
	}

	var symbols []string
	series := make(map[string][]domain.Bar)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		bars, err := loadCSVFile(filepath.Join(dir, e.Name()), symbol, start, end)
		if err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", e.Name(), err)
		}
		if len(bars) == 0 {
			continue
		}
		symbols = append(symbols, symbol)
		series[symbol] = bars
	}
	sort.Strings(symbols)
	return symbols, series, nil
}

func loadCSVFile(path, symbol string, start, end time.Time) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var bars []domain.Bar
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		ts, err := time.Parse("2006-01-02", record[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", record[col["date"]], err)
		}
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}

		bar := domain.Bar{Symbol: symbol, Timestamp: ts}
		if bar.Open, err = strconv.ParseFloat(record[col["open"]], 64); err != nil {
			return nil, fmt.Errorf("parsing open: %w", err)
		}
		if bar.High, err = strconv.ParseFloat(record[col["high"]], 64); err != nil {
			return nil, fmt.Errorf("parsing high: %w", err)
		}
		if bar.Low, err = strconv.ParseFloat(record[col["low"]], 64); err != nil {
			return nil, fmt.Errorf("parsing low: %w", err)
		}
		if bar.Close, err = strconv.ParseFloat(record[col["close"]], 64); err != nil {
			return nil, fmt.Errorf("parsing close: %w", err)
		}
		if bar.Volume, err = strconv.ParseInt(record[col["volume"]], 10, 64); err != nil {
			return nil, fmt.Errorf("parsing volume: %w", err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}
