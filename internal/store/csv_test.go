package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2021-01-04,99.0,101.0,98.0,100.0,100.0,1000
2021-01-05,100.0,103.0,99.0,102.0,102.0,1100
2021-01-06,102.0,104.0,101.0,103.0,103.0,1200
`

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoadCSVDir(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "aapl.csv", sampleCSV)
	writeCSV(t, dir, "msft.csv", sampleCSV)
	writeCSV(t, dir, "notes.txt", "not a csv")

	symbols, bars, err := LoadCSVDir(dir, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("LoadCSVDir failed: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Fatalf("expected [AAPL MSFT], got %v", symbols)
	}
	aapl := bars["AAPL"]
	if len(aapl) != 3 {
		t.Fatalf("expected 3 AAPL bars, got %d", len(aapl))
	}
	if aapl[0].Symbol != "AAPL" || aapl[0].Close != 100 || aapl[0].Volume != 1000 {
		t.Errorf("unexpected first bar: %+v", aapl[0])
	}
	if !aapl[1].Timestamp.Equal(time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected second bar timestamp: %v", aapl[1].Timestamp)
	}
}

func TestLoadCSVDirDateFilter(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "aapl.csv", sampleCSV)

	start := time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC)
	_, bars, err := LoadCSVDir(dir, start, end)
	if err != nil {
		t.Fatalf("LoadCSVDir failed: %v", err)
	}
	if got := bars["AAPL"]; len(got) != 1 || got[0].Close != 102 {
		t.Fatalf("expected single bar at 2021-01-05, got %+v", got)
	}
}

func TestLoadCSVDirEmpty(t *testing.T) {
	symbols, bars, err := LoadCSVDir(t.TempDir(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("LoadCSVDir failed: %v", err)
	}
	if len(symbols) != 0 || len(bars) != 0 {
		t.Errorf("expected no data, got symbols=%v bars=%v", symbols, bars)
	}
}
