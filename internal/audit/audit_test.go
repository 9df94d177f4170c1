package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecordPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "operations.log")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer log.Close()

	ts := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	events := []string{"BUY SUBMITTED", "BUY EXECUTED", "SELL SUBMITTED", "SELL EXECUTED"}
	for _, e := range events {
		if err := log.Record(ts, "%s, ASSET: %s", e, "AAPL"); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(events) {
		t.Fatalf("expected %d lines, got %d", len(events), len(lines))
	}
	for i, e := range events {
		want := "2021-03-04, " + e + ", ASSET: AAPL"
		if lines[i] != want {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want)
		}
	}
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operations.log")
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := log.Record(ts, "first"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	log.Close()

	log, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := log.Record(ts, "second"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	log.Close()

	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("expected 2 lines after reopen, got %d", got)
	}
}
