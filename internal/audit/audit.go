// Package audit writes the append-only operations log: one human-readable
// line per order event, in strict chronological order. The log is the
// after-the-fact reconciliation trail for the ledger and the funds guard,
// so line order matching event order is a correctness requirement, not a
// cosmetic one.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Log appends timestamped records to a single file. Each record is written
// with one unbuffered call, so lines land on disk in call order. Safe for
// concurrent use.
type Log struct {
	mu sync.Mutex
	f  *os.File
}

// Open creates (or appends to) the log file at path, creating parent
// directories as needed.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Log{f: f}, nil
}

// Record appends one line: "<date>, <formatted message>". ts is the event's
// bar date, not the wall clock, so backtests produce the same log as the
// original run would have.
func (l *Log) Record(ts time.Time, format string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s, %s\n", ts.Format("2006-01-02"), fmt.Sprintf(format, args...))
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
