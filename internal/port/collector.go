package port

import (
	"context"
	"runtime"
)

// Collector gathers raw socket-to-process mappings for one platform
// family. Collection is best-effort: a collector never returns an
// error, it degrades to an empty or partial list instead.
type Collector interface {
	Collect(ctx context.Context) []Entry
}

// collectorFor picks the collector for a GOOS value. Windows gets the
// netstat/tasklist collector; every other platform, recognized or not,
// falls through to the lsof collector. There is deliberately no error
// branch here.
func collectorFor(goos string, runner CmdRunner) Collector {
	if goos == "windows" {
		return NewWindowsCollector(runner)
	}
	return NewUnixCollector(runner)
}

// Scanner is the enumeration entry point consumed by the CLI and TUI.
type Scanner struct {
	collector Collector
}

// NewScanner creates a scanner for the platform the binary runs on.
func NewScanner(runner CmdRunner) *Scanner {
	return NewScannerFor(runtime.GOOS, runner)
}

// NewScannerFor creates a scanner for an explicit GOOS value.
func NewScannerFor(goos string, runner CmdRunner) *Scanner {
	return &Scanner{collector: collectorFor(goos, runner)}
}

// Snapshot returns a one-shot view of the ports currently bound on
// this machine. Each call runs the underlying utilities afresh; the
// returned slice is owned by the caller. Snapshot never fails.
func (s *Scanner) Snapshot(ctx context.Context) []Entry {
	return s.collector.Collect(ctx)
}
