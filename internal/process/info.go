package process

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/portsweep/portsweep/internal/port"
)

// Info holds detail about a running process, looked up per PID on
// demand. Fields the platform cannot provide stay zero.
type Info struct {
	PID       int
	PPID      int
	Name      string
	Command   string // full command line
	User      string
	StartTime time.Time
}

// InfoFetcher retrieves process detail via ps on Unix and tasklist on
// Windows.
type InfoFetcher struct {
	runner port.CmdRunner
	goos   string
}

// NewInfoFetcher creates an InfoFetcher for the current platform.
func NewInfoFetcher(runner port.CmdRunner) *InfoFetcher {
	return &InfoFetcher{runner: runner, goos: runtime.GOOS}
}

// GetInfo retrieves detail for a process. Unlike port scanning this is
// a user-initiated lookup, so failures are surfaced.
func (f *InfoFetcher) GetInfo(ctx context.Context, pid int) (*Info, error) {
	if f.goos == "windows" {
		return f.getInfoWindows(ctx, pid)
	}
	return f.getInfoUnix(ctx, pid)
}

func (f *InfoFetcher) getInfoUnix(ctx context.Context, pid int) (*Info, error) {
	out, err := f.runner.Run(ctx, "ps", "-p", strconv.Itoa(pid), "-o", "pid=,ppid=,user=,lstart=,command=")
	if err != nil {
		return nil, fmt.Errorf("failed to get process info for PID %d: %w", pid, err)
	}

	line := strings.TrimSpace(string(out))
	if line == "" {
		return nil, fmt.Errorf("process %d not found", pid)
	}

	info, err := parsePsLine(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse process info: %w", err)
	}

	// Short name via a second, simpler ps call.
	if nameOut, err := f.runner.Run(ctx, "ps", "-p", strconv.Itoa(pid), "-o", "comm="); err == nil {
		name := strings.TrimSpace(string(nameOut))
		if name != "" {
			parts := strings.Split(name, "/")
			info.Name = parts[len(parts)-1]
		}
	}

	return info, nil
}

func (f *InfoFetcher) getInfoWindows(ctx context.Context, pid int) (*Info, error) {
	filter := fmt.Sprintf("PID eq %d", pid)
	out, err := f.runner.Run(ctx, "tasklist", "/FI", filter, "/FO", "CSV", "/NH")
	if err != nil {
		return nil, fmt.Errorf("failed to get process info for PID %d: %w", pid, err)
	}

	names := port.ParseTasklistOutput(string(out))
	name, ok := names[pid]
	if !ok {
		return nil, fmt.Errorf("process %d not found", pid)
	}

	return &Info{
		PID:     pid,
		Name:    port.DecodeName(name),
		Command: port.DecodeName(name),
	}, nil
}

// parsePsLine parses the output of ps -o pid=,ppid=,user=,lstart=,command=
// Layout: PID PPID USER <lstart, 5 tokens> COMMAND...
func parsePsLine(line string) (*Info, error) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return nil, fmt.Errorf("unexpected ps output format: %q", line)
	}

	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse PID: %w", err)
	}

	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("failed to parse PPID: %w", err)
	}

	// lstart spans fields[3:8], e.g. "Thu Feb 13 10:30:00 2026".
	startTime, err := time.Parse("Mon Jan 2 15:04:05 2006", strings.Join(fields[3:8], " "))
	if err != nil {
		startTime = time.Time{}
	}

	return &Info{
		PID:       pid,
		PPID:      ppid,
		User:      fields[2],
		StartTime: startTime,
		Command:   strings.Join(fields[8:], " "),
	}, nil
}
