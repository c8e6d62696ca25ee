package process

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/portsweep/portsweep/internal/port"
)

// protectedPIDs lists PIDs that should never be killed.
var protectedPIDs = map[int]bool{
	0: true,
	1: true,
}

// TerminationError reports that both kill paths failed for a PID.
type TerminationError struct {
	PID   int
	Cause error
}

func (e *TerminationError) Error() string {
	return fmt.Sprintf("failed to terminate PID %d: %v", e.PID, e.Cause)
}

func (e *TerminationError) Unwrap() error { return e.Cause }

// Terminator forcibly kills processes by PID. The direct OS kill is
// tried first; when that fails for any reason it shells out to the
// platform kill command.
type Terminator struct {
	runner port.CmdRunner
	goos   string
	kill   func(pid int) error
}

// NewTerminator creates a terminator for the platform the binary runs on.
func NewTerminator(runner port.CmdRunner) *Terminator {
	return &Terminator{
		runner: runner,
		goos:   runtime.GOOS,
		kill:   directKill,
	}
}

// directKill ends the process through its OS handle. This sends
// SIGKILL on Unix and calls TerminateProcess on Windows.
func directKill(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// Terminate forcibly kills the process with the given PID. A nil
// return means the kill request was issued, not that the process has
// already exited; callers wanting certainty must re-scan.
func (t *Terminator) Terminate(ctx context.Context, pid int) error {
	if pid < 1 || protectedPIDs[pid] {
		return fmt.Errorf("refusing to kill reserved PID %d", pid)
	}

	killErr := t.kill(pid)
	if killErr == nil {
		return nil
	}

	// Direct kill can fail when the signal is not permitted or the
	// process is already gone; the shell command is the second opinion.
	if fallbackErr := t.fallbackKill(ctx, pid); fallbackErr != nil {
		return &TerminationError{
			PID:   pid,
			Cause: fmt.Errorf("direct kill: %v; fallback: %w", killErr, fallbackErr),
		}
	}
	return nil
}

// fallbackKill shells out to the platform's forceful kill command.
func (t *Terminator) fallbackKill(ctx context.Context, pid int) error {
	if t.goos == "windows" {
		_, err := t.runner.Run(ctx, "taskkill", "/F", "/PID", strconv.Itoa(pid))
		return err
	}
	_, err := t.runner.Run(ctx, "kill", "-9", strconv.Itoa(pid))
	return err
}
