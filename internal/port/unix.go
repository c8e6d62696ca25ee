package port

import (
	"context"
	"strconv"
	"strings"
)

// UnixCollector builds entries from a single lsof listing, whose lines
// already carry the owning command and PID. It serves Linux, macOS and
// anything else that ships lsof.
type UnixCollector struct {
	runner CmdRunner
}

// NewUnixCollector creates a collector backed by lsof.
func NewUnixCollector(runner CmdRunner) *UnixCollector {
	return &UnixCollector{runner: runner}
}

// Collect runs lsof over TCP and UDP sockets. lsof exits non-zero
// when nothing is open, so any failure degrades to an empty list.
func (c *UnixCollector) Collect(ctx context.Context) []Entry {
	out, err := c.runner.Run(ctx, "lsof", "-nP", "-iTCP", "-iUDP")
	if err != nil {
		return nil
	}
	return Normalize(ParseLsofOutput(string(out)))
}

// ParseLsofOutput parses columnar lsof output. Each line after the
// header has fields: COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME
func ParseLsofOutput(output string) []Entry {
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		return nil
	}

	var entries []Entry
	for _, line := range lines[1:] {
		if e, ok := parseLsofLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// parseLsofLine parses a single lsof line. The NODE column drifts
// between lsof builds, so the protocol is detected by token search
// rather than position. TCP sockets count only when the line carries
// the (LISTEN) state; UDP has no listening state and always counts.
func parseLsofLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return Entry{}, false
	}

	pid, err := strconv.Atoi(fields[1])
	if err != nil || pid < 1 {
		return Entry{}, false
	}

	var proto Protocol
	switch {
	case strings.Contains(line, "TCP"):
		proto = TCP
	case strings.Contains(line, "UDP"):
		proto = UDP
	default:
		return Entry{}, false
	}
	if proto == TCP && !strings.Contains(line, "(LISTEN)") {
		return Entry{}, false
	}

	// NAME holds address:port, optionally followed by a
	// parenthesized state as the final token.
	addr := fields[len(fields)-1]
	if strings.HasPrefix(addr, "(") {
		addr = fields[len(fields)-2]
	}
	port, ok := splitPort(addr)
	if !ok {
		return Entry{}, false
	}

	return Entry{
		Port:     port,
		Protocol: proto,
		PID:      pid,
		Process:  DecodeName(fields[0]),
	}, true
}
