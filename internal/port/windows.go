package port

import (
	"context"
	"strconv"
	"strings"
)

// WindowsCollector builds entries by joining the netstat connection
// table with the tasklist process table by PID.
type WindowsCollector struct {
	runner CmdRunner
}

// NewWindowsCollector creates a collector backed by netstat and tasklist.
func NewWindowsCollector(runner CmdRunner) *WindowsCollector {
	return &WindowsCollector{runner: runner}
}

// Collect runs netstat -ano for the connection table and tasklist for
// PID-to-name resolution. A netstat failure means no data; a tasklist
// failure only means entries keep empty process names.
func (c *WindowsCollector) Collect(ctx context.Context) []Entry {
	out, err := c.runner.Run(ctx, "netstat", "-ano")
	if err != nil {
		return nil
	}

	entries := Normalize(ParseNetstatOutput(string(out)))
	if len(entries) == 0 {
		return entries
	}

	nameOut, err := c.runner.Run(ctx, "tasklist", "/FO", "CSV", "/NH")
	if err != nil {
		return entries
	}
	names := ParseTasklistOutput(string(nameOut))
	for i := range entries {
		if name, ok := names[entries[i].PID]; ok {
			entries[i].Process = DecodeName(name)
		}
	}
	return entries
}

// ParseNetstatOutput parses the netstat -ano connection table. Data
// lines look like:
//
//	TCP    0.0.0.0:8080       0.0.0.0:0      LISTENING       4321
//	UDP    0.0.0.0:5353       *:*                            1234
//
// Banner and column-header lines fall out on the field count or the
// non-numeric last field.
func ParseNetstatOutput(output string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(output, "\n") {
		if e, ok := parseNetstatLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// parseNetstatLine parses one connection-table line. Columns are
// Proto, Local Address, Foreign Address, State, PID with the PID
// always last; UDP rows carry no state, so only TCP rows are held to
// the LISTENING filter.
func parseNetstatLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Entry{}, false
	}

	var proto Protocol
	switch strings.ToUpper(fields[0]) {
	case "TCP":
		proto = TCP
	case "UDP":
		proto = UDP
	default:
		return Entry{}, false
	}

	pidField := fields[len(fields)-1]
	if !allDigits(pidField) {
		return Entry{}, false
	}
	pid, _ := strconv.Atoi(pidField)
	if pid == 0 {
		// PID 0 is the system idle placeholder.
		return Entry{}, false
	}

	if proto == TCP && !strings.EqualFold(fields[3], "LISTENING") {
		return Entry{}, false
	}

	port, ok := splitPort(fields[1])
	if !ok {
		return Entry{}, false
	}

	return Entry{Port: port, Protocol: proto, PID: pid}, true
}

// ParseTasklistOutput parses tasklist /FO CSV /NH output into a PID to
// image-name map. Lines look like:
//
//	"svchost.exe","1040","Services","0","12,345 K"
//
// Lines that do not match the quoted shape are skipped.
func ParseTasklistOutput(output string) map[int]string {
	names := make(map[int]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, `"`) {
			continue
		}
		fields := strings.Split(line, `","`)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(strings.Trim(fields[1], `"`))
		if err != nil {
			continue
		}
		names[pid] = strings.TrimPrefix(fields[0], `"`)
	}
	return names
}

// splitPort extracts the port from an address of the form host:port or
// [v6]:port by splitting on the last colon.
func splitPort(addr string) (int, bool) {
	idx := strings.LastIndex(addr, ":")
	if idx == -1 {
		return 0, false
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
