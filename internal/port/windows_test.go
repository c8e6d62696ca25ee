package port

import (
	"context"
	"errors"
	"testing"
)

func TestParseNetstatOutput(t *testing.T) {
	input := `
Active Connections

  Proto  Local Address          Foreign Address        State           PID
  TCP    0.0.0.0:8080           0.0.0.0:0              LISTENING       4321
  TCP    0.0.0.0:135            0.0.0.0:0              LISTENING       1040
  TCP    192.168.1.10:49731     93.184.216.34:443      ESTABLISHED     2200
  TCP    [::]:445               [::]:0                 LISTENING       4
  UDP    0.0.0.0:5353           *:*                    -               2876
`

	entries := ParseNetstatOutput(input)

	want := []Entry{
		{Port: 8080, Protocol: TCP, PID: 4321},
		{Port: 135, Protocol: TCP, PID: 1040},
		{Port: 445, Protocol: TCP, PID: 4},
		{Port: 5353, Protocol: UDP, PID: 2876},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(entries), entries)
	}
	for i, w := range want {
		if entries[i] != w {
			t.Errorf("[%d] got %+v, want %+v", i, entries[i], w)
		}
	}
}

func TestParseNetstatLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantPort int
		wantPID  int
		proto    Protocol
	}{
		{"tcp listening", "TCP    0.0.0.0:8080    0.0.0.0:0    LISTENING    4321", true, 8080, 4321, TCP},
		{"tcp lowercase state", "TCP    0.0.0.0:80    0.0.0.0:0    listening    22", true, 80, 22, TCP},
		{"tcp established dropped", "TCP    10.0.0.5:49731    1.2.3.4:443    ESTABLISHED    2200", false, 0, 0, TCP},
		{"udp no state kept", "UDP    0.0.0.0:5353    *:*    -    2876", true, 5353, 2876, UDP},
		{"pid not numeric", "TCP    0.0.0.0:8080    0.0.0.0:0    LISTENING    N/A", false, 0, 0, TCP},
		{"pid zero dropped", "TCP    0.0.0.0:445    0.0.0.0:0    LISTENING    0", false, 0, 0, TCP},
		{"ipv6 bracket address", "TCP    [::1]:5432    [::]:0    LISTENING    900", true, 5432, 900, TCP},
		{"unknown protocol", "RAW    0.0.0.0:0    *:*    -    4", false, 0, 0, TCP},
		{"too few fields", "TCP    0.0.0.0:8080    LISTENING    4321", false, 0, 0, TCP},
		{"no port in address", "TCP    localhost    0.0.0.0:0    LISTENING    4321", false, 0, 0, TCP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := parseNetstatLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if e.Port != tt.wantPort {
				t.Errorf("port: got %d, want %d", e.Port, tt.wantPort)
			}
			if e.PID != tt.wantPID {
				t.Errorf("pid: got %d, want %d", e.PID, tt.wantPID)
			}
			if e.Protocol != tt.proto {
				t.Errorf("protocol: got %q, want %q", e.Protocol, tt.proto)
			}
		})
	}
}

func TestParseTasklistOutput(t *testing.T) {
	input := `"System Idle Process","0","Services","0","8 K"
"svchost.exe","1040","Services","0","12,345 K"
"Code\x20Helper.exe","4321","Console","1","150,204 K"
INFO: No tasks are running which match the specified criteria.
not,quoted,line
`

	names := ParseTasklistOutput(input)

	if got := names[1040]; got != "svchost.exe" {
		t.Errorf("1040: got %q, want %q", got, "svchost.exe")
	}
	if got := names[4321]; got != `Code\x20Helper.exe` {
		t.Errorf("4321: got %q, want raw escaped name", got)
	}
	if _, ok := names[0]; !ok {
		t.Errorf("expected PID 0 present in the raw name map")
	}
	if len(names) != 3 {
		t.Errorf("expected 3 parsed rows, got %d", len(names))
	}
}

func TestWindowsCollector(t *testing.T) {
	netstat := `  Proto  Local Address          Foreign Address        State           PID
  TCP    0.0.0.0:8080           0.0.0.0:0              LISTENING       4321
  TCP    [::]:8080              [::]:0                 LISTENING       4321
  TCP    0.0.0.0:3000           0.0.0.0:0              LISTENING       5678
`
	tasklist := `"Code\x20Helper.exe","4321","Console","1","150,204 K"
"node.exe","5678","Console","1","80,112 K"
`

	runner := &MultiMockCmdRunner{Responses: map[string]MockResponse{
		"netstat -ano":         {Output: []byte(netstat)},
		"tasklist /FO CSV /NH": {Output: []byte(tasklist)},
	}}

	entries := NewWindowsCollector(runner).Collect(context.Background())

	want := []Entry{
		{Port: 3000, Protocol: TCP, PID: 5678, Process: "node.exe"},
		{Port: 8080, Protocol: TCP, PID: 4321, Process: "Code Helper.exe"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(entries), entries)
	}
	for i, w := range want {
		if entries[i] != w {
			t.Errorf("[%d] got %+v, want %+v", i, entries[i], w)
		}
	}
}

func TestWindowsCollector_NetstatFails(t *testing.T) {
	runner := &MockCmdRunner{Err: errors.New("exec: \"netstat\": executable file not found")}
	entries := NewWindowsCollector(runner).Collect(context.Background())
	if len(entries) != 0 {
		t.Errorf("expected empty result on netstat failure, got %v", entries)
	}
}

func TestWindowsCollector_TasklistFails(t *testing.T) {
	netstat := `  TCP    0.0.0.0:8080    0.0.0.0:0    LISTENING    4321
`
	runner := &MultiMockCmdRunner{Responses: map[string]MockResponse{
		"netstat -ano":         {Output: []byte(netstat)},
		"tasklist /FO CSV /NH": {Err: errors.New("access denied")},
	}}

	entries := NewWindowsCollector(runner).Collect(context.Background())

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Process != "" {
		t.Errorf("expected empty process name when tasklist fails, got %q", entries[0].Process)
	}
	if entries[0].Port != 8080 || entries[0].PID != 4321 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}
