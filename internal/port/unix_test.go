package port

import (
	"context"
	"errors"
	"testing"
)

func TestParseLsofOutput(t *testing.T) {
	input := `COMMAND     PID      USER   FD   TYPE             DEVICE SIZE/OFF NODE NAME
node       5678       dev   23u  IPv6 0x1234567890      0t0  TCP *:3000 (LISTEN)
nginx      1234      root    6u  IPv4 0x1234567891      0t0  TCP 127.0.0.1:80 (LISTEN)
chrome     2200       dev   31u  IPv4 0x1234567892      0t0  TCP 192.168.1.10:52114->93.184.216.34:443 (ESTABLISHED)
mDNSResp    100      root    5u  IPv4 0x1234567893      0t0  UDP *:5353
`

	entries := ParseLsofOutput(input)

	want := []Entry{
		{Port: 3000, Protocol: TCP, PID: 5678, Process: "node"},
		{Port: 80, Protocol: TCP, PID: 1234, Process: "nginx"},
		{Port: 5353, Protocol: UDP, PID: 100, Process: "mDNSResp"},
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

func TestParseLsofLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantPort int
		proto    Protocol
	}{
		{
			"tcp listening",
			"node       5678   dev   23u  IPv6 0xab      0t0  TCP *:3000 (LISTEN)",
			true, 3000, TCP,
		},
		{
			"tcp without listen state dropped",
			"node       5678   dev   23u  IPv6 0xab      0t0  TCP *:3000",
			false, 0, TCP,
		},
		{
			"udp always kept",
			"mDNSResp    100  root    5u  IPv4 0xcd      0t0  UDP *:5353",
			true, 5353, UDP,
		},
		{
			"escaped process name",
			`Code\x20H  4321   dev   40u  IPv4 0xef      0t0  TCP 127.0.0.1:6006 (LISTEN)`,
			true, 6006, TCP,
		},
		{
			"too few fields",
			"node 5678 dev 23u IPv6 TCP *:3000 (LISTEN)",
			false, 0, TCP,
		},
		{
			"pid not numeric",
			"node        PID   dev   23u  IPv6 0xab      0t0  TCP *:3000 (LISTEN)",
			false, 0, TCP,
		},
		{
			"no protocol token",
			"launchd       1  root    4u  unix 0xab      0t0  ff /var/run/sock extra",
			false, 0, TCP,
		},
		{
			"wildcard port",
			"rpcbind     200  root    6u  IPv4 0xab      0t0  UDP *:*",
			false, 0, UDP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := parseLsofLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if e.Port != tt.wantPort {
				t.Errorf("port: got %d, want %d", e.Port, tt.wantPort)
			}
			if e.Protocol != tt.proto {
				t.Errorf("protocol: got %q, want %q", e.Protocol, tt.proto)
			}
		})
	}
}

func TestParseLsofLine_DecodesName(t *testing.T) {
	line := `Code\x20Helper  4321  dev  40u  IPv4 0xef  0t0  TCP 127.0.0.1:6006 (LISTEN)`
	e, ok := parseLsofLine(line)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if e.Process != "Code Helper" {
		t.Errorf("process: got %q, want %q", e.Process, "Code Helper")
	}
}

func TestUnixCollector(t *testing.T) {
	input := `COMMAND     PID      USER   FD   TYPE             DEVICE SIZE/OFF NODE NAME
node       5678       dev   23u  IPv4 0x01      0t0  TCP 127.0.0.1:3000 (LISTEN)
node       5678       dev   24u  IPv6 0x02      0t0  TCP [::1]:3000 (LISTEN)
postgres    901  postgres    9u  IPv4 0x03      0t0  TCP 127.0.0.1:5432 (LISTEN)
`
	runner := &MockCmdRunner{Output: []byte(input)}

	entries := NewUnixCollector(runner).Collect(context.Background())

	// The IPv4 and IPv6 rows for PID 5678 collapse to one record.
	want := []Entry{
		{Port: 3000, Protocol: TCP, PID: 5678, Process: "node"},
		{Port: 5432, Protocol: TCP, PID: 901, Process: "postgres"},
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

func TestUnixCollector_LsofFails(t *testing.T) {
	// lsof exits 1 when no sockets are open; that is not an error the
	// caller should ever see.
	runner := &MockCmdRunner{Err: errors.New("exit status 1")}
	entries := NewUnixCollector(runner).Collect(context.Background())
	if len(entries) != 0 {
		t.Errorf("expected empty result on lsof failure, got %v", entries)
	}
}

func TestParseLsofOutput_HeaderOnly(t *testing.T) {
	input := `COMMAND     PID      USER   FD   TYPE             DEVICE SIZE/OFF NODE NAME
`
	if entries := ParseLsofOutput(input); len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestParseLsofOutput_Empty(t *testing.T) {
	if entries := ParseLsofOutput(""); len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}
