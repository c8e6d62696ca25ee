package port

import "fmt"

// Protocol represents a network protocol.
type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// Entry represents a single bound port and the process that owns it.
// Within one snapshot the (Port, Protocol, PID) triple is unique.
type Entry struct {
	Port     int      // locally bound port, 1-65535
	Protocol Protocol // TCP or UDP
	PID      int      // owning process, always >= 1
	Process  string   // short process name, empty if unresolved
}

// String returns a human-readable representation of the entry.
func (e Entry) String() string {
	return fmt.Sprintf("%d/%s (PID %d, %s)", e.Port, e.Protocol, e.PID, e.Process)
}
