package port

import "sort"

// dedupKey identifies one logical socket. The OS utilities may report
// the same socket several times (once per address family, for example).
type dedupKey struct {
	port  int
	proto Protocol
	pid   int
}

// Normalize collapses duplicate reports of one logical socket and
// orders the result ascending by port. The first entry seen for a
// (port, protocol, PID) triple wins; ties keep their input order.
func Normalize(entries []Entry) []Entry {
	seen := make(map[dedupKey]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := dedupKey{e.Port, e.Protocol, e.PID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Port < out[j].Port
	})
	return out
}
