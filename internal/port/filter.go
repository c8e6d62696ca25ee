package port

import (
	"strconv"
	"strings"
)

// Match returns the entries whose stringified port, lower-cased process
// name, or stringified PID contains the query as a case-insensitive
// substring. An empty query matches everything.
func Match(entries []Entry, query string) []Entry {
	if query == "" {
		return entries
	}
	q := strings.ToLower(query)
	var matched []Entry
	for _, e := range entries {
		if strings.Contains(strconv.Itoa(e.Port), q) ||
			strings.Contains(strings.ToLower(e.Process), q) ||
			strings.Contains(strconv.Itoa(e.PID), q) {
			matched = append(matched, e)
		}
	}
	return matched
}
