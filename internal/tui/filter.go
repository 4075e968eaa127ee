package tui

import (
	"strings"

	"github.com/Suveerkh/CareerMate/internal/history"
)

// visibleProbes returns the probe records matching the filter query. Every
// space-separated term must match the endpoint, tier, outcome or cause.
func (m model) visibleProbes() []history.Record {
	terms := strings.Fields(strings.ToLower(m.filterQuery))
	if len(terms) == 0 {
		return m.probes
	}

	out := make([]history.Record, 0, len(m.probes))
	for _, r := range m.probes {
		if matchesAll(r, terms) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r history.Record, terms []string) bool {
	haystack := strings.ToLower(strings.Join([]string{r.Endpoint, r.URL, r.Tier, r.Outcome, r.Cause}, " "))
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}
