// Package filter keeps the fuzz results worth looking at. Responses whose
// length repeats across many paths are usually catch-all or error pages;
// rare lengths are kept.
package filter

import "github.com/maxvaer/intervention/internal/fuzz"

// Finding is a retained result with the size of its length bucket.
type Finding struct {
	fuzz.Result     `json:",inline"`
	OccurrenceCount int    `json:"occurrence_count"`
	Tech            string `json:"tech,omitempty"` // technology whose wordlist produced the hit
}

// Occurrence returns the results whose response length occurs at most
// threshold times. Output is grouped by ascending length and keeps
// first-encounter order inside a group. A threshold of 0 keeps nothing.
func Occurrence(results []fuzz.Result, threshold int) []Finding {
	var findings []Finding
	for _, b := range Buckets(results) {
		if b.Count() > threshold {
			continue
		}
		for _, r := range b.Results {
			findings = append(findings, Finding{Result: r, OccurrenceCount: b.Count()})
		}
	}
	return findings
}

// Results strips the occurrence counts from findings.
func Results(findings []Finding) []fuzz.Result {
	out := make([]fuzz.Result, len(findings))
	for i, f := range findings {
		out[i] = f.Result
	}
	return out
}
