// Package detect identifies the web technologies running on a target.
package detect

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TechDetector reports the distinct technology identifiers found on a target.
type TechDetector interface {
	Detect(ctx context.Context, target string) ([]string, error)
}

var lower = cases.Lower(language.Und)

// Normalize turns a scanner-specific technology name into the identifier
// used for dictionary lookups, e.g. "WordPress Detect" -> "wordpress".
func Normalize(name string) string {
	n := lower.String(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "-")
	n = strings.ReplaceAll(n, "_", "-")
	n = strings.ReplaceAll(n, ".", "")
	n = strings.ReplaceAll(n, "detection", "")
	n = strings.ReplaceAll(n, "detect", "")
	for strings.Contains(n, "--") {
		n = strings.ReplaceAll(n, "--", "-")
	}
	return strings.Trim(n, "-")
}

// techSet collects normalized identifiers and returns them sorted.
type techSet map[string]struct{}

func (s techSet) add(name string) bool {
	n := Normalize(name)
	if n == "" {
		return false
	}
	if _, ok := s[n]; ok {
		return false
	}
	s[n] = struct{}{}
	return true
}

func (s techSet) sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
