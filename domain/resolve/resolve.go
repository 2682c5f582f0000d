// Package resolve maps free-text brand names to candidate domains.
// Heuristic, best-effort, and deterministic: the same name always yields
// the same ordered candidate list. All functions are pure.
package resolve

import (
	"regexp"
	"strings"
)

// MaxCandidates caps the heuristic candidate list.
const MaxCandidates = 5

// commonTLDs are tried in order of likelihood. ".com" first so that
// suffix-stripped names resolve to the conventional candidate.
var commonTLDs = []string{".com", ".co", ".io", ".net", ".org", ".app", ".dev"}

// corporateSuffixes are trailing tokens stripped before domain guessing.
// Ordered longest-first so "corporation" is removed before "corp".
var corporateSuffixes = []string{
	"corporation", "incorporated", "limited", "company", "group",
	"studio", "labs", "corp", "ltd", "llc", "inc", "co",
}

var nonWordRE = regexp.MustCompile(`[^a-z0-9\s-]`)

// Normalize reduces a brand name to the compact token used for domain
// guessing: lowercased, punctuation removed, corporate suffixes stripped,
// whitespace and hyphens collapsed away.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}

	n = nonWordRE.ReplaceAllString(n, "")

	fields := strings.Fields(n)
	for len(fields) > 1 {
		last := strings.Trim(fields[len(fields)-1], "-")
		if !isCorporateSuffix(last) {
			break
		}
		fields = fields[:len(fields)-1]
	}
	n = strings.Join(fields, "")
	n = strings.ReplaceAll(n, "-", "")

	// A collapsed name may still carry a glued suffix ("acmecorp"). Keep
	// at least four characters so short real names ("cisco") survive.
	for _, suffix := range corporateSuffixes {
		if trimmed := strings.TrimSuffix(n, suffix); trimmed != n && len(trimmed) >= 4 {
			n = trimmed
			break
		}
	}
	return n
}

func isCorporateSuffix(token string) bool {
	for _, s := range corporateSuffixes {
		if token == s {
			return true
		}
	}
	return false
}

// Candidates generates an ordered list of plausible domains for a brand
// name. Empty or unresolvable names yield an empty list; the caller
// surfaces that as a resolution failure.
func Candidates(name string) []string {
	normalized := Normalize(name)
	if normalized == "" {
		return nil
	}

	candidates := make([]string, 0, MaxCandidates)
	for _, tld := range commonTLDs {
		if len(candidates) == MaxCandidates {
			break
		}
		candidates = append(candidates, normalized+tld)
	}
	return candidates
}
