package brandfetch

import "strings"

// The logo endpoint's response shape is not pinned down by the provider,
// so candidate image URLs are collected by walking the decoded payload.
// Order is preserved and duplicates dropped.

var imageExtensions = []string{".png", ".svg", ".jpg", ".jpeg", ".webp", ".gif", ".ico"}

// imageURLs collects candidate image URLs from a decoded JSON value.
// Preferred top-level keys are scanned before the whole payload.
func imageURLs(payload any) []string {
	if m, ok := payload.(map[string]any); ok {
		for _, key := range []string{"logo", "logos", "image", "images", "icon", "icons", "data", "brand"} {
			if v, ok := m[key]; ok {
				if found := collectURLs(v, nil); len(found) > 0 {
					return found
				}
			}
		}
	}
	return collectURLs(payload, nil)
}

func collectURLs(v any, acc []string) []string {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "http://") || strings.HasPrefix(val, "https://") {
			acc = appendUnique(acc, val)
		}
	case map[string]any:
		for _, inner := range val {
			acc = collectURLs(inner, acc)
		}
	case []any:
		for _, inner := range val {
			acc = collectURLs(inner, acc)
		}
	}
	return acc
}

func appendUnique(acc []string, u string) []string {
	for _, existing := range acc {
		if existing == u {
			return acc
		}
	}
	return append(acc, u)
}

// matchesDomain reports whether any candidate URL, or the payload's own
// domain/host fields, plausibly belong to the requested domain.
func matchesDomain(domain string, candidates []string, payload any) bool {
	domain = strings.ToLower(domain)
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), domain) {
			return true
		}
	}

	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	if fieldMatches(m, domain) {
		return true
	}
	for _, key := range []string{"data", "brand"} {
		if inner, ok := m[key].(map[string]any); ok && fieldMatches(inner, domain) {
			return true
		}
	}
	return false
}

func fieldMatches(m map[string]any, domain string) bool {
	for _, key := range []string{"host", "domain", "website", "url"} {
		if v, ok := m[key].(string); ok && strings.Contains(strings.ToLower(v), domain) {
			return true
		}
	}
	return false
}

// hasImageExtension reports whether a URL ends in a known image suffix.
func hasImageExtension(u string) bool {
	lower := strings.ToLower(u)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// rankCandidates orders URLs with an explicit image extension ahead of
// extensionless ones, preserving relative order within each group.
func rankCandidates(candidates []string) []string {
	ranked := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if hasImageExtension(c) {
			ranked = append(ranked, c)
		}
	}
	for _, c := range candidates {
		if !hasImageExtension(c) {
			ranked = append(ranked, c)
		}
	}
	return ranked
}
