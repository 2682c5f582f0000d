// Package brand defines the typed brand records returned by the upstream
// provider, plus domain normalization. All functions are pure.
package brand

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDomain indicates the input could not be normalized into a
// plausible domain name.
var ErrInvalidDomain = errors.New("invalid domain")

// Profile is the full brand record from the metered endpoint.
// Missing fields decode to zero values.
type Profile struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Domain       string  `json:"domain"`
	Description  string  `json:"description,omitempty"`
	LongDesc     string  `json:"longDescription,omitempty"`
	Claimed      bool    `json:"claimed"`
	QualityScore float64 `json:"qualityScore,omitempty"`
	Company      Company `json:"company,omitempty"`
	Logos        []Logo  `json:"logos,omitempty"`
	Colors       []Color `json:"colors,omitempty"`
	Fonts        []Font  `json:"fonts,omitempty"`
	Links        []Link  `json:"links,omitempty"`
	Images       []Image `json:"images,omitempty"`
}

// Company holds company-level metadata attached to a profile.
type Company struct {
	Employees   int      `json:"employees,omitempty"`
	FoundedYear int      `json:"foundedYear,omitempty"`
	Industries  []string `json:"industries,omitempty"`
	Location    Location `json:"location,omitempty"`
}

// Location is a company location.
type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Logo is one logo asset, possibly available in several formats.
type Logo struct {
	Type    string       `json:"type,omitempty"`  // "logo", "icon", "symbol"
	Theme   string       `json:"theme,omitempty"` // "light", "dark"
	Formats []LogoFormat `json:"formats,omitempty"`
}

// LogoFormat is a single downloadable rendition of a logo.
type LogoFormat struct {
	Src        string `json:"src"`
	Format     string `json:"format,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Background string `json:"background,omitempty"`
}

// Color is one entry of the brand palette.
type Color struct {
	Hex        string `json:"hex"`
	Type       string `json:"type,omitempty"` // "brand", "accent", "dark", "light"
	Brightness int    `json:"brightness,omitempty"`
}

// Font is a typography entry.
type Font struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"` // "title", "body"
	Origin string `json:"origin,omitempty"`
}

// Link is a social or web link attached to a brand.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Image is an additional brand image (banner, screenshot).
type Image struct {
	Type    string       `json:"type,omitempty"`
	Formats []LogoFormat `json:"formats,omitempty"`
}

// LogoResult is the payload of a successful unmetered logo-by-domain
// lookup: the best candidate image URL plus any alternates.
type LogoResult struct {
	Domain  string   `json:"domain"`
	LogoURL string   `json:"logo_url"`
	Others  []string `json:"other_urls,omitempty"`
}

// SearchResult is one entry from the metered search endpoint.
type SearchResult struct {
	BrandID string `json:"brandId,omitempty"`
	Name    string `json:"name"`
	Domain  string `json:"domain"`
	Icon    string `json:"icon,omitempty"`
	Claimed bool   `json:"claimed"`
}

/// NormalizeDomain validates and canonicalizes a domain string: scheme,
// port, "www." prefix, path, and trailing slashes are stripped and the
// result is lowercased. Returns ErrInvalidDomain when the result does not
// contain a dot or is shorter than 4 characters.
func NormalizeDomain(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidDomain)
	}

	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.ToLower(d)
	d = strings.TrimPrefix(d, "www.")
	d = strings.Trim(d, "/ \t")

	// Drop any path component.
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	// Drop a port suffix (localhost:3000 -> localhost).
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}

	if !strings.Contains(d, ".") || len(d) < 4 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	return d, nil
}
