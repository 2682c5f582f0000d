package app

import (
	"time"

	"github.com/djmoore711/brandfetch-mcp/domain/brand"
	"github.com/djmoore711/brandfetch-mcp/domain/quota"
)

// OutcomeKind tags the result of a lookup. Callers switch on the kind
// rather than inspecting payload fields.
type OutcomeKind string

const (
	// OutcomeFound is a successful lookup with no caveats.
	OutcomeFound OutcomeKind = "found"
	// OutcomeQuotaWarning is a successful metered lookup with consumption
	// past the warning threshold.
	OutcomeQuotaWarning OutcomeKind = "quota_warning"
	// OutcomeQuotaExhausted means the metered endpoint was required but
	// the monthly budget is spent; no upstream call was made.
	OutcomeQuotaExhausted OutcomeKind = "quota_exhausted"
	// OutcomeNotFound means neither endpoint resolved the brand.
	OutcomeNotFound OutcomeKind = "not_found"
	// OutcomeResolutionFailed means the name produced no candidate domains.
	OutcomeResolutionFailed OutcomeKind = "resolution_failed"
	// OutcomeUpstreamError is a transient provider failure. The caller
	// may retry later; this engine does not.
	OutcomeUpstreamError OutcomeKind = "upstream_error"
)

// Source identifies which endpoint served a successful lookup.
type Source string

const (
	SourceUnmetered Source = "unmetered"
	SourceMetered   Source = "metered"
	SourceCache     Source = "cache"
)

// Outcome is the tagged result of one lookup request.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Source Source      `json:"source,omitempty"`

	// Exactly one payload field is set on success, depending on the path
	// that produced it.
	Logo    *brand.LogoResult    `json:"logo,omitempty"`
	Profile *brand.Profile       `json:"profile,omitempty"`
	Matches []brand.SearchResult `json:"matches,omitempty"`

	// Quota context, set on metered successes and quota denials.
	Remaining int64        `json:"remaining,omitempty"`
	Period    quota.Period `json:"period,omitempty"`
	Limit     int64        `json:"limit,omitempty"`
	ResetsAt  time.Time    `json:"resets_at,omitempty"`

	// Diagnostic context for misses and failures.
	DomainsTried []string `json:"domains_tried,omitempty"`
	Name         string   `json:"name,omitempty"`
	Detail       string   `json:"detail,omitempty"`
}

// Success reports whether the outcome carries a usable payload.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeFound || o.Kind == OutcomeQuotaWarning
}
