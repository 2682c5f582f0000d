package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/djmoore711/brandfetch-mcp/domain/resolve"
	"github.com/djmoore711/brandfetch-mcp/ports"
)

// Resolver turns brand names into candidate domains. The pure heuristics
// in domain/resolve always run; an optional search provider can append
// better-informed candidates. Provider failures degrade to heuristics
// alone and never fail the request.
type Resolver struct {
	provider ports.SearchProvider // may be nil
	logger   zerolog.Logger
}

// NewResolver creates a resolver. provider may be nil.
func NewResolver(provider ports.SearchProvider, logger zerolog.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		logger:   logger.With().Str("component", "resolver").Logger(),
	}
}

// Candidates returns an ordered, de-duplicated candidate list for a name.
// Provider-sourced domains rank first since they reflect real data;
// heuristic guesses follow. An empty result means resolution failed.
func (r *Resolver) Candidates(ctx context.Context, name string) []string {
	heuristic := resolve.Candidates(name)

	var informed []string
	if r.provider != nil {
		domains, err := r.provider.TopDomains(ctx, name, resolve.MaxCandidates)
		if err != nil {
			r.logger.Warn().Err(err).Str("name", name).Msg("search provider failed, using heuristics only")
		} else {
			informed = domains
		}
	}

	seen := make(map[string]bool, len(informed)+len(heuristic))
	out := make([]string, 0, len(informed)+len(heuristic))
	for _, list := range [][]string{informed, heuristic} {
		for _, d := range list {
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
