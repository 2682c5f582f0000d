// Package brandfetch implements the upstream lookup capability ports
// against the Brandfetch HTTP API. Two independent credentials back two
// endpoint classes: the high-quota logo-by-domain endpoint and the
// low-quota brand profile/search endpoints.
package brandfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/djmoore711/brandfetch-mcp/domain/brand"
	"github.com/djmoore711/brandfetch-mcp/ports"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultLogoBaseURL  = "https://api.brandfetch.io/v2/logo"
	defaultBrandBaseURL = "https://api.brandfetch.io/v2"

	defaultLogoTimeout  = 8 * time.Second
	defaultBrandTimeout = 30 * time.Second

	// The provider counts every brand-API call; pace them so bursts of
	// concurrent fallbacks do not hammer the scarce endpoint.
	brandCallsPerSecond = 5
	brandCallBurst      = 5

	maxResponseBytes = 4 << 20
)

// Config configures the Brandfetch client.
type Config struct {
	LogoBaseURL  string
	BrandBaseURL string
	LogoKey      string
	BrandKey     string
	ClientID     string // appended to CDN URLs for hotlinking compliance
	LogoTimeout  time.Duration
	BrandTimeout time.Duration
	SearchLimit  int
}

// Client talks to both Brandfetch endpoint classes. It implements
// ports.DomainLookup and ports.BrandAPI.
type Client struct {
	logoBase    string
	brandBase   string
	logoKey     string
	brandKey    string
	clientID    string
	searchLimit int

	logoClient  *http.Client
	brandClient *http.Client
	brandRate   *rate.Limiter
	logger      zerolog.Logger
}

// New creates a Brandfetch client.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.LogoBaseURL == "" {
		cfg.LogoBaseURL = defaultLogoBaseURL
	}
	if cfg.BrandBaseURL == "" {
		cfg.BrandBaseURL = defaultBrandBaseURL
	}
	if cfg.LogoTimeout <= 0 {
		cfg.LogoTimeout = defaultLogoTimeout
	}
	if cfg.BrandTimeout <= 0 {
		cfg.BrandTimeout = defaultBrandTimeout
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}

	return &Client{
		logoBase:    cfg.LogoBaseURL,
		brandBase:   cfg.BrandBaseURL,
		logoKey:     cfg.LogoKey,
		brandKey:    cfg.BrandKey,
		clientID:    cfg.ClientID,
		searchLimit: cfg.SearchLimit,
		logoClient:  &http.Client{Timeout: cfg.LogoTimeout},
		brandClient: &http.Client{Timeout: cfg.BrandTimeout},
		brandRate:   rate.NewLimiter(rate.Limit(brandCallsPerSecond), brandCallBurst),
		logger:      logger.With().Str("component", "brandfetch").Logger(),
	}
}

// LookupByDomain calls the unmetered logo-by-domain endpoint. A candidate
// only counts as found when it plausibly belongs to the requested domain;
// an answered request with no matching candidate is a definitive miss.
func (c *Client) LookupByDomain(ctx context.Context, domain string) (brand.LogoResult, error) {
	body, status, err := c.get(ctx, c.logoClient, c.logoBase+"/"+url.PathEscape(domain), c.logoKey)
	if err != nil {
		return brand.LogoResult{}, fmt.Errorf("logo lookup %s: %w", domain, err)
	}

	switch {
	case status == http.StatusNotFound:
		return brand.LogoResult{}, fmt.Errorf("logo lookup %s: %w", domain, ports.ErrBrandNotFound)
	case status != http.StatusOK:
		return brand.LogoResult{}, fmt.Errorf("logo lookup %s: unexpected status %d", domain, status)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		// Non-JSON 200 bodies still get scanned for embedded URLs.
		payload = string(body)
	}

	candidates := rankCandidates(imageURLs(payload))
	if len(candidates) == 0 || !matchesDomain(domain, candidates, payload) {
		c.logger.Debug().Str("domain", domain).Int("candidates", len(candidates)).
			Msg("logo lookup returned no matching candidate")
		return brand.LogoResult{}, fmt.Errorf("logo lookup %s: %w", domain, ports.ErrBrandNotFound)
	}

	result := brand.LogoResult{
		Domain:  domain,
		LogoURL: c.appendClientID(candidates[0]),
	}
	for _, u := range candidates[1:] {
		result.Others = append(result.Others, c.appendClientID(u))
	}
	return result, nil
}

// LookupFull calls the metered brand-profile endpoint. One quota unit is
// consumed by provider-side accounting whether or not this succeeds.
func (c *Client) LookupFull(ctx context.Context, domain string) (brand.Profile, error) {
	if err := c.brandRate.Wait(ctx); err != nil {
		return brand.Profile{}, fmt.Errorf("brand lookup %s: %w", domain, err)
	}

	body, status, err := c.get(ctx, c.brandClient, c.brandBase+"/brands/"+url.PathEscape(domain), c.brandKey)
	if err != nil {
		return brand.Profile{}, fmt.Errorf("brand lookup %s: %w", domain, err)
	}

	switch {
	case status == http.StatusNotFound:
		return brand.Profile{}, fmt.Errorf("brand lookup %s: %w", domain, ports.ErrBrandNotFound)
	case status != http.StatusOK:
		return brand.Profile{}, fmt.Errorf("brand lookup %s: unexpected status %d", domain, status)
	}

	var profile brand.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return brand.Profile{}, fmt.Errorf("brand lookup %s: decode response: %w", domain, err)
	}

	for i := range profile.Logos {
		for j := range profile.Logos[i].Formats {
			profile.Logos[i].Formats[j].Src = c.appendClientID(profile.Logos[i].Formats[j].Src)
		}
	}
	return profile, nil
}

// Search calls the metered search endpoint and returns the provider's
// matches trimmed to the configured limit, best match first.
func (c *Client) Search(ctx context.Context, query string) ([]brand.SearchResult, error) {
	if err := c.brandRate.Wait(ctx); err != nil {
		return nil, fmt.Errorf("brand search %q: %w", query, err)
	}

	body, status, err := c.get(ctx, c.brandClient, c.brandBase+"/search/"+url.PathEscape(query), c.brandKey)
	if err != nil {
		return nil, fmt.Errorf("brand search %q: %w", query, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("brand search %q: unexpected status %d", query, status)
	}

	var results []brand.SearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("brand search %q: decode response: %w", query, err)
	}
	if len(results) > c.searchLimit {
		results = results[:c.searchLimit]
	}
	for i := range results {
		results[i].Icon = c.appendClientID(results[i].Icon)
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, client *http.Client, rawURL, key string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// appendClientID attaches the configured client ID to CDN URLs, which the
// provider requires for hotlinked assets. Non-CDN URLs pass through.
func (c *Client) appendClientID(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() != "cdn.brandfetch.io" {
		return rawURL
	}
	if c.clientID == "" {
		c.logger.Warn().Str("url", rawURL).
			Msg("returning CDN URL without client ID, set client_id for hotlinking compliance")
		return rawURL
	}
	q := parsed.Query()
	q.Set("c", c.clientID)
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// Ensure interface compliance.
var (
	_ ports.DomainLookup = (*Client)(nil)
	_ ports.BrandAPI     = (*Client)(nil)
)
