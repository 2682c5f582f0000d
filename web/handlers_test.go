package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/djmoore711/brandfetch-mcp/app"
	"github.com/djmoore711/brandfetch-mcp/domain/brand"
	"github.com/djmoore711/brandfetch-mcp/ports"
)

type stubService struct {
	outcome  app.Outcome
	err      error
	usage    app.UsageReport
	usageErr error
	history  []ports.UsageRecord
	lastReq  app.LookupRequest
}

func (s *stubService) Handle(_ context.Context, req app.LookupRequest) (app.Outcome, error) {
	s.lastReq = req
	return s.outcome, s.err
}

func (s *stubService) Usage(context.Context) (app.UsageReport, error) {
	return s.usage, s.usageErr
}

func (s *stubService) History(_ context.Context, n int) ([]ports.UsageRecord, error) {
	if s.usageErr != nil {
		return nil, s.usageErr
	}
	if n < len(s.history) {
		return s.history[:n], nil
	}
	return s.history, nil
}

func newTestHandler(svc *stubService) http.Handler {
	return NewHandler(Deps{Service: svc, Logger: zerolog.Nop(), Version: "test"}).Router()
}

func doLookup(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/lookup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLookup_Found(t *testing.T) {
	svc := &stubService{outcome: app.Outcome{
		Kind:   app.OutcomeFound,
		Source: app.SourceUnmetered,
		Logo:   &brand.LogoResult{Domain: "stripe.com", LogoURL: "https://cdn.example.com/s.png"},
	}}
	rec := doLookup(t, newTestHandler(svc), `{"domain":"stripe.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out app.Outcome
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Kind != app.OutcomeFound || out.Logo == nil || out.Logo.Domain != "stripe.com" {
		t.Errorf("body = %+v", out)
	}
	if svc.lastReq.Domain != "stripe.com" {
		t.Errorf("service saw request %+v", svc.lastReq)
	}
}

func TestLookup_QuotaExhausted(t *testing.T) {
	svc := &stubService{outcome: app.Outcome{
		Kind:     app.OutcomeQuotaExhausted,
		Period:   "2026-08",
		ResetsAt: time.Now().Add(48 * time.Hour),
	}}
	rec := doLookup(t, newTestHandler(svc), `{"domain":"stripe.com"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header on quota denial")
	}
}

func TestLookup_StatusByKind(t *testing.T) {
	cases := map[app.OutcomeKind]int{
		app.OutcomeFound:            http.StatusOK,
		app.OutcomeQuotaWarning:     http.StatusOK,
		app.OutcomeNotFound:         http.StatusNotFound,
		app.OutcomeResolutionFailed: http.StatusNotFound,
		app.OutcomeUpstreamError:    http.StatusBadGateway,
	}
	for kind, want := range cases {
		svc := &stubService{outcome: app.Outcome{Kind: kind}}
		rec := doLookup(t, newTestHandler(svc), `{"name":"Acme"}`)
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", kind, rec.Code, want)
		}
	}
}

func TestLookup_BadRequests(t *testing.T) {
	svc := &stubService{err: errors.New("exactly one of domain or name is required")}
	h := newTestHandler(svc)

	for name, body := range map[string]string{
		"not json":            `{{{`,
		"unknown field":       `{"host":"stripe.com"}`,
		"rejected by service": `{}`,
	} {
		rec := doLookup(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestUsage(t *testing.T) {
	svc := &stubService{usage: app.UsageReport{
		Period: "2026-08", Count: 7, Limit: 10, Remaining: 3, WarnAt: 8,
	}}
	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	rec := httptest.NewRecorder()
	newTestHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var rep app.UsageReport
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Count != 7 || rep.Remaining != 3 {
		t.Errorf("report = %+v", rep)
	}
}

func TestUsage_LedgerDown(t *testing.T) {
	svc := &stubService{usageErr: ports.ErrLedgerUnavailable}
	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	rec := httptest.NewRecorder()
	newTestHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestUsageHistory(t *testing.T) {
	svc := &stubService{history: []ports.UsageRecord{
		{Period: "2026-08", Count: 7},
		{Period: "2026-07", Count: 250},
	}}
	req := httptest.NewRequest(http.MethodGet, "/v1/usage/history?n=1", nil)
	rec := httptest.NewRecorder()
	newTestHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Periods []ports.UsageRecord `json:"periods"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Periods) != 1 || body.Periods[0].Period != "2026-08" {
		t.Errorf("periods = %+v", body.Periods)
	}
}

func TestUsageHistory_BadN(t *testing.T) {
	svc := &stubService{}
	for _, q := range []string{"n=0", "n=-3", "n=abc", "n=1000"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/usage/history?"+q, nil)
		rec := httptest.NewRecorder()
		newTestHandler(svc).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	newTestHandler(&stubService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// Ledger loss degrades health.
	rec = httptest.NewRecorder()
	newTestHandler(&stubService{usageErr: ports.ErrLedgerUnavailable}).ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d, want 503", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	newTestHandler(&stubService{}).ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("no request ID assigned")
	}

	// Caller-supplied IDs pass through.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	newTestHandler(&stubService{}).ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("request ID = %q, want abc-123", got)
	}
}
