package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/djmoore711/brandfetch-mcp/app"
	"github.com/djmoore711/brandfetch-mcp/ports"
)

const maxBodyBytes = 1 << 20

// Lookup handles POST /v1/lookup. The HTTP status mirrors the outcome
// kind; the body is always the full tagged outcome so clients can switch
// on "kind" instead of status codes.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req app.LookupRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	out, err := h.service.Handle(r.Context(), req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	switch out.Kind {
	case app.OutcomeQuotaExhausted:
		status = http.StatusTooManyRequests
		if secs := int(time.Until(out.ResetsAt).Seconds()); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	case app.OutcomeNotFound, app.OutcomeResolutionFailed:
		status = http.StatusNotFound
	case app.OutcomeUpstreamError:
		status = http.StatusBadGateway
	}

	h.writeJSON(w, status, out)
}

// Usage handles GET /v1/usage.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Usage(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("usage report failed")
		h.writeError(w, http.StatusServiceUnavailable, "usage ledger unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, rep)
}

// UsageHistory handles GET /v1/usage/history?n=12.
func (h *Handler) UsageHistory(w http.ResponseWriter, r *http.Request) {
	n := 12
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 120 {
			h.writeError(w, http.StatusBadRequest, "n must be an integer between 1 and 120")
			return
		}
		n = parsed
	}

	records, err := h.service.History(r.Context(), n)
	if err != nil {
		h.logger.Error().Err(err).Msg("usage history failed")
		h.writeError(w, http.StatusServiceUnavailable, "usage ledger unavailable")
		return
	}
	if records == nil {
		records = []ports.UsageRecord{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"periods": records})
}

// Health handles GET /healthz. The usage ledger is the one dependency
// the service cannot degrade without, so its reachability decides
// health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok", "version": h.version}

	if _, err := h.service.Usage(r.Context()); err != nil && errors.Is(err, ports.ErrLedgerUnavailable) {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["detail"] = "usage ledger unavailable"
	}

	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("encode response failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
