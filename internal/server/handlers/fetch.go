package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pagegate/pagegate/internal/core/gateway"
	"github.com/pagegate/pagegate/internal/core/ratelimit"
	apperrors "github.com/pagegate/pagegate/internal/errors"
	"github.com/pagegate/pagegate/internal/metrics"
)

// FetchHandler serves the /fetch endpoint. Requests walk a fixed pipeline:
// rate limit, method check, URL extraction, then the gateway (guard, cache,
// upstream fetch, size ceiling). The first failing stage writes the response.
type FetchHandler struct {
	Limiter *ratelimit.Limiter
	Gateway *gateway.Service
}

// NewFetchHandler wires the limiter and gateway into a handler.
func NewFetchHandler(limiter *ratelimit.Limiter, gw *gateway.Service) *FetchHandler {
	return &FetchHandler{
		Limiter: limiter,
		Gateway: gw,
	}
}

// fetchRequest is the POST body shape.
type fetchRequest struct {
	URL string `json:"url"`
}

// fetchResponse is the success body shape.
type fetchResponse struct {
	HTML   string `json:"html"`
	Size   int    `json:"size"`
	Cached bool   `json:"cached"`
}

func (h *FetchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Preflight requests succeed without consuming the caller's budget.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	decision := h.Limiter.Check(ClientIdentifier(r))
	if !decision.Allowed {
		metrics.RecordRateLimited()
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.Limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(decision.ResetIn))
		respondWithError(w, r, apperrors.NewRateLimited(decision.ResetIn))
		return
	}

	var rawURL string
	switch r.Method {
	case http.MethodGet:
		rawURL = r.URL.Query().Get("url")
	case http.MethodPost:
		var req fetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			rawURL = req.URL
		}
	default:
		respondWithError(w, r, apperrors.NewMethodNotAllowed())
		return
	}

	if strings.TrimSpace(rawURL) == "" {
		respondWithError(w, r, apperrors.NewMissingParameter())
		return
	}

	result, err := h.Gateway.Fetch(r.Context(), rawURL)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	cacheState := "MISS"
	if result.Cached {
		cacheState = "HIT"
	}

	w.Header().Set("X-Cache", cacheState)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.Limiter.Limit()))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(fetchResponse{
		HTML:   result.HTML,
		Size:   result.Size,
		Cached: result.Cached,
	})
}

// ClientIdentifier resolves the caller's identity for rate limiting: the
// first X-Forwarded-For entry, then X-Real-IP, then "unknown". Callers
// without either header share one bucket.
func ClientIdentifier(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if id := strings.TrimSpace(first); id != "" {
			return id
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return "unknown"
}
