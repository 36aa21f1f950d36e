// Package errors maps the fetch pipeline's failure taxonomy onto gofulmen
// error envelopes and the service's JSON error contract. Every taxonomy
// member resolves to exactly one HTTP status; no error leaves a handler
// without a structured body.
package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagegate/pagegate/internal/metrics"
	"github.com/pagegate/pagegate/internal/observability"
	"github.com/pagegate/pagegate/internal/server/middleware"
)

// Taxonomy codes. Each maps to one HTTP status in HTTPStatusFromCode;
// UPSTREAM_HTTP_ERROR mirrors the upstream status carried in its details.
const (
	CodeRateLimited       = "RATE_LIMITED"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	CodeMissingParameter  = "MISSING_PARAMETER"
	CodeMalformedURL      = "MALFORMED_URL"
	CodeBlockedURL        = "BLOCKED_URL"
	CodeUpstreamHTTPError = "UPSTREAM_HTTP_ERROR"
	CodeTimeout           = "TIMEOUT"
	CodeNetworkError      = "NETWORK_ERROR"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeInternal          = "INTERNAL_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
)

// NewRateLimited builds the 429 envelope; resetIn is whole seconds until the
// client's window expires and is echoed in the response body.
func NewRateLimited(resetIn int) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(CodeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", resetIn))
	return envelope.WithDetails(map[string]interface{}{"resetIn": resetIn})
}

func NewMethodNotAllowed() *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, "Method not allowed")
}

func NewMissingParameter() *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMissingParameter, "URL parameter is required")
}

func NewMalformedURL() *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMalformedURL, "Invalid URL format")
}

func NewBlockedURL() *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeBlockedURL, "Access to local/private IPs is forbidden")
}

// NewUpstreamHTTPError mirrors a non-2xx upstream status to the caller.
func NewUpstreamHTTPError(status int) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(CodeUpstreamHTTPError,
		fmt.Sprintf("Upstream server returned status %d", status))
	return envelope.WithDetails(map[string]interface{}{"status": status})
}

func NewTimeout(target string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(CodeTimeout, "Upstream request timed out")
	envelope, _ = envelope.WithContext(map[string]interface{}{"target": target})
	return envelope
}

func NewNetworkError(target string, err error) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(CodeNetworkError, "Failed to fetch the requested URL")
	envelope, _ = envelope.WithContext(map[string]interface{}{
		"target":        target,
		"wrapped_error": err.Error(),
	})
	return envelope
}

// NewPayloadTooLarge builds the 413 envelope; the message names the MB limit
// and the body carries the observed size.
func NewPayloadTooLarge(size int, maxBytes int64) *errors.ErrorEnvelope {
	limitMB := maxBytes / (1 << 20)
	envelope := errors.NewErrorEnvelope(CodePayloadTooLarge,
		fmt.Sprintf("Response size exceeds the %dMB limit", limitMB))
	return envelope.WithDetails(map[string]interface{}{"size": size})
}

func NewNotFound(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

// NewInternal is the catch-all; errType is surfaced as the body's "type".
func NewInternal(message string, errType string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(CodeInternal, message)
	envelope = envelope.WithDetails(map[string]interface{}{"type": errType})
	env, err := envelope.WithSeverity(errors.SeverityHigh)
	if err != nil {
		return envelope
	}
	return env
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}

	env := NewInternal("An unexpected error occurred", "internal")
	env, _ = env.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	return env
}

// EnsureCorrelationID attaches a correlation ID from the request context.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}
	if envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status for an envelope. Upstream
// errors mirror the status carried in their details.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}

	if envelope.Code == CodeUpstreamHTTPError {
		if status, ok := detailInt(envelope.Details, "status"); ok && status >= 100 && status < 600 {
			return status
		}
		return http.StatusBadGateway
	}

	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the HTTP status for a taxonomy code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeMissingParameter, CodeMalformedURL:
		return http.StatusBadRequest
	case CodeBlockedURL:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeNetworkError:
		return http.StatusBadGateway
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithEnvelope(w, r, EnsureEnvelope(err))
}

// RespondWithEnvelope writes the flat error contract: {"error": message} plus
// any detail fields (resetIn, size, status, type), logging and emitting error
// metrics on the way out.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	if r != nil {
		envelope = EnsureCorrelationID(envelope, r.Context())
	} else {
		envelope = EnsureCorrelationID(envelope, nil)
	}

	statusCode := HTTPStatusFromEnvelope(envelope)

	body := map[string]interface{}{
		"error": envelope.Message,
	}
	for key, value := range envelope.Details {
		body[key] = value
	}

	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}

	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}

	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}

	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

func emitErrorMetrics(r *http.Request, envelope *errors.ErrorEnvelope, statusCode int) {
	if envelope == nil {
		return
	}

	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(r.URL.Path, envelope.Code)
	}
}

func detailInt(details map[string]interface{}, key string) (int, bool) {
	raw, ok := details[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
