package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/pagegate/pagegate/internal/metrics"
	"github.com/pagegate/pagegate/internal/observability"
)

// Recovery converts panics into the service's 500 contract:
// {"error": <message>, "type": "panic"}. Uncaught failures never produce an
// unstructured response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				panicErr := errors.NewErrorEnvelope("INTERNAL_ERROR", fmt.Sprintf("panic: %v", rec)).
					WithCorrelationID(GetRequestID(r.Context()))
				panicErr, _ = panicErr.WithContext(map[string]interface{}{
					"stack_trace": string(debug.Stack()),
				})
				panicErr, _ = panicErr.WithSeverity(errors.SeverityCritical)

				metrics.RecordPanic()

				if observability.ServerLogger != nil {
					observability.ServerLogger.Error("Recovered from panic",
						zap.String("path", r.URL.Path),
						zap.String("request_id", panicErr.CorrelationID),
						zap.Any("panic", rec))
				}

				writePanicResponse(w, panicErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// writePanicResponse writes the 500 body directly (avoids a circular import
// with the errors package).
func writePanicResponse(w http.ResponseWriter, envelope *errors.ErrorEnvelope) {
	body := map[string]interface{}{
		"error": envelope.Message,
		"type":  "panic",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(body)
}
