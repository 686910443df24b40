package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/techvault/skoop/internal/log"
)

// CorrelationIDHeader is echoed on every response.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID copies the caller's X-Correlation-ID, or chi's request ID
// when absent, into the request context and the response headers.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = requestID
		}
		w.Header().Set(CorrelationIDHeader, id)

		ctx := log.WithCorrelationID(r.Context(), id)
		if requestID != "" {
			ctx = log.WithRequestID(ctx, requestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
