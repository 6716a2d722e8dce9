package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID ensures every request and response carries a correlation
// ID and puts it on the request context for the logger.
func CorrelationID(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = CorrelationIDHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := r.Header.Get(header)
			if cid == "" {
				cid = uuid.NewString()
			}
			w.Header().Set(header, cid)
			ctx := logger.WithCorrelationID(r.Context(), cid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
