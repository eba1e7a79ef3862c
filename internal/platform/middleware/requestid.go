package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"veridoc/pkg/requestcontext"
)

// RequestID assigns a correlation id to each request. An inbound X-Request-ID
// is honored so edge proxies can stitch traces together; otherwise a fresh
// UUID is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
