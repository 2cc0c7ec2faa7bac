package middleware

import (
	"net/http"

	"pustaka/pkg/logger"
)

const panicMiddlewareMethodName = "PanicMiddleware"

// PanicRecovery is a middleware that recovers from panics, logs the error,
// sends it to the error tracker, and returns a 500 Internal Server Error.
// The recovered value is never written to the response.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rcv := recover(); rcv != nil {
				logger.HandlePanic(panicMiddlewareMethodName, rcv)

				w.Header().Set("Content-Type", "application/vnd.api+json")
				w.WriteHeader(http.StatusInternalServerError)
				_, werr := w.Write([]byte(`{"errors":[{"status":"500","title":"Internal Server Error"}]}`))
				if werr != nil {
					logger.Warn("Failed to write panic response. %v", werr)
				}
			}
		}()
		next.ServeHTTP(w, r)
	})
}
