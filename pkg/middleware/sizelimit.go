package middleware

import "net/http"

// defaultMaxRequestSize caps request bodies at 10MB when no limit is
// configured.
const defaultMaxRequestSize = 10 * 1024 * 1024

// RequestSizeLimiter bounds request body sizes so an oversized payload
// fails at the read instead of exhausting memory.
type RequestSizeLimiter struct {
	maxSize int64
}

// NewRequestSizeLimiter creates a limiter for maxSize bytes. Zero or
// negative values fall back to the 10MB default.
func NewRequestSizeLimiter(maxSize int64) *RequestSizeLimiter {
	if maxSize <= 0 {
		maxSize = defaultMaxRequestSize
	}
	return &RequestSizeLimiter{maxSize: maxSize}
}

// Middleware wraps each request body in a MaxBytesReader. Handlers see a
// read error once the body exceeds the cap.
func (rsl *RequestSizeLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, rsl.maxSize)
		next.ServeHTTP(w, r)
	})
}
