package metrics

import (
	"net/http"
	"time"

	"pustaka/pkg/logger"
)

// Provider collects the server's operational counters. The HTTP middleware,
// the query layer, and the cache all report through it.
type Provider interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
	IncRequestsInFlight()
	DecRequestsInFlight()

	RecordDBQuery(operation, table string, duration time.Duration, err error)

	RecordCacheHit(provider string)
	RecordCacheMiss(provider string)
	UpdateCacheSize(provider string, size int64)

	// Handler serves the scrape endpoint.
	Handler() http.Handler
}

var globalProvider Provider

// SetProvider installs the process-wide provider. The server does this once
// at startup when metrics are enabled.
func SetProvider(p Provider) {
	globalProvider = p
}

// GetProvider returns the installed provider, or a discarding one when
// metrics are disabled.
func GetProvider() Provider {
	if globalProvider == nil {
		return &NoOpProvider{}
	}
	return globalProvider
}

// NoOpProvider drops every observation.
type NoOpProvider struct{}

func (n *NoOpProvider) RecordHTTPRequest(method, path, status string, duration time.Duration) {}
func (n *NoOpProvider) IncRequestsInFlight()                                                  {}
func (n *NoOpProvider) DecRequestsInFlight()                                                  {}
func (n *NoOpProvider) RecordDBQuery(operation, table string, duration time.Duration, err error) {
}
func (n *NoOpProvider) RecordCacheHit(provider string)              {}
func (n *NoOpProvider) RecordCacheMiss(provider string)             {}
func (n *NoOpProvider) UpdateCacheSize(provider string, size int64) {}

// Handler answers 404 so a scrape against a disabled server fails loudly.
func (n *NoOpProvider) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		if _, err := w.Write([]byte("metrics are not enabled")); err != nil {
			logger.Warn("Failed to write metrics response: %v", err)
		}
	})
}
