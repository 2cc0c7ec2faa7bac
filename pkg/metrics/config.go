package metrics

// Config tunes the Prometheus provider.
type Config struct {
	// Enabled switches metric collection on.
	Enabled bool

	// Namespace prefixes every metric name.
	Namespace string

	// HTTPRequestBuckets are the histogram bounds for request duration,
	// in seconds.
	HTTPRequestBuckets []float64

	// DBQueryBuckets are the histogram bounds for query duration, in
	// seconds. Queries resolve faster than requests so the buckets start
	// lower.
	DBQueryBuckets []float64
}

// ApplyDefaults fills unset bucket bounds.
func (c *Config) ApplyDefaults() {
	if len(c.HTTPRequestBuckets) == 0 {
		c.HTTPRequestBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	}
	if len(c.DBQueryBuckets) == 0 {
		c.DBQueryBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	}
}
