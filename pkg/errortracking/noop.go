package errortracking

import "context"

// NoOpProvider discards every event. It backs deployments where error
// tracking is switched off, so callers never need a nil check.
type NoOpProvider struct{}

func NewNoOpProvider() *NoOpProvider {
	return &NoOpProvider{}
}

func (n *NoOpProvider) CaptureError(ctx context.Context, err error, severity Severity, extra map[string]interface{}) {
}

func (n *NoOpProvider) CaptureMessage(ctx context.Context, message string, severity Severity, extra map[string]interface{}) {
}

func (n *NoOpProvider) CapturePanic(ctx context.Context, recovered interface{}, stackTrace []byte, extra map[string]interface{}) {
}

// Flush reports success immediately since nothing is buffered.
func (n *NoOpProvider) Flush(timeout int) bool { return true }

func (n *NoOpProvider) Close() error { return nil }
