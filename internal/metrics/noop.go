package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncUserRegistered() {}
func (n *NoopRecorder) IncLogin(string) {}
func (n *NoopRecorder) ObserveLoginDuration(time.Duration) {}
func (n *NoopRecorder) IncTokenCheck(string) {}
func (n *NoopRecorder) IncSessionCacheHit() {}
func (n *NoopRecorder) IncSessionCacheMiss() {}
func (n *NoopRecorder) IncTaskCreated() {}
func (n *NoopRecorder) IncTaskUpdated() {}
func (n *NoopRecorder) IncTaskDeleted() {}
