package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncUserRegistered()            {}
func (n *NoopRecorder) IncLogin(status string)        {}
func (n *NoopRecorder) IncAuthRejected(reason string) {}
func (n *NoopRecorder) IncReviewCreated()             {}
func (n *NoopRecorder) IncReviewUpdated()             {}
func (n *NoopRecorder) IncReviewDeleted()             {}
func (n *NoopRecorder) IncReviewDuplicate()           {}
func (n *NoopRecorder) IncReviewForbidden()           {}
func (n *NoopRecorder) IncReviewCacheHit()            {}
func (n *NoopRecorder) IncReviewCacheMiss()           {}
