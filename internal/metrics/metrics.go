// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(status string)        // status: "success" or "failed"
	IncAuthRejected(reason string) // reason: "missing" or "invalid"

	// Review lifecycle metrics
	IncReviewCreated()
	IncReviewUpdated()
	IncReviewDeleted()
	IncReviewDuplicate()
	IncReviewForbidden()

	// Review cache metrics
	IncReviewCacheHit()
	IncReviewCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
