package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered     uint64
	LoginsSucceeded     uint64
	LoginsFailed        uint64
	AuthRejectedMissing uint64
	AuthRejectedInvalid uint64
	ReviewsCreated      uint64
	ReviewsUpdated      uint64
	ReviewsDeleted      uint64
	ReviewsDuplicate    uint64
	ReviewsForbidden    uint64
	ReviewCacheHits     uint64
	ReviewCacheMisses   uint64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics
// endpoint and is used by tests.
type InMemoryRecorder struct {
	usersRegistered     atomic.Uint64
	loginsSucceeded     atomic.Uint64
	loginsFailed        atomic.Uint64
	authRejectedMissing atomic.Uint64
	authRejectedInvalid atomic.Uint64
	reviewsCreated      atomic.Uint64
	reviewsUpdated      atomic.Uint64
	reviewsDeleted      atomic.Uint64
	reviewsDuplicate    atomic.Uint64
	reviewsForbidden    atomic.Uint64
	reviewCacheHits     atomic.Uint64
	reviewCacheMisses   atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:     m.usersRegistered.Load(),
		LoginsSucceeded:     m.loginsSucceeded.Load(),
		LoginsFailed:        m.loginsFailed.Load(),
		AuthRejectedMissing: m.authRejectedMissing.Load(),
		AuthRejectedInvalid: m.authRejectedInvalid.Load(),
		ReviewsCreated:      m.reviewsCreated.Load(),
		ReviewsUpdated:      m.reviewsUpdated.Load(),
		ReviewsDeleted:      m.reviewsDeleted.Load(),
		ReviewsDuplicate:    m.reviewsDuplicate.Load(),
		ReviewsForbidden:    m.reviewsForbidden.Load(),
		ReviewCacheHits:     m.reviewCacheHits.Load(),
		ReviewCacheMisses:   m.reviewCacheMisses.Load(),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	m.usersRegistered.Add(1)
}

// IncLogin counts a login attempt by outcome.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == "success" {
		m.loginsSucceeded.Add(1)
		return
	}
	m.loginsFailed.Add(1)
}

// IncAuthRejected counts a request rejected by the auth guard.
func (m *InMemoryRecorder) IncAuthRejected(reason string) {
	if reason == "missing" {
		m.authRejectedMissing.Add(1)
		return
	}
	m.authRejectedInvalid.Add(1)
}

// IncReviewCreated increments review created counter.
func (m *InMemoryRecorder) IncReviewCreated() {
	m.reviewsCreated.Add(1)
}

// IncReviewUpdated increments review updated counter.
func (m *InMemoryRecorder) IncReviewUpdated() {
	m.reviewsUpdated.Add(1)
}

// IncReviewDeleted increments review deleted counter.
func (m *InMemoryRecorder) IncReviewDeleted() {
	m.reviewsDeleted.Add(1)
}

// IncReviewDuplicate counts creates rejected by the one-review-per-game rule.
func (m *InMemoryRecorder) IncReviewDuplicate() {
	m.reviewsDuplicate.Add(1)
}

// IncReviewForbidden counts edits and deletes attempted by non-owners.
func (m *InMemoryRecorder) IncReviewForbidden() {
	m.reviewsForbidden.Add(1)
}

// IncReviewCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncReviewCacheHit() {
	m.reviewCacheHits.Add(1)
}

// IncReviewCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncReviewCacheMiss() {
	m.reviewCacheMisses.Add(1)
}
