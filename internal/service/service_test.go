package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gamereviews/gamereviews/internal/auth"
	"github.com/gamereviews/gamereviews/internal/cache"
	"github.com/gamereviews/gamereviews/internal/metrics"
	"github.com/gamereviews/gamereviews/internal/model"
	"github.com/gamereviews/gamereviews/internal/repository/sqlite"
)

var testArgon2Params = auth.Argon2Params{
	Time:    1,
	Memory:  1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

type testEnv struct {
	store    *sqlite.Store
	tokens   *auth.TokenService
	cache    *memoryCache
	recorder *metrics.InMemoryRecorder
	accounts *AccountService
	reviews  *ReviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := auth.NewTokenService("service-test-secret", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.NewInMemory()
	c := newMemoryCache()

	return &testEnv{
		store:    store,
		tokens:   tokens,
		cache:    c,
		recorder: recorder,
		accounts: NewAccountService(store, auth.NewPasswordHasher(testArgon2Params), tokens, logger, recorder),
		reviews:  NewReviewService(store, c, logger, recorder),
	}
}

func (e *testEnv) register(t *testing.T, username, email string) *model.User {
	t.Helper()
	res, err := e.accounts.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: "secret1",
	})
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) submit(t *testing.T, owner model.UserID, title string) *model.Review {
	t.Helper()
	review, err := e.reviews.SubmitReview(context.Background(), owner, SubmitReviewInput{
		GameTitle:  title,
		Rating:     5,
		ReviewText: "Great open world game!",
	})
	require.NoError(t, err)
	return review
}

// memoryCache is a ReviewCache backed by a map. Like the Redis cache,
// SetReview only fills empty slots and DeleteReview leaves a tombstone;
// tombstones here never expire.
type memoryCache struct {
	mu         sync.Mutex
	items      map[string]model.Review
	tombstones map[string]struct{}
	sets       int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		items:      make(map[string]model.Review),
		tombstones: make(map[string]struct{}),
	}
}

func (c *memoryCache) GetReview(_ context.Context, id string) (*model.Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &r, nil
}

func (c *memoryCache) SetReview(_ context.Context, review *model.Review) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dead := c.tombstones[review.ID]; dead {
		return nil
	}
	if _, ok := c.items[review.ID]; ok {
		return nil
	}
	r := *review
	r.Username = ""
	c.items[review.ID] = r
	c.sets++
	return nil
}

func (c *memoryCache) DeleteReview(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.tombstones[id] = struct{}{}
	return nil
}

func (c *memoryCache) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[id]
	return ok
}
