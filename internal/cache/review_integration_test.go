//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gamereviews/gamereviews/internal/model"
	"github.com/gamereviews/gamereviews/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "TEST_REDIS_URL")

	c, err := New(ctx, redisURL, WithTTL(time.Minute))
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return ctx, c
}

func TestIntegrationCache_ReviewRoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	review := testutil.NewTestReview(t, model.UserID("user-1"), "Celeste")

	if _, err := c.GetReview(ctx, review.ID); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss before set, got %v", err)
	}

	if err := c.SetReview(ctx, review); err != nil {
		t.Fatalf("SetReview failed: %v", err)
	}

	got, err := c.GetReview(ctx, review.ID)
	if err != nil {
		t.Fatalf("GetReview failed: %v", err)
	}
	if got.GameTitle != "Celeste" || got.UserID != review.UserID {
		t.Errorf("unexpected cached review: %+v", got)
	}

	ttl, err := c.Client().TTL(ctx, reviewKey(review.ID)).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected TTL %v", ttl)
	}

	if err := c.DeleteReview(ctx, review.ID); err != nil {
		t.Fatalf("DeleteReview failed: %v", err)
	}
	if _, err := c.GetReview(ctx, review.ID); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss after delete, got %v", err)
	}
	if err := c.DeleteReview(ctx, review.ID); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
}

func TestIntegrationCache_CorruptEntryIsMiss(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	if err := c.Client().Set(ctx, reviewKey("broken"), "{", time.Minute).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	if _, err := c.GetReview(ctx, "broken"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if n, _ := c.Client().Exists(ctx, reviewKey("broken")).Result(); n != 0 {
		t.Error("corrupt entry should be removed")
	}
}

func TestIntegrationCache_InvalidationBlocksStaleRefill(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	stale := testutil.NewTestReview(t, model.UserID("user-1"), "Hades")

	// A reader fetched the row, then the owner deleted it and invalidated.
	if err := c.DeleteReview(ctx, stale.ID); err != nil {
		t.Fatalf("DeleteReview failed: %v", err)
	}
	if err := c.SetReview(ctx, stale); err != nil {
		t.Fatalf("SetReview failed: %v", err)
	}

	if _, err := c.GetReview(ctx, stale.ID); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after invalidation, got %v", err)
	}

	ttl, err := c.Client().TTL(ctx, reviewKey(stale.ID)).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > DefaultTombstoneTTL {
		t.Errorf("tombstone TTL = %v, want within %v", ttl, DefaultTombstoneTTL)
	}
}

func TestIntegrationCache_SetDoesNotOverwrite(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	first := testutil.NewTestReview(t, model.UserID("user-1"), "Tunic")
	if err := c.SetReview(ctx, first); err != nil {
		t.Fatalf("SetReview failed: %v", err)
	}

	second := *first
	second.Rating = 1
	if err := c.SetReview(ctx, &second); err != nil {
		t.Fatalf("SetReview failed: %v", err)
	}

	got, err := c.GetReview(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetReview failed: %v", err)
	}
	if got.Rating != first.Rating {
		t.Errorf("rating = %d, want the first write %d", got.Rating, first.Rating)
	}
}

func TestIntegrationCache_TombstoneExpires(t *testing.T) {
	ctx, c := newCacheTestEnv(t)
	c = NewWithClient(c.Client(), WithTTL(time.Minute), WithTombstoneTTL(100*time.Millisecond))

	review := testutil.NewTestReview(t, model.UserID("user-1"), "Celeste")
	if err := c.DeleteReview(ctx, review.ID); err != nil {
		t.Fatalf("DeleteReview failed: %v", err)
	}

	time.Sleep(250 * time.Millisecond)

	if err := c.SetReview(ctx, review); err != nil {
		t.Fatalf("SetReview failed: %v", err)
	}
	if _, err := c.GetReview(ctx, review.ID); err != nil {
		t.Errorf("expected refill after tombstone expiry, got %v", err)
	}
}
