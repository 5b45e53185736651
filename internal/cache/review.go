package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamereviews/gamereviews/internal/model"
)

const (
	reviewKeyPrefix = "review:"

	// DefaultReviewTTL is the TTL for cached reviews.
	DefaultReviewTTL = 5 * time.Minute

	// DefaultTombstoneTTL must outlast any read that started before an
	// invalidation and has yet to write its result back.
	DefaultTombstoneTTL = 30 * time.Second

	tombstone = "-"
)

// ErrCacheMiss is returned when a review is not cached.
var ErrCacheMiss = errors.New("cache miss")

// cachedReview is the stored form. Username is resolved per read and
// never cached, so a renamed owner never shows up stale.
type cachedReview struct {
	ID         string    `json:"id"`
	GameTitle  string    `json:"game_title"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
	ImageURL   string    `json:"image_url,omitempty"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func reviewKey(id string) string {
	return reviewKeyPrefix + id
}

func encodeReview(r *model.Review) ([]byte, error) {
	return json.Marshal(cachedReview{
		ID:         r.ID,
		GameTitle:  r.GameTitle,
		Rating:     r.Rating,
		ReviewText: r.ReviewText,
		ImageURL:   r.ImageURL,
		UserID:     r.UserID.String(),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	})
}

func decodeReview(data []byte) (*model.Review, error) {
	var c cachedReview
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.ID == "" || c.UserID == "" {
		return nil, errors.New("cached review missing id or owner")
	}
	return &model.Review{
		ID:         c.ID,
		GameTitle:  c.GameTitle,
		Rating:     c.Rating,
		ReviewText: c.ReviewText,
		ImageURL:   c.ImageURL,
		UserID:     model.UserID(c.UserID),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}, nil
}

// GetReview retrieves a review by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetReview(ctx context.Context, id string) (*model.Review, error) {
	data, err := c.client.Get(ctx, reviewKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	if string(data) == tombstone {
		return nil, ErrCacheMiss
	}

	review, err := decodeReview(data)
	if err != nil {
		// Drop the corrupt entry so the next read repopulates it.
		c.client.Del(ctx, reviewKey(id))
		return nil, ErrCacheMiss
	}
	return review, nil
}

// SetReview stores a review with the configured TTL. It only fills an
// empty slot: an existing entry or a tombstone left by DeleteReview wins,
// so a read that raced an edit or delete cannot write stale data back.
func (c *Cache) SetReview(ctx context.Context, review *model.Review) error {
	data, err := encodeReview(review)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}
	if err := c.client.SetNX(ctx, reviewKey(review.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// DeleteReview invalidates a cached review by replacing it with a
// short-lived tombstone. Invalidating a missing key is not an error.
func (c *Cache) DeleteReview(ctx context.Context, id string) error {
	if err := c.client.Set(ctx, reviewKey(id), tombstone, c.tombstoneTTL).Err(); err != nil {
		return fmt.Errorf("redis set tombstone failed: %w", err)
	}
	return nil
}
