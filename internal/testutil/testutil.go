// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/gamereviews/gamereviews/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 424242

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates the users and reviews tables from the
// migration files. Down migrations run newest first.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	steps := []string{
		"000002_reviews.down.sql",
		"000001_users.down.sql",
		"000001_users.up.sql",
		"000002_reviews.up.sql",
	}

	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for _, name := range steps {
		body, err := os.ReadFile(filepath.Join(root, "migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// NewTestUser creates a user with unique username and email.
// The password hash is a placeholder; stores never inspect it.
func NewTestUser(t testing.TB, name string) *model.User {
	t.Helper()
	n := seq.Add(1)
	return &model.User{
		ID:           model.UserID(ulid.Make().String()),
		Username:     fmt.Sprintf("%s-%d", name, n),
		Email:        fmt.Sprintf("%s-%d@example.com", name, n),
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// NewTestReview creates a review of gameTitle owned by owner.
func NewTestReview(t testing.TB, owner model.UserID, gameTitle string) *model.Review {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Review{
		ID:         ulid.Make().String(),
		GameTitle:  gameTitle,
		Rating:     4,
		ReviewText: "Solid game with a great soundtrack.",
		UserID:     owner,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
