package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gamereviews/gamereviews/internal/cache"
	"github.com/gamereviews/gamereviews/internal/metrics"
	"github.com/gamereviews/gamereviews/internal/model"
	"github.com/gamereviews/gamereviews/internal/repository"
)

// ReviewStore persists reviews. Implementations must reject a second
// review for the same (user, game title) atomically with
// repository.ErrDuplicateReview.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetReviewByID(ctx context.Context, id string) (*model.Review, error)
	ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]*model.Review, error)
	UpdateReview(ctx context.Context, id string, patch model.ReviewPatch, updatedAt time.Time) (*model.Review, error)
	DeleteReview(ctx context.Context, id string) error
	GameRating(ctx context.Context, title string) (*model.GameRating, error)
	GetUsernames(ctx context.Context, ids []model.UserID) (map[model.UserID]string, error)
}

// ReviewCache is an optional read-through cache for single reviews.
// SetReview must not replace an entry that DeleteReview invalidated
// recently; otherwise a read that started before an edit or delete could
// put the old row back.
type ReviewCache interface {
	GetReview(ctx context.Context, id string) (*model.Review, error)
	SetReview(ctx context.Context, review *model.Review) error
	DeleteReview(ctx context.Context, id string) error
}

// ReviewService handles review business logic.
type ReviewService struct {
	store   ReviewStore
	cache   ReviewCache
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewReviewService creates a new ReviewService. cache may be nil.
func NewReviewService(store ReviewStore, cache ReviewCache, logger *slog.Logger, recorder metrics.Recorder) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ReviewService{
		store:   store,
		cache:   cache,
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
	}
}

// SubmitReviewInput defines input for creating a review.
type SubmitReviewInput struct {
	GameTitle  string
	Rating     int
	ReviewText string
	ImageURL   string
}

// SubmitReview validates input and creates a review owned by userID.
func (s *ReviewService) SubmitReview(ctx context.Context, userID model.UserID, input SubmitReviewInput) (*model.Review, error) {
	if userID.IsZero() {
		return nil, ErrUserNotFound
	}

	title := strings.TrimSpace(input.GameTitle)
	text := strings.TrimSpace(input.ReviewText)
	image := strings.TrimSpace(input.ImageURL)

	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}
	if err := validateImageURL(image); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	review := &model.Review{
		ID:         ulid.Make().String(),
		GameTitle:  title,
		Rating:     input.Rating,
		ReviewText: text,
		ImageURL:   image,
		UserID:     userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			s.metrics.IncReviewDuplicate()
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.metrics.IncReviewCreated()
	s.withUsernames(ctx, review)

	return review, nil
}

// GetReview retrieves a review by ID, consulting the cache first.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*model.Review, error) {
	review, err := s.loadReview(ctx, id)
	if err != nil {
		return nil, err
	}
	s.withUsernames(ctx, review)
	return review, nil
}

// EditReview applies patch to a review owned by userID.
// Checks run in order: existence, ownership, then the patch itself, so a
// non-owner learns nothing about why their payload would have failed.
func (s *ReviewService) EditReview(ctx context.Context, userID model.UserID, reviewID string, patch model.ReviewPatch) (*model.Review, error) {
	existing, err := s.authorize(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	patch.Normalize()
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		s.withUsernames(ctx, existing)
		return existing, nil
	}

	updated, err := s.store.UpdateReview(ctx, reviewID, patch, s.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewNotFound):
			return nil, ErrReviewNotFound
		case errors.Is(err, repository.ErrDuplicateReview):
			s.metrics.IncReviewDuplicate()
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.metrics.IncReviewUpdated()
	s.invalidate(ctx, reviewID)
	s.withUsernames(ctx, updated)

	return updated, nil
}

// RemoveReview deletes a review owned by userID.
func (s *ReviewService) RemoveReview(ctx context.Context, userID model.UserID, reviewID string) error {
	if _, err := s.authorize(ctx, userID, reviewID); err != nil {
		return err
	}

	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.metrics.IncReviewDeleted()
	s.invalidate(ctx, reviewID)

	return nil
}

// ListAll returns every review, newest first.
func (s *ReviewService) ListAll(ctx context.Context) ([]*model.Review, error) {
	return s.list(ctx, repository.ReviewFilter{})
}

// ListByUser returns the reviews written by userID, newest first.
func (s *ReviewService) ListByUser(ctx context.Context, userID model.UserID) ([]*model.Review, error) {
	if userID.IsZero() {
		return []*model.Review{}, nil
	}
	return s.list(ctx, repository.ReviewFilter{UserID: userID})
}

// ListByGameTitle returns reviews whose title contains pattern,
// ignoring case, newest first.
func (s *ReviewService) ListByGameTitle(ctx context.Context, pattern string) ([]*model.Review, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return []*model.Review{}, nil
	}
	return s.list(ctx, repository.ReviewFilter{GameTitle: pattern})
}

// GameRating returns the average rating for an exact (case-insensitive)
// game title. A title without reviews yields a zero count.
func (s *ReviewService) GameRating(ctx context.Context, title string) (*model.GameRating, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("gameTitle", "is required")
	}

	rating, err := s.store.GameRating(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to compute game rating: %w", err)
	}
	return rating, nil
}

func (s *ReviewService) list(ctx context.Context, filter repository.ReviewFilter) ([]*model.Review, error) {
	reviews, err := s.store.ListReviews(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	s.withUsernames(ctx, reviews...)
	return reviews, nil
}

// authorize loads the review and checks it belongs to userID.
func (s *ReviewService) authorize(ctx context.Context, userID model.UserID, reviewID string) (*model.Review, error) {
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if !review.OwnedBy(userID) {
		s.metrics.IncReviewForbidden()
		s.logger.Warn("review ownership check failed",
			"review_id", reviewID,
			"user_id", userID.String(),
		)
		return nil, ErrForbidden
	}
	return review, nil
}

// loadReview reads through the cache. Cache failures fall back to the
// store and are never surfaced to the caller.
func (s *ReviewService) loadReview(ctx context.Context, id string) (*model.Review, error) {
	if s.cache != nil {
		cached, err := s.cache.GetReview(ctx, id)
		if err == nil {
			s.metrics.IncReviewCacheHit()
			return cached, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncReviewCacheMiss()
		} else {
			s.logger.Warn("review cache read failed", "review_id", id, "error", err)
		}
	}

	review, err := s.store.GetReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetReview(ctx, review); err != nil {
			s.logger.Warn("review cache write failed", "review_id", id, "error", err)
		}
	}
	return review, nil
}

func (s *ReviewService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteReview(ctx, id); err != nil {
		s.logger.Warn("review cache invalidation failed", "review_id", id, "error", err)
	}
}

// withUsernames fills Username on each review with one batched lookup.
// A failed lookup leaves names empty; the reviews are still returned.
func (s *ReviewService) withUsernames(ctx context.Context, reviews ...*model.Review) {
	if len(reviews) == 0 {
		return
	}

	seen := make(map[model.UserID]struct{}, len(reviews))
	ids := make([]model.UserID, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}

	names, err := s.store.GetUsernames(ctx, ids)
	if err != nil {
		s.logger.Warn("username lookup failed", "error", err)
		return
	}
	for _, r := range reviews {
		r.Username = names[r.UserID]
	}
}

func validateTitle(title string) error {
	if title == "" {
		return invalid("gameTitle", "is required")
	}
	if model.TextLength(title) > model.MaxGameTitleLen {
		return invalid("gameTitle", "must be at most %d characters", model.MaxGameTitleLen)
	}
	return nil
}

func validateRating(rating int) error {
	if !model.ValidRating(rating) {
		return invalid("rating", "must be between %d and %d", model.MinRating, model.MaxRating)
	}
	return nil
}

func validateText(text string) error {
	n := model.TextLength(text)
	if n < model.MinReviewTextLen {
		return invalid("reviewText", "must be at least %d characters", model.MinReviewTextLen)
	}
	if n > model.MaxReviewTextLen {
		return invalid("reviewText", "must be at most %d characters", model.MaxReviewTextLen)
	}
	return nil
}

func validateImageURL(image string) error {
	if len(image) > model.MaxImageURLLength {
		return invalid("imageUrl", "must be at most %d characters", model.MaxImageURLLength)
	}
	return nil
}

// validatePatch validates only the fields present in patch.
func validatePatch(patch model.ReviewPatch) error {
	if patch.GameTitle != nil {
		if err := validateTitle(*patch.GameTitle); err != nil {
			return err
		}
	}
	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return err
		}
	}
	if patch.ReviewText != nil {
		if err := validateText(*patch.ReviewText); err != nil {
			return err
		}
	}
	if patch.ImageURL != nil {
		if err := validateImageURL(*patch.ImageURL); err != nil {
			return err
		}
	}
	return nil
}
