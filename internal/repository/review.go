package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gamereviews/gamereviews/internal/model"
)

// ReviewFilter narrows ListReviews. Zero fields do not filter.
type ReviewFilter struct {
	UserID model.UserID
	// GameTitle matches as a case-insensitive substring.
	GameTitle string
}

const reviewColumns = `id, game_title, rating, review_text, image_url, user_id, created_at, updated_at`

// CreateReview inserts a review. A second review for the same
// (user_id, game_title) is rejected by the unique constraint, which makes
// concurrent creates for the same pair race-free.
func (r *Repository) CreateReview(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.GameTitle,
		review.Rating,
		review.ReviewText,
		review.ImageURL,
		review.UserID.String(),
		review.CreatedAt,
		review.UpdatedAt,
	)

	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetReviewByID retrieves a review by its ID.
func (r *Repository) GetReviewByID(ctx context.Context, id string) (*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}

	return review, nil
}

// ListReviews returns reviews matching filter, newest first.
func (r *Repository) ListReviews(ctx context.Context, filter ReviewFilter) ([]*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE TRUE`
	var args []any

	if !filter.UserID.IsZero() {
		args = append(args, filter.UserID.String())
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	if title := strings.TrimSpace(filter.GameTitle); title != "" {
		args = append(args, EscapeLike(title))
		query += fmt.Sprintf(` AND game_title ILIKE '%%' || $%d || '%%' ESCAPE '\'`, len(args))
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*model.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// UpdateReview applies the non-nil fields of patch, stamps updatedAt and
// returns the stored result. The owner and ID are not part of the patch
// and never change.
func (r *Repository) UpdateReview(ctx context.Context, id string, patch model.ReviewPatch, updatedAt time.Time) (*model.Review, error) {
	query := `
		UPDATE reviews
		SET game_title  = COALESCE($2, game_title),
		    rating      = COALESCE($3, rating),
		    review_text = COALESCE($4, review_text),
		    image_url   = COALESCE($5, image_url),
		    updated_at  = $6
		WHERE id = $1
		RETURNING ` + reviewColumns

	review, err := scanReview(r.pool.QueryRow(ctx, query,
		id,
		patch.GameTitle,
		patch.Rating,
		patch.ReviewText,
		patch.ImageURL,
		updatedAt.UTC(),
	))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		if _, ok := uniqueConstraint(err); ok {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	return review, nil
}

// DeleteReview removes a review permanently.
func (r *Repository) DeleteReview(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// GameRating aggregates ratings for a title, compared case-insensitively.
func (r *Repository) GameRating(ctx context.Context, title string) (*model.GameRating, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM reviews
		WHERE LOWER(game_title) = LOWER($1)
	`

	rating := &model.GameRating{GameTitle: title}
	if err := r.pool.QueryRow(ctx, query, title).Scan(&rating.AverageRating, &rating.ReviewCount); err != nil {
		return nil, fmt.Errorf("failed to aggregate game rating: %w", err)
	}

	return rating, nil
}

func scanReview(row pgx.Row) (*model.Review, error) {
	var review model.Review
	var userID string
	err := row.Scan(
		&review.ID,
		&review.GameTitle,
		&review.Rating,
		&review.ReviewText,
		&review.ImageURL,
		&userID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	review.UserID = model.UserID(userID)
	return &review, err
}
