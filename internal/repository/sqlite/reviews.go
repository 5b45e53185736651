package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/gamereviews/gamereviews/internal/model"
	"github.com/gamereviews/gamereviews/internal/repository"
)

const reviewColumns = `id, game_title, rating, review_text, image_url, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateReview inserts a review; the (user_id, game_title) unique index
// rejects a second review of the same game by the same user.
func (s *Store) CreateReview(ctx context.Context, r *model.Review) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.GameTitle, r.Rating, r.ReviewText, r.ImageURL, r.UserID.String(),
		toMillis(r.CreatedAt), toMillis(r.UpdatedAt),
	)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return repository.ErrDuplicateReview
		}
		return errors.Wrap(err, "sqlite: CreateReview")
	}
	return nil
}

// GetReviewByID retrieves a review by ID.
func (s *Store) GetReviewByID(ctx context.Context, id string) (*model.Review, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	r, err := scanReview(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrReviewNotFound
		}
		return nil, errors.Wrap(err, "sqlite: GetReviewByID")
	}
	return r, nil
}

// ListReviews returns reviews matching filter, newest first.
func (s *Store) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE 1 = 1`
	var args []any

	if !filter.UserID.IsZero() {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID.String())
	}
	if title := strings.TrimSpace(filter.GameTitle); title != "" {
		query += ` AND go_lower(game_title) LIKE '%' || go_lower(?) || '%' ESCAPE '\'`
		args = append(args, repository.EscapeLike(title))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: ListReviews")
	}
	defer rows.Close()

	reviews := make([]*model.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite: ListReviews scan")
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite: ListReviews rows")
	}
	return reviews, nil
}

// UpdateReview applies the non-nil fields of patch and stamps updatedAt.
func (s *Store) UpdateReview(ctx context.Context, id string, patch model.ReviewPatch, updatedAt time.Time) (*model.Review, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE reviews
		SET game_title  = COALESCE(?, game_title),
		    rating      = COALESCE(?, rating),
		    review_text = COALESCE(?, review_text),
		    image_url   = COALESCE(?, image_url),
		    updated_at  = ?
		WHERE id = ?
		RETURNING `+reviewColumns,
		nullString(patch.GameTitle),
		nullInt(patch.Rating),
		nullString(patch.ReviewText),
		nullString(patch.ImageURL),
		toMillis(updatedAt),
		id,
	)

	r, err := scanReview(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrReviewNotFound
		}
		if _, ok := uniqueConstraint(err); ok {
			return nil, repository.ErrDuplicateReview
		}
		return nil, errors.Wrap(err, "sqlite: UpdateReview")
	}
	return r, nil
}

// DeleteReview removes a review.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "sqlite: DeleteReview")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrReviewNotFound
	}
	return nil
}

// GameRating aggregates ratings for a title, compared case-insensitively.
func (s *Store) GameRating(ctx context.Context, title string) (*model.GameRating, error) {
	rating := &model.GameRating{GameTitle: title}
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE go_lower(game_title) = go_lower(?)`, title,
	).Scan(&rating.AverageRating, &rating.ReviewCount)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: GameRating")
	}
	return rating, nil
}

func scanReview(row rowScanner) (*model.Review, error) {
	var (
		r                    model.Review
		userID               string
		createdAt, updatedAt int64
	)
	err := row.Scan(&r.ID, &r.GameTitle, &r.Rating, &r.ReviewText, &r.ImageURL, &userID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.UserID = model.UserID(userID)
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)
	return &r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
