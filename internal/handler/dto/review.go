package dto

import (
	"time"

	"github.com/gamereviews/gamereviews/internal/model"
)

// CreateReviewRequest represents the request body for submitting a review.
type CreateReviewRequest struct {
	GameTitle  string `json:"gameTitle"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"reviewText"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

// UpdateReviewRequest represents the request body for editing a review.
// Absent fields are left unchanged. Owner and ID cannot be changed.
type UpdateReviewRequest struct {
	GameTitle  *string `json:"gameTitle,omitempty"`
	Rating     *int    `json:"rating,omitempty"`
	ReviewText *string `json:"reviewText,omitempty"`
	ImageURL   *string `json:"imageUrl,omitempty"`
}

// ToPatch converts the request into a model patch.
func (r UpdateReviewRequest) ToPatch() model.ReviewPatch {
	return model.ReviewPatch{
		GameTitle:  r.GameTitle,
		Rating:     r.Rating,
		ReviewText: r.ReviewText,
		ImageURL:   r.ImageURL,
	}
}

// ReviewResponse represents a review in API responses.
type ReviewResponse struct {
	ID         string    `json:"id"`
	GameTitle  string    `json:"gameTitle"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"reviewText"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	User       string    `json:"user"`
	Username   string    `json:"username,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// GameRatingResponse is the aggregate rating of one game title.
type GameRatingResponse struct {
	GameTitle     string  `json:"gameTitle"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int64   `json:"reviewCount"`
}

// ToReviewResponse converts a Review model to ReviewResponse DTO.
func ToReviewResponse(review *model.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:         review.ID,
		GameTitle:  review.GameTitle,
		Rating:     review.Rating,
		ReviewText: review.ReviewText,
		ImageURL:   review.ImageURL,
		User:       review.UserID.String(),
		Username:   review.Username,
		CreatedAt:  review.CreatedAt,
		UpdatedAt:  review.UpdatedAt,
	}
}

// ToReviewListResponse converts reviews to a JSON array, never null.
func ToReviewListResponse(reviews []*model.Review) []*ReviewResponse {
	out := make([]*ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, ToReviewResponse(r))
	}
	return out
}

// ToGameRatingResponse converts a GameRating model.
func ToGameRatingResponse(rating *model.GameRating) *GameRatingResponse {
	return &GameRatingResponse{
		GameTitle:     rating.GameTitle,
		AverageRating: rating.AverageRating,
		ReviewCount:   rating.ReviewCount,
	}
}
