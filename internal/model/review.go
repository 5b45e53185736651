package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Review constraints.
const (
	MinRating         = 1
	MaxRating         = 5
	MinReviewTextLen  = 10
	MaxGameTitleLen   = 200
	MaxReviewTextLen  = 5000
	MaxImageURLLength = 2048
)

// Review is a single user's rating of a game title.
// At most one review exists per (UserID, GameTitle).
type Review struct {
	ID         string    `json:"id"`
	GameTitle  string    `json:"gameTitle"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"reviewText"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	UserID     UserID    `json:"user"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Username is resolved from the owner at read time; it is not stored
	// with the review.
	Username string `json:"username,omitempty"`
}

// OwnedBy reports whether the review belongs to the given user.
func (r *Review) OwnedBy(id UserID) bool {
	return !id.IsZero() && r.UserID == id
}

// ReviewPatch carries a partial update. Nil fields are left unchanged.
// The owner and the ID are deliberately absent.
type ReviewPatch struct {
	GameTitle  *string
	Rating     *int
	ReviewText *string
	ImageURL   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ReviewPatch) IsEmpty() bool {
	return p.GameTitle == nil && p.Rating == nil && p.ReviewText == nil && p.ImageURL == nil
}

// Normalize trims every present string field in place.
func (p *ReviewPatch) Normalize() {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	p.GameTitle = trim(p.GameTitle)
	p.ReviewText = trim(p.ReviewText)
	p.ImageURL = trim(p.ImageURL)
}

// Apply returns a copy of r with the patch applied.
func (p ReviewPatch) Apply(r Review) Review {
	if p.GameTitle != nil {
		r.GameTitle = *p.GameTitle
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.ReviewText != nil {
		r.ReviewText = *p.ReviewText
	}
	if p.ImageURL != nil {
		r.ImageURL = *p.ImageURL
	}
	return r
}

// ValidRating reports whether rating is within the accepted range.
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// TextLength counts characters, not bytes.
func TextLength(s string) int {
	return utf8.RuneCountInString(s)
}

// GameRating aggregates the ratings recorded for one game title.
type GameRating struct {
	GameTitle     string  `json:"gameTitle"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int64   `json:"reviewCount"`
}
