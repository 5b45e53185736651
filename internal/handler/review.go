package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/gamereviews/gamereviews/internal/auth"
	"github.com/gamereviews/gamereviews/internal/handler/dto"
	"github.com/gamereviews/gamereviews/internal/model"
	"github.com/gamereviews/gamereviews/internal/service"
)

// ReviewHandler handles HTTP requests for review operations.
type ReviewHandler struct {
	svc    *service.ReviewService
	logger *slog.Logger
	errs   errorWriter
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger, strictStatus bool) *ReviewHandler {
	return &ReviewHandler{
		svc:    svc,
		logger: logger,
		errs:   errorWriter{logger: logger, strict: strictStatus},
	}
}

// List handles GET /api/reviews.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToReviewListResponse(reviews))
}

// Get handles GET /api/reviews/{id}.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.svc.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToReviewResponse(review))
}

// ListByUser handles GET /api/reviews/user/{userId}.
func (h *ReviewHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(chi.URLParam(r, "userId"))

	reviews, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToReviewListResponse(reviews))
}

// ListByGame handles GET /api/reviews/game/{title}.
func (h *ReviewHandler) ListByGame(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.ListByGameTitle(r.Context(), pathParam(r, "title"))
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToReviewListResponse(reviews))
}

// GameRating handles GET /api/reviews/game/{title}/rating.
func (h *ReviewHandler) GameRating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.svc.GameRating(r.Context(), pathParam(r, "title"))
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToGameRatingResponse(rating))
}

// Create handles POST /api/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserIDFromContext(r.Context())

	var req dto.CreateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	review, err := h.svc.SubmitReview(r.Context(), userID, service.SubmitReviewInput{
		GameTitle:  req.GameTitle,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}

	h.logger.Info("review_created",
		"review_id", review.ID,
		"user_id", userID.String(),
	)

	writeJSON(w, http.StatusOK, dto.ToReviewResponse(review))
}

// Update handles PUT /api/reviews/{id}.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserIDFromContext(r.Context())

	var req dto.UpdateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	review, err := h.svc.EditReview(r.Context(), userID, chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToReviewResponse(review))
}

// pathParam returns a decoded URL parameter. chi matches on the raw path
// when the request path contains escaped slashes, leaving params escaped.
func pathParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// Delete handles DELETE /api/reviews/{id}.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.RemoveReview(r.Context(), userID, id); err != nil {
		h.errs.handle(w, r, err)
		return
	}

	h.logger.Info("review_deleted",
		"review_id", id,
		"user_id", userID.String(),
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "review removed"})
}
