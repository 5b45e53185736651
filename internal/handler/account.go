package handler

import (
	"log/slog"
	"net/http"

	"github.com/gamereviews/gamereviews/internal/auth"
	"github.com/gamereviews/gamereviews/internal/handler/dto"
	"github.com/gamereviews/gamereviews/internal/service"
)

// AccountHandler handles registration, login and the current user.
type AccountHandler struct {
	svc    *service.AccountService
	logger *slog.Logger
	errs   errorWriter
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.AccountService, logger *slog.Logger, strictStatus bool) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		logger: logger,
		errs:   errorWriter{logger: logger, strict: strictStatus},
	}
}

// Register handles POST /api/users/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: result.Token,
		User:  dto.ToUserResponse(result.User),
	})
}

// Login handles POST /api/users/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: result.Token,
		User:  dto.ToUserResponse(result.User),
	})
}

// Me handles GET /api/users/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserIDFromContext(r.Context())

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		h.errs.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}
