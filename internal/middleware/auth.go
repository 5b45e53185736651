package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gamereviews/gamereviews/internal/auth"
	"github.com/gamereviews/gamereviews/internal/metrics"
	"github.com/gamereviews/gamereviews/internal/model"
)

// DefaultAuthHeader carries the raw session token.
const DefaultAuthHeader = "X-Auth-Token"

// Auth failure messages. They are part of the API contract.
const (
	msgTokenMissing = "token not provided"
	msgTokenInvalid = "invalid token"
)

// TokenVerifier validates a session token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (model.UserID, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
	// HeaderName is the token header; DefaultAuthHeader when empty.
	// "Authorization: Bearer <token>" is always accepted as a fallback.
	HeaderName string
	Metrics    metrics.Recorder
}

// Auth returns a middleware that rejects requests without a valid token
// and puts the token's user ID into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	header := cfg.HeaderName
	if header == "" {
		header = DefaultAuthHeader
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, header)
			if token == "" {
				logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthRejected("missing")
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", msgTokenMissing)
				return
			}

			userID, err := cfg.Verifier.Verify(token)
			if err != nil {
				logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("error", err.Error()),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthRejected("invalid")
				writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", msgTokenInvalid)
				return
			}

			noteUser(r.Context(), userID)
			ctx := auth.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the configured header, then falls back to a bearer
// Authorization header.
func extractToken(r *http.Request, header string) string {
	if token := strings.TrimSpace(r.Header.Get(header)); token != "" {
		return token
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) > len("Bearer ") && strings.EqualFold(authHeader[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}
