package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gamereviews/gamereviews/internal/model"
)

// DefaultTokenTTL is the validity window of issued tokens.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrInvalidToken covers every verification failure: bad signature,
	// malformed token, wrong algorithm, expiry, missing subject.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned when the service is built without a key.
	ErrMissingSecret = errors.New("token signing secret is required")
)

// tokenUser is the identity object embedded in the claims.
type tokenUser struct {
	ID string `json:"id"`
}

// tokenClaims is the signed payload: {"user":{"id":...},"iat":...,"exp":...}.
type tokenClaims struct {
	User tokenUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens. It holds no
// mutable state; a single instance is shared by all requests.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService signing with secret.
// A non-positive ttl selects DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the validity window of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token binding userID.
func (s *TokenService) Issue(userID model.UserID) (string, error) {
	if userID.IsZero() {
		return "", fmt.Errorf("issue token: empty user id")
	}

	now := s.now()
	claims := tokenClaims{
		User: tokenUser{ID: userID.String()},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its subject.
func (s *TokenService) Verify(token string) (model.UserID, error) {
	var claims tokenClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.User.ID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return model.UserID(claims.User.ID), nil
}
