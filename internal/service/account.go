package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gamereviews/gamereviews/internal/metrics"
	"github.com/gamereviews/gamereviews/internal/model"
	"github.com/gamereviews/gamereviews/internal/repository"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 128
	maxUsernameLength = 50
	maxEmailLength    = 254
)

// UserStore is the credential store backing AccountService.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(candidate, encodedHash string) (bool, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID model.UserID) (string, error)
}

// AccountService handles registration, login and profile lookup.
type AccountService struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger, recorder metrics.Recorder) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput defines input for logging in.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  *model.User
}

// Register creates a user and returns a token for it.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)

	if err := validateRegistration(username, email, input.Password); err != nil {
		return nil, err
	}

	// Fast path only; the unique index on email is what guarantees it.
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           model.UserID(ulid.Make().String()),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailExists
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncUserRegistered()
	s.logger.Info("user registered", "user_id", user.ID.String())

	return &AuthResult{Token: token, User: user}, nil
}

// Login checks credentials and returns a fresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Spend the same hashing work as a real check.
			_, _ = s.hasher.Verify(input.Password, s.dummy())
			s.metrics.IncLogin("failed")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncLogin("failed")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLogin("success")
	return &AuthResult{Token: token, User: user}, nil
}

// Me returns the user behind an authenticated request.
func (s *AccountService) Me(ctx context.Context, id model.UserID) (*model.User, error) {
	if id.IsZero() {
		return nil, ErrUserNotFound
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *AccountService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.logger.Error("failed to prepare dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(username, email, password string) error {
	if username == "" {
		return invalid("username", "is required")
	}
	if model.TextLength(username) > maxUsernameLength {
		return invalid("username", "must be at most %d characters", maxUsernameLength)
	}

	if email == "" {
		return invalid("email", "is required")
	}
	if len(email) > maxEmailLength {
		return invalid("email", "is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "is not a valid address")
	}

	if len(password) < minPasswordLength {
		return invalid("password", "must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return invalid("password", "must be at most %d characters", maxPasswordLength)
	}
	return nil
}
