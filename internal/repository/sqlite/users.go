package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/pkg/errors"

	"github.com/gamereviews/gamereviews/internal/model"
	"github.com/gamereviews/gamereviews/internal/repository"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Username, user.Email, user.PasswordHash, toMillis(user.CreatedAt),
	)
	if err != nil {
		if msg, ok := uniqueConstraint(err); ok {
			if strings.Contains(msg, "users.username") {
				return repository.ErrUsernameExists
			}
			return repository.ErrEmailExists
		}
		return errors.Wrap(err, "sqlite: CreateUser")
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id model.UserID) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`, id.String())
	return scanUser(row, "sqlite: GetUserByID")
}

// GetUserByEmail retrieves a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row, "sqlite: GetUserByEmail")
}

// GetUsernames resolves usernames for a batch of user IDs.
func (s *Store) GetUsernames(ctx context.Context, ids []model.UserID) (map[model.UserID]string, error) {
	result := make(map[model.UserID]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx, `SELECT id, username FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: GetUsernames")
	}
	defer rows.Close()

	for rows.Next() {
		var id, username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, errors.Wrap(err, "sqlite: GetUsernames scan")
		}
		result[model.UserID(id)] = username
	}
	return result, errors.Wrap(rows.Err(), "sqlite: GetUsernames rows")
}

func scanUser(row *sql.Row, op string) (*model.User, error) {
	var (
		u         model.User
		id        string
		createdAt int64
	)
	if err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, errors.Wrap(err, op)
	}
	u.ID = model.UserID(id)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}
