package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_RegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.accounts.Register(ctx, RegisterInput{
		Username: "  alice ",
		Email:    " A@X.com ",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Equal(t, "a@x.com", reg.User.Email)
	assert.NotEmpty(t, reg.User.ID)
	assert.NotEqual(t, "secret1", reg.User.PasswordHash)

	subject, err := env.tokens.Verify(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, subject)

	login, err := env.accounts.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	subject, err = env.tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, subject)

	snap := env.recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.UsersRegistered)
	assert.Equal(t, uint64(1), snap.LoginsSucceeded)
}

func TestAccountService_RegisterDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "a@x.com")

	_, err := env.accounts.Register(ctx, RegisterInput{Username: "alice2", Email: "A@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = env.accounts.Register(ctx, RegisterInput{Username: "alice", Email: "other@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestAccountService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Username: "  ", Email: "a@x.com", Password: "secret1"}, "username"},
		{"missing email", RegisterInput{Username: "alice", Email: "", Password: "secret1"}, "email"},
		{"malformed email", RegisterInput{Username: "alice", Email: "not-an-email", Password: "secret1"}, "email"},
		{"display name email", RegisterInput{Username: "alice", Email: "Alice <a@x.com>", Password: "secret1"}, "email"},
		{"short password", RegisterInput{Username: "alice", Email: "a@x.com", Password: "12345"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.accounts.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAccountService_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "a@x.com")

	tests := []struct {
		name  string
		input LoginInput
	}{
		{"wrong password", LoginInput{Email: "a@x.com", Password: "wrong-password"}},
		{"unknown email", LoginInput{Email: "nobody@x.com", Password: "secret1"}},
		{"empty password", LoginInput{Email: "a@x.com", Password: ""}},
		{"empty email", LoginInput{Email: "", Password: "secret1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.accounts.Login(ctx, tt.input)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}

	assert.Equal(t, uint64(2), env.recorder.Snapshot().LoginsFailed)
}

func TestAccountService_Me(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "a@x.com")

	me, err := env.accounts.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	_, err = env.accounts.Me(ctx, "01UNKNOWN")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.accounts.Me(ctx, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
