package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/errorutil"
)

func newAuthService(users ...*domain.User) *AuthService {
	tokens := auth.NewTokenManager("test-secret", 60)
	return NewAuthService(newFakeUserRepo(users...), tokens, 4)
}

func TestRegister(t *testing.T) {
	svc := newAuthService()

	result, err := svc.Register(context.Background(), "Alex", "ALEX@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, result.User.Role)
	assert.Equal(t, "alex@example.com", result.User.Email)
	assert.NotEmpty(t, result.Token)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@example.com", "hunter2hunter2")
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.Register(ctx, "Alex", "a@example.com", "short")
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "alex@example.com", "hunter2hunter2")
	assert.True(t, errorutil.IsCode(err, "CONFLICT"))
}

func TestLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter2hunter2")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alex@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(ctx, "alex@example.com", "wrongpassword")
	assert.True(t, errorutil.IsCode(err, "UNAUTHORIZED"))

	_, err = svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
	assert.True(t, errorutil.IsCode(err, "UNAUTHORIZED"))
}
