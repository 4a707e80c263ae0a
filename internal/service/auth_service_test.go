package service

import (
	"context"
	"testing"
	"time"

	"noteguard-be/internal/dto"
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "Alice@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", reg.TokenType)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.Equal(t, string(entity.UserRoleUser), reg.User.Role)

	claims, err := jwt.ValidateToken(reg.Token, "test-jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, reg.User.Id.String(), claims.UserID)
	assert.Equal(t, "user", claims.Role)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{name: "by username", identifier: "alice", password: "password123"},
		{name: "by email", identifier: "ALICE@example.com", password: "password123"},
		{name: "wrong password", identifier: "alice", password: "password124", wantErr: apperror.ErrUnauthorized},
		{name: "unknown user", identifier: "bob", password: "password123", wantErr: apperror.ErrUnauthorized},
		{name: "unknown email", identifier: "bob@example.com", password: "password123", wantErr: apperror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.auth.Login(ctx, &dto.LoginRequest{Identifier: tt.identifier, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, reg.User.Id, res.User.Id)
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.auth.Register(ctx, &dto.RegisterRequest{Username: "alice2", Email: "ALICE@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCreateUserWithRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.auth.CreateUser(ctx, &dto.RegisterRequest{Username: "root", Email: "root@example.com", Password: "password123"}, entity.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)

	_, err = f.auth.CreateUser(ctx, &dto.RegisterRequest{Username: "x", Email: "x@example.com", Password: "password123"}, entity.UserRole("owner"))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestValidateToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	res, err := f.auth.ValidateToken(reg.Token)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, reg.User.Id, res.UserId)
	assert.Equal(t, "user", res.Role)

	_, err = f.auth.ValidateToken("garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	foreign, err := jwt.GenerateToken(reg.User.Id.String(), "user", time.Hour, "some-other-secret")
	require.NoError(t, err)
	_, err = f.auth.ValidateToken(foreign)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
