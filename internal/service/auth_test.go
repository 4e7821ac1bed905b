package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/domain"
	"bookly/internal/events"
)

func registerSalon(t *testing.T, env *testEnv) int64 {
	t.Helper()
	id, err := env.services.Business.Create(context.Background(), domain.CreateBusinessDTO{
		Name:     "Salon",
		Email:    "owner@example.com",
		Phone:    "+7 900 123 45 67",
		Address:  "1 Main St",
		Password: "owner-secret",
		OperatingHours: domain.OperatingHours{
			"monday": {Open: "09:00", Close: "18:00"},
		},
		Services: []domain.Service{{Name: "Haircut", Duration: 30, Price: 25}},
		Staff: []domain.StaffInput{
			{Name: "Anna", Email: "Anna@Example.com", Password: "anna-secret", IsActive: true},
			{Name: "Ivan", Email: "ivan@example.com", Password: "ivan-secret", IsActive: false},
		},
	})
	require.NoError(t, err)
	return id
}

func TestAuthService_BusinessLoginAndRefresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	id := registerSalon(t, env)

	tokens, err := env.services.Auth.Login(ctx, domain.RoleBusiness, domain.LoginRequest{
		Email: "owner@example.com", Password: "owner-secret",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	principal, err := env.services.Auth.ParseToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBusiness, principal.Role)
	assert.Equal(t, id, principal.BusinessID)
	assert.True(t, principal.CanManageBusiness(id))
	assert.False(t, principal.CanManageBusiness(id+1))

	refreshed, err := env.services.Auth.RefreshTokens(ctx, tokens.RefreshToken, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	_, err = env.services.Auth.RefreshTokens(ctx, tokens.RefreshToken, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "refresh tokens are single use")

	require.NoError(t, env.services.Auth.Logout(ctx, refreshed.RefreshToken))
	assert.Equal(t, []events.Kind{events.BusinessLogin, events.BusinessLogout}, env.events.kinds())
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	registerSalon(t, env)

	_, err := env.services.Auth.Login(ctx, domain.RoleBusiness, domain.LoginRequest{
		Email: "owner@example.com", Password: "wrong",
	}, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.services.Auth.Login(ctx, domain.RoleBusiness, domain.LoginRequest{
		Email: "nobody@example.com", Password: "owner-secret",
	}, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.services.Auth.Login(ctx, "guest", domain.LoginRequest{}, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, env.events.kinds())
}

func TestAuthService_StaffLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	id := registerSalon(t, env)

	tokens, err := env.services.Auth.Login(ctx, domain.RoleStaff, domain.LoginRequest{
		Email: "anna@example.com", Password: "anna-secret",
	}, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, tokens.Principal.Role)
	assert.Equal(t, id, tokens.Principal.BusinessID)
	assert.Equal(t, "Anna", tokens.Principal.StaffName)

	_, err = env.services.Auth.Login(ctx, domain.RoleStaff, domain.LoginRequest{
		Email: "ivan@example.com", Password: "ivan-secret",
	}, "", "")
	assert.ErrorIs(t, err, domain.ErrInactive)

	// Deactivating Anna revokes her ability to refresh.
	active := false
	require.NoError(t, env.services.Business.Update(ctx, id, domain.UpdateBusinessDTO{
		Staff: &[]domain.StaffInput{
			{Name: "Anna", Email: "anna@example.com", IsActive: active},
		},
	}))
	_, err = env.services.Auth.RefreshTokens(ctx, tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, domain.ErrInactive)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)

	require.NoError(t, env.services.Auth.EnsureAdmin(ctx, "root@example.com", "root-secret", "Root"))
	require.NoError(t, env.services.Auth.EnsureAdmin(ctx, "root@example.com", "other", "Root"))
	assert.Len(t, env.auth.admins, 1)

	tokens, err := env.services.Auth.Login(ctx, domain.RoleAdmin, domain.LoginRequest{
		Email: "root@example.com", Password: "root-secret",
	}, "", "")
	require.NoError(t, err)
	assert.True(t, tokens.Principal.CanManageBusiness(42))

	require.NoError(t, env.services.Auth.EnsureAdmin(ctx, "", "", ""))
}

func TestAuthService_ParseTokenRejectsForeignKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	registerSalon(t, env)

	tokens, err := env.services.Auth.Login(ctx, domain.RoleBusiness, domain.LoginRequest{
		Email: "owner@example.com", Password: "owner-secret",
	}, "", "")
	require.NoError(t, err)

	other := newTestEnv(testNow)
	other.services.Auth.(*AuthServiceImpl).jwtConfig.SigningKey = "another-key"
	_, err = other.services.Auth.ParseToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.services.Auth.ParseToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
