package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/domain"
)

func TestBusinessService_GetByIDHidesCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	id := registerSalon(t, env)

	b, err := env.services.Business.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, b.PasswordHash)
	for _, s := range b.Staff {
		assert.Empty(t, s.PasswordHash)
	}
	assert.Equal(t, "+79001234567", b.Phone)
	assert.True(t, b.IsActive)
}

func TestBusinessService_UpdateKeepsStaffPasswords(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	id := registerSalon(t, env)

	before, err := env.businesses.GetByID(ctx, id)
	require.NoError(t, err)
	annaHash := before.Staff[0].PasswordHash
	require.NotEmpty(t, annaHash)

	require.NoError(t, env.services.Business.Update(ctx, id, domain.UpdateBusinessDTO{
		Staff: &[]domain.StaffInput{
			{Name: "Anna", Email: "anna@example.com", IsActive: true, Services: []string{"Haircut"}},
			{Name: "Olga", Email: "olga@example.com", Password: "olga-secret", IsActive: true},
		},
	}))

	after, err := env.businesses.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, after.Staff, 2)
	assert.Equal(t, annaHash, after.Staff[0].PasswordHash)
	assert.NotEmpty(t, after.Staff[1].PasswordHash)
	assert.Equal(t, []string{"Haircut"}, after.Staff[0].Services)
}

func TestBusinessService_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	id := registerSalon(t, env)

	tests := []struct {
		name string
		dto  domain.UpdateBusinessDTO
	}{
		{"bad phone", domain.UpdateBusinessDTO{Phone: ptr("call me")}},
		{"close before open", domain.UpdateBusinessDTO{OperatingHours: &domain.OperatingHours{
			"monday": {Open: "18:00", Close: "09:00"},
		}}},
		{"unknown weekday", domain.UpdateBusinessDTO{OperatingHours: &domain.OperatingHours{
			"funday": {Open: "09:00", Close: "18:00"},
		}}},
		{"service without duration", domain.UpdateBusinessDTO{Services: &[]domain.Service{{Name: "Nails"}}}},
		{"duplicate staff", domain.UpdateBusinessDTO{Staff: &[]domain.StaffInput{{Name: "Anna"}, {Name: "anna"}}}},
		{"staff offers unknown service", domain.UpdateBusinessDTO{Staff: &[]domain.StaffInput{
			{Name: "Anna", Services: []string{"Massage"}},
		}}},
		{"inverted break", domain.UpdateBusinessDTO{Staff: &[]domain.StaffInput{
			{Name: "Anna", BreakTimes: []domain.BreakTime{{StartTime: "14:00", EndTime: "13:00"}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.services.Business.Update(ctx, id, tt.dto)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestBusinessService_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	id := registerSalon(t, env)

	list, total, err := env.services.Business.List(ctx, domain.BusinessFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].PasswordHash)

	require.NoError(t, env.services.Business.Delete(ctx, id))
	_, err = env.services.Business.GetByID(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func ptr[T any](v T) *T {
	return &v
}
