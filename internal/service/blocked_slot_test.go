package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/domain"
	"bookly/internal/events"
)

func slotTimes(slots []domain.BlockedSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartTime)
	}
	return out
}

func TestBlockedSlotService_CreateSingle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	tests := []struct {
		name    string
		end     string
		wantEnd string
	}{
		{"explicit range", "16:00", "16:00"},
		{"missing end", "", "15:15"},
		{"end before start", "14:00", "15:15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := env.services.BlockedSlot.Create(ctx, domain.CreateBlockedSlotDTO{
				BusinessID: salon.ID,
				Date:       "2024-01-15",
				StartTime:  "15:00",
				EndTime:    tt.end,
				Reason:     " <b>lunch</b> ",
			})
			require.NoError(t, err)
			assert.Equal(t, "15:00", slot.StartTime)
			assert.Equal(t, tt.wantEnd, slot.EndTime)
			assert.Equal(t, "blunch/b", slot.Reason)
		})
	}

	_, err := env.services.BlockedSlot.Create(ctx, domain.CreateBlockedSlotDTO{
		BusinessID: salon.ID, Date: "2024-01-15", StartTime: "3pm",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBlockedSlotService_BlockSlotsWithRange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	env.bookings.add(domain.Booking{
		BusinessID: salon.ID, AppointmentDate: "2024-01-15", AppointmentTime: "12:30",
		ServiceDuration: 30, Status: domain.BookingStatusConfirmed,
	})

	rangeTo := "13:30"
	slots, err := env.services.BlockedSlot.BlockSlots(ctx, domain.BlockSlotsDTO{
		BusinessID: salon.ID,
		Date:       "2024-01-15",
		Times:      []string{"12:00"},
		RangeTo:    &rangeTo,
		Reason:     "training",
	})
	require.NoError(t, err)

	// 12:30 and 12:45 are booked, 13:00 and 13:15 are Anna's break.
	assert.Equal(t, []string{"12:00", "12:15", "13:30"}, slotTimes(slots))
	for _, s := range slots {
		assert.NotZero(t, s.ID)
		assert.Equal(t, "training", s.Reason)
	}
	assert.Equal(t, "12:15", slots[0].EndTime)
	assert.Equal(t, "13:45", slots[2].EndTime)
	assert.Equal(t, []events.Kind{events.SlotsBlocked}, env.events.kinds())

	// The blocked slots now show up on the board.
	day, err := env.services.Availability.Day(ctx, salon.ID, "2024-01-15", "", 15, true)
	require.NoError(t, err)
	for _, view := range day.Slots {
		if view.Time == "12:15" {
			assert.EqualValues(t, "blocked", view.State)
			assert.False(t, view.Selectable)
		}
	}
}

func TestBlockedSlotService_BlockSlotsRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	env.bookings.add(domain.Booking{
		BusinessID: salon.ID, AppointmentDate: "2024-01-15", AppointmentTime: "12:30",
		ServiceDuration: 30, Status: domain.BookingStatusPending,
	})

	tests := []struct {
		name  string
		times []string
	}{
		{"booked slot", []string{"12:00", "12:30"}},
		{"break slot", []string{"13:00"}},
		{"past slot", []string{"10:00"}},
		{"outside hours", []string{"19:00"}},
		{"malformed", []string{"noon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.services.BlockedSlot.BlockSlots(ctx, domain.BlockSlotsDTO{
				BusinessID: salon.ID,
				Date:       "2024-01-15",
				Times:      tt.times,
			})
			assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		})
	}

	assert.Empty(t, env.blocked.items)
	assert.Empty(t, env.events.kinds())
}

func TestBlockedSlotService_BlockSlotsValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	_, err := env.services.BlockedSlot.BlockSlots(ctx, domain.BlockSlotsDTO{BusinessID: salon.ID, Date: "2024-01-15"})
	assert.ErrorIs(t, err, domain.ErrValidation, "empty selection")

	outside := "20:00"
	_, err = env.services.BlockedSlot.BlockSlots(ctx, domain.BlockSlotsDTO{
		BusinessID: salon.ID, Date: "2024-01-15", Times: []string{"12:00"}, RangeTo: &outside,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.services.BlockedSlot.BlockSlots(ctx, domain.BlockSlotsDTO{
		BusinessID: salon.ID, Date: "2024-01-15", StaffName: "Olga", Times: []string{"12:00"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBlockedSlotService_BlockSlotsStorageFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()
	env.blocked.batchErr = errors.New("connection reset")

	_, err := env.services.BlockedSlot.BlockSlots(ctx, domain.BlockSlotsDTO{
		BusinessID: salon.ID, Date: "2024-01-15", Times: []string{"12:00", "12:15"},
	})
	assert.Error(t, err)
	assert.Empty(t, env.events.kinds())
}

func TestBlockedSlotService_StaffScopedBlock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	slots, err := env.services.BlockedSlot.BlockSlots(ctx, domain.BlockSlotsDTO{
		BusinessID: salon.ID, Date: "2024-01-15", StaffName: "anna", Times: []string{"16:00"},
	})
	require.NoError(t, err)
	require.Len(t, slots, 1)

	board, err := env.services.Availability.Board(ctx, salon.ID, "2024-01-15")
	require.NoError(t, err)
	assert.True(t, board.IsBlocked("2024-01-15", "16:00", "Anna"))
	assert.True(t, board.IsBlocked("2024-01-15", "16:00", ""), "the all-staff view shows every block")
	assert.False(t, board.IsBlocked("2024-01-15", "16:00", "Ivan"))
}

func TestBlockedSlotService_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	slot, err := env.services.BlockedSlot.Create(ctx, domain.CreateBlockedSlotDTO{
		BusinessID: salon.ID, Date: "2024-01-15", StartTime: "15:00",
	})
	require.NoError(t, err)

	require.NoError(t, env.services.BlockedSlot.Delete(ctx, slot.ID))
	assert.Equal(t, []events.Kind{events.SlotsBlocked, events.SlotsUnblocked}, env.events.kinds())

	assert.ErrorIs(t, env.services.BlockedSlot.Delete(ctx, slot.ID), domain.ErrNotFound)
}
