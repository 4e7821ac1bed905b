package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/domain"
	"bookly/internal/events"
)

func bookingDTO(businessID int64, service, staff, tm string) domain.CreateBookingDTO {
	return domain.CreateBookingDTO{
		BusinessID:      businessID,
		CustomerName:    "Maria",
		CustomerEmail:   "Maria@Example.com",
		CustomerPhone:   "+1 (555) 123-4567",
		ServiceName:     service,
		StaffName:       staff,
		AppointmentDate: "2024-01-15",
		AppointmentTime: tm,
	}
}

func TestBookingService_Create(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	booking, err := env.services.Booking.Create(ctx, bookingDTO(salon.ID, "haircut", "anna", "12:00"))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Equal(t, "Haircut", booking.ServiceName)
	assert.Equal(t, "Anna", booking.StaffName)
	assert.Equal(t, 30, booking.ServiceDuration)
	assert.Equal(t, 25.0, booking.Price)
	assert.Equal(t, "maria@example.com", booking.CustomerEmail)
	assert.Equal(t, "+15551234567", booking.CustomerPhone)
	assert.Equal(t, []events.Kind{events.BookingCreated}, env.events.kinds())
}

func TestBookingService_CreateRejectsUnavailableStart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	env.bookings.add(domain.Booking{
		BusinessID:      salon.ID,
		StaffName:       "Anna",
		AppointmentDate: "2024-01-15",
		AppointmentTime: "15:00",
		ServiceDuration: 60,
		Status:          domain.BookingStatusConfirmed,
	})
	env.blocked.items = append(env.blocked.items, domain.BlockedSlot{
		BusinessID: salon.ID, Date: "2024-01-15", StartTime: "16:30", EndTime: "17:00",
	})

	tests := []struct {
		name    string
		service string
		time    string
	}{
		{"overlaps booking start", "Haircut", "15:30"},
		{"runs into booking", "Coloring", "14:30"},
		{"inside staff break", "Haircut", "13:15"},
		{"runs into staff break", "Haircut", "12:45"},
		{"blocked by business", "Haircut", "16:30"},
		{"already passed", "Haircut", "10:00"},
		{"does not fit before close", "Coloring", "17:15"},
		{"off the 15 minute grid", "Haircut", "12:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.services.Booking.Create(ctx, bookingDTO(salon.ID, tt.service, "Anna", tt.time))
			assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		})
	}
}

func TestBookingService_CreateIgnoresCancelledBookings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	env.bookings.add(domain.Booking{
		BusinessID:      salon.ID,
		AppointmentDate: "2024-01-15",
		AppointmentTime: "15:00",
		ServiceDuration: 30,
		Status:          domain.BookingStatusCancelled,
	})

	_, err := env.services.Booking.Create(ctx, bookingDTO(salon.ID, "Haircut", "", "15:00"))
	assert.NoError(t, err)
}

func TestBookingService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	_, err := env.services.Booking.Create(ctx, bookingDTO(salon.ID, "Massage", "", "12:00"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.services.Booking.Create(ctx, bookingDTO(salon.ID, "Haircut", "Ivan", "12:00"))
	assert.ErrorIs(t, err, domain.ErrValidation, "inactive staff cannot be booked")

	_, err = env.services.Booking.Create(ctx, bookingDTO(salon.ID, "Haircut", "Nobody", "12:00"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.services.Booking.Create(ctx, bookingDTO(salon.ID, "Haircut", "", "noon"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	dto := bookingDTO(salon.ID, "Haircut", "", "12:00")
	dto.AppointmentDate = "15.01.2024"
	_, err = env.services.Booking.Create(ctx, dto)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.services.Booking.Create(ctx, bookingDTO(999, "Haircut", "", "12:00"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_CreateOnInactiveBusiness(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()
	salon.IsActive = false
	require.NoError(t, env.businesses.Update(ctx, *salon))

	_, err := env.services.Booking.Create(ctx, bookingDTO(salon.ID, "Haircut", "", "12:00"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBookingService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to confirmed to completed", func(t *testing.T) {
		env := newTestEnv(testNow)
		id := env.bookings.add(domain.Booking{BusinessID: 1, Status: domain.BookingStatusPending})

		b, err := env.services.Booking.UpdateStatus(ctx, id, domain.UpdateBookingStatusDTO{Status: domain.BookingStatusConfirmed})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusConfirmed, b.Status)

		_, err = env.services.Booking.UpdateStatus(ctx, id, domain.UpdateBookingStatusDTO{Status: domain.BookingStatusCompleted})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCompleted, env.bookings.status(id))
		assert.Equal(t, []events.Kind{events.BookingStatusChanged, events.BookingStatusChanged}, env.events.kinds())
	})

	t.Run("cancel requires confirmation", func(t *testing.T) {
		env := newTestEnv(testNow)
		id := env.bookings.add(domain.Booking{BusinessID: 1, Status: domain.BookingStatusConfirmed})

		_, err := env.services.Booking.UpdateStatus(ctx, id, domain.UpdateBookingStatusDTO{Status: domain.BookingStatusCancelled})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, domain.BookingStatusConfirmed, env.bookings.status(id))

		_, err = env.services.Booking.UpdateStatus(ctx, id, domain.UpdateBookingStatusDTO{Status: domain.BookingStatusCancelled, Confirm: true})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, env.bookings.status(id))
	})

	t.Run("terminal states do not move", func(t *testing.T) {
		env := newTestEnv(testNow)
		completed := env.bookings.add(domain.Booking{BusinessID: 1, Status: domain.BookingStatusCompleted})
		cancelled := env.bookings.add(domain.Booking{BusinessID: 1, Status: domain.BookingStatusCancelled})

		_, err := env.services.Booking.UpdateStatus(ctx, completed, domain.UpdateBookingStatusDTO{Status: domain.BookingStatusCancelled, Confirm: true})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		_, err = env.services.Booking.UpdateStatus(ctx, cancelled, domain.UpdateBookingStatusDTO{Status: domain.BookingStatusConfirmed})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Empty(t, env.events.kinds())
	})

	t.Run("pending cannot skip to completed", func(t *testing.T) {
		env := newTestEnv(testNow)
		id := env.bookings.add(domain.Booking{BusinessID: 1, Status: domain.BookingStatusPending})

		_, err := env.services.Booking.UpdateStatus(ctx, id, domain.UpdateBookingStatusDTO{Status: domain.BookingStatusCompleted})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown status", func(t *testing.T) {
		env := newTestEnv(testNow)
		id := env.bookings.add(domain.Booking{BusinessID: 1, Status: domain.BookingStatusPending})

		_, err := env.services.Booking.UpdateStatus(ctx, id, domain.UpdateBookingStatusDTO{Status: "DONE"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestBookingService_ListForBusinessCompletesFinished(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()

	finished := env.bookings.add(domain.Booking{
		BusinessID: salon.ID, AppointmentDate: "2024-01-15", AppointmentTime: "09:00",
		ServiceDuration: 30, Status: domain.BookingStatusConfirmed,
	})
	other := env.bookings.add(domain.Booking{
		BusinessID: salon.ID + 1, AppointmentDate: "2024-01-15", AppointmentTime: "09:00",
		ServiceDuration: 30, Status: domain.BookingStatusConfirmed,
	})

	bookings, total, err := env.services.Booking.ListForBusiness(ctx, salon.ID, domain.BookingFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, bookings, 1)
	assert.Equal(t, domain.BookingStatusCompleted, bookings[0].Status)
	assert.Equal(t, domain.BookingStatusCompleted, env.bookings.status(finished))
	assert.Equal(t, domain.BookingStatusConfirmed, env.bookings.status(other), "other businesses are left to the scheduled sweep")
}

func TestBookingService_ConcurrentCreateBooksOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()
	env.bookings.rendezvousOnList(2, 200*time.Millisecond)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.services.Booking.Create(ctx, bookingDTO(salon.ID, "haircut", "anna", "12:00"))
		}(i)
	}
	wg.Wait()

	var ok, unavailable int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSlotUnavailable):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, unavailable)

	env.bookings.onList = nil
	stored, err := env.bookings.List(ctx, domain.BookingFilter{BusinessID: &salon.ID})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, []events.Kind{events.BookingCreated}, env.events.kinds())
}

func TestBookingService_CreateRacingBlockSlots(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(testNow)
	salon := env.seedSalon()
	env.bookings.rendezvousOnList(2, 200*time.Millisecond)

	var bookErr, blockErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, bookErr = env.services.Booking.Create(ctx, bookingDTO(salon.ID, "haircut", "anna", "12:00"))
	}()
	go func() {
		defer wg.Done()
		_, blockErr = env.services.BlockedSlot.BlockSlots(ctx, domain.BlockSlotsDTO{
			BusinessID: salon.ID, StaffName: "Anna", Date: "2024-01-15", Times: []string{"12:00"},
		})
	}()
	wg.Wait()

	if bookErr == nil {
		assert.ErrorIs(t, blockErr, domain.ErrSlotUnavailable)
		assert.Empty(t, env.blocked.items)
	} else {
		assert.ErrorIs(t, bookErr, domain.ErrSlotUnavailable)
		assert.NoError(t, blockErr)
		assert.Len(t, env.blocked.items, 1)
	}

	env.bookings.onList = nil
	stored, err := env.bookings.List(ctx, domain.BookingFilter{BusinessID: &salon.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, len(stored)+len(env.blocked.items))
}
