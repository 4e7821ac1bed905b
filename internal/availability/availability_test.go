package availability

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/domain"
)

// 2024-01-15 is a Monday.
const monday = "2024-01-15"

func weekHours(open, close string) domain.OperatingHours {
	hours := domain.OperatingHours{}
	for _, d := range domain.Weekdays {
		hours[d] = domain.DayHours{Open: open, Close: close}
	}
	hours["sunday"] = domain.DayHours{Closed: true}
	return hours
}

func testBusiness() *domain.Business {
	return &domain.Business{
		ID:             1,
		Name:           "Corner Barber",
		OperatingHours: weekHours("09:00", "17:00"),
		Staff: []domain.Staff{
			{
				Name:       "Anna",
				IsActive:   true,
				BreakTimes: []domain.BreakTime{{StartTime: "13:00", EndTime: "13:30"}},
				OperatingHours: domain.OperatingHours{
					"monday": {Open: "10:00", Close: "14:00"},
				},
			},
			{
				Name:       "Ivan",
				IsActive:   false,
				BreakTimes: []domain.BreakTime{{StartTime: "15:00", EndTime: "16:00"}},
			},
		},
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func at(date, clock string) time.Time {
	t, _ := time.Parse(domain.DateLayout+" "+domain.ClockLayout, date+" "+clock)
	return t
}

func TestResolveHours(t *testing.T) {
	b := testBusiness()
	day := mustDate(t, monday)

	assert.Equal(t, domain.DayHours{Open: "09:00", Close: "17:00"}, ResolveHours(b, day, ""))
	assert.Equal(t, domain.DayHours{Open: "09:00", Close: "17:00"}, ResolveHours(b, day, "all"))
	assert.Equal(t, domain.DayHours{Open: "10:00", Close: "14:00"}, ResolveHours(b, day, "anna"))

	// Anna has no Tuesday entry, so the business window applies.
	assert.Equal(t, domain.DayHours{Open: "09:00", Close: "17:00"}, ResolveHours(b, day.AddDate(0, 0, 1), "Anna"))

	assert.True(t, ResolveHours(b, day.AddDate(0, 0, 6), "").Closed)
	assert.True(t, ResolveHours(nil, day, "").Closed)

	b.OperatingHours = domain.OperatingHours{}
	assert.True(t, ResolveHours(b, day.AddDate(0, 0, 1), "").Closed)
}

func TestDaySlots(t *testing.T) {
	slots := DaySlots(domain.DayHours{Open: "09:00", Close: "10:00"}, 30)
	assert.Equal(t, []string{"09:00", "09:15", "09:30"}, slots)

	slots = DaySlots(domain.DayHours{Open: "09:10", Close: "10:00"}, 0)
	assert.Equal(t, []string{"09:15", "09:30", "09:45"}, slots)

	assert.Empty(t, DaySlots(domain.DayHours{Closed: true}, 30))
	assert.Empty(t, DaySlots(domain.DayHours{Open: "12:00", Close: "11:00"}, 30))
	assert.Empty(t, DaySlots(domain.DayHours{Open: "09:00", Close: "09:30"}, 45))
}

func TestGenerateSlotsFitsBeforeClosing(t *testing.T) {
	hours := domain.DayHours{Open: "09:00", Close: "17:00"}
	closing, _ := domain.ParseClock(hours.Close)

	for _, duration := range []int{15, 30, 45, 60, 90, 240} {
		slots := GenerateSlots(hours, mustDate(t, monday), at("2024-01-01", "08:00"), duration)
		require.NotEmpty(t, slots)
		for _, s := range slots {
			start, err := domain.ParseClock(s)
			require.NoError(t, err)
			assert.LessOrEqual(t, start+duration, closing, "slot %s duration %d", s, duration)
			assert.Zero(t, start%SlotMinutes)
		}
	}
}

func TestGenerateSlotsToday(t *testing.T) {
	hours := domain.DayHours{Open: "09:00", Close: "17:00"}
	now := at(monday, "12:07")

	slots := GenerateSlots(hours, mustDate(t, monday), now, 30)
	require.NotEmpty(t, slots)
	assert.Equal(t, "12:15", slots[0])
	assert.Equal(t, "16:30", slots[len(slots)-1])
	for _, s := range slots {
		m, _ := domain.ParseClock(s)
		assert.Greater(t, m, minuteOfDay(now))
	}

	// A slot starting exactly now is gone.
	slots = GenerateSlots(hours, mustDate(t, monday), at(monday, "12:15"), 30)
	assert.Equal(t, "12:30", slots[0])
}

func TestGenerateSlotsPastAndClosedDays(t *testing.T) {
	hours := domain.DayHours{Open: "09:00", Close: "17:00"}
	assert.Empty(t, GenerateSlots(hours, mustDate(t, monday), at("2024-01-16", "08:00"), 30))

	b := testBusiness()
	sunday := mustDate(t, "2024-01-21")
	assert.Empty(t, GenerateSlots(ResolveHours(b, sunday, ""), sunday, at("2024-01-01", "08:00"), 30))
}

func TestHasBookingAt(t *testing.T) {
	board := NewBoard(testBusiness(), []domain.Booking{
		{AppointmentDate: monday, AppointmentTime: "10:00", ServiceDuration: 60, Status: domain.BookingStatusConfirmed},
	}, nil, at("2024-01-01", "08:00"))

	assert.True(t, board.HasBookingAt(monday, "10:15", ""))
	assert.False(t, board.HasBookingAt(monday, "11:00", ""))

	for _, slot := range []string{"10:00", "10:15", "10:30", "10:45"} {
		assert.True(t, board.HasBookingAt(monday, slot, "all"), slot)
	}
	for _, slot := range []string{"09:30", "09:45", "11:00", "11:15"} {
		assert.False(t, board.HasBookingAt(monday, slot, "all"), slot)
	}

	assert.False(t, board.HasBookingAt("2024-01-16", "10:15", ""))
}

func TestHasBookingAtStaffAndStatus(t *testing.T) {
	board := NewBoard(testBusiness(), []domain.Booking{
		{AppointmentDate: monday, AppointmentTime: "10:00", ServiceDuration: 30, StaffName: "Anna", Status: domain.BookingStatusPending},
		{AppointmentDate: monday, AppointmentTime: "12:00", ServiceDuration: 30, Status: domain.BookingStatusConfirmed},
		{AppointmentDate: monday, AppointmentTime: "14:00", ServiceDuration: 30, Status: domain.BookingStatusCancelled},
	}, nil, at("2024-01-01", "08:00"))

	assert.True(t, board.HasBookingAt(monday, "10:00", "Anna"))
	assert.True(t, board.HasBookingAt(monday, "10:00", "anna"))
	assert.False(t, board.HasBookingAt(monday, "10:00", "Ivan"))
	assert.True(t, board.HasBookingAt(monday, "10:00", ""))

	// A booking without staff occupies everyone.
	assert.True(t, board.HasBookingAt(monday, "12:15", "Ivan"))

	assert.False(t, board.HasBookingAt(monday, "14:00", ""))
}

func TestInBreak(t *testing.T) {
	board := NewBoard(testBusiness(), nil, nil, at("2024-01-01", "08:00"))

	assert.True(t, board.InBreak("13:00", "Anna"))
	assert.True(t, board.InBreak("13:15", "Anna"))
	assert.False(t, board.InBreak("13:30", "Anna"))
	assert.False(t, board.InBreak("12:45", "Anna"))

	assert.True(t, board.InBreak("13:15", ""))
	// Inactive staff do not contribute breaks to the shared grid.
	assert.False(t, board.InBreak("15:00", "all"))
	assert.True(t, board.InBreak("15:00", "Ivan"))

	assert.False(t, board.InBreak("13:15", "Nobody"))
}

func TestIsBlocked(t *testing.T) {
	board := NewBoard(testBusiness(), nil, []domain.BlockedSlot{
		{Date: monday, StartTime: "09:00", EndTime: "10:00"},
		{Date: monday, StartTime: "11:00", EndTime: "11:00", StaffName: "Anna"},
		{Date: monday, StartTime: "12:00"},
	}, at("2024-01-01", "08:00"))

	assert.True(t, board.IsBlocked(monday, "09:00", ""))
	assert.True(t, board.IsBlocked(monday, "09:45", "Anna"))
	assert.False(t, board.IsBlocked(monday, "10:00", ""))

	assert.True(t, board.IsBlocked(monday, "11:00", "Anna"))
	assert.False(t, board.IsBlocked(monday, "11:15", "Anna"))
	assert.False(t, board.IsBlocked(monday, "11:00", "Ivan"))

	assert.True(t, board.IsBlocked(monday, "12:00", ""))
	assert.False(t, board.IsBlocked(monday, "12:15", ""))

	assert.False(t, board.IsBlocked("2024-01-16", "09:00", ""))
}

func TestBlockedRoundTrip(t *testing.T) {
	blocked := []domain.BlockedSlot{{ID: 7, Date: monday, StartTime: "14:00", EndTime: "14:15"}}
	board := NewBoard(testBusiness(), nil, blocked, at("2024-01-01", "08:00"))
	assert.True(t, board.IsBlocked(monday, "14:00", ""))
	assert.False(t, board.IsSelectable(monday, "14:00", ""))

	board = NewBoard(testBusiness(), nil, nil, at("2024-01-01", "08:00"))
	assert.False(t, board.IsBlocked(monday, "14:00", ""))
	assert.True(t, board.IsSelectable(monday, "14:00", ""))
}

func TestIsPast(t *testing.T) {
	board := NewBoard(testBusiness(), nil, nil, at(monday, "12:00"))

	assert.True(t, board.IsPast(monday, "11:45"))
	assert.True(t, board.IsPast(monday, "12:00"))
	assert.False(t, board.IsPast(monday, "12:15"))
	assert.True(t, board.IsPast("2024-01-14", "18:00"))
	assert.False(t, board.IsPast("2024-01-16", "06:00"))
}

func TestRangeFillSkipsOccupied(t *testing.T) {
	board := NewBoard(testBusiness(), []domain.Booking{
		{AppointmentDate: monday, AppointmentTime: "09:30", ServiceDuration: 30, Status: domain.BookingStatusConfirmed},
	}, nil, at("2024-01-01", "08:00"))

	slots, _, err := board.DaySlots(monday, "", SlotMinutes)
	require.NoError(t, err)

	sel := NewSelection("09:00")
	added := sel.RangeFill(slots, "10:00", board.Selectable(monday, ""))

	assert.Equal(t, []string{"09:15", "10:00"}, added)
	assert.Equal(t, []string{"09:00", "09:15", "10:00"}, sel.Items())
	assert.False(t, sel.Contains("09:30"))
	assert.False(t, sel.Contains("09:45"))
}

func TestRangeFillBackwards(t *testing.T) {
	board := NewBoard(testBusiness(), nil, []domain.BlockedSlot{
		{Date: monday, StartTime: "09:15", EndTime: "09:30"},
	}, at("2024-01-01", "08:00"))
	slots, _, err := board.DaySlots(monday, "", SlotMinutes)
	require.NoError(t, err)

	sel := NewSelection("09:45")
	sel.RangeFill(slots, "09:00", board.Selectable(monday, ""))
	assert.Equal(t, []string{"09:45", "09:00", "09:30"}, sel.Items())
}

func TestRangeFillWithoutAnchor(t *testing.T) {
	slots := DaySlots(domain.DayHours{Open: "09:00", Close: "10:00"}, SlotMinutes)
	all := func(string) bool { return true }

	sel := NewSelection()
	assert.Equal(t, []string{"09:30"}, sel.RangeFill(slots, "09:30", all))
	assert.Nil(t, sel.RangeFill(slots, "18:00", all))
	assert.Equal(t, 1, sel.Len())
}

func TestSelectionToggle(t *testing.T) {
	sel := NewSelection()
	assert.True(t, sel.Toggle("09:00"))
	assert.True(t, sel.Toggle("09:30"))
	assert.False(t, sel.Toggle("09:00"))
	assert.Equal(t, []string{"09:30"}, sel.Items())

	last, ok := sel.Last()
	assert.True(t, ok)
	assert.Equal(t, "09:30", last)

	assert.False(t, sel.Add("09:30"))
	sel.Clear()
	_, ok = sel.Last()
	assert.False(t, ok)
	assert.Zero(t, sel.Len())
}

func TestGrid(t *testing.T) {
	board := NewBoard(testBusiness(), []domain.Booking{
		{ID: 3, AppointmentDate: monday, AppointmentTime: "13:00", ServiceDuration: 15, Status: domain.BookingStatusConfirmed},
	}, []domain.BlockedSlot{
		{ID: 4, Date: monday, StartTime: "10:30", EndTime: "10:45"},
	}, at(monday, "10:00"))

	day, err := board.Grid(monday, "Anna", SlotMinutes)
	require.NoError(t, err)
	assert.Equal(t, "10:00", day.Hours.Open)
	require.Len(t, day.Slots, 16)

	states := map[string]SlotState{}
	var selectable []string
	for _, s := range day.Slots {
		states[s.Time] = s.State
		assert.Equal(t, s.State == SlotAvailable, s.Selectable, s.Time)
		if s.Selectable {
			selectable = append(selectable, s.Time)
		}
	}
	assert.Equal(t, selectable, day.Bookable)
	assert.Len(t, day.Bookable, 12)

	assert.Equal(t, SlotPast, states["10:00"])
	assert.Equal(t, SlotAvailable, states["10:15"])
	assert.Equal(t, SlotBlocked, states["10:30"])
	// Booked wins over the break that covers the same slot.
	assert.Equal(t, SlotBooked, states["13:00"])
	assert.Equal(t, SlotBreak, states["13:15"])
	assert.Equal(t, SlotAvailable, states["13:30"])

	_, err = board.Grid("15-01-2024", "", SlotMinutes)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGridRedact(t *testing.T) {
	board := NewBoard(testBusiness(), []domain.Booking{
		{
			ID: 9, AppointmentDate: monday, AppointmentTime: "11:00", ServiceDuration: 30,
			ServiceName: "Haircut", StaffName: "Anna", Status: domain.BookingStatusConfirmed,
			CustomerName: "Jane Roe", CustomerEmail: "jane@example.com", CustomerPhone: "+15551234567",
			Notes: "allergic to latex",
		},
	}, []domain.BlockedSlot{
		{ID: 4, Date: monday, StartTime: "12:00", EndTime: "12:15", Reason: "dentist"},
	}, at("2024-01-01", "08:00"))

	day, err := board.Grid(monday, "", SlotMinutes)
	require.NoError(t, err)

	cells := map[string]SlotView{}
	for _, s := range day.Slots {
		cells[s.Time] = s
	}
	require.NotNil(t, cells["11:15"].Booking)
	assert.Equal(t, "jane@example.com", cells["11:15"].Booking.CustomerEmail)

	day.Redact()
	cells = map[string]SlotView{}
	for _, s := range day.Slots {
		cells[s.Time] = s
	}

	booked := cells["11:15"]
	assert.Equal(t, SlotBooked, booked.State)
	assert.Nil(t, booked.Booking)
	require.NotNil(t, booked.Summary)
	assert.Equal(t, BookingSummary{
		ServiceName: "Haircut", StaffName: "Anna", AppointmentTime: "11:00",
		ServiceDuration: 30, Status: domain.BookingStatusConfirmed,
	}, *booked.Summary)

	require.NotNil(t, cells["12:00"].Blocked)
	assert.Empty(t, cells["12:00"].Blocked.Reason)
	assert.Equal(t, "dentist", board.Blocked[0].Reason)

	raw, err := json.Marshal(day)
	require.NoError(t, err)
	for _, secret := range []string{"jane@example.com", "Jane Roe", "+15551234567", "latex", "dentist"} {
		assert.NotContains(t, string(raw), secret)
	}
}

func TestCanBook(t *testing.T) {
	board := NewBoard(testBusiness(), []domain.Booking{
		{AppointmentDate: monday, AppointmentTime: "11:00", ServiceDuration: 30, Status: domain.BookingStatusConfirmed},
	}, nil, at("2024-01-01", "08:00"))

	assert.True(t, board.CanBook(monday, "10:00", "", 60))
	assert.False(t, board.CanBook(monday, "10:30", "", 60))
	assert.True(t, board.CanBook(monday, "11:30", "", 45))
	assert.False(t, board.CanBook(monday, "10:10", "", 15))
	assert.False(t, board.CanBook(monday, "16:30", "", 60))
	assert.True(t, board.CanBook(monday, "16:00", "", 60))

	// Anna's break covers 13:00-13:30.
	assert.False(t, board.CanBook(monday, "12:30", "Anna", 45))
	assert.True(t, board.CanBook(monday, "12:30", "Anna", 30))

	day, err := board.Grid(monday, "", 60)
	require.NoError(t, err)
	for _, s := range day.Slots {
		if s.Time == "10:30" {
			assert.Equal(t, SlotAvailable, s.State)
			assert.False(t, s.Selectable)
		}
	}
}
