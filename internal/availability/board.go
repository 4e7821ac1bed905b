package availability

import (
	"strings"
	"time"

	"bookly/internal/domain"
)

// SlotState is what occupies a grid cell.
type SlotState string

const (
	SlotAvailable SlotState = "available"
	SlotBooked    SlotState = "booked"
	SlotBlocked   SlotState = "blocked"
	SlotBreak     SlotState = "break"
	SlotPast      SlotState = "past"
)

// BreakInfo names the staff break covering a cell.
type BreakInfo struct {
	StaffName string `json:"staff_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BookingSummary is the part of a booking anyone looking at the grid may see.
type BookingSummary struct {
	ServiceName     string               `json:"service_name"`
	StaffName       string               `json:"staff_name,omitempty"`
	AppointmentTime string               `json:"appointment_time"`
	ServiceDuration int                  `json:"service_duration"`
	Status          domain.BookingStatus `json:"status"`
}

func summarize(b *domain.Booking) *BookingSummary {
	return &BookingSummary{
		ServiceName:     b.ServiceName,
		StaffName:       b.StaffName,
		AppointmentTime: b.AppointmentTime,
		ServiceDuration: b.ServiceDuration,
		Status:          b.Status,
	}
}

// SlotView is one cell of the reservation grid with whatever occupies it.
// Booking carries customer details and is only kept for the business itself.
type SlotView struct {
	Time       string              `json:"time"`
	State      SlotState           `json:"state"`
	Selectable bool                `json:"selectable"`
	Summary    *BookingSummary     `json:"summary,omitempty"`
	Booking    *domain.Booking     `json:"booking,omitempty"`
	Blocked    *domain.BlockedSlot `json:"blocked,omitempty"`
	Break      *BreakInfo          `json:"break,omitempty"`
}

// Day is the rendered grid of one date.
type Day struct {
	Date  string          `json:"date"`
	Staff string          `json:"staff,omitempty"`
	Hours domain.DayHours `json:"hours"`
	Slots []SlotView      `json:"slots"`
	// Bookable are the start times a customer can still pick for the duration.
	Bookable []string `json:"bookable"`
}

// Redact drops customer details and block reasons, leaving booking summaries.
func (d *Day) Redact() {
	for i := range d.Slots {
		view := &d.Slots[i]
		view.Booking = nil
		if view.Blocked != nil {
			blocked := *view.Blocked
			blocked.Reason = ""
			view.Blocked = &blocked
		}
	}
}

// Board answers occupancy questions for one business from explicit inputs.
// Now must already be in the business's location.
type Board struct {
	Business *domain.Business
	Bookings []domain.Booking
	Blocked  []domain.BlockedSlot
	Now      time.Time
}

// NewBoard builds a board; now must be in the business's location.
func NewBoard(business *domain.Business, bookings []domain.Booking, blocked []domain.BlockedSlot, now time.Time) *Board {
	return &Board{
		Business: business,
		Bookings: bookings,
		Blocked:  blocked,
		Now:      now,
	}
}

// HasBookingAt reports whether a non-cancelled booking overlaps [slot, slot+15).
func (b *Board) HasBookingAt(date, slot, staff string) bool {
	_, ok := b.BookingAt(date, slot, staff)
	return ok
}

// BookingAt returns the booking occupying slot, if any.
func (b *Board) BookingAt(date, slot, staff string) (*domain.Booking, bool) {
	slotStart, err := domain.ParseClock(slot)
	if err != nil {
		return nil, false
	}
	slotEnd := slotStart + SlotMinutes
	staff = normalizeStaff(staff)

	for i := range b.Bookings {
		booking := &b.Bookings[i]
		if booking.Status == domain.BookingStatusCancelled || booking.AppointmentDate != date {
			continue
		}
		if !staffMatches(booking.StaffName, staff) {
			continue
		}
		start, end, err := booking.Interval()
		if err != nil {
			continue
		}
		if slotStart < end && slotEnd > start {
			return booking, true
		}
	}
	return nil, false
}

// IsBlocked reports whether slot falls inside a blocked [start, end) range.
func (b *Board) IsBlocked(date, slot, staff string) bool {
	_, ok := b.BlockedAt(date, slot, staff)
	return ok
}

// BlockedAt returns the blocked record covering slot, if any.
func (b *Board) BlockedAt(date, slot, staff string) (*domain.BlockedSlot, bool) {
	t, err := domain.ParseClock(slot)
	if err != nil {
		return nil, false
	}
	staff = normalizeStaff(staff)

	for i := range b.Blocked {
		blocked := &b.Blocked[i]
		if blocked.Date != date || !staffMatches(blocked.StaffName, staff) {
			continue
		}
		start, end, ok := BlockedRange(*blocked)
		if !ok {
			continue
		}
		if t >= start && t < end {
			return blocked, true
		}
	}
	return nil, false
}

// InBreak checks the given staff member's breaks, or every active staff
// member's breaks when staff is empty or "all".
func (b *Board) InBreak(slot, staff string) bool {
	_, ok := b.BreakAt(slot, staff)
	return ok
}

// BreakAt returns the staff break covering slot, if any.
func (b *Board) BreakAt(slot, staff string) (*BreakInfo, bool) {
	if b.Business == nil {
		return nil, false
	}
	t, err := domain.ParseClock(slot)
	if err != nil {
		return nil, false
	}

	staff = normalizeStaff(staff)
	for _, member := range b.Business.Staff {
		if staff == "" {
			if !member.IsActive {
				continue
			}
		} else if !strings.EqualFold(member.Name, staff) {
			continue
		}

		for _, br := range member.BreakTimes {
			start, end, err := br.Bounds()
			if err != nil {
				continue
			}
			if t >= start && t < end {
				return &BreakInfo{StaffName: member.Name, StartTime: br.StartTime, EndTime: br.EndTime}, true
			}
		}
	}
	return nil, false
}

// IsPast reports whether the slot starts at or before now.
func (b *Board) IsPast(date, slot string) bool {
	day, err := domain.ParseDate(date)
	if err != nil {
		return true
	}
	switch compareDay(day, b.Now) {
	case -1:
		return true
	case 1:
		return false
	}
	t, err := domain.ParseClock(slot)
	if err != nil {
		return true
	}
	return t <= minuteOfDay(b.Now)
}

// IsSelectable reports whether slot is free and still ahead of now.
func (b *Board) IsSelectable(date, slot, staff string) bool {
	if _, err := domain.ParseClock(slot); err != nil {
		return false
	}
	return !b.IsPast(date, slot) &&
		!b.HasBookingAt(date, slot, staff) &&
		!b.IsBlocked(date, slot, staff) &&
		!b.InBreak(slot, staff)
}

// CanBook reports whether a service of duration minutes can start at slot: the
// slot must be one the day offers for that duration, and every 15-minute step
// the service covers must be selectable.
func (b *Board) CanBook(date, slot, staff string, duration int) bool {
	if duration <= 0 {
		duration = SlotMinutes
	}
	slots, _, err := b.DaySlots(date, staff, duration)
	if err != nil || indexOf(slots, slot) < 0 {
		return false
	}

	start, _ := domain.ParseClock(slot)
	for t := start; t < start+duration; t += SlotMinutes {
		if !b.IsSelectable(date, domain.FormatClock(t), staff) {
			return false
		}
	}
	return true
}

// Selectable binds date and staff, for use with Selection.RangeFill.
func (b *Board) Selectable(date, staff string) func(string) bool {
	return func(slot string) bool {
		return b.IsSelectable(date, slot, staff)
	}
}

// DaySlots is the full slot list of date for staff, past slots included.
func (b *Board) DaySlots(date, staff string, duration int) ([]string, domain.DayHours, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, domain.DayHours{}, err
	}
	hours := ResolveHours(b.Business, day, staff)
	return DaySlots(hours, duration), hours, nil
}

// Grid renders every slot of the day with its state and occupant.
func (b *Board) Grid(date, staff string, duration int) (Day, error) {
	slots, hours, err := b.DaySlots(date, staff, duration)
	if err != nil {
		return Day{}, err
	}

	day, err := domain.ParseDate(date)
	if err != nil {
		return Day{}, err
	}

	out := Day{
		Date:     date,
		Staff:    normalizeStaff(staff),
		Hours:    hours,
		Slots:    make([]SlotView, 0, len(slots)),
		Bookable: []string{},
	}

	for _, slot := range GenerateSlots(hours, day, b.Now, duration) {
		if b.CanBook(date, slot, staff, duration) {
			out.Bookable = append(out.Bookable, slot)
		}
	}

	for _, slot := range slots {
		view := SlotView{Time: slot, State: SlotAvailable}

		if booking, ok := b.BookingAt(date, slot, staff); ok {
			view.State = SlotBooked
			view.Summary = summarize(booking)
			view.Booking = booking
		} else if blocked, ok := b.BlockedAt(date, slot, staff); ok {
			view.State = SlotBlocked
			view.Blocked = blocked
		} else if br, ok := b.BreakAt(slot, staff); ok {
			view.State = SlotBreak
			view.Break = br
		} else if b.IsPast(date, slot) {
			view.State = SlotPast
		}

		view.Selectable = view.State == SlotAvailable &&
			(duration <= SlotMinutes || b.CanBook(date, slot, staff, duration))
		out.Slots = append(out.Slots, view)
	}

	return out, nil
}

// BlockedRange returns the blocked record as [start, end). A record whose end is
// missing or not after its start covers exactly one slot.
func BlockedRange(s domain.BlockedSlot) (int, int, bool) {
	start, err := domain.ParseClock(s.StartTime)
	if err != nil {
		return 0, 0, false
	}
	end, err := domain.ParseClock(s.EndTime)
	if err != nil || end <= start {
		end = start + SlotMinutes
	}
	return start, end, true
}

// staffMatches: a record without staff applies to everyone, and an empty
// filter accepts every record.
func staffMatches(recordStaff, filter string) bool {
	if filter == "" || recordStaff == "" {
		return true
	}
	return strings.EqualFold(recordStaff, filter)
}
