// Package availability derives which 15-minute slots of a business day can be
// booked or blocked. Everything here is a pure function of its inputs: business
// hours, staff overrides and breaks, existing bookings, blocked ranges and the
// current time. Nothing is cached; callers rebuild a Board per request.
//
// All intervals are half-open, [start, end), in minutes since midnight.
package availability

import (
	"strings"
	"time"

	"bookly/internal/domain"
)

// SlotMinutes is the atomic granularity for availability and blocking.
const SlotMinutes = 15

// AllStaff is the staff filter value meaning "no particular staff member".
const AllStaff = "all"

// ResolveHours returns the window for date's weekday. A staff member's own entry
// wins when it is present and non-empty; otherwise the business entry applies;
// with neither, the day is closed.
func ResolveHours(b *domain.Business, date time.Time, staffName string) domain.DayHours {
	if b == nil {
		return domain.DayHours{Closed: true}
	}

	if staff := normalizeStaff(staffName); staff != "" {
		if s, ok := b.FindStaff(staff); ok {
			if h, ok := s.OperatingHours.Day(date.Weekday()); ok {
				return h
			}
		}
	}

	if h, ok := b.OperatingHours.Day(date.Weekday()); ok {
		return h
	}

	return domain.DayHours{Closed: true}
}

// window parses h into [open, close). ok is false for closed or malformed days.
func window(h domain.DayHours) (open, closing int, ok bool) {
	if h.Closed {
		return 0, 0, false
	}
	open, err := domain.ParseClock(h.Open)
	if err != nil {
		return 0, 0, false
	}
	closing, err = domain.ParseClock(h.Close)
	if err != nil || closing <= open {
		return 0, 0, false
	}
	return open, closing, true
}

func normalizeStaff(name string) string {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, AllStaff) {
		return ""
	}
	return name
}
