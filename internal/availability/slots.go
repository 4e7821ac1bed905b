package availability

import (
	"time"

	"bookly/internal/domain"
)

// DaySlots lists every aligned slot of the window that leaves room for a service
// of duration minutes before closing. Past slots are included.
func DaySlots(hours domain.DayHours, duration int) []string {
	open, closing, ok := window(hours)
	if !ok {
		return []string{}
	}
	if duration <= 0 {
		duration = SlotMinutes
	}

	slots := make([]string, 0, (closing-open)/SlotMinutes)
	for t := alignUp(open); t+duration <= closing; t += SlotMinutes {
		slots = append(slots, domain.FormatClock(t))
	}
	return slots
}

// GenerateSlots is DaySlots without the times that already passed: on today's
// date only slots strictly after now survive, and past dates yield nothing.
func GenerateSlots(hours domain.DayHours, date, now time.Time, duration int) []string {
	all := DaySlots(hours, duration)

	switch compareDay(date, now) {
	case -1:
		return []string{}
	case 1:
		return all
	}

	current := minuteOfDay(now)
	slots := make([]string, 0, len(all))
	for _, s := range all {
		t, err := domain.ParseClock(s)
		if err != nil || t <= current {
			continue
		}
		slots = append(slots, s)
	}
	return slots
}

func alignUp(minutes int) int {
	if rem := minutes % SlotMinutes; rem != 0 {
		return minutes + SlotMinutes - rem
	}
	return minutes
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// compareDay compares calendar dates only: -1 if date is before now's day.
func compareDay(date, now time.Time) int {
	d := date.Format(domain.DateLayout)
	n := now.Format(domain.DateLayout)
	switch {
	case d < n:
		return -1
	case d > n:
		return 1
	}
	return 0
}
