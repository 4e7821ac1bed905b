package domain

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo encodes PENDING -> CONFIRMED -> {COMPLETED | CANCELLED}.
// A pending request may also be cancelled outright.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCompleted || next == BookingStatusCancelled
	}
	return false
}

type Booking struct {
	ID              int64         `json:"id"`
	BusinessID      int64         `json:"business_id"`
	BusinessName    string        `json:"business_name,omitempty"`
	CustomerName    string        `json:"customer_name"`
	CustomerEmail   string        `json:"customer_email"`
	CustomerPhone   string        `json:"customer_phone"`
	ServiceName     string        `json:"service_name"`
	StaffName       string        `json:"staff_name,omitempty"`
	AppointmentDate string        `json:"appointment_date"`
	AppointmentTime string        `json:"appointment_time"`
	ServiceDuration int           `json:"service_duration"`
	Price           float64       `json:"price"`
	Notes           string        `json:"notes,omitempty"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Interval returns the occupied [start, end) range in minutes since midnight.
func (b Booking) Interval() (int, int, error) {
	start, err := ParseClock(b.AppointmentTime)
	if err != nil {
		return 0, 0, err
	}
	return start, start + b.ServiceDuration, nil
}

// EndsAt is the wall-clock moment the service finishes, in loc.
func (b Booking) EndsAt(loc *time.Location) (time.Time, error) {
	day, err := ParseDate(b.AppointmentDate)
	if err != nil {
		return time.Time{}, err
	}
	start, err := ParseClock(b.AppointmentTime)
	if err != nil {
		return time.Time{}, err
	}
	begin := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return begin.Add(time.Duration(start+b.ServiceDuration) * time.Minute), nil
}

type CreateBookingDTO struct {
	BusinessID      int64  `json:"business_id" binding:"required"`
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email" binding:"required,email"`
	CustomerPhone   string `json:"customer_phone"`
	ServiceName     string `json:"service_name" binding:"required"`
	StaffName       string `json:"staff_name"`
	AppointmentDate string `json:"appointment_date" binding:"required"`
	AppointmentTime string `json:"appointment_time" binding:"required"`
	Notes           string `json:"notes"`
}

type UpdateBookingStatusDTO struct {
	Status  BookingStatus `json:"status" binding:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
	Confirm bool          `json:"confirm"`
}

type BookingFilter struct {
	BusinessID *int64
	Status     *BookingStatus
	StaffName  *string
	DateFrom   *string
	DateTo     *string
	Limit      int
	Offset     int
}
