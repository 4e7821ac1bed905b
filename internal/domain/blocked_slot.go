package domain

import "time"

// BlockedSlot is a manual unavailability range set by the business, independent of bookings.
type BlockedSlot struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	StaffName  string    `json:"staff_name,omitempty"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateBlockedSlotDTO struct {
	BusinessID int64  `json:"business_id" binding:"required"`
	StaffName  string `json:"staff_name"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time"`
	Reason     string `json:"reason"`
}

// BlockSlotsDTO is a batch of single-slot blocks. RangeTo, when set, extends the
// selection from its last entry to RangeTo before submission.
type BlockSlotsDTO struct {
	BusinessID int64    `json:"business_id" binding:"required"`
	StaffName  string   `json:"staff_name"`
	Date       string   `json:"date" binding:"required"`
	Times      []string `json:"times"`
	RangeTo    *string  `json:"range_to"`
	Reason     string   `json:"reason"`
}

type BlockedSlotFilter struct {
	BusinessID *int64
	StaffName  *string
	Date       *string
}

// RangeSelectDTO previews extending a selection from its last entry to Target.
type RangeSelectDTO struct {
	Date      string   `json:"date" binding:"required"`
	StaffName string   `json:"staff_name"`
	Selected  []string `json:"selected"`
	Target    string   `json:"target" binding:"required"`
}

type RangeSelection struct {
	Selected []string `json:"selected"`
	Added    []string `json:"added"`
}
