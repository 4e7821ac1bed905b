package domain

import "time"

type LocationRequestStatus string

const (
	LocationRequestPending  LocationRequestStatus = "PENDING"
	LocationRequestApproved LocationRequestStatus = "APPROVED"
	LocationRequestRejected LocationRequestStatus = "REJECTED"
)

// LocationRequest is a business asking the admins to move its listed address.
type LocationRequest struct {
	ID               int64                 `json:"id"`
	BusinessID       int64                 `json:"business_id"`
	BusinessName     string                `json:"business_name,omitempty"`
	CurrentAddress   string                `json:"current_address"`
	RequestedAddress string                `json:"requested_address"`
	Reason           string                `json:"reason"`
	Status           LocationRequestStatus `json:"status"`
	AdminNote        string                `json:"admin_note,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type CreateLocationRequestDTO struct {
	RequestedAddress string `json:"requested_address" binding:"required,min=5"`
	Reason           string `json:"reason"`
}

type ReviewLocationRequestDTO struct {
	Status    LocationRequestStatus `json:"status" binding:"required,oneof=APPROVED REJECTED"`
	AdminNote string                `json:"admin_note"`
}

type LocationRequestFilter struct {
	BusinessID *int64
	Status     *LocationRequestStatus
	Limit      int
	Offset     int
}
