package domain

import (
	"time"
)

type Role string

const (
	RoleBusiness Role = "business"
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
)

func (r Role) IsValid() bool {
	return r == RoleBusiness || r == RoleAdmin || r == RoleStaff
}

// Principal is the authenticated caller. It replaces the three browser-side
// session blobs (business, admin, staff) with one typed value.
type Principal struct {
	Role       Role   `json:"role"`
	SubjectID  int64  `json:"subject_id"`
	BusinessID int64  `json:"business_id,omitempty"`
	StaffName  string `json:"staff_name,omitempty"`
	Email      string `json:"email"`
}

// CanManageBusiness reports whether the caller may act on behalf of businessID.
// Staff members may only read and block slots for their own business.
func (p Principal) CanManageBusiness(businessID int64) bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleBusiness, RoleStaff:
		return p.BusinessID == businessID
	}
	return false
}

type Admin struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Principal    Principal `json:"principal"`
}

type Session struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	SubjectID    int64     `json:"subject_id"`
	BusinessID   int64     `json:"business_id"`
	StaffName    string    `json:"staff_name"`
	Email        string    `json:"email"`
	RefreshToken string    `json:"-"`
	UserAgent    string    `json:"user_agent"`
	IP           string    `json:"ip"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s Session) Principal() Principal {
	return Principal{
		Role:       s.Role,
		SubjectID:  s.SubjectID,
		BusinessID: s.BusinessID,
		StaffName:  s.StaffName,
		Email:      s.Email,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
