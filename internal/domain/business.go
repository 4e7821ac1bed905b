package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayHours is one weekday's opening window. A zero value means "not configured".
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// IsSet reports whether the entry carries any information at all.
func (h DayHours) IsSet() bool {
	return h.Closed || (h.Open != "" && h.Close != "")
}

func (h DayHours) Validate() error {
	if h.Closed || (h.Open == "" && h.Close == "") {
		return nil
	}
	open, err := ParseClock(h.Open)
	if err != nil {
		return err
	}
	closing, err := ParseClock(h.Close)
	if err != nil {
		return err
	}
	if closing <= open {
		return fmt.Errorf("%w: close %s must be after open %s", ErrValidation, h.Close, h.Open)
	}
	return nil
}

// OperatingHours maps a weekday key ("monday".."sunday") to its window.
type OperatingHours map[string]DayHours

func (o OperatingHours) Day(d time.Weekday) (DayHours, bool) {
	h, ok := o[WeekdayKey(d)]
	return h, ok && h.IsSet()
}

func (o OperatingHours) Validate() error {
	for key, h := range o {
		if !isWeekday(key) {
			return fmt.Errorf("%w: unknown weekday %q", ErrValidation, key)
		}
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

type Service struct {
	Name     string  `json:"name" binding:"required"`
	Duration int     `json:"duration" binding:"required,min=5,max=720"`
	Price    float64 `json:"price" binding:"min=0"`
}

func (s Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: service name is required", ErrValidation)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("%w: service %q needs a positive duration", ErrValidation, s.Name)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: service %q has a negative price", ErrValidation, s.Name)
	}
	return nil
}

// BreakTime is a staff member's recurring [start, end) unavailability.
type BreakTime struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (b BreakTime) Bounds() (int, int, error) {
	start, err := ParseClock(b.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(b.EndTime)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("%w: break %s-%s ends before it starts", ErrValidation, b.StartTime, b.EndTime)
	}
	return start, end, nil
}

type Staff struct {
	Name           string         `json:"name"`
	Email          string         `json:"email,omitempty"`
	PasswordHash   string         `json:"password_hash,omitempty"`
	IsActive       bool           `json:"isActive"`
	OperatingHours OperatingHours `json:"operatingHours,omitempty"`
	BreakTimes     []BreakTime    `json:"breakTimes,omitempty"`
	Services       []string       `json:"services,omitempty"`
}

func (s Staff) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: staff name is required", ErrValidation)
	}
	if err := s.OperatingHours.Validate(); err != nil {
		return fmt.Errorf("staff %q: %w", s.Name, err)
	}
	for _, b := range s.BreakTimes {
		if _, _, err := b.Bounds(); err != nil {
			return fmt.Errorf("staff %q: %w", s.Name, err)
		}
	}
	return nil
}

// Public strips credentials before the record leaves the service.
func (s Staff) Public() Staff {
	s.PasswordHash = ""
	return s
}

type Business struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Address        string         `json:"address"`
	CategoryID     *int64         `json:"category_id"`
	ImageURL       string         `json:"image_url"`
	PasswordHash   string         `json:"-"`
	IsActive       bool           `json:"is_active"`
	OperatingHours OperatingHours `json:"operating_hours"`
	Services       []Service      `json:"services"`
	Staff          []Staff        `json:"staff"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FindStaff looks a staff member up by name, case-insensitively.
func (b *Business) FindStaff(name string) (*Staff, bool) {
	for i := range b.Staff {
		if strings.EqualFold(b.Staff[i].Name, name) {
			return &b.Staff[i], true
		}
	}
	return nil, false
}

func (b *Business) FindService(name string) (*Service, bool) {
	for i := range b.Services {
		if strings.EqualFold(b.Services[i].Name, name) {
			return &b.Services[i], true
		}
	}
	return nil, false
}

func (b *Business) Public() Business {
	out := *b
	out.PasswordHash = ""
	out.Staff = make([]Staff, len(b.Staff))
	for i, s := range b.Staff {
		out.Staff[i] = s.Public()
	}
	return out
}

type StaffInput struct {
	Name           string         `json:"name" binding:"required"`
	Email          string         `json:"email" binding:"omitempty,email"`
	Password       string         `json:"password,omitempty" binding:"omitempty,min=6"`
	IsActive       bool           `json:"isActive"`
	OperatingHours OperatingHours `json:"operatingHours,omitempty"`
	BreakTimes     []BreakTime    `json:"breakTimes,omitempty"`
	Services       []string       `json:"services,omitempty"`
}

type CreateBusinessDTO struct {
	Name           string         `json:"name" binding:"required,min=2"`
	Description    string         `json:"description"`
	Email          string         `json:"email" binding:"required,email"`
	Phone          string         `json:"phone" binding:"required"`
	Address        string         `json:"address" binding:"required"`
	CategoryID     *int64         `json:"category_id"`
	ImageURL       string         `json:"image_url"`
	Password       string         `json:"password" binding:"required,min=6"`
	OperatingHours OperatingHours `json:"operating_hours"`
	Services       []Service      `json:"services" binding:"dive"`
	Staff          []StaffInput   `json:"staff" binding:"dive"`
}

type UpdateBusinessDTO struct {
	Name           *string         `json:"name" binding:"omitempty,min=2"`
	Description    *string         `json:"description"`
	Email          *string         `json:"email" binding:"omitempty,email"`
	Phone          *string         `json:"phone"`
	CategoryID     *int64          `json:"category_id"`
	ImageURL       *string         `json:"image_url"`
	IsActive       *bool           `json:"is_active"`
	OperatingHours *OperatingHours `json:"operating_hours"`
	Services       *[]Service      `json:"services" binding:"omitempty,dive"`
	Staff          *[]StaffInput   `json:"staff" binding:"omitempty,dive"`
}

type BusinessFilter struct {
	CategoryID *int64
	Search     string
	IsActive   *bool
	Limit      int
	Offset     int
}

func isWeekday(key string) bool {
	for _, d := range Weekdays {
		if d == key {
			return true
		}
	}
	return false
}
