package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookly/internal/availability"
	"bookly/internal/domain"
	"bookly/internal/repository"
	"bookly/pkg/validator"
)

type AvailabilityServiceImpl struct {
	businessRepo    repository.BusinessRepository
	bookingRepo     repository.BookingRepository
	blockedSlotRepo repository.BlockedSlotRepository
	now             clock
	logger          *zap.Logger
}

func NewAvailabilityService(businessRepo repository.BusinessRepository, bookingRepo repository.BookingRepository, blockedSlotRepo repository.BlockedSlotRepository, now clock, logger *zap.Logger) *AvailabilityServiceImpl {
	return &AvailabilityServiceImpl{
		businessRepo:    businessRepo,
		bookingRepo:     bookingRepo,
		blockedSlotRepo: blockedSlotRepo,
		now:             now,
		logger:          logger,
	}
}

func (s *AvailabilityServiceImpl) Board(ctx context.Context, businessID int64, date string) (*availability.Board, error) {
	if !validator.ValidateDate(date) {
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", domain.ErrValidation, date)
	}

	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.List(ctx, domain.BookingFilter{
		BusinessID: &businessID,
		DateFrom:   &date,
		DateTo:     &date,
	})
	if err != nil {
		s.logger.Error("Failed to load bookings for board", zap.Int64("business_id", businessID), zap.Error(err))
		return nil, err
	}

	blocked, err := s.blockedSlotRepo.List(ctx, domain.BlockedSlotFilter{
		BusinessID: &businessID,
		Date:       &date,
	})
	if err != nil {
		s.logger.Error("Failed to load blocked slots for board", zap.Int64("business_id", businessID), zap.Error(err))
		return nil, err
	}

	return availability.NewBoard(business, bookings, blocked, s.now()), nil
}

func (s *AvailabilityServiceImpl) Day(ctx context.Context, businessID int64, date, staff string, duration int, detailed bool) (*availability.Day, error) {
	board, err := s.Board(ctx, businessID, date)
	if err != nil {
		return nil, err
	}

	if err := checkStaff(board.Business, staff); err != nil {
		return nil, err
	}

	day, err := board.Grid(date, staff, duration)
	if err != nil {
		return nil, err
	}
	if !detailed {
		day.Redact()
	}

	return &day, nil
}

// RangeSelect replays the client's current selection and extends it to the
// target the way a shift-click on the grid does.
func (s *AvailabilityServiceImpl) RangeSelect(ctx context.Context, businessID int64, dto domain.RangeSelectDTO) (*domain.RangeSelection, error) {
	board, err := s.Board(ctx, businessID, dto.Date)
	if err != nil {
		return nil, err
	}

	if err := checkStaff(board.Business, dto.StaffName); err != nil {
		return nil, err
	}

	daySlots, _, err := board.DaySlots(dto.Date, dto.StaffName, availability.SlotMinutes)
	if err != nil {
		return nil, err
	}

	selection := availability.NewSelection(dto.Selected...)
	added := selection.RangeFill(daySlots, dto.Target, board.Selectable(dto.Date, dto.StaffName))
	if added == nil {
		added = []string{}
	}

	return &domain.RangeSelection{
		Selected: selection.Items(),
		Added:    added,
	}, nil
}

// checkStaff rejects a staff filter naming nobody on the business.
func checkStaff(business *domain.Business, staff string) error {
	staff = strings.TrimSpace(staff)
	if staff == "" || strings.EqualFold(staff, availability.AllStaff) {
		return nil
	}
	if _, ok := business.FindStaff(staff); !ok {
		return fmt.Errorf("%w: unknown staff member %q", domain.ErrValidation, staff)
	}
	return nil
}
