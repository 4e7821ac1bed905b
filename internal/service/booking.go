package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookly/internal/domain"
	"bookly/internal/events"
	"bookly/internal/repository"
	"bookly/pkg/validator"
)

type BookingServiceImpl struct {
	repo         repository.BookingRepository
	locker       repository.Locker
	availability AvailabilityService
	sweeper      *Sweeper
	events       events.Publisher
	logger       *zap.Logger
}

func NewBookingService(repo repository.BookingRepository, locker repository.Locker, availability AvailabilityService, sweeper *Sweeper, publisher events.Publisher, logger *zap.Logger) *BookingServiceImpl {
	return &BookingServiceImpl{
		repo:         repo,
		locker:       locker,
		availability: availability,
		sweeper:      sweeper,
		events:       publisher,
		logger:       logger,
	}
}

// Create books a service for a customer. The requested start must be free for
// the whole service duration on the board of that day. The board is read and
// the booking stored under the business lock.
func (s *BookingServiceImpl) Create(ctx context.Context, dto domain.CreateBookingDTO) (*domain.Booking, error) {
	if !validator.ValidateClock(dto.AppointmentTime) {
		return nil, fmt.Errorf("%w: invalid time %q, expected HH:MM", domain.ErrValidation, dto.AppointmentTime)
	}

	var booking domain.Booking
	err := s.locker.WithBusinessLock(ctx, dto.BusinessID, func(ctx context.Context) error {
		var err error
		booking, err = s.book(ctx, dto)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(events.BookingCreated, booking.BusinessID, booking))
	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("business_id", booking.BusinessID),
		zap.String("date", booking.AppointmentDate),
		zap.String("time", booking.AppointmentTime))

	return &booking, nil
}

func (s *BookingServiceImpl) book(ctx context.Context, dto domain.CreateBookingDTO) (domain.Booking, error) {
	board, err := s.availability.Board(ctx, dto.BusinessID, dto.AppointmentDate)
	if err != nil {
		return domain.Booking{}, err
	}
	business := board.Business

	if !business.IsActive {
		return domain.Booking{}, fmt.Errorf("%w: business is not accepting bookings", domain.ErrConflict)
	}

	svc, ok := business.FindService(dto.ServiceName)
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: unknown service %q", domain.ErrValidation, dto.ServiceName)
	}

	staffName := strings.TrimSpace(dto.StaffName)
	if staffName != "" {
		member, ok := business.FindStaff(staffName)
		if !ok || !member.IsActive {
			return domain.Booking{}, fmt.Errorf("%w: staff member %q is not available", domain.ErrValidation, staffName)
		}
		if len(member.Services) > 0 && !containsFold(member.Services, svc.Name) {
			return domain.Booking{}, fmt.Errorf("%w: %s does not offer %s", domain.ErrValidation, member.Name, svc.Name)
		}
		staffName = member.Name
	}

	if !board.CanBook(dto.AppointmentDate, dto.AppointmentTime, staffName, svc.Duration) {
		return domain.Booking{}, domain.ErrSlotUnavailable
	}

	booking := domain.Booking{
		BusinessID:      business.ID,
		BusinessName:    business.Name,
		CustomerName:    validator.SanitizeString(dto.CustomerName),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(dto.CustomerEmail)),
		CustomerPhone:   validator.FormatPhone(dto.CustomerPhone),
		ServiceName:     svc.Name,
		StaffName:       staffName,
		AppointmentDate: dto.AppointmentDate,
		AppointmentTime: dto.AppointmentTime,
		ServiceDuration: svc.Duration,
		Price:           svc.Price,
		Notes:           validator.SanitizeString(dto.Notes),
		Status:          domain.BookingStatusPending,
	}

	id, err := s.repo.Create(ctx, booking)
	if err != nil {
		s.logger.Error("Failed to create booking", zap.Int64("business_id", business.ID), zap.Error(err))
		return domain.Booking{}, err
	}
	booking.ID = id

	return booking, nil
}

func (s *BookingServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus applies one status-machine step. Cancelling needs an explicit
// confirmation flag.
func (s *BookingServiceImpl) UpdateStatus(ctx context.Context, id int64, dto domain.UpdateBookingStatusDTO) (*domain.Booking, error) {
	if !dto.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, dto.Status)
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(dto.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, booking.Status, dto.Status)
	}

	if dto.Status == domain.BookingStatusCancelled && !dto.Confirm {
		return nil, fmt.Errorf("%w: cancellation must be confirmed", domain.ErrValidation)
	}

	ok, err := s.repo.TransitionStatus(ctx, id, booking.Status, dto.Status)
	if err != nil {
		s.logger.Error("Failed to update booking status", zap.Int64("booking_id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking %d changed concurrently", domain.ErrConflict, id)
	}

	previous := booking.Status
	booking.Status = dto.Status

	s.events.Publish(ctx, events.New(events.BookingStatusChanged, booking.BusinessID, map[string]any{
		"booking":         booking,
		"previous_status": previous,
	}))
	s.logger.Info("Booking status changed",
		zap.Int64("booking_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(dto.Status)))

	return booking, nil
}

func (s *BookingServiceImpl) ListForBusiness(ctx context.Context, businessID int64, filter domain.BookingFilter) ([]domain.Booking, int, error) {
	if _, err := s.sweeper.Sweep(ctx, &businessID); err != nil {
		s.logger.Warn("Sweep before listing failed", zap.Int64("business_id", businessID), zap.Error(err))
	}

	filter.BusinessID = &businessID
	return s.List(ctx, filter)
}

func (s *BookingServiceImpl) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int, error) {
	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count bookings", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing bookings: %w", err)
	}

	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list bookings", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing bookings: %w", err)
	}

	return bookings, total, nil
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
