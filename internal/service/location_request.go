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

type LocationRequestServiceImpl struct {
	repo         repository.LocationRequestRepository
	businessRepo repository.BusinessRepository
	events       events.Publisher
	logger       *zap.Logger
}

func NewLocationRequestService(repo repository.LocationRequestRepository, businessRepo repository.BusinessRepository, publisher events.Publisher, logger *zap.Logger) *LocationRequestServiceImpl {
	return &LocationRequestServiceImpl{
		repo:         repo,
		businessRepo: businessRepo,
		events:       publisher,
		logger:       logger,
	}
}

// Create files a request to move the business to a new address. The current
// address is captured so the admin can compare both.
func (s *LocationRequestServiceImpl) Create(ctx context.Context, businessID int64, dto domain.CreateLocationRequestDTO) (int64, error) {
	requested := validator.SanitizeString(dto.RequestedAddress)
	if requested == "" {
		return 0, fmt.Errorf("%w: requested address is required", domain.ErrValidation)
	}

	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return 0, err
	}
	if strings.EqualFold(strings.TrimSpace(business.Address), requested) {
		return 0, fmt.Errorf("%w: requested address matches the current one", domain.ErrValidation)
	}

	id, err := s.repo.Create(ctx, domain.LocationRequest{
		BusinessID:       businessID,
		CurrentAddress:   business.Address,
		RequestedAddress: requested,
		Reason:           validator.SanitizeString(dto.Reason),
	})
	if err != nil {
		s.logger.Error("Failed to create location request", zap.Int64("business_id", businessID), zap.Error(err))
		return 0, err
	}

	s.logger.Info("Location request created", zap.Int64("id", id), zap.Int64("business_id", businessID))
	return id, nil
}

func (s *LocationRequestServiceImpl) GetByID(ctx context.Context, id int64) (*domain.LocationRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// Review approves or rejects a pending request. Approval moves the business.
func (s *LocationRequestServiceImpl) Review(ctx context.Context, id int64, dto domain.ReviewLocationRequestDTO) (*domain.LocationRequest, error) {
	if dto.Status != domain.LocationRequestApproved && dto.Status != domain.LocationRequestRejected {
		return nil, fmt.Errorf("%w: review status must be APPROVED or REJECTED", domain.ErrValidation)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.LocationRequestPending {
		return nil, fmt.Errorf("%w: location request %d is already %s", domain.ErrConflict, id, current.Status)
	}

	dto.AdminNote = validator.SanitizeString(dto.AdminNote)
	if err := s.repo.Review(ctx, id, dto); err != nil {
		s.logger.Error("Failed to review location request", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	reviewed, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(events.LocationRequestReviewed, reviewed.BusinessID, reviewed))
	s.logger.Info("Location request reviewed", zap.Int64("id", id), zap.String("status", string(dto.Status)))

	return reviewed, nil
}

func (s *LocationRequestServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *LocationRequestServiceImpl) List(ctx context.Context, filter domain.LocationRequestFilter) ([]domain.LocationRequest, int, error) {
	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count location requests", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing location requests: %w", err)
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list location requests", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing location requests: %w", err)
	}

	return requests, total, nil
}
