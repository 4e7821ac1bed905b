package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookly/internal/domain"
	"bookly/internal/repository"
	"bookly/internal/storage"
	"bookly/pkg/auth"
	"bookly/pkg/validator"
)

type BusinessServiceImpl struct {
	repo        repository.BusinessRepository
	fileStorage storage.FileStorage
	logger      *zap.Logger
}

func NewBusinessService(repo repository.BusinessRepository, fileStorage storage.FileStorage, logger *zap.Logger) *BusinessServiceImpl {
	return &BusinessServiceImpl{
		repo:        repo,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

func (s *BusinessServiceImpl) Create(ctx context.Context, dto domain.CreateBusinessDTO) (int64, error) {
	if !validator.ValidatePhone(dto.Phone) {
		return 0, fmt.Errorf("%w: invalid phone number", domain.ErrValidation)
	}

	passwordHash, err := auth.HashPassword(dto.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return 0, fmt.Errorf("error hashing password: %w", err)
	}

	staff, err := buildStaff(dto.Staff, nil)
	if err != nil {
		return 0, err
	}

	business := domain.Business{
		Name:           validator.SanitizeString(dto.Name),
		Description:    validator.SanitizeString(dto.Description),
		Email:          dto.Email,
		Phone:          validator.FormatPhone(dto.Phone),
		Address:        validator.SanitizeString(dto.Address),
		CategoryID:     dto.CategoryID,
		ImageURL:       dto.ImageURL,
		PasswordHash:   passwordHash,
		IsActive:       true,
		OperatingHours: dto.OperatingHours,
		Services:       dto.Services,
		Staff:          staff,
	}

	if err := validateBusiness(&business); err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, business)
	if err != nil {
		s.logger.Error("Failed to create business", zap.String("email", dto.Email), zap.Error(err))
		return 0, err
	}

	s.logger.Info("Business registered", zap.Int64("business_id", id))
	return id, nil
}

func (s *BusinessServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	business, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	public := business.Public()
	return &public, nil
}

func (s *BusinessServiceImpl) Update(ctx context.Context, id int64, dto domain.UpdateBusinessDTO) error {
	business, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	oldImage := business.ImageURL

	if dto.Name != nil {
		business.Name = validator.SanitizeString(*dto.Name)
	}
	if dto.Description != nil {
		business.Description = validator.SanitizeString(*dto.Description)
	}
	if dto.Email != nil {
		business.Email = *dto.Email
	}
	if dto.Phone != nil {
		if !validator.ValidatePhone(*dto.Phone) {
			return fmt.Errorf("%w: invalid phone number", domain.ErrValidation)
		}
		business.Phone = validator.FormatPhone(*dto.Phone)
	}
	if dto.CategoryID != nil {
		business.CategoryID = dto.CategoryID
	}
	if dto.ImageURL != nil {
		business.ImageURL = *dto.ImageURL
	}
	if dto.IsActive != nil {
		business.IsActive = *dto.IsActive
	}
	if dto.OperatingHours != nil {
		business.OperatingHours = *dto.OperatingHours
	}
	if dto.Services != nil {
		business.Services = *dto.Services
	}
	if dto.Staff != nil {
		staff, err := buildStaff(*dto.Staff, business.Staff)
		if err != nil {
			return err
		}
		business.Staff = staff
	}

	if err := validateBusiness(business); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, *business); err != nil {
		s.logger.Error("Failed to update business", zap.Int64("business_id", id), zap.Error(err))
		return err
	}

	if oldImage != "" && oldImage != business.ImageURL {
		s.removeImage(ctx, oldImage)
	}

	return nil
}

func (s *BusinessServiceImpl) Delete(ctx context.Context, id int64) error {
	business, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete business", zap.Int64("business_id", id), zap.Error(err))
		return err
	}

	if business.ImageURL != "" {
		s.removeImage(ctx, business.ImageURL)
	}

	s.logger.Info("Business deleted", zap.Int64("business_id", id))
	return nil
}

func (s *BusinessServiceImpl) List(ctx context.Context, filter domain.BusinessFilter) ([]domain.Business, int, error) {
	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count businesses", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing businesses: %w", err)
	}

	businesses, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list businesses", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing businesses: %w", err)
	}

	for i := range businesses {
		businesses[i] = businesses[i].Public()
	}

	return businesses, total, nil
}

// removeImage drops an image the business no longer references. Failure only
// leaves an orphaned object behind.
func (s *BusinessServiceImpl) removeImage(ctx context.Context, url string) {
	if err := s.fileStorage.DeleteFile(ctx, url); err != nil && !storage.IsDisabled(err) {
		s.logger.Warn("Failed to delete old business image", zap.String("url", url), zap.Error(err))
	}
}

// buildStaff converts staff input into stored staff. A member submitted without
// a password keeps the hash of the existing member with the same name.
func buildStaff(input []domain.StaffInput, existing []domain.Staff) ([]domain.Staff, error) {
	staff := make([]domain.Staff, 0, len(input))
	seen := make(map[string]struct{}, len(input))

	for _, in := range input {
		name := validator.SanitizeString(in.Name)
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate staff name %q", domain.ErrValidation, name)
		}
		seen[key] = struct{}{}

		member := domain.Staff{
			Name:           name,
			Email:          strings.ToLower(strings.TrimSpace(in.Email)),
			IsActive:       in.IsActive,
			OperatingHours: in.OperatingHours,
			BreakTimes:     in.BreakTimes,
			Services:       in.Services,
		}

		switch {
		case in.Password != "":
			hash, err := auth.HashPassword(in.Password)
			if err != nil {
				return nil, fmt.Errorf("error hashing staff password: %w", err)
			}
			member.PasswordHash = hash
		default:
			for _, old := range existing {
				if strings.EqualFold(old.Name, name) {
					member.PasswordHash = old.PasswordHash
					break
				}
			}
		}

		staff = append(staff, member)
	}

	return staff, nil
}

func validateBusiness(b *domain.Business) error {
	if err := b.OperatingHours.Validate(); err != nil {
		return err
	}

	for _, svc := range b.Services {
		if err := svc.Validate(); err != nil {
			return err
		}
	}

	emails := make(map[string]struct{})
	for _, member := range b.Staff {
		if err := member.Validate(); err != nil {
			return err
		}
		if member.Email == "" {
			continue
		}
		if !validator.ValidateEmail(member.Email) {
			return fmt.Errorf("%w: staff %q has an invalid email", domain.ErrValidation, member.Name)
		}
		if _, dup := emails[member.Email]; dup {
			return fmt.Errorf("%w: staff email %s is used twice", domain.ErrValidation, member.Email)
		}
		emails[member.Email] = struct{}{}
		for _, svc := range member.Services {
			if _, ok := b.FindService(svc); !ok {
				return fmt.Errorf("%w: staff %q offers unknown service %q", domain.ErrValidation, member.Name, svc)
			}
		}
	}

	return nil
}
