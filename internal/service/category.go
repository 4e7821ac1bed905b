package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookly/internal/domain"
	"bookly/internal/repository"
	"bookly/pkg/validator"
)

type CategoryServiceImpl struct {
	repo   repository.CategoryRepository
	logger *zap.Logger
}

func NewCategoryService(repo repository.CategoryRepository, logger *zap.Logger) *CategoryServiceImpl {
	return &CategoryServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

func (s *CategoryServiceImpl) Create(ctx context.Context, dto domain.CreateCategoryDTO) (int64, error) {
	dto.Name = validator.SanitizeString(dto.Name)

	slug, err := categorySlug(dto.Slug, dto.Name)
	if err != nil {
		return 0, err
	}
	dto.Slug = slug

	id, err := s.repo.Create(ctx, dto)
	if err != nil {
		s.logger.Error("Failed to create category", zap.String("slug", dto.Slug), zap.Error(err))
		return 0, err
	}

	return id, nil
}

func (s *CategoryServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Debug("Category not found", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return category, nil
}

func (s *CategoryServiceImpl) Update(ctx context.Context, id int64, dto domain.UpdateCategoryDTO) error {
	if dto.Slug != nil {
		slug, err := categorySlug(*dto.Slug, "")
		if err != nil {
			return err
		}
		dto.Slug = &slug
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("Failed to update category", zap.Int64("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *CategoryServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete category", zap.Int64("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *CategoryServiceImpl) List(ctx context.Context, filter domain.CategoryFilter) ([]domain.Category, int, error) {
	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count categories", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing categories: %w", err)
	}

	categories, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing categories: %w", err)
	}

	return categories, total, nil
}

// categorySlug uses slug when given, otherwise derives one from name.
func categorySlug(slug, name string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = validator.Slugify(name)
	}
	if !validator.ValidateSlug(slug) {
		return "", fmt.Errorf("%w: invalid slug %q", domain.ErrValidation, slug)
	}
	return slug, nil
}
