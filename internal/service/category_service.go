package service

import (
	"context"
	"errors"
	"strings"

	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/repository"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

// CategoryService manages complaint categories.
type CategoryService struct {
	categories repository.CategoryRepository
}

// CategoryInput describes category create/update payload.
type CategoryInput struct {
	Name                string
	Description         string
	Department          string
	ResolutionTimeHours int
	IsActive            *bool
}

// NewCategoryService creates the service.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// Create adds a category. Categories are active unless stated otherwise.
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if err := validateCategory(input); err != nil {
		return nil, err
	}
	category := &domain.Category{
		Name:                strings.TrimSpace(input.Name),
		Description:         strings.TrimSpace(input.Description),
		Department:          strings.TrimSpace(input.Department),
		ResolutionTimeHours: input.ResolutionTimeHours,
		IsActive:            input.IsActive == nil || *input.IsActive,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Update replaces a category's editable fields. Existing complaints keep the
// deadlines they were created with.
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	if err := validateCategory(input); err != nil {
		return nil, err
	}
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(input.Name)
	category.Description = strings.TrimSpace(input.Description)
	category.Department = strings.TrimSpace(input.Department)
	category.ResolutionTimeHours = input.ResolutionTimeHours
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, mapCategoryErr(err, id)
	}
	return category, nil
}

// Get returns a category by id.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapCategoryErr(err, id)
	}
	return category, nil
}

// List returns categories, optionally only active ones.
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// Delete removes a category no complaint references.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryInUse) {
			return apperrors.NewConflict("category is referenced by complaints", map[string]any{"category_id": id})
		}
		return mapCategoryErr(err, id)
	}
	return nil
}

func validateCategory(input CategoryInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	if strings.TrimSpace(input.Department) == "" {
		return apperrors.NewValidationError("department is required", nil)
	}
	if input.ResolutionTimeHours < 0 {
		return apperrors.NewValidationError("resolution_time_hours must not be negative",
			map[string]any{"resolution_time_hours": input.ResolutionTimeHours})
	}
	return nil
}

func mapCategoryErr(err error, id string) error {
	if isNotFound(err) {
		return apperrors.NewNotFound("category", map[string]any{"category_id": id})
	}
	return apperrors.MapError(err)
}
