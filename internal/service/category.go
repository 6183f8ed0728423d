package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/repo"
)

type CategoryService struct {
	Repo *repo.GormRepo
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CategoryService) CreateCategory(ctx context.Context, adminID uuid.UUID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation("Category name is required")
	}

	taken, err := s.Repo.CategoryNameTaken(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: Category already exists", ErrAlreadyExists)
	}

	cat := &models.Category{Name: name, CreatedBy: adminID}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: Category already exists", ErrAlreadyExists)
		}
		return nil, err
	}
	return cat, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return notFound(err, "Category not found")
	}
	return nil
}
