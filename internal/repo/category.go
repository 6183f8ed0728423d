package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/animerch/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CategoryNameTaken(ctx context.Context, name string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
