package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/animerch/internal/models"
)

func (r *GormRepo) HasReview(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateReview(ctx context.Context, rv *models.Review) error {
	return r.DB.WithContext(ctx).Create(rv).Error
}

func (r *GormRepo) ListRatings(ctx context.Context, productID uuid.UUID) ([]int, error) {
	var ratings []int
	err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Pluck("rating", &ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// UpdateRating stores the recomputed aggregate under a version check.
func (r *GormRepo) UpdateRating(ctx context.Context, productID uuid.UUID, version int, rating float64, numReviews int) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND version = ?", productID, version).
		Updates(map[string]any{
			"rating":      rating,
			"num_reviews": numReviews,
			"version":     version + 1,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
