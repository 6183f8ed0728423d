package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/animerch/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit("Customer", "Seller").Create(o).Error
}

func (r *GormRepo) orders(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Preload("OrderItems")
}

// GetOrder loads the order with items and both parties.
func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.orders(ctx).
		Preload("Customer").
		Preload("Seller.SellerDetails").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersByCustomer returns the customer's orders newest first with the
// seller populated.
func (r *GormRepo) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var items []models.Order
	err := r.orders(ctx).
		Preload("Seller.SellerDetails").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListOrdersBySeller returns the seller's orders newest first with the
// customer populated.
func (r *GormRepo) ListOrdersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	var items []models.Order
	err := r.orders(ctx).
		Preload("Customer").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateOrderStatus persists the only fields that change after creation,
// provided the order is still in status from. Returns ErrStale otherwise.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, o *models.Order, from models.OrderStatus) error {
	res := r.DB.WithContext(ctx).
		Model(o).
		Where("order_status = ?", from).
		Select("order_status", "rejection_reason", "estimated_delivery", "updated_at").
		Updates(o)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
