package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/animerch/internal/models"
)

// productColumns are the columns a seller may change after creation.
var productColumns = []string{
	"name", "description", "images", "category_id", "price", "stock", "is_listed", "version", "updated_at",
}

// GetProduct loads the product with category, seller shop and reviews.
func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Seller.SellerDetails").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductRow reads the product without associations, for writes.
func (r *GormRepo) GetProductRow(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) listedProducts(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_listed = ?", true)
}

// ListProducts returns one page of listed products, newest first, with
// category and seller shop populated.
func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.listedProducts(ctx).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	err := r.listedProducts(ctx).
		Preload("Category").
		Preload("Seller.SellerDetails").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListProductsBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetProductsByIDs loads listed products with category and seller shop, in
// no particular order.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Product
	err := r.listedProducts(ctx).
		Preload("Category").
		Preload("Seller.SellerDetails").
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SearchProducts is the database fallback used when no search index is
// configured: case-insensitive substring match on name or description.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	where := "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)"

	var total int64
	if err := r.listedProducts(ctx).Where(where, pattern, pattern).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	err := r.listedProducts(ctx).
		Where(where, pattern, pattern).
		Preload("Category").
		Preload("Seller.SellerDetails").
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit("Seller", "Category", "Reviews").Create(p).Error
}

// UpdateProduct writes the mutable columns if p.Version is still current
// and bumps the version. Returns ErrStale otherwise.
func (r *GormRepo) UpdateProduct(ctx context.Context, p *models.Product) error {
	current := p.Version
	p.Version = current + 1

	res := r.DB.WithContext(ctx).
		Model(p).
		Where("version = ?", current).
		Select(productColumns).
		Updates(p)
	if res.Error != nil {
		p.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		p.Version = current
		return ErrStale
	}
	return nil
}

// DecrementStock takes qty units if the product is still at version and
// has enough stock.
func (r *GormRepo) DecrementStock(ctx context.Context, id uuid.UUID, version, qty int) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND version = ? AND stock >= ?", id, version, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// DeleteProduct removes the product and its reviews. Placed orders keep
// their item snapshots.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.Transaction(ctx, func(tx *GormRepo) error {
		if err := tx.DB.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		res := tx.DB.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// EachProduct walks the whole catalog in batches.
func (r *GormRepo) EachProduct(ctx context.Context, batchSize int, fn func([]models.Product) error) error {
	var batch []models.Product
	return r.DB.WithContext(ctx).
		Order("id").
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
