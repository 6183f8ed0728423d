package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skotchmaster/animerch/internal/logging"
	"github.com/Skotchmaster/animerch/internal/metrics"
	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/mykafka"
	"github.com/Skotchmaster/animerch/internal/repo"
	"github.com/Skotchmaster/animerch/internal/transport"
)

// ProductIndex is the full-text search backend. *search.Index implements it.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Repo    *repo.GormRepo
	Events  mykafka.Publisher
	Metrics *metrics.Metrics
	// Index is optional; without it search runs against the database.
	Index   ProductIndex
	Retries int
	Now     func() time.Time
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, offset, limit)
}

func (s *CatalogService) ListSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	return s.Repo.ListProductsBySeller(ctx, sellerID)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	return p, nil
}

// SearchProducts ranks listed products against q. The index is preferred;
// when it is missing or failing the database substring match is used.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (total int64, items []models.Product, err error) {
	ctx, span := tracer.Start(ctx, "CatalogService.SearchProducts", trace.WithAttributes(
		attribute.String("search.query", q),
		attribute.Bool("search.indexed", s.Index != nil),
	))
	defer func() { endSpan(span, err) }()

	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, validation("Search query is required")
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, orderByIDs(items, ids), nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}

	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func orderByIDs(items []models.Product, ids []uuid.UUID) []models.Product {
	byID := make(map[uuid.UUID]models.Product, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(items))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func checkPriceStock(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Description) == "" {
		return validation("Name and description are required")
	}
	if p.Price.IsNegative() {
		return validation("Price must not be negative")
	}
	if p.Stock < 0 {
		return validation("Stock must not be negative")
	}
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Repo.GetCategory(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return validation("Category %s does not exist", id)
		}
		return err
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, sellerID uuid.UUID, req transport.CreateProductRequest) (*models.Product, error) {
	p := &models.Product{
		SellerID:    sellerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Images:      req.Images,
		CategoryID:  req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		IsListed:    true,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if err := checkPriceStock(p); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.syncIndex(ctx, p)
	s.publishProduct(ctx, "product_created", p)
	return p, nil
}

// UpdateProduct applies the non-nil fields of req. The owning seller is the
// only one allowed to edit.
func (s *CatalogService) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	if req.Category != nil {
		if err := s.checkCategory(ctx, *req.Category); err != nil {
			return nil, err
		}
	}

	for attempt := 0; ; attempt++ {
		p, err := s.Repo.GetProductRow(ctx, productID)
		if err != nil {
			return nil, notFound(err, "Product not found")
		}
		if p.SellerID != sellerID {
			return nil, fmt.Errorf("%w: Not authorized to edit this product", ErrForbidden)
		}

		applyPatch(p, req)
		if err := checkPriceStock(p); err != nil {
			return nil, err
		}

		err = s.Repo.UpdateProduct(ctx, p)
		if err == nil {
			s.syncIndex(ctx, p)
			s.publishProduct(ctx, "product_updated", p)
			return p, nil
		}
		if !errors.Is(err, repo.ErrStale) {
			return nil, err
		}
		if attempt >= s.Retries {
			return nil, fmt.Errorf("%w: Product was changed concurrently, please retry", ErrConflict)
		}
	}
}

func applyPatch(p *models.Product, req transport.PatchProductRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.Category != nil {
		p.CategoryID = *req.Category
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.IsListed != nil {
		p.IsListed = *req.IsListed
	}
}

func (s *CatalogService) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	p, err := s.Repo.GetProductRow(ctx, productID)
	if err != nil {
		return notFound(err, "Product not found")
	}
	if p.SellerID != sellerID {
		return fmt.Errorf("%w: Not authorized to delete this product", ErrForbidden)
	}

	if err := s.Repo.DeleteProduct(ctx, productID); err != nil {
		return notFound(err, "Product not found")
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, productID); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_failed", "product_id", productID, "error", err)
		}
	}
	s.publishProduct(ctx, "product_deleted", p)
	return nil
}

// ReindexProducts pushes every product to the search index.
func (s *CatalogService) ReindexProducts(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	n := 0
	err := s.Repo.EachProduct(ctx, 200, func(batch []models.Product) error {
		for i := range batch {
			if err := s.Index.IndexProduct(ctx, &batch[i]); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publishProduct(ctx context.Context, kind string, p *models.Product) {
	publish(ctx, s.Events, mykafka.TopicProductEvents, p.ID.String(), mykafka.ProductChanged{
		Type:      kind,
		ProductID: p.ID,
		SellerID:  p.SellerID,
		Name:      p.Name,
		At:        s.now(),
	})
}
