package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/mykafka"
	"github.com/Skotchmaster/animerch/internal/repo"
	"github.com/Skotchmaster/animerch/internal/transport"
)

const msgAlreadyReviewed = "Product already reviewed"

// AddReview records the caller's single review of a product and refreshes
// the product's mean rating.
func (s *CatalogService) AddReview(ctx context.Context, userID, productID uuid.UUID, req transport.ReviewRequest) (p *models.Product, err error) {
	ctx, span := tracer.Start(ctx, "CatalogService.AddReview", trace.WithAttributes(
		attribute.String("product.id", productID.String()),
		attribute.Int("review.rating", req.Rating),
	))
	defer func() { endSpan(span, err) }()

	if _, err := s.Repo.GetProductRow(ctx, productID); err != nil {
		return nil, notFound(err, "Product not found")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, validation("Rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, validation("Comment is required")
	}

	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}

	for attempt := 0; ; attempt++ {
		p, err = s.appendReview(ctx, user, productID, req.Rating, comment)
		if !errors.Is(err, repo.ErrStale) {
			break
		}
		if attempt >= s.Retries {
			return nil, fmt.Errorf("%w: Product was changed concurrently, please retry", ErrConflict)
		}
	}
	if err != nil {
		return nil, err
	}

	s.Metrics.ReviewAdded()
	s.syncIndex(ctx, p)
	publish(ctx, s.Events, mykafka.TopicProductEvents, productID.String(), mykafka.ReviewAdded{
		Type:       "review_added",
		ProductID:  productID,
		UserID:     userID,
		Rating:     req.Rating,
		NewAverage: p.Rating,
		NumReviews: p.NumReviews,
		At:         s.now(),
	})
	return p, nil
}

func (s *CatalogService) appendReview(ctx context.Context, user *models.User, productID uuid.UUID, rating int, comment string) (*models.Product, error) {
	var p *models.Product

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		p, err = tx.GetProductRow(ctx, productID)
		if err != nil {
			return notFound(err, "Product not found")
		}

		reviewed, err := tx.HasReview(ctx, productID, user.ID)
		if err != nil {
			return err
		}
		if reviewed {
			return fmt.Errorf("%w: %s", ErrAlreadyReviewed, msgAlreadyReviewed)
		}

		rv := &models.Review{
			ProductID: productID,
			UserID:    user.ID,
			Username:  user.Username,
			Rating:    rating,
			Comment:   comment,
		}
		if err := tx.CreateReview(ctx, rv); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrAlreadyReviewed, msgAlreadyReviewed)
			}
			return err
		}

		ratings, err := tx.ListRatings(ctx, productID)
		if err != nil {
			return err
		}
		p.NumReviews = len(ratings)
		p.Rating = mean(ratings)

		if err := tx.UpdateRating(ctx, productID, p.Version, p.Rating, p.NumReviews); err != nil {
			return err
		}
		p.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func mean(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
