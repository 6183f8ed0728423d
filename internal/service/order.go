package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skotchmaster/animerch/internal/metrics"
	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/mykafka"
	"github.com/Skotchmaster/animerch/internal/repo"
	"github.com/Skotchmaster/animerch/internal/transport"
)

// StatusPolicy decides which status changes a seller may make.
type StatusPolicy int

const (
	// StatusPolicyPermissive lets the owner set any update target from any state.
	StatusPolicyPermissive StatusPolicy = iota
	// StatusPolicyStrict allows only the next step of the fulfilment path.
	StatusPolicyStrict
)

func (p StatusPolicy) Allows(from, to models.OrderStatus) bool {
	if p == StatusPolicyStrict {
		return from.CanTransitionTo(to)
	}
	return to.IsUpdateTarget()
}

type OrderService struct {
	Repo    *repo.GormRepo
	Events  mykafka.Publisher
	Metrics *metrics.Metrics
	Policy  StatusPolicy
	// Retries is how many times order placement is re-run after losing a
	// stock update race.
	Retries int
	Now     func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

const msgMixedSellers = "Order items must be from the same seller. Please create separate orders."

func (s *OrderService) CreateOrder(ctx context.Context, customerID uuid.UUID, req transport.CreateOrderRequest) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("order.customer_id", customerID.String()),
		attribute.Int("order.items", len(req.OrderItems)),
	))
	defer func() {
		if err != nil {
			s.Metrics.OrderCreateFailed(failureReason(err))
		}
		endSpan(span, err)
	}()

	if len(req.OrderItems) == 0 {
		return nil, validation("No order items")
	}
	for _, it := range req.OrderItems {
		if it.Qty < 1 {
			return nil, validation("Quantity must be at least 1")
		}
	}
	if !req.ShippingAddress.Complete() {
		return nil, validation("Please provide a complete shipping address")
	}

	for attempt := 0; ; attempt++ {
		order, err = s.placeOrder(ctx, customerID, req)
		if !errors.Is(err, repo.ErrStale) {
			break
		}
		span.AddEvent("stock_update_conflict", trace.WithAttributes(attribute.Int("attempt", attempt+1)))
		if attempt >= s.Retries {
			return nil, fmt.Errorf("%w: Stock changed while placing the order, please try again", ErrConflict)
		}
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	s.Metrics.OrderCreated()
	publish(ctx, s.Events, mykafka.TopicOrderEvents, order.ID.String(), mykafka.OrderCreated{
		Type:       "order_created",
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		SellerID:   order.SellerID,
		TotalPrice: order.TotalPrice,
		Items:      len(order.OrderItems),
		At:         order.CreatedAt,
	})
	return order, nil
}

// placeOrder checks every item, decrements stock and stores the order in
// one transaction. Any failure leaves stock untouched.
func (s *OrderService) placeOrder(ctx context.Context, customerID uuid.UUID, req transport.CreateOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		firstID := req.OrderItems[0].Product
		first, err := tx.GetProductRow(ctx, firstID)
		if err != nil {
			return notFound(err, "Product with ID %s not found", firstID)
		}
		sellerID := first.SellerID

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.OrderItems))

		for _, it := range req.OrderItems {
			p, err := tx.GetProductRow(ctx, it.Product)
			if err != nil {
				return notFound(err, "Product %s not found", it.Product)
			}
			if p.SellerID != sellerID {
				return validation(msgMixedSellers)
			}
			if p.Stock < it.Qty {
				return fmt.Errorf("%w: Not enough stock for %s", ErrInsufficientStock, p.Name)
			}

			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Qty:       it.Qty,
				Image:     p.FirstImage(),
				Price:     p.Price,
			})

			if err := tx.DecrementStock(ctx, p.ID, p.Version, it.Qty); err != nil {
				return err
			}
		}

		order = &models.Order{
			CustomerID:      customerID,
			SellerID:        sellerID,
			OrderItems:      items,
			ShippingAddress: req.ShippingAddress,
			PaymentDetails:  models.PaymentDetails{Status: models.PaymentPending},
			TotalPrice:      total,
			OrderStatus:     models.OrderPending,
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "product_not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

// UpdateOrderStatus moves an order the caller sells to a new status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, sellerID, orderID uuid.UUID, req transport.UpdateOrderStatusRequest) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateOrderStatus", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("order.target_status", req.OrderStatus),
	))
	defer func() { endSpan(span, err) }()

	target := models.OrderStatus(req.OrderStatus)
	if !target.IsUpdateTarget() {
		return nil, validation("Invalid or missing order status")
	}

	var eta *time.Time
	if target == models.OrderConfirmed && req.EstimatedDelivery != "" {
		t, err := parseDate(req.EstimatedDelivery)
		if err != nil {
			return nil, validation("Invalid estimated delivery date")
		}
		eta = &t
	}

	order, err = s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order not found")
	}
	if order.SellerID != sellerID {
		return nil, fmt.Errorf("%w: Not authorized to update this order", ErrForbidden)
	}

	from := order.OrderStatus
	if !s.Policy.Allows(from, target) {
		return nil, fmt.Errorf("%w: Cannot change order status from %s to %s", ErrInvalidTransition, from, target)
	}

	order.OrderStatus = target
	if target == models.OrderRejected && req.RejectionReason != "" {
		order.RejectionReason = req.RejectionReason
	}
	if eta != nil {
		order.EstimatedDelivery = eta
	}

	if err := s.Repo.UpdateOrderStatus(ctx, order, from); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return nil, fmt.Errorf("%w: Order was updated concurrently, please reload it", ErrConflict)
		}
		return nil, err
	}

	s.Metrics.OrderStatusUpdated(string(target))
	publish(ctx, s.Events, mykafka.TopicOrderEvents, order.ID.String(), mykafka.OrderStatusUpdated{
		Type:     "order_status_updated",
		OrderID:  order.ID,
		SellerID: order.SellerID,
		From:     string(from),
		To:       string(target),
		At:       s.now(),
	})
	return order, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(v string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func (s *OrderService) ListMyOrders(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListOrdersByCustomer(ctx, customerID)
}

func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListOrdersBySeller(ctx, sellerID)
}

// GetOrder returns the order if the caller is its customer or its seller.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order not found")
	}
	if order.CustomerID != userID && order.SellerID != userID {
		return nil, fmt.Errorf("%w: Not authorized to view this order", ErrForbidden)
	}
	return order, nil
}
