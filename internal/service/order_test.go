package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/mykafka"
	"github.com/Skotchmaster/animerch/internal/transport"
)

func TestCreateOrder_SingleSellerCart(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "Otaku Corner")
	c := env.customer(t, "shinji")
	a := env.product(t, s.ID, "figure", "10.00", 5)
	b := env.product(t, s.ID, "poster", "5.00", 3)

	order, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(a, 2), item(b, 1)))
	require.NoError(t, err)

	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(25)), "total %s", order.TotalPrice)
	assert.Equal(t, models.OrderPending, order.OrderStatus)
	assert.Equal(t, models.PaymentPending, order.PaymentDetails.Status)
	assert.Equal(t, s.ID, order.SellerID)
	assert.Equal(t, c.ID, order.CustomerID)
	assert.Equal(t, address(), order.ShippingAddress)

	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, "figure", order.OrderItems[0].Name)
	assert.Equal(t, 2, order.OrderItems[0].Qty)
	assert.Equal(t, a.Images[0], order.OrderItems[0].Image)
	assert.True(t, order.OrderItems[0].Price.Equal(a.Price))
	assert.Equal(t, b.ID, order.OrderItems[1].ProductID)

	assert.Equal(t, 3, env.stock(t, a.ID))
	assert.Equal(t, 2, env.stock(t, b.ID))

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, mykafka.TopicOrderEvents, events[0].Topic)
	assert.Equal(t, order.ID.String(), events[0].Key)
	created, ok := events[0].Event.(mykafka.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, "order_created", created.Type)
	assert.Equal(t, 2, created.Items)

	expected := `
# HELP test_orders_created_total Orders persisted.
# TYPE test_orders_created_total counter
test_orders_created_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(env.metrics.Registry(), strings.NewReader(expected), "test_orders_created_total"))
}

func TestCreateOrder_ItemWithoutImage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "shop")
	c := env.customer(t, "rei")
	p := env.product(t, s.ID, "sticker", "1.25", 10)
	p.Images = []string{}
	require.NoError(t, env.repo.UpdateProduct(ctx, p))

	order, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(p, 4)))
	require.NoError(t, err)
	assert.Equal(t, "", order.OrderItems[0].Image)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(5)))
}

func TestCreateOrder_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "shop")
	c := env.customer(t, "misato")
	p := env.product(t, s.ID, "mug", "7.00", 2)

	noPhone := orderReq(item(p, 1))
	noPhone.ShippingAddress.Phone = ""

	tests := []struct {
		name   string
		req    transport.CreateOrderRequest
		reason string
	}{
		{name: "no items", req: orderReq(), reason: "No order items"},
		{name: "zero qty", req: orderReq(item(p, 0)), reason: "Quantity must be at least 1"},
		{name: "missing address field", req: noPhone, reason: "Please provide a complete shipping address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.CreateOrder(ctx, c.ID, tt.req)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.reason, Reason(err))
		})
	}
	assert.Equal(t, 2, env.stock(t, p.ID))
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "shop")
	c := env.customer(t, "kaji")
	p := env.product(t, s.ID, "mug", "7.00", 2)
	missing := uuid.New()

	_, err := env.orders.CreateOrder(ctx, c.ID, orderReq(transport.OrderItemRequest{Product: missing, Qty: 1}))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Product with ID "+missing.String()+" not found", Reason(err))

	_, err = env.orders.CreateOrder(ctx, c.ID, orderReq(item(p, 1), transport.OrderItemRequest{Product: missing, Qty: 1}))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, env.stock(t, p.ID))
}

func TestCreateOrder_MixedSellers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s1 := env.seller(t, "one")
	s2 := env.seller(t, "two")
	c := env.customer(t, "toji")
	a := env.product(t, s1.ID, "a", "3.00", 4)
	b := env.product(t, s2.ID, "b", "3.00", 4)

	_, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(a, 1), item(b, 1)))
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, msgMixedSellers, Reason(err))

	assert.Equal(t, 4, env.stock(t, a.ID))
	assert.Equal(t, 4, env.stock(t, b.ID))

	mine, err := env.orders.ListMyOrders(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.Empty(t, env.events.Events())
}

func TestCreateOrder_InsufficientStockRollsBack(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "shop")
	c := env.customer(t, "asuka")
	a := env.product(t, s.ID, "figure", "10.00", 5)
	b := env.product(t, s.ID, "Eva Unit-01", "99.00", 1)

	_, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(a, 2), item(b, 2)))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Not enough stock for Eva Unit-01", Reason(err))

	assert.Equal(t, 5, env.stock(t, a.ID), "earlier decrement is rolled back")
	assert.Equal(t, 1, env.stock(t, b.ID))

	mine, err := env.orders.ListMyOrders(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestCreateOrder_StockOneQtyTwo(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "shop")
	c := env.customer(t, "pen")
	p := env.product(t, s.ID, "plush", "15.00", 1)

	_, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(p, 2)))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, env.stock(t, p.ID))
}

func TestCreateOrder_SameProductTwice(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "shop")
	c := env.customer(t, "gendo")
	p := env.product(t, s.ID, "badge", "2.00", 3)

	_, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(p, 2), item(p, 2)))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, env.stock(t, p.ID))

	order, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(p, 2), item(p, 1)))
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, 0, env.stock(t, p.ID))
}

func TestCreateOrder_UnlistedProductIsOrderable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "shop")
	c := env.customer(t, "ritsuko")
	p := env.product(t, s.ID, "retired", "4.00", 2)
	p.IsListed = false
	require.NoError(t, env.repo.UpdateProduct(ctx, p))

	_, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(p, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, env.stock(t, p.ID))
}

func placeOrder(t *testing.T, env *testEnv) (*models.Order, *models.User, *models.User) {
	t.Helper()

	s := env.seller(t, "shop")
	c := env.customer(t, "buyer")
	p := env.product(t, s.ID, "figure", "10.00", 10)

	order, err := env.orders.CreateOrder(context.Background(), c.ID, orderReq(item(p, 1)))
	require.NoError(t, err)
	return order, s, c
}

func TestUpdateOrderStatus_PermissiveAllowsAnyTarget(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	order, s, _ := placeOrder(t, env)

	for _, target := range []models.OrderStatus{
		models.OrderDelivered, models.OrderPacking, models.OrderRejected,
		models.OrderConfirmed, models.OrderShipped,
	} {
		got, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{OrderStatus: string(target)})
		require.NoError(t, err, "to %s", target)
		assert.Equal(t, target, got.OrderStatus)
	}

	stored, err := env.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, stored.OrderStatus)
}

func TestUpdateOrderStatus_StrictFollowsPath(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.orders.Policy = StatusPolicyStrict
	ctx := context.Background()

	order, s, _ := placeOrder(t, env)
	update := func(status models.OrderStatus) error {
		_, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{OrderStatus: string(status)})
		return err
	}

	require.ErrorIs(t, update(models.OrderShipped), ErrInvalidTransition)
	require.NoError(t, update(models.OrderConfirmed))
	require.ErrorIs(t, update(models.OrderRejected), ErrInvalidTransition)
	require.NoError(t, update(models.OrderPacking))
	require.NoError(t, update(models.OrderShipped))
	require.NoError(t, update(models.OrderDelivered))
	require.ErrorIs(t, update(models.OrderConfirmed), ErrInvalidTransition, "delivered is terminal")
}

func TestUpdateOrderStatus_Errors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	order, s, c := placeOrder(t, env)

	_, err := env.orders.UpdateOrderStatus(ctx, s.ID, uuid.New(), transport.UpdateOrderStatusRequest{OrderStatus: "pending"})
	require.ErrorIs(t, err, ErrValidation, "status is checked before the order is looked up")
	assert.Equal(t, "Invalid or missing order status", Reason(err))

	_, err = env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.orders.UpdateOrderStatus(ctx, s.ID, uuid.New(), transport.UpdateOrderStatusRequest{OrderStatus: "confirmed"})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Order not found", Reason(err))

	other := env.seller(t, "other")
	for _, caller := range []uuid.UUID{other.ID, c.ID} {
		_, err = env.orders.UpdateOrderStatus(ctx, caller, order.ID, transport.UpdateOrderStatusRequest{OrderStatus: "confirmed"})
		require.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, "Not authorized to update this order", Reason(err))
	}

	stored, err := env.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.OrderStatus)
}

func TestUpdateOrderStatus_OptionalFields(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("reject with reason", func(t *testing.T) {
		order, s, _ := placeOrder(t, env)
		got, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{
			OrderStatus: "rejected", RejectionReason: "Out of stock at warehouse",
		})
		require.NoError(t, err)
		assert.Equal(t, "Out of stock at warehouse", got.RejectionReason)
	})

	t.Run("reject without reason", func(t *testing.T) {
		order, s, _ := placeOrder(t, env)
		got, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{OrderStatus: "rejected"})
		require.NoError(t, err)
		assert.Equal(t, models.OrderRejected, got.OrderStatus)
		assert.Empty(t, got.RejectionReason)
	})

	t.Run("confirm with estimated delivery", func(t *testing.T) {
		order, s, _ := placeOrder(t, env)
		got, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{
			OrderStatus: "confirmed", EstimatedDelivery: "2026-11-05", RejectionReason: "ignored",
		})
		require.NoError(t, err)
		require.NotNil(t, got.EstimatedDelivery)
		assert.Equal(t, time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC), *got.EstimatedDelivery)
		assert.Empty(t, got.RejectionReason)

		stored, err := env.repo.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.EstimatedDelivery)
		assert.True(t, stored.EstimatedDelivery.Equal(*got.EstimatedDelivery))
	})

	t.Run("confirm without estimated delivery", func(t *testing.T) {
		order, s, _ := placeOrder(t, env)
		got, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{OrderStatus: "confirmed"})
		require.NoError(t, err)
		assert.Nil(t, got.EstimatedDelivery)
	})

	t.Run("shipped ignores estimated delivery", func(t *testing.T) {
		order, s, _ := placeOrder(t, env)
		got, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{
			OrderStatus: "shipped", EstimatedDelivery: "2026-11-05",
		})
		require.NoError(t, err)
		assert.Nil(t, got.EstimatedDelivery)
	})

	t.Run("bad date", func(t *testing.T) {
		order, s, _ := placeOrder(t, env)
		_, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{
			OrderStatus: "confirmed", EstimatedDelivery: "next week",
		})
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestUpdateOrderStatus_PublishesEvent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	order, s, _ := placeOrder(t, env)
	_, err := env.orders.UpdateOrderStatus(ctx, s.ID, order.ID, transport.UpdateOrderStatusRequest{OrderStatus: "confirmed"})
	require.NoError(t, err)

	events := env.events.Events()
	require.Len(t, events, 2)
	updated, ok := events[1].Event.(mykafka.OrderStatusUpdated)
	require.True(t, ok)
	assert.Equal(t, "pending", updated.From)
	assert.Equal(t, "confirmed", updated.To)
}

func TestListOrders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	s := env.seller(t, "Figure Hub")
	c := env.customer(t, "kaworu")
	p := env.product(t, s.ID, "figure", "10.00", 10)

	first, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(p, 1)))
	require.NoError(t, err)
	second, err := env.orders.CreateOrder(ctx, c.ID, orderReq(item(p, 2)))
	require.NoError(t, err)

	mine, err := env.orders.ListMyOrders(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Equal(t, first.ID, mine[1].ID)
	require.NotNil(t, mine[0].Seller)
	assert.Equal(t, "Figure Hub", mine[0].Seller.SellerDetails.ShopName)

	theirs, err := env.orders.ListSellerOrders(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 2)
	require.NotNil(t, theirs[0].Customer)
	assert.Equal(t, "kaworu", theirs[0].Customer.Username)

	none, err := env.orders.ListSellerOrders(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetOrder_Visibility(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	order, s, c := placeOrder(t, env)

	for _, id := range []uuid.UUID{s.ID, c.ID} {
		got, err := env.orders.GetOrder(ctx, id, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	}

	_, err := env.orders.GetOrder(ctx, uuid.New(), order.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = env.orders.GetOrder(ctx, c.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusPolicy(t *testing.T) {
	t.Parallel()

	assert.False(t, StatusPolicyPermissive.Allows(models.OrderDelivered, models.OrderPending))
	assert.True(t, StatusPolicyPermissive.Allows(models.OrderDelivered, models.OrderConfirmed))
	assert.True(t, StatusPolicyStrict.Allows(models.OrderPending, models.OrderRejected))
	assert.False(t, StatusPolicyStrict.Allows(models.OrderPending, models.OrderPacking))
}
