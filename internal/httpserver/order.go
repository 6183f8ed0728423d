package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/animerch/internal/logging"
	middleware "github.com/Skotchmaster/animerch/internal/middleware/auth"
	"github.com/Skotchmaster/animerch/internal/service"
	"github.com/Skotchmaster/animerch/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	customerID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "Invalid request body", err)
	}

	order, err := h.Svc.CreateOrder(ctx, customerID, req)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalPrice.String())
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) ListMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_my_orders")

	customerID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}

	orders, err := h.Svc.ListMyOrders(ctx, customerID)
	if err != nil {
		return fail(l, "list_my_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders))
}

func (h *OrderHTTP) ListSellerOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_seller_orders")

	sellerID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}

	orders, err := h.Svc.ListSellerOrders(ctx, sellerID)
	if err != nil {
		return fail(l, "list_seller_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	userID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}
	id, err := pathID(c, l, "get_order_error", "Order not found")
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, userID, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_order_status")

	sellerID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_order_status_error", "Invalid request body", err)
	}
	// The status is validated before the order is looked up, so a malformed
	// id goes through as uuid.Nil and comes back as not found.
	id, _ := uuid.Parse(c.Param("id"))

	order, err := h.Svc.UpdateOrderStatus(ctx, sellerID, id, req)
	if err != nil {
		return fail(l, "update_order_status_error", err)
	}

	l.Info("update_order_status_success", "order_id", order.ID, "status", order.OrderStatus)
	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}
