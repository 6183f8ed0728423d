package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/animerch/internal/logging"
	middleware "github.com/Skotchmaster/animerch/internal/middleware/auth"
	"github.com/Skotchmaster/animerch/internal/service"
	"github.com/Skotchmaster/animerch/internal/transport"
)

type CategoryHTTP struct {
	Svc *service.CategoryService
}

func (h *CategoryHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list_categories")

	items, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CategoryHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create_category")

	adminID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_category_error", "Invalid request body", err)
	}

	cat, err := h.Svc.CreateCategory(ctx, adminID, req.Name)
	if err != nil {
		return fail(l, "create_category_error", err)
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete_category")

	id, err := pathID(c, l, "delete_category_error", "Category not found")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_error", err)
	}

	l.Info("delete_category_success", "category_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Category removed"})
}
