package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/animerch/internal/logging"
	middleware "github.com/Skotchmaster/animerch/internal/middleware/auth"
	"github.com/Skotchmaster/animerch/internal/service"
	"github.com/Skotchmaster/animerch/internal/transport"
	"github.com/Skotchmaster/animerch/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func pageParams(c echo.Context) (offset, limit int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	return util.Calculate(page, size)
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list_products")

	offset, limit := pageParams(c)
	total, items, err := h.Svc.ListProducts(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_products_error", err)
	}

	return c.JSON(http.StatusOK, transport.ProductPage{
		Data: transport.NewProductList(items),
		Meta: util.NewMeta(offset, limit, total),
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search_products")

	offset, limit := pageParams(c)
	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_products_error", err)
	}

	l.Info("search_products_success", "total", total)
	return c.JSON(http.StatusOK, transport.ProductPage{
		Data: transport.NewProductList(items),
		Meta: util.NewMeta(offset, limit, total),
	})
}

func (h *CatalogHTTP) ListMyProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list_my_products")

	sellerID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}

	items, err := h.Svc.ListSellerProducts(ctx, sellerID)
	if err != nil {
		return fail(l, "list_my_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewProductList(items))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := pathID(c, l, "get_product_error", "Product not found")
	if err != nil {
		return err
	}

	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewProductResponse(p))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	sellerID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product_error", "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(l, "create_product_error", err)
	}

	p, err := h.Svc.CreateProduct(ctx, sellerID, req)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(p))
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	sellerID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}
	id, err := pathID(c, l, "update_product_error", "Product not found")
	if err != nil {
		return err
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_product_error", "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(l, "update_product_error", err)
	}

	p, err := h.Svc.UpdateProduct(ctx, sellerID, id, req)
	if err != nil {
		return fail(l, "update_product_error", err)
	}

	l.Info("update_product_success", "product_id", p.ID, "version", p.Version)
	return c.JSON(http.StatusOK, transport.NewProductResponse(p))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	sellerID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}
	id, err := pathID(c, l, "delete_product_error", "Product not found")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteProduct(ctx, sellerID, id); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product removed successfully"})
}

func (h *CatalogHTTP) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.add_review")

	userID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}
	id, err := pathID(c, l, "add_review_error", "Product not found")
	if err != nil {
		return err
	}

	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_review_error", "Invalid request body", err)
	}

	p, err := h.Svc.AddReview(ctx, userID, id, req)
	if err != nil {
		return fail(l, "add_review_error", err)
	}

	l.Info("add_review_success", "product_id", id, "rating", p.Rating, "num_reviews", p.NumReviews)
	return c.JSON(http.StatusCreated, transport.MessageResponse{Message: "Review added"})
}
