package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/animerch/internal/db"
	"github.com/Skotchmaster/animerch/internal/metrics"
	middleware "github.com/Skotchmaster/animerch/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/animerch/internal/middleware/logging"
)

type Deps struct {
	DB        *gorm.DB
	JWTSecret []byte
	Metrics   *metrics.Metrics

	Auth       *AuthHTTP
	Categories *CategoryHTTP
	Catalog    *CatalogHTTP
	Orders     *OrderHTTP
}

// NewEcho builds the echo instance with the shared middleware chain.
func NewEcho(logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if m != nil {
		e.Use(m.Middleware())
	}
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Hello from the AniMerch backend!"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", ready(d.DB))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	authMW := middleware.NewBearerAuth(d.JWTSecret)
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup/customer", d.Auth.SignupCustomer)
	auth.POST("/signup/seller", d.Auth.SignupSeller)
	auth.POST("/login", d.Auth.Login)
	auth.GET("/me", d.Auth.Me, authMW.RequireAuth)
	auth.GET("/admin-test", d.Auth.AdminTest, authMW.RequireAdmin)

	categories := api.Group("/categories")
	categories.GET("", d.Categories.ListCategories)
	categories.POST("", d.Categories.CreateCategory, authMW.RequireAdmin)
	categories.DELETE("/:id", d.Categories.DeleteCategory, authMW.RequireAdmin)

	products := api.Group("/products")
	products.GET("", d.Catalog.ListProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/mine", d.Catalog.ListMyProducts, authMW.RequireSeller)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, authMW.RequireSeller)
	products.PUT("/:id", d.Catalog.UpdateProduct, authMW.RequireSeller)
	products.DELETE("/:id", d.Catalog.DeleteProduct, authMW.RequireSeller)
	products.POST("/:id/reviews", d.Catalog.AddReview, authMW.RequireCustomer)

	orders := api.Group("/orders")
	orders.POST("", d.Orders.CreateOrder, authMW.RequireCustomer)
	orders.GET("/myorders", d.Orders.ListMyOrders, authMW.RequireCustomer)
	orders.GET("/sellerorders", d.Orders.ListSellerOrders, authMW.RequireSeller)
	orders.GET("/:id", d.Orders.GetOrder, authMW.RequireAuth)
	orders.PUT("/:id/status", d.Orders.UpdateOrderStatus, authMW.RequireSeller)
}

func ready(gdb *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if gdb == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx, gdb); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	}
}
