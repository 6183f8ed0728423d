package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/animerch/internal/logging"
	middleware "github.com/Skotchmaster/animerch/internal/middleware/auth"
	"github.com/Skotchmaster/animerch/internal/service"
	"github.com/Skotchmaster/animerch/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) SignupCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup_customer")

	var req transport.SignupCustomerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "signup_customer_error", "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(l, "signup_customer_error", err)
	}

	u, err := h.Svc.SignupCustomer(ctx, req)
	if err != nil {
		return fail(l, "signup_customer_error", err)
	}

	l.Info("signup_customer_success", "user_id", u.ID)
	return c.JSON(http.StatusCreated, transport.SignupResponse{
		Message:  "Customer registered successfully!",
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
}

func (h *AuthHTTP) SignupSeller(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup_seller")

	var req transport.SignupSellerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "signup_seller_error", "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(l, "signup_seller_error", err)
	}

	u, err := h.Svc.SignupSeller(ctx, req)
	if err != nil {
		return fail(l, "signup_seller_error", err)
	}

	l.Info("signup_seller_success", "user_id", u.ID)
	return c.JSON(http.StatusCreated, transport.SignupResponse{
		Message: "Seller registered successfully! Your account is pending verification by an admin.",
		UserID:  u.ID,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "Invalid request body", err)
	}

	token, u, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_error", err)
	}

	l.Info("login_success", "user_id", u.ID, "role", u.Role)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		Token:   token,
		Message: fmt.Sprintf("Welcome back, %s!", u.Username),
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	userID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}

	u, err := h.Svc.Me(ctx, userID)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			l.Warn("me_error", "status", 401, "reason", "user not found", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
		}
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHTTP) AdminTest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.admin_test")

	userID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
	}
	u, err := h.Svc.Me(ctx, userID)
	if err != nil {
		return fail(l, "admin_test_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Message: fmt.Sprintf("Welcome, Admin %s! You found the secret area.", u.Username),
	})
}
