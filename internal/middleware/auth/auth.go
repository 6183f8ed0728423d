package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/animerch/internal/logging"
	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

var ErrUnauthorized = errors.New("unauthorized")

// BearerAuth verifies "Authorization: Bearer <token>" statelessly.
type BearerAuth struct {
	JWTSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{JWTSecret: secret}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *BearerAuth) RequireCustomer(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, requireRole(models.RoleCustomer))
}

func (m *BearerAuth) RequireSeller(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, requireRole(models.RoleSeller))
}

func (m *BearerAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, requireRole(models.RoleAdmin))
}

func requireRole(role models.Role) ValidatorFunc {
	return func(claims *tokens.AccessClaims) error {
		if claims.Role != role {
			return echo.NewHTTPError(http.StatusForbidden, "Not authorized as "+article(role)+" "+string(role))
		}
		return nil
	}
}

func article(role models.Role) string {
	if role == models.RoleAdmin {
		return "an"
	}
	return "a"
}

func (m *BearerAuth) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
		}

		claims, err := tokens.Parse(raw, m.JWTSecret)
		if err != nil {
			l.Warn("token_rejected", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
		}
		userID, err := claims.UserID()
		if err != nil {
			l.Warn("token_rejected", "status", 401, "reason", "subject is not a uuid", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
		}

		if validator != nil {
			if err := validator(claims); err != nil {
				return err
			}
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxRole, claims.Role)
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserID returns the authenticated caller set by the middleware.
func UserID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(CtxUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}

func Role(c echo.Context) models.Role {
	r, _ := c.Get(CtxRole).(models.Role)
	return r
}
