package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/animerch/internal/db"
	"github.com/Skotchmaster/animerch/internal/logging"
	"github.com/Skotchmaster/animerch/internal/metrics"
	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/mykafka"
	"github.com/Skotchmaster/animerch/internal/repo"
	"github.com/Skotchmaster/animerch/internal/service"
	"github.com/Skotchmaster/animerch/internal/tokens"
)

var testSecret = []byte("test-jwt-secret")

type testServer struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	issuer *tokens.Issuer
	events *mykafka.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &repo.GormRepo{DB: gdb}
	rec := &mykafka.Recorder{}
	m := metrics.New("test")
	issuer := &tokens.Issuer{Secret: testSecret, TTL: time.Hour}

	e := NewEcho(logging.Discard(), m)
	Register(e, &Deps{
		DB:         gdb,
		JWTSecret:  testSecret,
		Metrics:    m,
		Auth:       &AuthHTTP{Svc: &service.AuthService{Repo: r, Tokens: issuer}},
		Categories: &CategoryHTTP{Svc: &service.CategoryService{Repo: r}},
		Catalog:    &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: rec, Metrics: m, Retries: 3}},
		Orders:     &OrderHTTP{Svc: &service.OrderService{Repo: r, Events: rec, Metrics: m, Retries: 3}},
	})

	return &testServer{e: e, repo: r, issuer: issuer, events: rec}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// user seeds an account directly and returns it with a valid token.
func (s *testServer) user(t *testing.T, role models.Role, name string) (*models.User, string) {
	t.Helper()

	u := &models.User{
		Username:     name,
		Email:        name + "-" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if role == models.RoleSeller {
		u.SellerDetails = &models.SellerDetails{ShopName: name + " shop", GSTNumber: "GST", BusinessAddress: "addr"}
	}
	require.NoError(t, s.repo.CreateUser(context.Background(), u))

	token, _, err := s.issuer.Issue(u.ID, u.Role)
	require.NoError(t, err)
	return u, token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["message"].(string)
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	require.Equal(t, code, rec.Code, rec.Body.String())
}

