package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/animerch/internal/db"
	"github.com/Skotchmaster/animerch/internal/metrics"
	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/mykafka"
	"github.com/Skotchmaster/animerch/internal/repo"
	"github.com/Skotchmaster/animerch/internal/transport"
)

type testEnv struct {
	repo    *repo.GormRepo
	events  *mykafka.Recorder
	metrics *metrics.Metrics
	orders  *OrderService
	catalog *CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
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

	return &testEnv{
		repo:    r,
		events:  rec,
		metrics: m,
		orders:  &OrderService{Repo: r, Events: rec, Metrics: m, Retries: 3},
		catalog: &CatalogService{Repo: r, Events: rec, Metrics: m, Retries: 3},
	}
}

func (e *testEnv) seller(t *testing.T, shop string) *models.User {
	t.Helper()

	u := &models.User{
		Username:     shop + " owner",
		Email:        uuid.NewString() + "@shop.example.com",
		PasswordHash: "x",
		Role:         models.RoleSeller,
		SellerDetails: &models.SellerDetails{
			ShopName:        shop,
			GSTNumber:       "22AAAAA0000A1Z5",
			BusinessAddress: "12 Market Rd",
		},
	}
	require.NoError(t, e.repo.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) customer(t *testing.T, name string) *models.User {
	t.Helper()

	u := &models.User{
		Username:     name,
		Email:        name + "-" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
	}
	require.NoError(t, e.repo.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) category(t *testing.T) *models.Category {
	t.Helper()

	cat := &models.Category{Name: "cat-" + uuid.NewString(), CreatedBy: uuid.New()}
	require.NoError(t, e.repo.CreateCategory(context.Background(), cat))
	return cat
}

func (e *testEnv) product(t *testing.T, sellerID uuid.UUID, name, price string, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		SellerID:    sellerID,
		Name:        name,
		Description: name + " description",
		Images:      []string{"https://cdn.example.com/" + name + "-1.jpg", "https://cdn.example.com/" + name + "-2.jpg"},
		CategoryID:  e.category(t).ID,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsListed:    true,
	}
	require.NoError(t, e.repo.CreateProduct(context.Background(), p))
	return p
}

func (e *testEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()

	p, err := e.repo.GetProductRow(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func address() models.ShippingAddress {
	return models.ShippingAddress{
		FullName: "Asuka Langley",
		Address:  "3 Tokyo Ave",
		City:     "Mumbai",
		Pincode:  "400001",
		Phone:    "+91 98000 00000",
	}
}

func orderReq(items ...transport.OrderItemRequest) transport.CreateOrderRequest {
	return transport.CreateOrderRequest{OrderItems: items, ShippingAddress: address()}
}

func item(p *models.Product, qty int) transport.OrderItemRequest {
	return transport.OrderItemRequest{Product: p.ID, Qty: qty}
}
