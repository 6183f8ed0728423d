package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/util"
)

// Populated references. When the association was not loaded the bare id
// is rendered instead.
type CategoryRef struct {
	ID   uuid.UUID `json:"_id"`
	Name string    `json:"name"`
}

type ShopRef struct {
	ShopName string `json:"shopName"`
}

type SellerRef struct {
	ID            uuid.UUID `json:"_id"`
	SellerDetails *ShopRef  `json:"sellerDetails,omitempty"`
}

type CustomerRef struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func sellerRef(id uuid.UUID, u *models.User) any {
	if u == nil {
		return id
	}
	ref := SellerRef{ID: u.ID}
	if u.SellerDetails != nil {
		ref.SellerDetails = &ShopRef{ShopName: u.SellerDetails.ShopName}
	}
	return ref
}

func customerRef(id uuid.UUID, u *models.User) any {
	if u == nil {
		return id
	}
	return CustomerRef{ID: u.ID, Username: u.Username, Email: u.Email}
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"_id"`
	Seller      any             `json:"seller"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Category    any             `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsListed    bool            `json:"isListed"`
	Reviews     []models.Review `json:"reviews"`
	Rating      float64         `json:"rating"`
	NumReviews  int             `json:"numReviews"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Seller:      sellerRef(p.SellerID, p.Seller),
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
		Category:    p.CategoryID,
		Price:       p.Price,
		Stock:       p.Stock,
		IsListed:    p.IsListed,
		Reviews:     p.Reviews,
		Rating:      p.Rating,
		NumReviews:  p.NumReviews,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		resp.Category = CategoryRef{ID: p.Category.ID, Name: p.Category.Name}
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if resp.Reviews == nil {
		resp.Reviews = []models.Review{}
	}
	return resp
}

func NewProductList(items []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for i := range items {
		out = append(out, NewProductResponse(&items[i]))
	}
	return out
}

type ProductPage struct {
	Data []ProductResponse `json:"data"`
	Meta util.Meta         `json:"meta"`
}

type OrderResponse struct {
	ID                uuid.UUID              `json:"_id"`
	Customer          any                    `json:"customer"`
	Seller            any                    `json:"seller"`
	OrderItems        []models.OrderItem     `json:"orderItems"`
	ShippingAddress   models.ShippingAddress `json:"shippingAddress"`
	PaymentDetails    models.PaymentDetails  `json:"paymentDetails"`
	TotalPrice        decimal.Decimal        `json:"totalPrice"`
	OrderStatus       models.OrderStatus     `json:"orderStatus"`
	RejectionReason   string                 `json:"rejectionReason,omitempty"`
	EstimatedDelivery *time.Time             `json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:                o.ID,
		Customer:          customerRef(o.CustomerID, o.Customer),
		Seller:            sellerRef(o.SellerID, o.Seller),
		OrderItems:        o.OrderItems,
		ShippingAddress:   o.ShippingAddress,
		PaymentDetails:    o.PaymentDetails,
		TotalPrice:        o.TotalPrice,
		OrderStatus:       o.OrderStatus,
		RejectionReason:   o.RejectionReason,
		EstimatedDelivery: o.EstimatedDelivery,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if resp.OrderItems == nil {
		resp.OrderItems = []models.OrderItem{}
	}
	return resp
}

func NewOrderList(items []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(items))
	for i := range items {
		out = append(out, NewOrderResponse(&items[i]))
	}
	return out
}
