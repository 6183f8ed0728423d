package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/animerch/internal/models"
)

type SignupCustomerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupSellerRequest struct {
	Username        string `json:"username"        validate:"required"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required"`
	ShopName        string `json:"shopName"        validate:"required"`
	GSTNumber       string `json:"gstNumber"       validate:"required"`
	BusinessAddress string `json:"businessAddress" validate:"required"`
	Description     string `json:"description"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required"`
	Description string          `json:"description" validate:"required"`
	Images      []string        `json:"images"      validate:"max=5,dive,required"`
	Category    uuid.UUID       `json:"category"    validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"       validate:"gte=0"`
}

// PatchProductRequest leaves nil fields untouched.
type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Images      *[]string        `json:"images"      validate:"omitempty,max=5,dive,required"`
	Category    *uuid.UUID       `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	IsListed    *bool            `json:"isListed"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type OrderItemRequest struct {
	Product uuid.UUID `json:"product"`
	Qty     int       `json:"qty"`
}

// CreateOrderRequest is checked by the order service itself, the order of
// the checks is part of the API.
type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus       string `json:"orderStatus"`
	RejectionReason   string `json:"rejectionReason"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SignupResponse struct {
	Message  string      `json:"message"`
	UserID   uuid.UUID   `json:"userId"`
	Username string      `json:"username,omitempty"`
	Role     models.Role `json:"role,omitempty"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}
