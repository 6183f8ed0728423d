package mykafka

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderCreated struct {
	Type       string          `json:"type"`
	OrderID    uuid.UUID       `json:"orderID"`
	CustomerID uuid.UUID       `json:"customerID"`
	SellerID   uuid.UUID       `json:"sellerID"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Items      int             `json:"items"`
	At         time.Time       `json:"at"`
}

type OrderStatusUpdated struct {
	Type     string    `json:"type"`
	OrderID  uuid.UUID `json:"orderID"`
	SellerID uuid.UUID `json:"sellerID"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	At       time.Time `json:"at"`
}

type ProductChanged struct {
	Type      string    `json:"type"`
	ProductID uuid.UUID `json:"productID"`
	SellerID  uuid.UUID `json:"sellerID"`
	Name      string    `json:"name,omitempty"`
	At        time.Time `json:"at"`
}

type ReviewAdded struct {
	Type       string    `json:"type"`
	ProductID  uuid.UUID `json:"productID"`
	UserID     uuid.UUID `json:"userID"`
	Rating     int       `json:"rating"`
	NewAverage float64   `json:"newAverage"`
	NumReviews int       `json:"numReviews"`
	At         time.Time `json:"at"`
}
