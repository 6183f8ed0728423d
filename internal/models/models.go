package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Prices travel as JSON numbers, the browser client does arithmetic on them.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"       json:"_id"`
	Username      string         `gorm:"not null"                   json:"username"`
	Email         string         `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash  string         `gorm:"not null"                   json:"-"`
	Role          Role           `gorm:"not null;index"             json:"role"`
	SellerDetails *SellerDetails `gorm:"foreignKey:UserID"          json:"sellerDetails,omitempty"`
	CreatedAt     time.Time      `                                  json:"createdAt"`
	UpdatedAt     time.Time      `                                  json:"updatedAt"`
}

// SellerDetails exists only for users with RoleSeller.
type SellerDetails struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey"          json:"-"`
	UserID             uuid.UUID          `gorm:"type:uuid;uniqueIndex;not null" json:"-"`
	ShopName           string             `gorm:"not null"                      json:"shopName"`
	GSTNumber          string             `gorm:"not null"                      json:"gstNumber"`
	BusinessAddress    string             `gorm:"not null"                      json:"businessAddress"`
	Description        string             `                                     json:"description,omitempty"`
	VerificationStatus VerificationStatus `gorm:"not null"                      json:"verificationStatus"`
}

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"  json:"_id"`
	Name      string    `gorm:"uniqueIndex;not null"  json:"name"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"    json:"createdBy"`
	CreatedAt time.Time `                             json:"createdAt"`
	UpdatedAt time.Time `                             json:"updatedAt"`
}

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"             json:"_id"`
	SellerID    uuid.UUID       `gorm:"type:uuid;index;not null"         json:"seller"`
	Seller      *User           `gorm:"foreignKey:SellerID"              json:"-"`
	Name        string          `gorm:"not null"                         json:"name"`
	Description string          `gorm:"not null"                         json:"description"`
	Images      []string        `gorm:"serializer:json"                  json:"images"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;index;not null"         json:"category"`
	Category    *Category       `gorm:"foreignKey:CategoryID"            json:"-"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"price"`
	Stock       int             `gorm:"not null;check:stock >= 0"        json:"stock"`
	IsListed    bool            `gorm:"not null"                         json:"isListed"`
	Reviews     []Review        `gorm:"foreignKey:ProductID"             json:"reviews"`
	Rating      float64         `gorm:"not null"                         json:"rating"`
	NumReviews  int             `gorm:"not null"                         json:"numReviews"`
	Version     int             `gorm:"not null"                         json:"-"`
	CreatedAt   time.Time       `                                        json:"createdAt"`
	UpdatedAt   time.Time       `                                        json:"updatedAt"`
}

// FirstImage returns the cover image or "" when the product has none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                 json:"_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user" json:"user"`
	Username  string    `gorm:"not null"                                             json:"username"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5"                json:"rating"`
	Comment   string    `gorm:"not null"                                             json:"comment"`
	CreatedAt time.Time `                                                            json:"createdAt"`
	UpdatedAt time.Time `                                                            json:"updatedAt"`
}

type ShippingAddress struct {
	FullName string `gorm:"not null" json:"fullName" validate:"required"`
	Address  string `gorm:"not null" json:"address"  validate:"required"`
	City     string `gorm:"not null" json:"city"     validate:"required"`
	Pincode  string `gorm:"not null" json:"pincode"  validate:"required"`
	Phone    string `gorm:"not null" json:"phone"    validate:"required"`
}

// Complete reports whether every address field is filled in.
func (a ShippingAddress) Complete() bool {
	return a.FullName != "" && a.Address != "" && a.City != "" && a.Pincode != "" && a.Phone != ""
}

const PaymentPending = "Pending"

type PaymentDetails struct {
	Status string `gorm:"not null" json:"status"`
}

type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"                      json:"_id"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;index;not null"                  json:"customer"`
	Customer          *User           `gorm:"foreignKey:CustomerID"                     json:"-"`
	SellerID          uuid.UUID       `gorm:"type:uuid;index;not null"                  json:"seller"`
	Seller            *User           `gorm:"foreignKey:SellerID"                       json:"-"`
	OrderItems        []OrderItem     `gorm:"foreignKey:OrderID"                        json:"orderItems"`
	ShippingAddress   ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"         json:"shippingAddress"`
	PaymentDetails    PaymentDetails  `gorm:"embedded;embeddedPrefix:payment_"          json:"paymentDetails"`
	TotalPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null"               json:"totalPrice"`
	OrderStatus       OrderStatus     `gorm:"not null;index"                            json:"orderStatus"`
	RejectionReason   string          `                                                 json:"rejectionReason,omitempty"`
	EstimatedDelivery *time.Time      `                                                 json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time       `gorm:"index"                                     json:"createdAt"`
	UpdatedAt         time.Time       `                                                 json:"updatedAt"`
}

// OrderItem is a snapshot taken when the order is placed; it never follows
// later edits of the product.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"_id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"     json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"           json:"product"`
	Name      string          `gorm:"not null"                     json:"name"`
	Qty       int             `gorm:"not null;check:qty > 0"       json:"qty"`
	Image     string          `                                    json:"image,omitempty"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"price"`
}

// All lists every table in migration order.
func All() []any {
	return []any{&User{}, &SellerDetails{}, &Category{}, &Product{}, &Review{}, &Order{}, &OrderItem{}}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (s *SellerDetails) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.VerificationStatus == "" {
		s.VerificationStatus = VerificationPending
	}
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
