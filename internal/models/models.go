package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            uuid.UUID       `gorm:"primaryKey"                json:"id"`
	Name          string          `gorm:"not null"                  json:"name"`
	Email         string          `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash  string          `gorm:"not null"                  json:"-"`
	Role          string          `gorm:"not null;default:user"     json:"role"`
	Address       string          `json:"address"`
	Phone         string          `json:"phone"`
	GoldBalance   decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"gold_balance"`
	SilverBalance decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"silver_balance"`
	IsActive      bool            `gorm:"default:true"              json:"is_active"`
	IsBanned      bool            `gorm:"default:false"             json:"is_banned"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string { return "users" }

type Product struct {
	ID          uuid.UUID       `gorm:"primaryKey"            json:"id"`
	Name        string          `gorm:"not null"              json:"name"`
	Description string          `json:"description"`
	Price       int64           `gorm:"not null;check:price>=0" json:"price"`
	Weight      decimal.Decimal `gorm:"type:numeric(20,8)"    json:"weight"`
	Category    string          `gorm:"index"                 json:"category"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string { return "products" }

type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                             json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_user_product;not null"  json:"user_id"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_user_product;not null"  json:"product_id"`
	Quantity  uint      `gorm:"default:1;check:quantity>0"             json:"quantity"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string { return "cart_items" }

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusCompleted  = "Completed"
	OrderStatusCancelled  = "Cancelled"
)

type Order struct {
	ID               uuid.UUID   `gorm:"primaryKey"     json:"id"`
	UserID           uuid.UUID   `gorm:"index;not null" json:"user_id"`
	Items            []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Total            int64       `gorm:"not null;check:total>=0" json:"total"`
	Status           string      `gorm:"not null"       json:"status"`
	PaymentSessionID string      `gorm:"index"          json:"payment_session_id,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string { return "orders" }

// OrderItem freezes the unit price at purchase time. Later product price
// changes never touch existing orders.
type OrderItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                 json:"id"`
	OrderID   uuid.UUID `gorm:"index;not null"             json:"order_id"`
	ProductID uuid.UUID `gorm:"not null"                   json:"product_id"`
	Name      string    `gorm:"not null"                   json:"name"`
	Quantity  uint      `gorm:"default:1;check:quantity>0" json:"quantity"`
	UnitPrice int64     `gorm:"not null"                   json:"unit_price"`
	LineTotal int64     `gorm:"not null"                   json:"line_total"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (OrderItem) TableName() string { return "order_items" }

const (
	MetalGold   = "Gold"
	MetalSilver = "Silver"
)

// Investment is an append-only ledger row. Amount is signed grams:
// positive for a buy, negative for a sell. Price is always the positive
// rupee magnitude of the trade.
type Investment struct {
	ID        uuid.UUID       `gorm:"primaryKey"         json:"id"`
	UserID    uuid.UUID       `gorm:"index;not null"     json:"user_id"`
	Type      string          `gorm:"not null"           json:"type"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	Price     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"price"`
	SessionID *string         `gorm:"uniqueIndex"        json:"session_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Investment) TableName() string { return "investments" }

type GiftCard struct {
	ID             uuid.UUID  `gorm:"primaryKey"           json:"id"`
	Code           string     `gorm:"uniqueIndex;not null" json:"code"`
	Amount         int64      `gorm:"not null"             json:"amount"`
	IssuedBy       *uuid.UUID `gorm:"index"                json:"issued_by,omitempty"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	SessionID      *string    `gorm:"uniqueIndex"          json:"-"`
	IsRedeemed     bool       `gorm:"default:false"        json:"is_redeemed"`
	ExpiresAt      time.Time  `gorm:"not null"             json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (g *GiftCard) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (GiftCard) TableName() string { return "gift_cards" }

// MetalRate rows are versioned, the newest row per metal is the active
// rate in rupees per gram.
type MetalRate struct {
	ID        uuid.UUID       `gorm:"primaryKey"     json:"id"`
	Metal     string          `gorm:"index;not null" json:"metal"`
	PerGram   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"per_gram"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r *MetalRate) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (MetalRate) TableName() string { return "metal_rates" }
