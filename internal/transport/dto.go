package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/royaljewels/shop/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	IsAdmin   bool      `json:"is_admin"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       int64           `json:"price"`
	Weight      decimal.Decimal `json:"weight"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *int64           `json:"price"`
	Weight      *decimal.Decimal `json:"weight"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"image_url"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint      `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity uint `json:"quantity"`
}

// CartLine is a cart item with its product details resolved.
type CartLine struct {
	ID        uuid.UUID      `json:"id"`
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  uint           `json:"quantity"`
	Product   models.Product `json:"product"`
}

type CreateOrderResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	CheckoutURL string    `json:"checkout_url"`
}

type CheckoutRequest struct {
	OrderID      uuid.UUID `json:"order_id"`
	GiftCardCode string    `json:"gift_card_code,omitempty"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type VerifyRequest struct {
	SessionID string `json:"session_id"`
}

type RatesResponse struct {
	GoldRate   decimal.Decimal `json:"goldRate"`
	SilverRate decimal.Decimal `json:"silverRate"`
}

type BalancesResponse struct {
	GoldBalance   decimal.Decimal `json:"goldBalance"`
	SilverBalance decimal.Decimal `json:"silverBalance"`
}

type TradeRequest struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type BuyResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type VerifyBuyRequest struct {
	SessionID string          `json:"session_id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
}

type GenerateGiftCardRequest struct {
	Amount         int64  `json:"amount"`
	RecipientEmail string `json:"recipient_email,omitempty"`
}

type VerifyGiftCardRequest struct {
	SessionID      string `json:"session_id"`
	Amount         int64  `json:"amount"`
	RecipientEmail string `json:"recipient_email,omitempty"`
}

type RedeemRequest struct {
	Code string `json:"code"`
}

type RedeemResponse struct {
	Message string `json:"message"`
	Amount  int64  `json:"amount"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type UpdateRatesRequest struct {
	GoldRate   *decimal.Decimal `json:"goldRate"`
	SilverRate *decimal.Decimal `json:"silverRate"`
}
