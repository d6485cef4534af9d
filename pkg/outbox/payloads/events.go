package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aminufarouk/kiosa-backend/pkg/enums"
)

// OrderCreatedEvent signals a new checkout landed.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerEmail string          `json:"customerEmail"`
	Total         decimal.Decimal `json:"total"`
	Currency      enums.Currency  `json:"currency"`
}

// OrderPaidEvent is emitted when an order transitions to paid.
type OrderPaidEvent struct {
	OrderID       uuid.UUID       `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerEmail string          `json:"customerEmail"`
	ProviderRef   string          `json:"providerRef"`
	Total         decimal.Decimal `json:"total"`
	Currency      enums.Currency  `json:"currency"`
	PaidAt        time.Time       `json:"paidAt"`
}

// OrderExpiredEvent describes the payload when unpaid orders expire.
type OrderExpiredEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	CustomerEmail string    `json:"customerEmail"`
	ExpiredAt     time.Time `json:"expiredAt"`
}
