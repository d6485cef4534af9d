package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
)

// AdminOrderFilters describe the inputs supported by the back-office list.
type AdminOrderFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	RiderID       *uuid.UUID
	DateFrom      *time.Time
	DateTo        *time.Time
	Query         string
}

// OrderSummary exposes the aggregated fields returned in order lists.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerEmail string              `json:"customer_email"`
	Total         decimal.Decimal     `json:"total"`
	Currency      enums.Currency      `json:"currency"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Status        enums.OrderStatus   `json:"status"`
	TotalItems    int                 `json:"total_items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// MarkPaidResult reports how a payment confirmation landed. Order is nil when
// the order number is unknown; Transitioned is false when the order was
// already paid, making the call a no-op.
type MarkPaidResult struct {
	Order        *models.Order
	Transitioned bool
}

func summarize(order models.Order) OrderSummary {
	return OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
		Currency:      order.Currency,
		PaymentStatus: order.PaymentStatus,
		Status:        order.Status,
		TotalItems:    len(order.Items),
		CreatedAt:     order.CreatedAt,
	}
}
