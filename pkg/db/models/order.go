package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	"github.com/aminufarouk/kiosa-backend/pkg/types"
)

// Order is the authoritative record of a checkout. OrderNumber is the
// merchant-assigned reference the payment gateway joins on; it is distinct
// from the internal primary key.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string              `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	CustomerEmail   string              `gorm:"column:customer_email;type:text;not null;index"`
	CustomerPhone   *string             `gorm:"column:customer_phone;type:text"`
	ShippingAddress string              `gorm:"column:shipping_address;type:text;not null"`
	Currency        enums.Currency      `gorm:"column:currency;type:text;not null;default:'NGN'"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Metadata        types.JSONMap       `gorm:"column:metadata;type:jsonb;serializer:json"`
	RiderID         *uuid.UUID          `gorm:"column:rider_id;type:uuid"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
