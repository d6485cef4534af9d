package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem links a customer to a saved product.
type WishlistItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerEmail string    `gorm:"column:customer_email;type:text;not null;index:ux_wishlist_customer_product,unique"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:ux_wishlist_customer_product,unique"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
