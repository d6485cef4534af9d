package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aminufarouk/kiosa-backend/pkg/enums"
)

// Product is a catalog entry.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Slug        string          `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Description *string         `gorm:"column:description;type:text"`
	Category    string          `gorm:"column:category;type:text;not null;index"`
	Currency    enums.Currency  `gorm:"column:currency;type:text;not null;default:'NGN'"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL    *string         `gorm:"column:image_url;type:text"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
