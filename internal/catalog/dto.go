package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
)

// ProductFilters narrows catalog listings.
type ProductFilters struct {
	Category   string
	Query      string
	ActiveOnly bool
}

// ProductList is one page of products plus the cursor for the next page.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// CreateProductInput is the staff-facing payload for adding a product.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category" validate:"required,min=2,max=100"`
	Currency    enums.Currency  `json:"currency,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	ImageURL    *string         `json:"image_url,omitempty" validate:"omitempty,url"`
}

// UpdateProductInput carries partial updates; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,min=2,max=100"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Active      *bool            `json:"active,omitempty"`
}
