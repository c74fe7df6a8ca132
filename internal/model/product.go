package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          ID              `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	ProductType string          `json:"product_type"`
	Price       decimal.Decimal `json:"price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Unit        string          `json:"unit"`
	RecipeID    *ID             `json:"recipe_id,omitempty"`
	IsAvailable bool            `json:"is_available"`
	Allergens   []string        `json:"allergens,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// PriceWithVAT returns price * (1 + vat_rate/100), rounded to cents.
func (p Product) PriceWithVAT() decimal.Decimal {
	rate := p.VATRate.Div(decimal.NewFromInt(100))
	return p.Price.Mul(decimal.NewFromInt(1).Add(rate)).Round(2)
}
