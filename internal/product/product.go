// Package product manages the product catalog grid.
package product

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const basePath = "/api/v1/products"

// VATRates are the French VAT rates a product may carry, in percent.
var VATRates = []decimal.Decimal{
	decimal.NewFromInt(0),
	decimal.RequireFromString("2.1"),
	decimal.RequireFromString("5.5"),
	decimal.NewFromInt(10),
	decimal.NewFromInt(20),
}

type Service struct {
	api *api.Client
}

func NewService(c *api.Client) *Service {
	return &Service{api: c}
}

type ListParams struct {
	Category  string
	Search    string
	Available *bool
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Available != nil {
		q.Set("is_available", strconv.FormatBool(*p.Available))
	}
	return q
}

func (s *Service) List(ctx context.Context, p ListParams) ([]model.Product, error) {
	var products []model.Product
	if err := s.api.Get(ctx, basePath, p.query(), &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id model.ID) (*model.Product, error) {
	var p model.Product
	if err := s.api.Get(ctx, itemPath(id), nil, &p); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

// Input is the editable part of a product.
type Input struct {
	SKU         string          `json:"sku" validate:"nonblank"`
	Name        string          `json:"name" validate:"nonblank"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	ProductType string          `json:"product_type"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	VATRate     decimal.Decimal `json:"vat_rate" validate:"vat_rate"`
	Unit        string          `json:"unit"`
	RecipeID    *model.ID       `json:"recipe_id,omitempty"`
	IsAvailable bool            `json:"is_available"`
	Allergens   []string        `json:"allergens,omitempty"`
}

func init() {
	validation.Register("vat_rate", "must be one of 0, 2.1, 5.5, 10, 20", func(fl validator.FieldLevel) bool {
		return validVATRate(decimal.NewFromFloat(fl.Field().Float()))
	})
}

func (in Input) Validate() error {
	return validation.Struct(in)
}

func validVATRate(rate decimal.Decimal) bool {
	for _, r := range VATRates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

func (s *Service) Create(ctx context.Context, in Input) (*model.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var p model.Product
	if err := s.api.Post(ctx, basePath, in, &p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id model.ID, in Input) (*model.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var p model.Product
	if err := s.api.Put(ctx, itemPath(id), in, &p); err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, id model.ID) error {
	if err := s.api.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

// SetAvailability toggles whether the product can be sold.
func (s *Service) SetAvailability(ctx context.Context, id model.ID, available bool) (*model.Product, error) {
	var p model.Product
	body := map[string]bool{"is_available": available}
	if err := s.api.Patch(ctx, itemPath(id), body, &p); err != nil {
		return nil, fmt.Errorf("set availability %s: %w", id, err)
	}
	return &p, nil
}

func (s *Service) UploadImage(ctx context.Context, id model.ID, filename string, r io.Reader) (*model.Product, error) {
	var p model.Product
	if err := s.api.Upload(ctx, itemPath(id)+"/image", "file", filename, r, nil, &p); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return &p, nil
}

func itemPath(id model.ID) string {
	return basePath + "/" + url.PathEscape(string(id))
}
