// Package recipe manages recipe sheets and the read-only AI suggestion reports.
package recipe

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
	"github.com/shopspring/decimal"
)

const basePath = "/api/v1/recipes"

// Suggestion report kinds served under /suggestions/{kind}.
const (
	KindCostOptimization = "cost-optimization"
	KindSeasonal         = "seasonal"
	KindMenuEngineering  = "menu-engineering"
	KindWasteReduction   = "waste-reduction"
)

var SuggestionKinds = []string{
	KindCostOptimization,
	KindSeasonal,
	KindMenuEngineering,
	KindWasteReduction,
}

type Service struct {
	api *api.Client
}

func NewService(c *api.Client) *Service {
	return &Service{api: c}
}

type ListParams struct {
	Category   string
	RecipeType string
	Search     string
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.RecipeType != "" {
		q.Set("recipe_type", p.RecipeType)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

func (s *Service) List(ctx context.Context, p ListParams) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := s.api.Get(ctx, basePath, p.query(), &recipes); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

func (s *Service) Get(ctx context.Context, id model.ID) (*model.Recipe, error) {
	var r model.Recipe
	if err := s.api.Get(ctx, itemPath(id), nil, &r); err != nil {
		return nil, fmt.Errorf("get recipe %s: %w", id, err)
	}
	return &r, nil
}

// Input is the editable part of a recipe sheet.
type Input struct {
	Code          string                   `json:"code" validate:"nonblank"`
	Name          string                   `json:"name" validate:"nonblank"`
	RecipeType    string                   `json:"recipe_type"`
	Category      string                   `json:"category"`
	YieldQuantity float64                  `json:"yield_quantity" validate:"gt=0"`
	YieldUnit     string                   `json:"yield_unit"`
	PrepTime      int                      `json:"prep_time,omitempty" validate:"gte=0"`
	CookTime      int                      `json:"cook_time,omitempty" validate:"gte=0"`
	RestTime      int                      `json:"rest_time,omitempty" validate:"gte=0"`
	Ingredients   []model.RecipeIngredient `json:"ingredients" validate:"dive"`
	Instructions  model.RecipeInstructions `json:"instructions"`
}

func (in Input) Validate() error {
	return validation.Struct(in)
}

func (s *Service) Create(ctx context.Context, in Input) (*model.Recipe, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var r model.Recipe
	if err := s.api.Post(ctx, basePath, in, &r); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return &r, nil
}

func (s *Service) Update(ctx context.Context, id model.ID, in Input) (*model.Recipe, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var r model.Recipe
	if err := s.api.Put(ctx, itemPath(id), in, &r); err != nil {
		return nil, fmt.Errorf("update recipe %s: %w", id, err)
	}
	return &r, nil
}

func (s *Service) Delete(ctx context.Context, id model.ID) error {
	if err := s.api.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}
	return nil
}

// Validate marks the recipe sheet as validated by the chef.
func (s *Service) Validate(ctx context.Context, id model.ID) (*model.Recipe, error) {
	var r model.Recipe
	if err := s.api.Post(ctx, itemPath(id)+"/validate", nil, &r); err != nil {
		return nil, fmt.Errorf("validate recipe %s: %w", id, err)
	}
	return &r, nil
}

// Suggestions fetches one of the backend's AI suggestion reports.
func (s *Service) Suggestions(ctx context.Context, kind string) (*model.SuggestionReport, error) {
	if !ValidKind(kind) {
		return nil, validation.Violations{"kind": "unknown suggestion kind"}
	}
	var report model.SuggestionReport
	if err := s.api.Get(ctx, basePath+"/suggestions/"+kind, nil, &report); err != nil {
		return nil, fmt.Errorf("%s suggestions: %w", kind, err)
	}
	if report.Kind == "" {
		report.Kind = kind
	}
	return &report, nil
}

func ValidKind(kind string) bool {
	for _, k := range SuggestionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Cost sums the ingredient costs. An ingredient without a cost counts
// quantity * unit_cost; one with neither contributes nothing.
func Cost(r model.Recipe) decimal.Decimal {
	total := decimal.Zero
	for _, ing := range r.Ingredients {
		switch {
		case ing.Cost.Valid:
			total = total.Add(ing.Cost.Decimal)
		case ing.UnitCost.Valid:
			total = total.Add(ing.UnitCost.Decimal.Mul(decimal.NewFromFloat(ing.Quantity)))
		}
	}
	return total.Round(2)
}

// CostPerPortion divides Cost by the yield quantity.
func CostPerPortion(r model.Recipe) decimal.Decimal {
	if r.YieldQuantity <= 0 {
		return decimal.Zero
	}
	return Cost(r).Div(decimal.NewFromFloat(r.YieldQuantity)).Round(2)
}

func itemPath(id model.ID) string {
	return basePath + "/" + url.PathEscape(string(id))
}
