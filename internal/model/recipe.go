package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Recipe struct {
	ID            ID                  `json:"id"`
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	RecipeType    string              `json:"recipe_type"`
	Category      string              `json:"category"`
	YieldQuantity float64             `json:"yield_quantity"`
	YieldUnit     string              `json:"yield_unit"`
	PrepTime      int                 `json:"prep_time,omitempty"`
	CookTime      int                 `json:"cook_time,omitempty"`
	RestTime      int                 `json:"rest_time,omitempty"`
	Ingredients   []RecipeIngredient  `json:"ingredients"`
	Instructions  RecipeInstructions  `json:"instructions"`
	TotalCost     decimal.NullDecimal `json:"total_cost"`
	IsValidated   bool                `json:"is_validated"`
	CreatedAt     *time.Time          `json:"created_at,omitempty"`
	UpdatedAt     *time.Time          `json:"updated_at,omitempty"`
}

// TotalTime is prep + cook + rest in minutes.
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime + r.RestTime
}

type RecipeIngredient struct {
	ItemID   ID                  `json:"item_id" validate:"nonblank"`
	ItemName string              `json:"item_name,omitempty"`
	Quantity float64             `json:"quantity" validate:"gt=0"`
	Unit     string              `json:"unit"`
	UnitCost decimal.NullDecimal `json:"unit_cost"`
	Cost     decimal.NullDecimal `json:"cost"`
}

type RecipeInstructions struct {
	Steps []string `json:"steps,omitempty"`
	Notes string   `json:"notes,omitempty"`
	Tips  []string `json:"tips,omitempty"`
}

// Suggestion is one entry of an AI suggestion report. The backend decides
// the content; Details is passed through verbatim.
type Suggestion struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	RecipeID    *ID            `json:"recipe_id,omitempty"`
	Impact      string         `json:"impact,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

type SuggestionReport struct {
	Kind        string       `json:"kind"`
	GeneratedAt *time.Time   `json:"generated_at,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Suggestions []Suggestion `json:"suggestions"`
}
