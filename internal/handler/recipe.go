package handler

import (
	"context"
	"net/http"

	"github.com/dukerupert/backoffice/internal/console"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/recipe"
	"github.com/shopspring/decimal"
)

type RecipeHandler struct {
	svc         *recipe.Service
	list        *listPage[[]model.Recipe, recipe.ListParams]
	suggestions map[string]*console.View[*model.SuggestionReport]
}

func NewRecipeHandler(svc *recipe.Service, notify console.Notifier) *RecipeHandler {
	h := &RecipeHandler{
		svc:         svc,
		list:        newListPage("recipe", notify, svc.List),
		suggestions: make(map[string]*console.View[*model.SuggestionReport]),
	}
	for _, kind := range recipe.SuggestionKinds {
		h.suggestions[kind] = console.NewView[*model.SuggestionReport]()
	}
	return h
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, _ := h.list.load(r.Context(), recipe.ListParams{
		Category:   q.Get("category"),
		RecipeType: q.Get("recipe_type"),
		Search:     q.Get("search"),
	})
	writeJSON(w, http.StatusOK, state)
}

type recipeDetail struct {
	*model.Recipe
	ComputedCost   decimal.Decimal `json:"computed_cost"`
	CostPerPortion decimal.Decimal `json:"cost_per_portion"`
	TotalMinutes   int             `json:"total_time"`
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipeDetail{
		Recipe:         rec,
		ComputedCost:   recipe.Cost(*rec),
		CostPerPortion: recipe.CostPerPortion(*rec),
		TotalMinutes:   rec.TotalTime(),
	})
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in recipe.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rec, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "created", rec.ID.String(), "Recipe "+rec.Name+" created")
	writeJSON(w, http.StatusCreated, mutation{Item: rec, List: list})
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in recipe.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rec, err := h.svc.Update(r.Context(), idParam(r, "id"), in)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "updated", rec.ID.String(), "Recipe "+rec.Name+" saved")
	writeJSON(w, http.StatusOK, mutation{Item: rec, List: list})
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "deleted", id.String(), "Recipe deleted")
	writeJSON(w, http.StatusOK, mutation{List: list})
}

func (h *RecipeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Validate(r.Context(), idParam(r, "id"))
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "validated", rec.ID.String(), "Recipe "+rec.Name+" validated")
	writeJSON(w, http.StatusOK, mutation{Item: rec, List: list})
}

// Suggestions loads one AI report. Each kind keeps its own view so a
// failed refresh leaves the previous report visible.
func (h *RecipeHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	view, ok := h.suggestions[kind]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown suggestion kind"})
		return
	}
	state, _ := view.Load(r.Context(), func(ctx context.Context) (*model.SuggestionReport, error) {
		return h.svc.Suggestions(ctx, kind)
	})
	writeJSON(w, http.StatusOK, state)
}
