// Package restaurant manages tenants: CRUD, the suspend/activate lifecycle,
// the settings key/value store and the read-only stats aggregate.
package restaurant

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
)

const basePath = "/api/v1/restaurants"

type Service struct {
	api *api.Client
}

func NewService(c *api.Client) *Service {
	return &Service{api: c}
}

type ListParams struct {
	Status model.RestaurantStatus
	Search string
}

func (p ListParams) Validate() error {
	if p.Status != "" && !p.Status.Valid() {
		return validation.Violations{"status": "must be active, suspended or closed"}
	}
	return nil
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

func (s *Service) List(ctx context.Context, p ListParams) ([]model.Restaurant, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var restaurants []model.Restaurant
	if err := s.api.Get(ctx, basePath, p.query(), &restaurants); err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}

func (s *Service) Get(ctx context.Context, id model.ID) (*model.Restaurant, error) {
	var r model.Restaurant
	if err := s.api.Get(ctx, itemPath(id), nil, &r); err != nil {
		return nil, fmt.Errorf("get restaurant %s: %w", id, err)
	}
	return &r, nil
}

// Input is the editable part of a restaurant.
type Input struct {
	Name    string `json:"name" validate:"nonblank"`
	Email   string `json:"email" validate:"contains=@"`
	Phone   string `json:"phone,omitempty"`
	Siret   string `json:"siret,omitempty" validate:"omitempty,digits=14"`
	Address string `json:"address,omitempty"`
}

func (in Input) Validate() error {
	return validation.Struct(in)
}

func (s *Service) Create(ctx context.Context, in Input) (*model.Restaurant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var r model.Restaurant
	if err := s.api.Post(ctx, basePath, in, &r); err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	return &r, nil
}

func (s *Service) Update(ctx context.Context, id model.ID, in Input) (*model.Restaurant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var r model.Restaurant
	if err := s.api.Put(ctx, itemPath(id), in, &r); err != nil {
		return nil, fmt.Errorf("update restaurant %s: %w", id, err)
	}
	return &r, nil
}

func (s *Service) Delete(ctx context.Context, id model.ID) error {
	if err := s.api.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("delete restaurant %s: %w", id, err)
	}
	return nil
}

// Suspend moves an active restaurant to suspended. The backend owns the
// transition rules and rejects illegal ones.
func (s *Service) Suspend(ctx context.Context, id model.ID, reason string) (*model.Restaurant, error) {
	var r model.Restaurant
	body := map[string]string{"reason": reason}
	if err := s.api.Post(ctx, itemPath(id)+"/suspend", body, &r); err != nil {
		return nil, fmt.Errorf("suspend restaurant %s: %w", id, err)
	}
	return &r, nil
}

func (s *Service) Activate(ctx context.Context, id model.ID) (*model.Restaurant, error) {
	var r model.Restaurant
	if err := s.api.Post(ctx, itemPath(id)+"/activate", nil, &r); err != nil {
		return nil, fmt.Errorf("activate restaurant %s: %w", id, err)
	}
	return &r, nil
}

func (s *Service) Stats(ctx context.Context, id model.ID) (*model.RestaurantStats, error) {
	var st model.RestaurantStats
	if err := s.api.Get(ctx, itemPath(id)+"/stats", nil, &st); err != nil {
		return nil, fmt.Errorf("restaurant stats %s: %w", id, err)
	}
	return &st, nil
}

func itemPath(id model.ID) string {
	return basePath + "/" + url.PathEscape(string(id))
}
