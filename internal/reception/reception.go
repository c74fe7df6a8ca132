// Package reception drives the goods-reception workflow: list and inspect
// deliveries, validate each line, check batch consistency, then complete.
package reception

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
)

const (
	basePath = "/api/v1/receptions"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Service struct {
	api *api.Client
}

func NewService(c *api.Client) *Service {
	return &Service{api: c}
}

// ListParams selects one page of receptions.
type ListParams struct {
	Page   int
	Size   int
	Status model.ReceptionStatus
}

// Normalize clamps page to >= 1 and size to [1, MaxPageSize].
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p ListParams) query() url.Values {
	p = p.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("size", strconv.Itoa(p.Size))
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	return q
}

func (s *Service) List(ctx context.Context, p ListParams) (*model.Page[model.Reception], error) {
	var page model.Page[model.Reception]
	if err := s.api.Get(ctx, basePath, p.query(), &page); err != nil {
		return nil, fmt.Errorf("list receptions: %w", err)
	}
	return &page, nil
}

func (s *Service) Get(ctx context.Context, id model.ID) (*model.Reception, error) {
	var r model.Reception
	if err := s.api.Get(ctx, itemPath(id), nil, &r); err != nil {
		return nil, fmt.Errorf("get reception %s: %w", id, err)
	}
	return &r, nil
}

// Items re-fetches the line items of a reception. Nothing is cached.
func (s *Service) Items(ctx context.Context, id model.ID) ([]model.ReceptionItem, error) {
	var items []model.ReceptionItem
	if err := s.api.Get(ctx, itemPath(id)+"/items", nil, &items); err != nil {
		return nil, fmt.Errorf("get reception %s items: %w", id, err)
	}
	return items, nil
}

// Input creates a reception for a purchase order.
type Input struct {
	PurchaseID     model.ID `json:"purchase_id" validate:"nonblank"`
	DeliveryNumber string   `json:"delivery_number" validate:"nonblank"`
	CarrierName    string   `json:"carrier_name,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

func (in Input) Validate() error {
	return validation.Struct(in)
}

func (s *Service) Create(ctx context.Context, in Input) (*model.Reception, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var r model.Reception
	if err := s.api.Post(ctx, basePath, in, &r); err != nil {
		return nil, fmt.Errorf("create reception: %w", err)
	}
	return &r, nil
}

// ValidateItem checks v locally and, only if it passes, posts it.
func (s *Service) ValidateItem(ctx context.Context, receptionID, itemID model.ID, v ItemValidation) (*model.ReceptionItem, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	var item model.ReceptionItem
	path := fmt.Sprintf("%s/items/%s/validate", itemPath(receptionID), url.PathEscape(string(itemID)))
	if err := s.api.Post(ctx, path, v, &item); err != nil {
		return nil, fmt.Errorf("validate item %s: %w", itemID, err)
	}
	return &item, nil
}

// BatchCheck asks the backend for the batch-consistency report of a SKU.
func (s *Service) BatchCheck(ctx context.Context, sku string) (*model.BatchCheck, error) {
	if err := validation.Var("sku", sku, "nonblank"); err != nil {
		return nil, err
	}
	var bc model.BatchCheck
	if err := s.api.Get(ctx, basePath+"/batch-check/"+url.PathEscape(sku), nil, &bc); err != nil {
		return nil, fmt.Errorf("batch check %s: %w", sku, err)
	}
	return &bc, nil
}

type completeRequest struct {
	ForceValidation bool `json:"force_validation"`
}

// Complete closes the reception. Whether force is required is the backend's
// call; a refusal comes back as an *api.Error.
func (s *Service) Complete(ctx context.Context, id model.ID, force bool) (*model.Reception, error) {
	var r model.Reception
	if err := s.api.Post(ctx, itemPath(id)+"/complete", completeRequest{ForceValidation: force}, &r); err != nil {
		return nil, fmt.Errorf("complete reception %s: %w", id, err)
	}
	return &r, nil
}

// CompletionRecord is what gets archived when a reception is closed.
type CompletionRecord struct {
	Reception   *model.Reception      `json:"reception"`
	Items       []model.ReceptionItem `json:"items"`
	Summary     Summary               `json:"summary"`
	Forced      bool                  `json:"forced"`
	CompletedAt time.Time             `json:"completed_at"`
}

// Record builds the completion record for rec, re-reading its lines. When
// that read fails the lines embedded in rec are used and the error is
// returned alongside the record.
func (s *Service) Record(ctx context.Context, rec *model.Reception, forced bool, at time.Time) (CompletionRecord, error) {
	items, err := s.Items(ctx, rec.ID)
	if err != nil {
		items = rec.Items
	}
	return CompletionRecord{
		Reception:   rec,
		Items:       items,
		Summary:     Progress(items),
		Forced:      forced,
		CompletedAt: at.UTC(),
	}, err
}

// UploadPhoto attaches a delivery photo. There is no retry.
func (s *Service) UploadPhoto(ctx context.Context, id model.ID, filename string, r io.Reader) (*model.ReceptionPhoto, error) {
	var photo model.ReceptionPhoto
	if err := s.api.Upload(ctx, itemPath(id)+"/photos", "file", filename, r, nil, &photo); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	return &photo, nil
}

func itemPath(id model.ID) string {
	return basePath + "/" + url.PathEscape(string(id))
}
