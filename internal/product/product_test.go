package product

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func newTestService(t *testing.T, h http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewService(api.NewClient(server.URL, api.WithTokenSource(api.StaticToken("tok"))))
}

func validInput() Input {
	return Input{
		SKU:         "BEU-250",
		Name:        "Beurre doux 250g",
		Category:    "crèmerie",
		ProductType: "raw",
		Price:       decimal.RequireFromString("2.35"),
		VATRate:     decimal.RequireFromString("5.5"),
		Unit:        "piece",
		IsAvailable: true,
	}
}

func TestListQuery(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("category") != "boissons" || q.Get("is_available") != "true" || q.Get("search") != "" {
			t.Errorf("query = %v", q)
		}
		io.WriteString(w, `[{"id":1,"sku":"EAU-50","name":"Eau 50cl","price":"1.20","vat_rate":5.5,"is_available":true}]`)
	})

	avail := true
	products, err := svc.List(context.Background(), ListParams{Category: "boissons", Available: &avail})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 || !products[0].Price.Equal(decimal.RequireFromString("1.2")) {
		t.Errorf("products = %+v", products)
	}
}

func TestInputValidate(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	in := validInput()
	in.Name = ""
	in.Price = decimal.NewFromInt(-1)
	in.VATRate = decimal.NewFromInt(7)
	var v validation.Violations
	if !errors.As(in.Validate(), &v) {
		t.Fatal("expected violations")
	}
	for _, f := range []string{"name", "price", "vat_rate"} {
		if _, ok := v[f]; !ok {
			t.Errorf("expected %s violation in %v", f, v)
		}
	}
}

func TestCreateRejectedLocally(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	in := validInput()
	in.SKU = ""
	if _, err := svc.Create(context.Background(), in); err == nil {
		t.Fatal("expected validation error")
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	var methods []string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost, http.MethodPut:
			var in Input
			json.NewDecoder(r.Body).Decode(&in)
			json.NewEncoder(w).Encode(model.Product{ID: "5", SKU: in.SKU, Name: in.Name, Price: in.Price, VATRate: in.VATRate})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	ctx := context.Background()
	p, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID != "5" || p.Name != "Beurre doux 250g" {
		t.Errorf("created = %+v", p)
	}

	in := validInput()
	in.Price = decimal.RequireFromString("2.50")
	p, err = svc.Update(ctx, "5", in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !p.Price.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("price = %s", p.Price)
	}

	if err := svc.Delete(ctx, "5"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{"POST /api/v1/products", "PUT /api/v1/products/5", "DELETE /api/v1/products/5"}
	if strings.Join(methods, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", methods, want)
	}
}

func TestSetAvailability(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		var body map[string]bool
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(model.Product{ID: "5", IsAvailable: body["is_available"]})
	})

	p, err := svc.SetAvailability(context.Background(), "5", false)
	if err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if p.IsAvailable {
		t.Error("expected unavailable product")
	}
}

func TestUploadImage(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/products/5/image" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("form file: %v", err)
		}
		io.WriteString(w, `{"id":5,"image_url":"/media/products/5.png"}`)
	})

	p, err := svc.UploadImage(context.Background(), "5", "beurre.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if p.ImageURL != "/media/products/5.png" {
		t.Errorf("image_url = %q", p.ImageURL)
	}
}

func TestExportXLSX(t *testing.T) {
	products := []model.Product{
		{SKU: "BEU-250", Name: "Beurre", Price: decimal.RequireFromString("2.00"), VATRate: decimal.RequireFromString("5.5"), IsAvailable: true, Allergens: []string{"lait"}},
		{SKU: "VIN-75", Name: "Côtes du Rhône", Price: decimal.RequireFromString("10"), VATRate: decimal.NewFromInt(20)},
	}

	var buf bytes.Buffer
	if err := ExportXLSX(&buf, products); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "SKU" || rows[1][0] != "BEU-250" || rows[2][1] != "Côtes du Rhône" {
		t.Errorf("unexpected rows: %v", rows)
	}
	if rows[1][6] != "2.11" {
		t.Errorf("price incl. VAT = %q, want 2.11", rows[1][6])
	}
	if rows[1][9] != "lait" {
		t.Errorf("allergens = %q", rows[1][9])
	}
}
