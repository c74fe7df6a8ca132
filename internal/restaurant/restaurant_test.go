package restaurant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
)

func newTestService(t *testing.T, h http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewService(api.NewClient(server.URL, api.WithTokenSource(api.StaticToken("tok"))))
}

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"valid", Input{Name: "Chez Paul", Email: "paul@example.fr", Siret: "73282932000074"}, ""},
		{"valid without siret", Input{Name: "Chez Paul", Email: "paul@example.fr"}, ""},
		{"missing name", Input{Email: "paul@example.fr"}, "name"},
		{"bad email", Input{Name: "Chez Paul", Email: "paul.example.fr"}, "email"},
		{"short siret", Input{Name: "Chez Paul", Email: "paul@example.fr", Siret: "7328293200"}, "siret"},
		{"letters in siret", Input{Name: "Chez Paul", Email: "paul@example.fr", Siret: "7328293200007A"}, "siret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var v validation.Violations
			if !errors.As(err, &v) {
				t.Fatalf("expected violations, got %v", err)
			}
			if _, ok := v[tt.field]; !ok {
				t.Errorf("expected %s violation, got %v", tt.field, v)
			}
		})
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("status") != "suspended" {
			t.Errorf("query = %v", r.URL.Query())
		}
		io.WriteString(w, `[{"id":3,"name":"Le Zinc","status":"suspended"}]`)
	})

	ctx := context.Background()
	if _, err := svc.List(ctx, ListParams{Status: "archived"}); err == nil {
		t.Error("expected error for unknown status")
	}

	list, err := svc.List(ctx, ListParams{Status: model.RestaurantSuspended})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "3" || list[0].Status != model.RestaurantSuspended {
		t.Errorf("list = %+v", list)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestLifecycle(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/restaurants/3/suspend":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["reason"] != "impayé" {
				t.Errorf("reason = %q", body["reason"])
			}
			io.WriteString(w, `{"id":3,"status":"suspended"}`)
		case "/api/v1/restaurants/3/activate":
			io.WriteString(w, `{"id":3,"status":"active"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	r, err := svc.Suspend(ctx, "3", "impayé")
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if r.Status != model.RestaurantSuspended {
		t.Errorf("status = %s", r.Status)
	}

	r, err = svc.Activate(ctx, "3")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if r.Status != model.RestaurantActive {
		t.Errorf("status = %s", r.Status)
	}
}

func TestLifecycleRejected(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"detail":"Restaurant is closed"}`)
	})

	_, err := svc.Activate(context.Background(), "3")
	if got := api.Message(err); got != "Restaurant is closed" {
		t.Errorf("message = %q", got)
	}
}

func TestSettings(t *testing.T) {
	stored := map[string]any{"currency": "EUR", "default_vat_rate": 10}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/restaurants/3/settings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Method == http.MethodPatch {
			var patch map[string]any
			json.NewDecoder(r.Body).Decode(&patch)
			for k, v := range patch {
				stored[k] = v
			}
		}
		json.NewEncoder(w).Encode(stored)
	})

	ctx := context.Background()
	settings, err := svc.Settings(ctx, "3")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings["currency"] != "EUR" {
		t.Errorf("settings = %v", settings)
	}

	settings, err = svc.UpdateSetting(ctx, "3", "timezone", "Europe/Paris")
	if err != nil {
		t.Fatalf("update setting: %v", err)
	}
	if settings["timezone"] != "Europe/Paris" {
		t.Errorf("settings = %v", settings)
	}

	if _, err := svc.UpdateSetting(ctx, "3", "", 1); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestDecodeSettings(t *testing.T) {
	raw := map[string]any{
		"currency":                   "EUR",
		"default_vat_rate":           "5.5",
		"temperature_check_interval": 240.0,
		"reception_auto_complete":    "true",
		"opening_hours":              map[string]any{"mon": "12:00-14:30"},
		"theme":                      "dark",
	}

	s, err := DecodeSettings(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Currency != "EUR" || s.DefaultVATRate != 5.5 || s.TemperatureCheckMins != 240 || !s.ReceptionAutoComplete {
		t.Errorf("settings = %+v", s)
	}
	if s.OpeningHours["mon"] != "12:00-14:30" {
		t.Errorf("opening hours = %v", s.OpeningHours)
	}
	if s.Extra["theme"] != "dark" {
		t.Errorf("extra = %v", s.Extra)
	}
}

func TestStats(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"users_count":4,"products_count":120,"recipes_count":35,"receptions_count":9}`)
	})

	st, err := svc.Stats(context.Background(), "3")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Users != 4 || st.Products != 120 || st.Recipes != 35 || st.Receptions != 9 {
		t.Errorf("stats = %+v", st)
	}
}
