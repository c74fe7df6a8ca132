package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/backoffice/internal/validation"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestGetAttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok-123")
		}
		if r.Header.Get(HeaderRequestID) == "" {
			t.Error("expected request id header")
		}
		if r.URL.Path != "/api/v1/things" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page = %q, want 2", r.URL.Query().Get("page"))
		}
		json.NewEncoder(w).Encode(item{ID: 1, Name: "Beurre"})
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", WithTokenSource(StaticToken("tok-123")))

	var got item
	if err := c.Get(context.Background(), "/api/v1/things", url.Values{"page": {"2"}}, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Beurre" {
		t.Errorf("name = %q, want Beurre", got.Name)
	}
}

func TestNoTokenNoAuthorizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("expected no Authorization header without a token")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if err := c.Delete(context.Background(), "/x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestPostEncodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		var in item
		json.NewDecoder(r.Body).Decode(&in)
		in.ID = 9
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	var out item
	if err := c.Post(context.Background(), "/items", item{Name: "Crème"}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if out.ID != 9 || out.Name != "Crème" {
		t.Errorf("out = %+v", out)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail string", 400, `{"detail":"Reception already completed"}`, "Reception already completed"},
		{"detail list", 422, `{"detail":[{"loc":["body","quantity_received"],"msg":"field required"},{"loc":["query","page"],"msg":"must be >= 1"}]}`, "quantity_received: field required; page: must be >= 1"},
		{"error field", 409, `{"error":"sku already exists"}`, "sku already exists"},
		{"message field", 403, `{"message":"forbidden tenant"}`, "forbidden tenant"},
		{"non json", 502, `<html>bad gateway</html>`, "Bad Gateway"},
		{"empty", 404, ``, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			err := NewClient(server.URL).Get(context.Background(), "/", nil, nil)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if Message(err) != tt.want {
				t.Errorf("Message = %q, want %q", Message(err), tt.want)
			}
			if apiErr.RequestID == "" {
				t.Error("expected request id on error")
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&Error{Status: 404}) {
		t.Error("expected 404 to be not found")
	}
	if IsNotFound(&Error{Status: 500}) {
		t.Error("500 is not not-found")
	}
	if !IsUnauthorized(&Error{Status: 401}) {
		t.Error("expected 401 to be unauthorized")
	}
}

func TestMessageFallbacks(t *testing.T) {
	if Message(nil) != "" {
		t.Error("nil error should have empty message")
	}
	v := validation.Violations{"quantity_received": "must be greater than 0"}
	if got := Message(v); got != "quantity_received: must be greater than 0" {
		t.Errorf("violations message = %q", got)
	}
	if got := Message(context.DeadlineExceeded); got != "request timed out" {
		t.Errorf("deadline message = %q", got)
	}
	if got := Message(errors.New("boom")); got != "boom" {
		t.Errorf("plain message = %q", got)
	}
}

func TestNetworkError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", WithTimeout(time.Second))
	err := c.Get(context.Background(), "/x", nil, nil)
	if err == nil {
		t.Fatal("expected network error")
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		t.Error("network error should not be an *Error")
	}
}

func TestUploadMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer up" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("caption") != "delivery" {
			t.Errorf("caption = %q", r.FormValue("caption"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "bl.jpg" || string(data) != "jpegdata" {
			t.Errorf("file = %s %q", hdr.Filename, data)
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "/media/bl.jpg"})
	}))
	defer server.Close()

	c := NewClient(server.URL, WithTokenSource(StaticToken("up")))
	var out map[string]string
	err := c.Upload(context.Background(), "/photos", "file", "bl.jpg",
		strings.NewReader("jpegdata"), map[string]string{"caption": "delivery"}, &out)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out["url"] != "/media/bl.jpg" {
		t.Errorf("url = %q", out["url"])
	}
}

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) {
	return "", errors.New("locked")
}

func TestTokenSourceError(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	err := NewClient(server.URL, WithTokenSource(failingTokens{})).Get(context.Background(), "/", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("err = %v, want token error", err)
	}
	if called {
		t.Error("request should not be sent when the token cannot be read")
	}
}
