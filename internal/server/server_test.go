package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/archive"
	"github.com/dukerupert/backoffice/internal/database"
	"github.com/dukerupert/backoffice/internal/store"
)

type testEnv struct {
	console *httptest.Server
	local   *store.LocalStore
	auth    chan string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{auth: make(chan string, 10)}

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.auth <- r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/v1/products":
			io.WriteString(w, `[{"id":1,"sku":"BEU-250","name":"Beurre","price":"2.35","vat_rate":"5.5"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.local = store.NewLocalStore(db, nil)
	client := api.NewClient(backend.URL, api.WithTokenSource(env.local), api.WithLogger(logger))

	srv := New(Config{ChatURL: "http://127.0.0.1:1/v1"}, client, env.local, store.NewChatStore(db), archive.New(archive.Config{}, nil), logger)
	env.console = httptest.NewServer(srv.Router())
	t.Cleanup(env.console.Close)
	return env
}

func (e *testEnv) request(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.console.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	env := setup(t)
	resp := env.request(t, "GET", "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}
}

func TestPagesRequireToken(t *testing.T) {
	env := setup(t)

	if resp := env.request(t, "GET", "/api/products", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", resp.StatusCode)
	}

	if resp := env.request(t, "POST", "/api/session", `{"token":"opaque"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("sign in status = %d", resp.StatusCode)
	}

	resp := env.request(t, "GET", "/api/products", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status with token = %d", resp.StatusCode)
	}
	if got := <-env.auth; got != "Bearer opaque" {
		t.Errorf("backend saw Authorization %q", got)
	}

	var state struct {
		Data []json.RawMessage `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&state)
	if len(state.Data) != 1 {
		t.Errorf("data = %d items", len(state.Data))
	}
}

func TestChatNeedsKeyNotToken(t *testing.T) {
	env := setup(t)

	resp := env.request(t, "POST", "/api/chat", `{"prompt":"bonjour"}`)
	if resp.StatusCode != http.StatusPreconditionRequired {
		t.Errorf("status = %d, want 428", resp.StatusCode)
	}

	if err := env.local.Set(store.ChatAPIKeyKey, "sk-test"); err != nil {
		t.Fatal(err)
	}
	resp = env.request(t, "POST", "/api/chat", `{"prompt":"  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty prompt status = %d, want 400", resp.StatusCode)
	}
}

func TestStorageMasksSecrets(t *testing.T) {
	env := setup(t)
	env.local.Set(store.TokenKey, "secret-token")
	env.local.Set(store.ChatModelKey, "mistral-small")

	var values map[string]string
	json.NewDecoder(env.request(t, "GET", "/api/storage", "").Body).Decode(&values)
	if values[store.TokenKey] == "secret-token" {
		t.Error("token not masked")
	}
	if values[store.ChatModelKey] != "mistral-small" {
		t.Errorf("chat model = %q", values[store.ChatModelKey])
	}
}
