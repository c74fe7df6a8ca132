package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xuri/excelize/v2"
)

// testCLI points the CLI at a fresh data dir and the given backend.
func testCLI(t *testing.T, backend http.Handler) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("BACKOFFICE_DB_PATH", filepath.Join(dir, "data", "backoffice.db"))
	t.Setenv("BACKOFFICE_LOG_LEVEL", "error")
	t.Setenv("BACKOFFICE_SECRET", "")
	if backend != nil {
		srv := httptest.NewServer(backend)
		t.Cleanup(srv.Close)
		t.Setenv("BACKOFFICE_API_URL", srv.URL)
	}
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	testCLI(t, nil)

	claims := jwt.MapClaims{
		"sub":   "42",
		"email": "chef@bistrot.fr",
		"exp":   time.Now().Add(2 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "Bearer "+token+"\n", "login"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := run(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "chef@bistrot.fr") || !strings.Contains(out, "subject: 42") {
		t.Errorf("whoami output:\n%s", out)
	}

	if _, err := run(t, "", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := run(t, "", "whoami"); err == nil || err.Error() != "not signed in" {
		t.Errorf("whoami after logout: %v", err)
	}
}

func TestProductListSendsStoredToken(t *testing.T) {
	var auth atomic.Value
	testCLI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		if r.URL.Query().Get("category") != "cremerie" {
			t.Errorf("query = %v", r.URL.Query())
		}
		io.WriteString(w, `[{"id":3,"sku":"BEU-250","name":"Beurre doux","category":"cremerie","price":"2","vat_rate":"5.5","unit":"piece","is_available":true}]`)
	}))

	if _, err := run(t, "", "login", "opaque-token"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "", "product", "list", "--category", "cremerie")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := auth.Load(); got != "Bearer opaque-token" {
		t.Errorf("Authorization = %v", got)
	}
	for _, want := range []string{"BEU-250", "Beurre doux", "2.11", "yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBackendErrorIsOneLine(t *testing.T) {
	testCLI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"detail":"Reception has unvalidated items"}`)
	}))

	_, err := run(t, "", "reception", "complete", "7")
	if err == nil || err.Error() != "Reception has unvalidated items" {
		t.Errorf("err = %v", err)
	}
}

func TestValidateItemChecksBeforeSending(t *testing.T) {
	var calls atomic.Int32
	testCLI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := run(t, "", "reception", "validate-item", "7", "1", "--received", "0", "--dlc", "02/11/2026")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "quantity_received") || !strings.Contains(err.Error(), "dlc") {
		t.Errorf("err = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("backend called %d times", calls.Load())
	}
}

func TestProductExport(t *testing.T) {
	dir := testCLI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"sku":"PAIN-01","name":"Baguette","price":"1.10","vat_rate":"5.5","is_available":true}]`)
	}))

	path := filepath.Join(dir, "catalogue")
	out, err := run(t, "", "product", "export", path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "exported 1 products") {
		t.Errorf("output = %q", out)
	}

	f, err := os.Open(path + ".xlsx")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	book, err := excelize.OpenReader(f)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	sku, err := book.GetCellValue("Products", "A2")
	if err != nil || sku != "PAIN-01" {
		t.Errorf("A2 = %q, %v", sku, err)
	}
}

func TestHACCPFallsBackToDemoData(t *testing.T) {
	testCLI(t, http.NotFoundHandler())

	out, err := run(t, "", "haccp", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "demo data") || !strings.Contains(out, "equipment:   5") {
		t.Errorf("output:\n%s", out)
	}

	if _, err := run(t, "", "haccp", "archive"); err != errNoArchive {
		t.Errorf("archive err = %v", err)
	}
	if _, err := run(t, "", "haccp", "snapshot", "haccp/2026/10/19/20261019T080000Z.json"); err != errNoArchive {
		t.Errorf("snapshot err = %v", err)
	}
	if _, err := run(t, "", "haccp", "snapshot", "any", "fridge"); err == nil || !strings.Contains(err.Error(), "unknown tab") {
		t.Errorf("snapshot with bad tab err = %v", err)
	}
}

func TestChatWithoutKey(t *testing.T) {
	testCLI(t, nil)
	_, err := run(t, "", "chat", "bonjour")
	if err == nil || !strings.Contains(err.Error(), "key") {
		t.Errorf("err = %v", err)
	}

	if _, err := run(t, "", "chat", "model", "mistral-small"); err != nil {
		t.Fatal(err)
	}
	out, _ := run(t, "", "chat", "model")
	if strings.TrimSpace(out) != "mistral-small" {
		t.Errorf("model = %q", out)
	}
}
