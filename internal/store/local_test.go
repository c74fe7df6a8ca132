package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dukerupert/backoffice/internal/database"
	"github.com/dukerupert/backoffice/internal/secret"
)

func setupLocalTestDB(t *testing.T, passphrase string) *LocalStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLocalStore(db, secret.NewSealer(passphrase))
}

func TestLocalStoreGetSet(t *testing.T) {
	ls := setupLocalTestDB(t, "")

	if _, err := ls.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	if err := ls.Set("last_page", "receptions"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := ls.Get("last_page")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "receptions" {
		t.Errorf("value = %q, want receptions", got)
	}

	// Overwrite
	if err := ls.Set("last_page", "products"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = ls.Get("last_page")
	if got != "products" {
		t.Errorf("value = %q, want products", got)
	}

	if err := ls.Delete("last_page"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ls.Get("last_page"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestLocalStoreToken(t *testing.T) {
	ls := setupLocalTestDB(t, "")

	token, err := ls.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}

	ls.Set(TokenKey, "abc.def.ghi")
	token, _ = ls.Token(context.Background())
	if token != "abc.def.ghi" {
		t.Errorf("token = %q", token)
	}
}

func TestLocalStoreSealsSecrets(t *testing.T) {
	ls := setupLocalTestDB(t, "kitchen-passphrase")

	if err := ls.Set(TokenKey, "secret-token"); err != nil {
		t.Fatalf("set: %v", err)
	}

	var raw string
	if err := ls.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, TokenKey).Scan(&raw); err != nil {
		t.Fatalf("raw read: %v", err)
	}
	if !strings.HasPrefix(raw, secret.Prefix) {
		t.Errorf("raw value %q is not sealed", raw)
	}

	got, err := ls.Get(TokenKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "secret-token" {
		t.Errorf("value = %q", got)
	}

	// Non-secret keys stay plaintext.
	ls.Set("theme", "dark")
	ls.db.QueryRow(`SELECT value FROM local_storage WHERE key = 'theme'`).Scan(&raw)
	if raw != "dark" {
		t.Errorf("theme raw = %q, want dark", raw)
	}
}

func TestLocalStorePlainKeysKeepSealedLookingValues(t *testing.T) {
	ls := setupLocalTestDB(t, "kitchen-passphrase")

	if err := ls.Set(ChatModelKey, "enc:v1:xyz"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := ls.Get(ChatModelKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "enc:v1:xyz" {
		t.Errorf("value = %q, want it back unchanged", got)
	}

	all, err := ls.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all[ChatModelKey] != "enc:v1:xyz" {
		t.Errorf("listed value = %q", all[ChatModelKey])
	}
}

func TestLocalStoreSealedWithoutPassphrase(t *testing.T) {
	sealedStore := setupLocalTestDB(t, "pass")
	sealedStore.Set(TokenKey, "secret-token")

	plain := NewLocalStore(sealedStore.db, nil)
	if _, err := plain.Get(TokenKey); !errors.Is(err, secret.ErrNoPassphrase) {
		t.Errorf("err = %v, want ErrNoPassphrase", err)
	}
}

func TestLocalStoreAllMasksSecrets(t *testing.T) {
	ls := setupLocalTestDB(t, "")
	ls.Set(TokenKey, "tok")
	ls.Set(ChatAPIKeyKey, "sk-123")
	ls.Set(ChatModelKey, "gpt-4o-mini")

	all, err := ls.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[TokenKey] != maskedValue || all[ChatAPIKeyKey] != maskedValue {
		t.Errorf("secrets not masked: %v", all)
	}
	if all[ChatModelKey] != "gpt-4o-mini" {
		t.Errorf("model = %q", all[ChatModelKey])
	}
}
