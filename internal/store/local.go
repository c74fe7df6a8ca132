package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/backoffice/internal/secret"
)

// Well-known local storage keys.
const (
	TokenKey      = "auth_token"
	ChatAPIKeyKey = "chat_api_key"
	ChatModelKey  = "chat_model"
)

const maskedValue = "********"

var sealedKeys = map[string]bool{
	TokenKey:      true,
	ChatAPIKeyKey: true,
}

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// LocalStore is the console's key/value local storage. Values under the
// well-known secret keys are sealed at rest when a sealer is configured.
type LocalStore struct {
	db     *sql.DB
	sealer *secret.Sealer
}

func NewLocalStore(db *sql.DB, sealer *secret.Sealer) *LocalStore {
	return &LocalStore{db: db, sealer: sealer}
}

func (s *LocalStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	if !sealedKeys[key] {
		return value, nil
	}

	plain, err := s.sealer.Open(value)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", key, err)
	}
	return plain, nil
}

func (s *LocalStore) Set(key, value string) error {
	if sealedKeys[key] {
		sealed, err := s.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("seal %q: %w", key, err)
		}
		value = sealed
	}

	_, err := s.db.Exec(
		`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// All returns every stored key. Secret values are masked.
func (s *LocalStore) All() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list local storage: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan local storage: %w", err)
		}
		if sealedKeys[key] {
			value = maskedValue
		}
		values[key] = value
	}
	return values, rows.Err()
}

// Token implements api.TokenSource. The token is re-read on every call; a
// missing token yields "".
func (s *LocalStore) Token(ctx context.Context) (string, error) {
	token, err := s.Get(TokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}
