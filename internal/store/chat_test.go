package store

import (
	"testing"

	"github.com/dukerupert/backoffice/internal/database"
	"github.com/dukerupert/backoffice/internal/model"
)

func setupChatTestDB(t *testing.T) *ChatStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewChatStore(db)
}

func TestChatAppendList(t *testing.T) {
	cs := setupChatTestDB(t)

	first, err := cs.Append(model.RoleUser, "Quelle température pour la chambre froide ?")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID == "" {
		t.Error("expected generated id")
	}
	cs.Append(model.RoleAssistant, "Entre 0 et 3 °C.")
	cs.Append(model.RoleUser, "Merci")

	msgs, err := cs.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[0].ID != first.ID || msgs[2].Content != "Merci" {
		t.Errorf("messages out of order: %+v", msgs)
	}

	recent, err := cs.List(2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent len = %d, want 2", len(recent))
	}
	if recent[0].Role != model.RoleAssistant || recent[1].Content != "Merci" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestChatRejectsUnknownRole(t *testing.T) {
	cs := setupChatTestDB(t)
	if _, err := cs.Append("tool", "x"); err == nil {
		t.Error("expected constraint error for unknown role")
	}
}

func TestChatClear(t *testing.T) {
	cs := setupChatTestDB(t)
	cs.Append(model.RoleUser, "bonjour")

	if err := cs.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	msgs, _ := cs.List(0)
	if len(msgs) != 0 {
		t.Errorf("len = %d, want 0", len(msgs))
	}
}
