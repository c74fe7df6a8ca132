package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient creates a Client with a send channel but no connection.
func mockClient(hub *Hub, pages ...string) *Client {
	return NewClient(hub, nil, pages...)
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	c1, c2 := mockClient(hub), mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}
	hub.Unregister(c2)
}

func TestToast(t *testing.T) {
	hub := NewHub(testLogger())
	c1, c2 := mockClient(hub), mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	hub.Toast(LevelSuccess, "Réception complétée")

	for _, c := range []*Client{c1, c2} {
		msg := receive(t, c)
		if msg.Type != TypeToast || msg.Level != LevelSuccess || msg.Text != "Réception complétée" {
			t.Errorf("message = %+v", msg)
		}
		if msg.At.IsZero() {
			t.Error("toast has no timestamp")
		}
	}
}

func TestRefresh(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	hub.Refresh("product", "deleted", "17")

	msg := receive(t, c)
	if msg.Type != TypeRefresh || msg.Page != "product" || msg.Action != "deleted" || msg.ID != "17" {
		t.Errorf("message = %+v", msg)
	}
}

func TestRefreshOnlyReachesFollowers(t *testing.T) {
	hub := NewHub(testLogger())
	products, receptions, all := mockClient(hub, "product"), mockClient(hub, "reception"), mockClient(hub)
	for _, c := range []*Client{products, receptions, all} {
		hub.Register(c)
		defer hub.Unregister(c)
	}

	hub.Refresh("product", "updated", "3")
	hub.Toast(LevelInfo, "Produit mis à jour")

	if msg := receive(t, products); msg.Type != TypeRefresh {
		t.Errorf("product tab first message = %+v", msg)
	}
	if msg := receive(t, all); msg.Type != TypeRefresh {
		t.Errorf("unfiltered tab first message = %+v", msg)
	}
	if msg := receive(t, receptions); msg.Type != TypeToast {
		t.Errorf("reception tab got %+v, want only the toast", msg)
	}

	receptions.Follow("reception", "product")
	hub.Refresh("product", "deleted", "3")
	if msg := receive(t, receptions); msg.Type != TypeRefresh || msg.Action != "deleted" {
		t.Errorf("after follow: %+v", msg)
	}
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := 0; i < sendBufferSize+3; i++ {
		hub.Toast(LevelInfo, "fill")
	}

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Toast(LevelInfo, "concurrent")
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients, got %d", got)
	}
}

func TestHandlerDeliversToasts(t *testing.T) {
	hub := NewHub(testLogger())
	server := httptest.NewServer(Handler(hub, testLogger()))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for hub.ClientCount() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("client never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	hub.Toast(LevelError, "Produit introuvable")

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Level != LevelError || msg.Text != "Produit introuvable" {
		t.Errorf("message = %+v", msg)
	}
}

func TestHandlerFollowRequest(t *testing.T) {
	hub := NewHub(testLogger())
	server := httptest.NewServer(Handler(hub, testLogger()))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http")+"?page=recipe", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	if err := conn.Write(ctx, ws.MessageText, []byte(`{"follow":["haccp"]}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The follow request is applied asynchronously; keep hinting until it lands.
	got := make(chan Message, 1)
	go func() {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg Message
		json.Unmarshal(data, &msg)
		got <- msg
	}()

	for {
		hub.Refresh("haccp", "archived", "")
		select {
		case msg := <-got:
			if msg.Page != "haccp" {
				t.Errorf("message = %+v", msg)
			}
			return
		case <-ctx.Done():
			t.Fatal("no refresh after follow request")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
