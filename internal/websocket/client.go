package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one connected console tab. Toasts reach every tab; refresh
// hints only reach tabs following the hinted page.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte

	mu    sync.RWMutex
	pages map[string]bool
}

// NewClient ties conn to hub. With no pages the tab follows every page.
func NewClient(hub *Hub, conn *ws.Conn, pages ...string) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	c.Follow(pages...)
	return c
}

// Follow replaces the pages whose refresh hints the tab receives.
func (c *Client) Follow(pages ...string) {
	set := make(map[string]bool, len(pages))
	for _, p := range pages {
		if p != "" {
			set[p] = true
		}
	}
	c.mu.Lock()
	c.pages = set
	c.mu.Unlock()
}

func (c *Client) wants(msg Message) bool {
	if msg.Type != TypeRefresh {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages) == 0 || c.pages[msg.Page]
}

// followRequest is the only message a tab sends: {"follow": ["product"]}.
type followRequest struct {
	Follow []string `json:"follow"`
}

// Run blocks until the tab goes away, then unregisters it.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.deliver(ctx)
	c.listen(ctx)
}

// listen applies follow requests until the connection closes.
func (c *Client) listen(ctx context.Context) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != ws.MessageText {
			continue
		}
		var req followRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.hub.logger.Debug("ignoring tab message", "error", err)
			continue
		}
		c.Follow(req.Follow...)
	}
}

// deliver writes queued messages and pings; a failed write ends the tab.
func (c *Client) deliver(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, ws.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
