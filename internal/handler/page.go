package handler

import (
	"context"
	"sync"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/console"
	"github.com/dukerupert/backoffice/internal/websocket"
)

// listPage is the state of one console list: its view and the filter it
// was last loaded with, so mutations can re-fetch the same list.
type listPage[T, P any] struct {
	name   string
	view   *console.View[T]
	fetch  func(context.Context, P) (T, error)
	notify console.Notifier

	mu     sync.Mutex
	params P
}

func newListPage[T, P any](name string, notify console.Notifier, fetch func(context.Context, P) (T, error)) *listPage[T, P] {
	if notify == nil {
		notify = console.Discard
	}
	return &listPage[T, P]{
		name:   name,
		view:   console.NewView[T](),
		fetch:  fetch,
		notify: notify,
	}
}

func (p *listPage[T, P]) load(ctx context.Context, params P) (console.State[T], error) {
	p.mu.Lock()
	p.params = params
	p.mu.Unlock()
	return p.view.Load(ctx, func(ctx context.Context) (T, error) {
		return p.fetch(ctx, params)
	})
}

// reload re-fetches with the last filter.
func (p *listPage[T, P]) reload(ctx context.Context) console.State[T] {
	p.mu.Lock()
	params := p.params
	p.mu.Unlock()
	state, _ := p.load(ctx, params)
	return state
}

// succeeded toasts msg, tells other tabs, and returns the refreshed list.
func (p *listPage[T, P]) succeeded(ctx context.Context, action, id, msg string) console.State[T] {
	p.notify.Toast(websocket.LevelSuccess, msg)
	p.notify.Refresh(p.name, action, id)
	return p.reload(ctx)
}

// failed shows err in the banner and a failure toast, keeping the data.
func (p *listPage[T, P]) failed(err error) {
	p.view.Fail(err)
	p.notify.Toast(websocket.LevelError, api.Message(err))
}
