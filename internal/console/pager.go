package console

import "github.com/dukerupert/backoffice/internal/model"

// Pager is the previous/next control under a paginated list. Pages is as
// reported by the server.
type Pager struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

func PagerOf[T any](p model.Page[T]) Pager {
	return Pager{Page: p.Page, Pages: p.Pages, Total: p.Total}
}

func (p Pager) HasPrev() bool { return p.Page > 1 }

func (p Pager) HasNext() bool { return p.Page < p.Pages }

// Prev returns the page to load for "previous"; it stays put at page 1.
func (p Pager) Prev() int {
	if !p.HasPrev() {
		return max(p.Page, 1)
	}
	return p.Page - 1
}

// Next returns the page to load for "next"; it stays put on the last page.
func (p Pager) Next() int {
	if !p.HasNext() {
		return max(p.Page, 1)
	}
	return p.Page + 1
}

type pagerJSON struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

// View returns the pager with its button states for JSON output.
func (p Pager) View() any {
	return pagerJSON{Page: p.Page, Pages: p.Pages, Total: p.Total, HasPrev: p.HasPrev(), HasNext: p.HasNext()}
}
