// Package auth carries the signed-in session through console requests.
package auth

import (
	"context"

	"github.com/dukerupert/backoffice/internal/api"
)

type contextKey struct{}

// Session is what the console knows about the stored bearer token.
type Session struct {
	Token string
	Info  api.TokenInfo
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// Subject returns the token subject, or "" outside a signed-in request.
func Subject(ctx context.Context) string {
	s, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return s.Info.Subject
}
