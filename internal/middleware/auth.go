package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/auth"
)

// RequireToken rejects console API calls when no bearer token is stored or
// the stored JWT has expired. Opaque tokens pass; the backend judges them.
func RequireToken(tokens api.TokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := tokens.Token(r.Context())
			if err != nil {
				unauthorized(w, "cannot read stored token")
				return
			}
			if token == "" {
				unauthorized(w, "not signed in")
				return
			}

			s := auth.Session{Token: token}
			if info, err := api.InspectToken(token, time.Now()); err == nil {
				if info.Expired {
					unauthorized(w, "session expired, sign in again")
					return
				}
				s.Info = info
			}

			ctx := auth.WithSession(r.Context(), s)
			if tr := traceFrom(ctx); tr != nil {
				tr.subject = auth.Subject(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
