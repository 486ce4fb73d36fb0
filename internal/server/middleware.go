package server

import (
	"context"
	"net/http"

	"github.com/sipocalypse/api/internal/session"
)

type ctxKey int

const ctxKeySession ctxKey = iota

const storeNotConfigured = "Google Sheets is not configured. Set GOOGLE_SHEETS_SPREADSHEET_ID, GOOGLE_SHEETS_CLIENT_EMAIL, and GOOGLE_SHEETS_PRIVATE_KEY."

// requireStore answers 500 when no store backend is available. It runs before
// requireAdmin, so an unconfigured deployment reports that first.
func requireStore(deps Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if deps.Store == nil {
				writeError(w, http.StatusInternalServerError, storeNotConfigured)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requireAdmin(codec *session.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := codec.FromRequest(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminFrom(r *http.Request) session.Session {
	sess, _ := r.Context().Value(ctxKeySession).(session.Session)
	return sess
}
