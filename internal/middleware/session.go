package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const sessionKey ctxKey = "session"

const (
	// SessionCookie guarda el id de sesión del navegador.
	SessionCookie = "cc_session"
	// SessionHeader permite a clientes sin cookies (scripts, tests) fijar la sesión.
	SessionHeader = "X-Session-ID"
)

// Session:
// - Si viene X-Session-ID => se usa ese id.
// - Si no, si viene la cookie cc_session => se usa la cookie.
// - Si no hay ninguno => se genera un uuid y se setea la cookie.
func Session(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(SessionHeader))
			if id == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					id = strings.TrimSpace(c.Value)
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(ttl.Seconds()),
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID devuelve el id de sesión del request ("" si el middleware no corrió).
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey).(string)
	return v
}
