package ui

import (
	"context"
	"net/http"

	"goanova/domain/core"
)

const sessionCookie = "goanova_session"

type sessionKey struct{}

// withSession resolves the session cookie, starting a new session when the
// cookie is absent or its session has expired.
func (a *App) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessionCookie); err == nil {
			if id, err := core.ParseSessionID(c.Value); err == nil {
				if _, err := a.service.Session(r.Context(), id); err == nil {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
					return
				}
			}
		}

		sess, err := a.service.CreateSession(r.Context())
		if err != nil {
			http.Error(w, "failed to start session", http.StatusServiceUnavailable)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID.String(),
			Path:     "/",
			HttpOnly: true,
			Secure:   a.config.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess.ID)))
	})
}

func sessionFrom(r *http.Request) core.SessionID {
	id, _ := r.Context().Value(sessionKey{}).(core.SessionID)
	return id
}
