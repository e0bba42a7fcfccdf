package web

import (
	"context"
	"net/http"
	"time"

	"rootedinspeech/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
)

type ctxKey int

const profileKey ctxKey = iota

// ProfileID returns the browser profile the request belongs to.
func ProfileID(ctx context.Context) string {
	id, _ := ctx.Value(profileKey).(string)
	return id
}

// profile ensures every browser carries a profile cookie. All tabs of one browser
// share it, so they observe the same session.
func (s *Server) profile(next http.Handler) http.Handler {
	name := s.cfg.Session.CookieName
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(name); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    id,
				Path:     "/",
				MaxAge:   int(s.cfg.Session.TTL.Seconds()),
				HttpOnly: true,
				Secure:   s.cfg.HTTP.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey, id)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.IncHTTP(route)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// plaintextRequests marks requests as served over plain HTTP so the CSRF origin
// check does not demand TLS.
func plaintextRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
