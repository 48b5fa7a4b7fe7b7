package dashhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/", h.handleDashboard)
	r.Post("/compare/toggle", h.handleCompareToggle)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/export/csv", h.handleCSV)
		gr.Get("/export/pdf", h.handlePDF)
	})

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/index", h.handleAPIIndex)
		ar.Get("/report/{dir}/{week}", h.handleAPIReport)
		ar.Get("/month/{dir}/{month}", h.handleAPIMonth)
	})
}

// rateLimitKey buckets export traffic by session, falling back to IP for
// cookieless clients.
func rateLimitKey(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return "session:" + cookie.Value, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
