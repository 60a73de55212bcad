// Package api serves the KnowGraph HTTP API: demo sessions with a
// Server-Sent Events stream, beta signups, and token-guarded admin reads.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/knowgraph/knowgraph/internal/session"
	"github.com/knowgraph/knowgraph/internal/signup"
)

// Options wires the router's dependencies.
type Options struct {
	Sessions *session.Manager
	Signups  *signup.Service
	Broker   *Broker

	// AdminTokenHash is the bcrypt hash of the admin bearer token. Empty
	// leaves the admin routes unmounted.
	AdminTokenHash string
	CORSOrigins    []string
	Logger         *slog.Logger

	// Now replaces time.Now for export file names.
	Now func() time.Time
}

// NewRouter builds the full HTTP handler. Every new session created by
// opts.Sessions is published on opts.Broker.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Broker == nil {
		opts.Broker = NewBroker()
	}

	h := &Handler{
		sessions: opts.Sessions,
		signups:  opts.Signups,
		broker:   opts.Broker,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	opts.Sessions.OnCreate(h.publishSession)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition", "Location"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.Catalog)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.EndSession)
				r.Get("/events", h.SessionEvents)
				r.Post("/select", h.Select)
				r.Post("/submit", h.Submit)
				r.Post("/reveal", h.capsuleAction((*session.Session).Reveal))
				r.Post("/replay", h.capsuleAction((*session.Session).Replay))
				r.Post("/goto", h.capsuleAction((*session.Session).Goto))
			})
		})

		r.With(middleware.Throttle(20)).Post("/signups", h.CreateSignup)

		if opts.AdminTokenHash != "" {
			r.Route("/admin", func(r chi.Router) {
				r.Use(AdminAuth([]byte(opts.AdminTokenHash)))
				r.Get("/signups", h.ListSignups)
				r.Get("/signups/export", h.ExportSignups)
				r.Get("/stats", h.SignupStats)
			})
		}
	})

	return r
}
