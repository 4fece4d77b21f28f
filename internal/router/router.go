// Package router sets up all HTTP routes and middleware chains for the
// school portal. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolportal/internal/handlers"
	"schoolportal/internal/middleware"
	"schoolportal/internal/models"
)

// Handlers are the handler groups the router dispatches to.
type Handlers struct {
	Admin  *handlers.Admin
	Auth   *handlers.Auth
	Public *handlers.Public
	Stats  *handlers.Stats
}

// Options carries the collaborators of the middleware chain.
type Options struct {
	Sessions middleware.SessionLoader
	Visitors middleware.VisitorTracker
	// LoginLimiter throttles the login and 2FA forms. May be nil.
	LoginLimiter *middleware.RateLimiter
	// Static is served under /static/. May be nil.
	Static fs.FS
	// Secure marks the CSRF and visitor cookies Secure.
	Secure bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options, h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(opts.Sessions))
	if opts.Visitors != nil {
		r.Use(middleware.TrackVisitors(opts.Visitors, opts.Secure))
	}

	r.Get("/health", healthHandler)

	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(opts.Static))))
	}

	limit := func(next http.Handler) http.Handler { return next }
	if opts.LoginLimiter != nil {
		limit = opts.LoginLimiter.Middleware
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF(opts.Secure))

		r.Get("/login", h.Auth.LoginPage)
		r.With(limit).Post("/login", h.Auth.LoginSubmit)
		r.Post("/logout", h.Auth.Logout)

		// Signed in, second factor pending.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", h.Auth.TwoFASetupPage)
			r.Get("/2fa/verify", h.Auth.TwoFAVerifyPage)
			r.With(limit).Post("/2fa/verify", h.Auth.TwoFAVerifySubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireRole(models.BackOfficeRoles...))

			r.Get("/", h.Admin.Dashboard)
			r.Get("/dashboard", h.Admin.Dashboard)

			r.Route("/blocks", func(r chi.Router) {
				r.Get("/", h.Admin.BlocksList)
				r.Get("/new", h.Admin.BlockNew)
				r.Post("/", h.Admin.BlockCreate)
				r.Post("/preview", h.Admin.BlockPreview)
				r.Get("/{id}/edit", h.Admin.BlockEdit)
				r.Post("/{id}", h.Admin.BlockUpdate)
				r.Post("/{id}/toggle", h.Admin.BlockToggle)
				r.Post("/{id}/move", h.Admin.BlockMove)
				r.Post("/{id}/delete", h.Admin.BlockDelete)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", h.Admin.SettingsPage)
				r.Post("/", h.Admin.SettingsSave)
			})
		})
	})

	r.Get("/blocks/{id}/stats", h.Stats.Stream)

	r.Get("/", h.Public.Home)
	r.Get("/news", h.Public.News)
	r.Get("/news/{slug}", h.Public.Post)
	r.Get("/documents", h.Public.Documents)
	r.Get("/gallery", h.Public.Gallery)
	r.Get("/gallery/{id}", h.Public.Album)
	r.Get("/staff", h.Public.Staff)
	r.Get("/about", h.Public.About)
	r.Get("/about/{slug}", h.Public.AboutArticle)
	r.NotFound(h.Public.NotFound)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
