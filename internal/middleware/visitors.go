// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// VisitorCookieName identifies a browser for visit counting.
	VisitorCookieName = "school_visitor"

	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// VisitorTracker records a page view. *cache.VisitorCounter implements it.
type VisitorTracker interface {
	Track(ctx context.Context, visitorID string, now time.Time) error
}

// untrackedPrefixes are paths that are not page views.
var untrackedPrefixes = []string{"/static/", "/admin", "/blocks/", "/favicon", "/health"}

// TrackVisitors counts public page views. Each browser gets a random
// visitor cookie on its first page view. Tracking never fails a request.
func TrackVisitors(tracker VisitorTracker, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || !isPageView(r) {
				next.ServeHTTP(w, r)
				return
			}

			id := ""
			if c, err := r.Cookie(VisitorCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   visitorCookieMaxAge,
				})
			}

			if err := tracker.Track(r.Context(), id, time.Now()); err != nil {
				slog.Warn("visitor tracking failed", "error", err)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPageView(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	for _, p := range untrackedPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			return false
		}
	}
	return true
}
