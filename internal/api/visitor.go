package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const visitorCookie = "visitor_id"

// ensureVisitorID returns the caller's visitor ID, minting one (and setting
// the cookie) on first contact. Carts are keyed by this ID, so it must be
// stable across the whole browse-to-checkout flow.
func ensureVisitorID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(visitorCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
