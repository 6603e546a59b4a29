package security

import "net/http"

// SetLoginResponseHeaders hardens responses from the login endpoint. The
// callback URL carries the authorization code in its query string, so
// nothing on this path may be cached; the remaining headers keep the
// endpoint out of frames and stop referrer leakage of callback URLs.
func SetLoginResponseHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	h.Set("Pragma", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "no-referrer")
}
