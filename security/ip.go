package security

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP used for rate limiting and audit records.
//
// trustProxy must only be enabled when the login endpoint sits behind a
// reverse proxy that sets X-Forwarded-For or X-Real-IP. In X-Forwarded-For
// only the rightmost entry was appended by the proxy in front of us;
// everything left of it arrived in the inbound request and is
// caller-controlled, so that rightmost entry is the one used. Without a
// trusted proxy the connection's remote address is authoritative.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := rightmostForwardedIP(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rightmostForwardedIP returns the last valid IP in an X-Forwarded-For list.
func rightmostForwardedIP(xff string) string {
	if xff == "" {
		return ""
	}
	parts := strings.Split(xff, ",")
	ip := strings.TrimSpace(parts[len(parts)-1])
	if net.ParseIP(ip) != nil {
		return ip
	}
	return ""
}
