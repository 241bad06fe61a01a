package util

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address a request came from, used to key the
// sign-in rate limit. trustProxy says the server sits behind the reverse
// proxy from the deployment config; only then are forwarded headers
// honored, otherwise a client could pick its own rate-limit bucket.
func ClientIP(r *http.Request, trustProxy bool) string {
	peer := peerIP(r.RemoteAddr)
	if !trustProxy {
		if peer == nil {
			return strings.TrimSpace(r.RemoteAddr)
		}
		return peer.String()
	}

	// Leftmost X-Forwarded-For hop is the original client.
	if raw, _, ok := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); ok || raw != "" {
		if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if peer == nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return peer.String()
}

func peerIP(addr string) net.IP {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return net.ParseIP(addr)
}
