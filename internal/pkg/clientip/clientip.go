// Package clientip derives a best-effort address for the remote party of a
// request that may have passed through proxies or a tunnel.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest prefers X-Forwarded-For (first hop), then X-Real-IP, then
// CF-Connecting-IP, and finally the peer address of the connection.
func FromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	return peer(r.RemoteAddr)
}

func peer(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
