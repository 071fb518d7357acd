package middlewares

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIPMiddleware rewrites RemoteAddr to "IP:port" of the real client. Forwarding
// headers are honoured only when the TCP peer is one of the trusted proxies; any other
// peer is taken as the client itself.
func ClientIPMiddleware(trustedProxies []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if clientIP := extractClientIP(r, trustedProxies); clientIP.IsValid() {
				_, port, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil || port == "" {
					port = "0"
				}
				r.RemoteAddr = net.JoinHostPort(clientIP.String(), port)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractClientIP(r *http.Request, trusted []netip.Prefix) netip.Addr {
	peer := peerAddr(r.RemoteAddr)
	if !peer.IsValid() || !isTrusted(peer, trusted) {
		return peer
	}

	if ip, ok := parseIP(r.Header.Get("True-Client-IP")); ok {
		return ip
	}

	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}

	// Walk X-Forwarded-For from the nearest hop and stop at the first address not owned
	// by a trusted proxy. Entries left of it were written by the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip, ok := parseIP(hops[i])
			if !ok {
				break
			}
			if !isTrusted(ip, trusted) || i == 0 {
				return ip
			}
		}
	}

	return peer
}

func peerAddr(remoteAddr string) netip.Addr {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip, _ := parseIP(host)
	return ip
}

func parseIP(value string) (netip.Addr, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return netip.Addr{}, false
	}
	ip, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func isTrusted(ip netip.Addr, trusted []netip.Prefix) bool {
	for _, prefix := range trusted {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}
