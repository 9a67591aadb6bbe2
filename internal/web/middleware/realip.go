package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP rewrites r.RemoteAddr to the client address reported by
// X-Real-IP or X-Forwarded-For, but only for connections coming from one of
// the trusted proxies. Everyone else keeps the connection address, so a
// client cannot dodge rate limiting by sending its own headers.
//
// After this middleware RemoteAddr is a bare IP without a port.
func TrustedRealIP(trustedProxies []string) func(http.Handler) http.Handler {
	trusted := parseTrustedProxies(trustedProxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote, ok := parseAddr(r.RemoteAddr)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			client := remote
			if isTrusted(remote, trusted) {
				if fwd, ok := forwardedFor(r.Header); ok {
					client = fwd
				}
			}
			r.RemoteAddr = client.String()

			next.ServeHTTP(w, r)
		})
	}
}

// parseTrustedProxies accepts CIDRs ("10.0.0.0/8") and single addresses
// ("127.0.0.1"). Invalid entries are logged and skipped.
func parseTrustedProxies(entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "entry", entry, "error", err)
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}

// forwardedFor returns the first valid client address from the proxy
// headers. X-Real-IP wins over X-Forwarded-For.
func forwardedFor(h http.Header) (netip.Addr, bool) {
	if rip := strings.TrimSpace(h.Get("X-Real-IP")); rip != "" {
		if addr, err := netip.ParseAddr(rip); err == nil {
			return addr.Unmap(), true
		}
	}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

// parseAddr accepts "host:port" or a bare IP.
func parseAddr(remote string) (netip.Addr, bool) {
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
