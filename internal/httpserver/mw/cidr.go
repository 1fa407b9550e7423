package mw

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/deksa89/argo-connectors/internal/logger"
)

// AllowOnlyCIDRS allows only the listed IPs and prefixes. An empty list
// lets everything through. trustProxy makes the client address come from
// the proxy headers.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	prefixes := parsePrefixes(allowed, log)
	if len(prefixes) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !ip.IsValid() || !contains(prefixes, ip) {
				log.Debug("request rejected by CIDR filter",
					logger.String("ip", ip.String()),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parsePrefixes accepts CIDRs and bare addresses, which become single
// host prefixes.
func parsePrefixes(list []string, log logger.Logger) []netip.Prefix {
	var out []netip.Prefix
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
			continue
		}
		log.Warn("ignoring invalid allowed CIDR", logger.String("value", s))
	}
	return out
}

func contains(prefixes []netip.Prefix, ip netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP prefers CF-Connecting-IP, the left-most X-Forwarded-For entry
// and X-Real-IP when trustProxy is set, RemoteAddr otherwise.
func clientIP(r *http.Request, trustProxy bool) netip.Addr {
	if trustProxy {
		xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		for _, v := range []string{r.Header.Get("CF-Connecting-IP"), xff, r.Header.Get("X-Real-IP")} {
			if a, ok := parseAddr(v); ok {
				return a
			}
		}
	}
	a, _ := parseAddr(r.RemoteAddr)
	return a
}

func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}
