package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ParseTrustedProxies converts IP addresses and CIDR ranges to networks.
// Single IPs become /32 (IPv4) or /128 (IPv6). Unparseable entries are
// skipped.
func ParseTrustedProxies(proxies []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, proxy := range proxies {
		proxy = strings.TrimSpace(proxy)
		if _, ipNet, err := net.ParseCIDR(proxy); err == nil {
			nets = append(nets, ipNet)
			continue
		}
		if ip := net.ParseIP(proxy); ip != nil {
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
		}
	}
	return nets
}

// InNets reports whether ip falls inside any of nets.
func InNets(ip string, nets []*net.IPNet) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// GetClientIP returns the client address of r. X-Forwarded-For and
// X-Real-IP are honoured only when the direct peer is a trusted proxy.
func GetClientIP(r *http.Request, trustedNets []*net.IPNet) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	if InNets(remoteIP, trustedNets) {
		if xff := r.Header.Get(echo.HeaderXForwardedFor); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get(echo.HeaderXRealIP); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	return remoteIP
}

// IPExtractor plugs GetClientIP into echo so c.RealIP() follows the same
// trusted proxy rules.
func IPExtractor(trustedNets []*net.IPNet) echo.IPExtractor {
	return func(r *http.Request) string {
		return GetClientIP(r, trustedNets)
	}
}
