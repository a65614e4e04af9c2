// Package metadata resolves who is calling: the client IP, honoring
// X-Forwarded-For only from trusted proxies, and the user id forwarded by
// the upstream gateway.
package metadata

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	platformstrings "quotagate/pkg/platform/strings"
)

// MaxXFFHeaderLength caps X-Forwarded-For before it is parsed.
const MaxXFFHeaderLength = 500

// DefaultUserHeader carries the authenticated user id set by the gateway.
const DefaultUserHeader = "X-User-ID"

type contextKeyClientIP struct{}
type contextKeyUserID struct{}

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies are the CIDR prefixes allowed to set forwarding and
	// user headers. If empty, those headers are never trusted.
	TrustedProxies []netip.Prefix
	// UserHeader overrides DefaultUserHeader.
	UserHeader string
}

// DefaultConfig returns a Config with no trusted proxies.
func DefaultConfig() *Config {
	return &Config{UserHeader: DefaultUserHeader}
}

// ParseTrustedProxies parses a comma separated CIDR list. Invalid entries are
// returned as an error rather than skipped.
func ParseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range platformstrings.SplitList(raw) {
		p, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type Middleware struct {
	config *Config
}

func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.UserHeader == "" {
		cfg.UserHeader = DefaultUserHeader
	}
	return &Middleware{config: cfg}
}

// Handler stores the client IP and, when the hop is trusted, the forwarded
// user id in the request context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteIP := parseRemoteAddr(r.RemoteAddr)
		ctx := WithClientIP(r.Context(), m.clientIP(r, remoteIP))
		if m.isTrustedProxy(remoteIP) {
			if userID := strings.TrimSpace(r.Header.Get(m.config.UserHeader)); userID != "" {
				ctx = WithUserID(ctx, userID)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the resolved client IP, or "" outside the middleware.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyClientIP{}, ip)
}

// UserID returns the forwarded user id, or "" for anonymous callers.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyUserID{}).(string); ok {
		return id
	}
	return ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID{}, userID)
}

func (m *Middleware) clientIP(r *http.Request, remoteIP string) string {
	if remoteIP == "" {
		return "unknown"
	}
	if !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && len(xri) <= MaxXFFHeaderLength {
			if _, err := netip.ParseAddr(xri); err == nil {
				return xri
			}
		}
		return remoteIP
	}
	if len(xff) > MaxXFFHeaderLength {
		return remoteIP
	}

	first, _, _ := strings.Cut(xff, ",")
	first = strings.TrimSpace(first)
	if _, err := netip.ParseAddr(first); err != nil {
		return remoteIP
	}
	return first
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	if len(m.config.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr strips the port, handling bracketed IPv6.
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(remoteAddr, "[]")); err == nil {
		return addr.String()
	}
	return remoteAddr
}
