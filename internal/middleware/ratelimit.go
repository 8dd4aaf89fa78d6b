package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wcu-registry/internal/platform/metrics"
	"wcu-registry/internal/platform/ratelimit"
)

// RateLimit limita por IP (ya normalizada por chimw.RealIP) y nombre de ruta.
// Se aplica a los formularios de intake, soporte y pedidos de cambio.
func RateLimit(l ratelimit.Limiter, name string, perMinute int, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := name + ":" + clientIP(r)
			d := l.Allow(r.Context(), key, perMinute)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				if m != nil {
					m.RateLimitRejections.WithLabelValues(name).Inc()
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d)))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func retryAfterSeconds(d ratelimit.Decision) int {
	if d.ResetAt.IsZero() {
		return 60
	}
	secs := int(time.Until(d.ResetAt).Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return secs
}
