package middleware

import (
	"net/http"
	"strconv"
	"time"

	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog registra cada request y observa la latencia por patrón de ruta.
// El patrón (no el path) evita cardinalidad alta en Prometheus.
func AccessLog(log logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			elapsed := time.Since(start)

			if m != nil {
				m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
			}

			fields := map[string]any{
				"request_id":  chimw.GetReqID(r.Context()),
				"method":      r.Method,
				"route":       route,
				"status":      status,
				"duration_ms": elapsed.Milliseconds(),
				"bytes":       ww.BytesWritten(),
			}
			if status >= 500 {
				log.Error("http request", fields)
				return
			}
			log.Debug("http request", fields)
		})
	}
}
