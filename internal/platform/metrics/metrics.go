package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa las métricas Prometheus del servicio.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec

	RegistrationsCreated prometheus.Counter
	CertificatesIssued   prometheus.Counter
	WebhookEvents        *prometheus.CounterVec
	UpdateReviews        *prometheus.CounterVec
	TicketsCreated       *prometheus.CounterVec
	RateLimitRejections  *prometheus.CounterVec
	EmailsSent           *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// Default devuelve las métricas registradas en el registry global.
// promauto paniquea si se registra dos veces, por eso se crea una sola vez
// (el router se instancia varias veces en tests).
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultM = New(prometheus.DefaultRegisterer)
	})
	return defaultM
}

// New registra las métricas en reg. Con un registry propio sirve para tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wcu_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RegistrationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "wcu_registrations_created_total",
			Help: "Total number of registrations submitted",
		}),
		CertificatesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "wcu_certificates_issued_total",
			Help: "Total number of certificates rendered and stored",
		}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wcu_payment_webhook_events_total",
			Help: "Payment webhook events by type and outcome",
		}, []string{"type", "outcome"}),
		UpdateReviews: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wcu_update_requests_reviewed_total",
			Help: "Update requests reviewed by decision",
		}, []string{"decision"}),
		TicketsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wcu_support_tickets_created_total",
			Help: "Support tickets created by channel",
		}, []string{"channel"}),
		RateLimitRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wcu_ratelimit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"route"}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wcu_emails_sent_total",
			Help: "Outbound emails by template and outcome",
		}, []string{"template", "outcome"}),
	}
}
