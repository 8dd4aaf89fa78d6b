package router

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	_ "wcu-registry/docs"
	"wcu-registry/internal/adapters/email/logmailer"
	objmem "wcu-registry/internal/adapters/objectstore/memory"
	mem "wcu-registry/internal/adapters/storage/memory"
	pg "wcu-registry/internal/adapters/storage/postgres"
	"wcu-registry/internal/domain/certificates"
	"wcu-registry/internal/domain/dashboard"
	"wcu-registry/internal/domain/payments"
	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/domain/support"
	"wcu-registry/internal/domain/updaterequests"
	"wcu-registry/internal/middleware"
	"wcu-registry/internal/notify"
	"wcu-registry/internal/platform/config"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"
	"wcu-registry/internal/platform/ratelimit"
	"wcu-registry/internal/ports/auth"
	"wcu-registry/internal/ports/email"
	"wcu-registry/internal/ports/objectstore"
	gw "wcu-registry/internal/ports/payments"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Config  config.Config
	Logger  logger.Logger
	Metrics *metrics.Metrics

	// Gateway nil => checkout responde 503.
	Gateway gw.Gateway
	// Mailer nil => los emails solo se loguean.
	Mailer email.Sender
	// Store nil => bucket en memoria servido en /files/.
	Store objectstore.Store
	// Limiter nil => ventana en memoria de un minuto.
	Limiter ratelimit.Limiter
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.Default()
	}
	cfg := opts.Config

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log, m))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		regRepo     registrations.Repository
		paymentRepo payments.Repository
		updateRepo  updaterequests.Repository
		supportRepo support.Repository
	)

	if opts.DB != nil {
		regRepo = pg.NewRegistrationsRepo(opts.DB)
		paymentRepo = pg.NewPaymentsRepo(opts.DB)
		updateRepo = pg.NewUpdateRequestsRepo(opts.DB)
		supportRepo = pg.NewSupportRepo(opts.DB)
	} else {
		regRepo = mem.NewRegistrationsRepo()
		paymentRepo = mem.NewPaymentsRepo()
		updateRepo = mem.NewUpdateRequestsRepo()
		supportRepo = mem.NewSupportRepo()
	}

	store := opts.Store
	if store == nil {
		base := strings.TrimSpace(cfg.Storage.PublicBaseURL)
		if base == "" {
			base = "/files"
		}
		ms := objmem.New(base)
		r.Handle("/files/*", http.StripPrefix("/files", ms))
		store = ms
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = logmailer.New(log)
	}
	notifier := notify.New(mailer, notify.Site{
		Registry:       cfg.Site.RegistryName,
		URL:            cfg.Site.URL,
		AdminAddress:   cfg.Email.AdminAddress,
		SupportAddress: cfg.Email.FromEmail,
	}, log, m)

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewInMemory(time.Minute)
	}
	perMinute := cfg.RateLimit.PerMinute
	if perMinute <= 0 {
		perMinute = 20
	}

	// Services por módulo
	regsSvc := registrations.NewService(regRepo, log, m)
	regsSvc.SetNotifier(notifier)

	issuer := certificates.NewIssuer(regsSvc, store, certificates.Options{
		RegistryName: cfg.Site.RegistryName,
		SiteURL:      cfg.Site.URL,
	}, log, m)

	paymentsSvc := payments.NewService(paymentRepo, regsSvc, opts.Gateway, payments.Config{
		AmountCents: cfg.Payments.FeeCents,
		Currency:    cfg.Payments.Currency,
		SuccessURL:  cfg.Payments.SuccessURL,
		CancelURL:   cfg.Payments.CancelURL,
	}, payments.Deps{
		Issuer:   issuer,
		Notifier: notifier,
		Log:      log,
		Metrics:  m,
	})

	updatesSvc := updaterequests.NewService(updateRepo, regsSvc, notifier, log, m)
	supportSvc := support.NewService(supportRepo, notifier, log, m)
	dashSvc := dashboard.NewService(regsSvc, updatesSvc, supportSvc, paymentsSvc)

	// Rutas por módulo
	registrations.RegisterRoutes(r, regsSvc, middleware.RateLimit(limiter, "registrations", perMinute, m))
	certificates.RegisterRoutes(r, issuer)
	payments.RegisterRoutes(r, paymentsSvc)
	updaterequests.RegisterRoutes(r, updatesSvc, middleware.RateLimit(limiter, "update_requests", perMinute, m))
	support.RegisterRoutes(r, supportSvc, cfg.Email.InboundToken, middleware.RateLimit(limiter, "support", perMinute, m))

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.RequireAdmin)

		dashboard.RegisterAdminRoutes(ar, dashSvc)
		registrations.RegisterAdminRoutes(ar, regsSvc)
		certificates.RegisterAdminRoutes(ar, issuer)
		payments.RegisterAdminRoutes(ar, paymentsSvc)
		updaterequests.RegisterAdminRoutes(ar, updatesSvc)
		support.RegisterAdminRoutes(ar, supportSvc)
	})

	return r
}
