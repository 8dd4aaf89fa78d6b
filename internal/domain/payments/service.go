package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"
	gw "wcu-registry/internal/ports/payments"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("payment not found")
	ErrBadState         = errors.New("invalid state")
	ErrNotConfigured    = errors.New("payments not configured")
	ErrInvalidSignature = gw.ErrInvalidSignature
)

// Las sesiones de checkout del gateway vencen a las 24h; reusamos solo las más nuevas.
const sessionReuseWindow = 23 * time.Hour

// Registrations es lo que pagos necesita del módulo de registros.
type Registrations interface {
	GetByID(ctx context.Context, id string) (registrations.Registration, error)
	MarkRegistered(ctx context.Context, id string) (registrations.Registration, error)
}

type CertificateIssuer interface {
	Issue(ctx context.Context, registrationID string) (registrations.Registration, error)
}

type Notifier interface {
	CertificateIssued(ctx context.Context, reg registrations.Registration) error
}

type Config struct {
	Provider    string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

type Service struct {
	repo    Repository
	regs    Registrations
	gateway gw.Gateway
	cfg     Config

	issuer   CertificateIssuer
	notifier Notifier

	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Deps struct {
	Issuer   CertificateIssuer
	Notifier Notifier
	Log      logger.Logger
	Metrics  *metrics.Metrics
}

// NewService: gateway puede ser nil (sin credenciales); el checkout devuelve ErrNotConfigured.
func NewService(repo Repository, regs Registrations, gateway gw.Gateway, cfg Config, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Provider == "" {
		cfg.Provider = "stripe"
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Service{
		repo:     repo,
		regs:     regs,
		gateway:  gateway,
		cfg:      cfg,
		issuer:   deps.Issuer,
		notifier: deps.Notifier,
		log:      log.With(map[string]any{"service": "payments"}),
		metrics:  deps.Metrics,
		now:      time.Now,
	}
}

// StartCheckout abre (o reusa) una sesión de pago para un registro pendiente.
func (s *Service) StartCheckout(ctx context.Context, registrationID string) (Payment, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return Payment{}, err
	}
	if reg.Status != registrations.StatusPendingPayment {
		return Payment{}, fmt.Errorf("%w: registration already paid", ErrBadState)
	}

	now := s.now()
	existing, err := s.repo.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return Payment{}, err
	}
	for _, p := range existing {
		if p.Status == StatusPending && p.CheckoutURL != "" && now.Sub(p.CreatedAt) < sessionReuseWindow {
			return p, nil
		}
	}

	if s.gateway == nil {
		return Payment{}, ErrNotConfigured
	}

	sess, err := s.gateway.CreateCheckout(ctx, gw.CheckoutInput{
		RegistrationID: reg.ID,
		WCUNumber:      reg.WCUNumber,
		DogName:        reg.DogName,
		CustomerEmail:  reg.OwnerEmail,
		AmountCents:    s.cfg.AmountCents,
		Currency:       s.cfg.Currency,
		SuccessURL:     s.cfg.SuccessURL,
		CancelURL:      s.cfg.CancelURL,
	})
	if err != nil {
		return Payment{}, fmt.Errorf("create checkout: %w", err)
	}

	p := Payment{
		ID:             uuid.NewString(),
		RegistrationID: reg.ID,
		Provider:       s.cfg.Provider,
		SessionID:      sess.ID,
		AmountCents:    s.cfg.AmountCents,
		Currency:       s.cfg.Currency,
		Status:         StatusPending,
		CheckoutURL:    sess.URL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Payment{}, err
	}

	s.log.Info("checkout started", map[string]any{
		"registration_id": reg.ID,
		"session_id":      sess.ID,
	})
	return p, nil
}

func (s *Service) ListByRegistration(ctx context.Context, registrationID string) ([]Payment, error) {
	return s.repo.ListByRegistration(ctx, strings.TrimSpace(registrationID))
}

func (s *Service) Revenue(ctx context.Context) (map[string]int64, error) {
	return s.repo.SumPaid(ctx)
}

// HandleWebhook verifica y aplica un evento del gateway. Los eventos repetidos no hacen nada.
// Un error devuelto hace que el gateway reintente, así que solo se devuelve
// mientras el pago todavía no quedó registrado.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrNotConfigured
	}
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.countEvent("unknown", "invalid")
		return err
	}

	done, err := s.repo.EventProcessed(ctx, ev.ID)
	if err != nil {
		return err
	}
	if done {
		s.countEvent(ev.Type, "duplicate")
		return nil
	}

	var outcome string
	switch ev.Type {
	case gw.EventCheckoutCompleted:
		outcome, err = s.onCompleted(ctx, ev)
	case gw.EventCheckoutExpired:
		outcome, err = s.onExpired(ctx, ev)
	default:
		outcome = "ignored"
	}
	if err != nil {
		s.countEvent(ev.Type, "error")
		return err
	}

	if err := s.repo.MarkEventProcessed(ctx, ev.ID, s.now()); err != nil {
		// El efecto ya se aplicó y es idempotente: un reintento no duplica nada.
		s.log.Warn("mark webhook event processed failed", map[string]any{"event_id": ev.ID, "error": err})
	}
	s.countEvent(ev.Type, outcome)
	return nil
}

func (s *Service) onCompleted(ctx context.Context, ev gw.WebhookEvent) (string, error) {
	// Pagos asíncronos llegan como completed con payment_status=unpaid.
	if ev.PaymentStatus != "paid" && ev.PaymentStatus != "no_payment_required" {
		return "unpaid", nil
	}

	p, err := s.repo.GetBySessionID(ctx, ev.SessionID)
	switch {
	case errors.Is(err, ErrNotFound):
		// Sesión creada fuera de StartCheckout (p.ej. payment link): la reconstruimos.
		regID := strings.TrimSpace(ev.ClientReferenceID)
		if regID == "" {
			regID = strings.TrimSpace(ev.Metadata["registration_id"])
		}
		if regID == "" {
			s.log.Warn("completed checkout without registration reference", map[string]any{"session_id": ev.SessionID})
			return "unmatched", nil
		}
		if _, err := s.regs.GetByID(ctx, regID); err != nil {
			if errors.Is(err, registrations.ErrNotFound) {
				s.log.Warn("paid checkout for unknown registration", map[string]any{
					"registration_id": regID,
					"session_id":      ev.SessionID,
				})
				return "unmatched", nil
			}
			return "", err
		}
		p = Payment{
			ID:             uuid.NewString(),
			RegistrationID: regID,
			Provider:       s.cfg.Provider,
			SessionID:      ev.SessionID,
			Currency:       strings.ToLower(ev.Currency),
			Status:         StatusPending,
			CreatedAt:      s.now(),
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	}

	if p.Status == StatusPaid {
		return "already_paid", nil
	}

	reg, err := s.regs.MarkRegistered(ctx, p.RegistrationID)
	if err != nil {
		if errors.Is(err, registrations.ErrNotFound) {
			s.log.Warn("paid checkout for unknown registration", map[string]any{
				"registration_id": p.RegistrationID,
				"session_id":      p.SessionID,
			})
			return "unmatched", nil
		}
		return "", err
	}

	now := s.now()
	p.Status = StatusPaid
	p.PaidAt = &now
	p.UpdatedAt = now
	if ev.AmountTotal > 0 {
		p.AmountCents = ev.AmountTotal
	}
	if ev.Currency != "" {
		p.Currency = strings.ToLower(ev.Currency)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return "", err
	}

	s.log.Info("payment received", map[string]any{
		"registration_id": reg.ID,
		"wcu_number":      reg.WCUNumber,
		"amount_cents":    p.AmountCents,
	})

	// Desde acá el pago ya está registrado: los fallos se loguean y no se reintentan.
	s.afterPayment(ctx, reg)
	return "paid", nil
}

func (s *Service) afterPayment(ctx context.Context, reg registrations.Registration) {
	if s.issuer != nil && reg.CertificateKey == "" {
		issued, err := s.issuer.Issue(ctx, reg.ID)
		if err != nil {
			s.log.Error("issue certificate after payment failed", map[string]any{
				"registration_id": reg.ID,
				"error":           err,
			})
		} else {
			reg = issued
		}
	}
	if s.notifier != nil {
		if err := s.notifier.CertificateIssued(ctx, reg); err != nil {
			s.log.Error("notify owner after payment failed", map[string]any{
				"registration_id": reg.ID,
				"error":           err,
			})
		}
	}
}

func (s *Service) onExpired(ctx context.Context, ev gw.WebhookEvent) (string, error) {
	p, err := s.repo.GetBySessionID(ctx, ev.SessionID)
	if errors.Is(err, ErrNotFound) {
		return "unmatched", nil
	}
	if err != nil {
		return "", err
	}
	if p.Status != StatusPending {
		return "ignored", nil
	}
	p.Status = StatusExpired
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return "", err
	}
	return "expired", nil
}

func (s *Service) countEvent(typ, outcome string) {
	if s.metrics == nil {
		return
	}
	if typ == "" {
		typ = "unknown"
	}
	s.metrics.WebhookEvents.WithLabelValues(typ, outcome).Inc()
}
