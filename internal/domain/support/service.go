package support

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"wcu-registry/internal/notify"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("ticket not found")
	ErrBadState     = errors.New("invalid state")
	ErrDelivery     = errors.New("email delivery failed")
)

const (
	maxSubjectLen = 200
	maxBodyLen    = 10000
)

var referencePattern = regexp.MustCompile(`(?i)\bT-([0-9A-F]{8})\b`)

type Notifier interface {
	TicketOpened(ctx context.Context, t notify.TicketMail) error
	TicketReply(ctx context.Context, t notify.TicketMail) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, log logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log.With(map[string]any{"service": "support"}),
		metrics:  m,
		now:      time.Now,
	}
}

type OpenInput struct {
	Name           string
	Email          string
	Subject        string
	Body           string
	RegistrationID string
}

// Open crea un ticket desde el formulario público.
func (s *Service) Open(ctx context.Context, in OpenInput) (Ticket, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Ticket{}, err
	}
	subject := strings.TrimSpace(in.Subject)
	body := strings.TrimSpace(in.Body)
	if err := validateMessage(subject, body); err != nil {
		return Ticket{}, err
	}

	t, err := s.create(ctx, strings.TrimSpace(in.Name), email, subject, body, strings.TrimSpace(in.RegistrationID), "form")
	if err != nil {
		return Ticket{}, err
	}

	s.notifyOpened(ctx, t, body)
	return t, nil
}

// Reply manda la respuesta del admin por email y la guarda en el hilo.
func (s *Service) Reply(ctx context.Context, ticketID, adminID, body string) (Message, error) {
	t, err := s.repo.GetTicket(ctx, strings.TrimSpace(ticketID))
	if err != nil {
		return Message{}, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, fmt.Errorf("%w: body required", ErrInvalidInput)
	}
	if len(body) > maxBodyLen {
		return Message{}, fmt.Errorf("%w: body too long", ErrInvalidInput)
	}

	// Se envía antes de guardar: si el email falla, el admin reintenta.
	if s.notifier != nil {
		err := s.notifier.TicketReply(ctx, notify.TicketMail{
			Reference: t.Reference,
			To:        t.Email,
			ToName:    t.Name,
			Subject:   ReplySubject(t),
			Body:      body,
		})
		if err != nil {
			return Message{}, fmt.Errorf("%w: %w", ErrDelivery, err)
		}
	}

	now := s.now()
	m := Message{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		Direction: DirectionOutbound,
		From:      strings.TrimSpace(adminID),
		Body:      body,
		CreatedAt: now,
	}
	if err := s.repo.AddMessage(ctx, m); err != nil {
		return Message{}, err
	}

	t.Status = StatusAnswered
	t.UpdatedAt = now
	t.LastMessageAt = now
	if err := s.repo.UpdateTicket(ctx, t); err != nil {
		return Message{}, err
	}

	s.log.Info("ticket replied", map[string]any{"ticket_id": t.ID, "reference": t.Reference, "admin_id": adminID})
	return m, nil
}

// InboundEmail es un email entrante ya parseado por el proveedor.
type InboundEmail struct {
	From    string // "Nombre <email>" o solo email
	Subject string
	Text    string
}

// ReceiveInbound agrega el email al ticket referenciado en el asunto y lo reabre.
// Sin referencia (o con una desconocida) abre un ticket nuevo.
func (s *Service) ReceiveInbound(ctx context.Context, in InboundEmail) (Ticket, error) {
	name, email, err := parseFrom(in.From)
	if err != nil {
		return Ticket{}, err
	}
	body := StripQuoted(in.Text)
	if body == "" {
		return Ticket{}, fmt.Errorf("%w: empty body", ErrInvalidInput)
	}
	body = truncate(body, maxBodyLen)

	if ref, ok := ParseReference(in.Subject); ok {
		t, err := s.repo.GetByReference(ctx, ref)
		switch {
		case err == nil:
			return s.appendInbound(ctx, t, email, body)
		case !errors.Is(err, ErrNotFound):
			return Ticket{}, err
		}
		s.log.Warn("inbound email with unknown ticket reference", map[string]any{"reference": ref})
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = "(no subject)"
	}
	subject = truncate(subject, maxSubjectLen)
	t, err := s.create(ctx, name, email, subject, body, "", "email")
	if err != nil {
		return Ticket{}, err
	}
	s.notifyOpened(ctx, t, body)
	return t, nil
}

func (s *Service) appendInbound(ctx context.Context, t Ticket, from, body string) (Ticket, error) {
	now := s.now()
	if err := s.repo.AddMessage(ctx, Message{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		Direction: DirectionInbound,
		From:      from,
		Body:      body,
		CreatedAt: now,
	}); err != nil {
		return Ticket{}, err
	}

	t.Status = StatusOpen
	t.UpdatedAt = now
	t.LastMessageAt = now
	if err := s.repo.UpdateTicket(ctx, t); err != nil {
		return Ticket{}, err
	}
	s.log.Info("ticket reply received", map[string]any{"ticket_id": t.ID, "reference": t.Reference})
	return t, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, st Status) (Ticket, error) {
	if !st.Valid() {
		return Ticket{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
	}
	t, err := s.repo.GetTicket(ctx, strings.TrimSpace(id))
	if err != nil {
		return Ticket{}, err
	}
	if t.Status == st {
		return t, nil
	}
	t.Status = st
	t.UpdatedAt = s.now()
	if err := s.repo.UpdateTicket(ctx, t); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Ticket, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.ListTickets(ctx, f)
}

// Get devuelve el ticket con sus mensajes en orden cronológico.
func (s *Service) Get(ctx context.Context, id string) (Ticket, []Message, error) {
	t, err := s.repo.GetTicket(ctx, strings.TrimSpace(id))
	if err != nil {
		return Ticket{}, nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, t.ID)
	if err != nil {
		return Ticket{}, nil, err
	}
	return t, msgs, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) create(ctx context.Context, name, email, subject, body, registrationID, channel string) (Ticket, error) {
	now := s.now()
	t := Ticket{
		ID:             uuid.NewString(),
		Reference:      NewReference(),
		Name:           name,
		Email:          email,
		Subject:        subject,
		Status:         StatusOpen,
		RegistrationID: registrationID,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastMessageAt:  now,
	}
	if err := s.repo.CreateTicket(ctx, t); err != nil {
		return Ticket{}, err
	}
	if err := s.repo.AddMessage(ctx, Message{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		Direction: DirectionInbound,
		From:      email,
		Body:      body,
		CreatedAt: now,
	}); err != nil {
		return Ticket{}, err
	}

	if s.metrics != nil {
		s.metrics.TicketsCreated.WithLabelValues(channel).Inc()
	}
	s.log.Info("ticket opened", map[string]any{"ticket_id": t.ID, "reference": t.Reference, "channel": channel})
	return t, nil
}

func (s *Service) notifyOpened(ctx context.Context, t Ticket, body string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.TicketOpened(ctx, notify.TicketMail{
		Reference: t.Reference,
		To:        t.Email,
		ToName:    t.Name,
		Subject:   fmt.Sprintf("[%s] %s", t.Reference, t.Subject),
		Body:      body,
	})
	if err != nil {
		s.log.Warn("notify ticket opened failed", map[string]any{"ticket_id": t.ID, "error": err})
	}
}

// NewReference: T- + 8 hex en mayúsculas.
func NewReference() string {
	id := uuid.New()
	return "T-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// ParseReference busca una referencia de ticket en el asunto.
func ParseReference(subject string) (string, bool) {
	m := referencePattern.FindStringSubmatch(subject)
	if m == nil {
		return "", false
	}
	return "T-" + strings.ToUpper(m[1]), true
}

// ReplySubject: "[T-XXXXXXXX] Re: asunto" sin duplicar prefijos.
func ReplySubject(t Ticket) string {
	subject := strings.TrimSpace(referencePattern.ReplaceAllString(t.Subject, ""))
	subject = strings.TrimSpace(strings.Trim(subject, "[]"))
	for {
		lower := strings.ToLower(subject)
		if !strings.HasPrefix(lower, "re:") {
			break
		}
		subject = strings.TrimSpace(subject[3:])
	}
	return fmt.Sprintf("[%s] Re: %s", t.Reference, subject)
}

// StripQuoted corta el texto citado de una respuesta ("On ... wrote:" y líneas con ">").
func StripQuoted(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		if strings.HasPrefix(trimmed, "On ") && strings.HasSuffix(trimmed, "wrote:") {
			break
		}
		if trimmed == "-----Original Message-----" {
			break
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func validateMessage(subject, body string) error {
	switch {
	case subject == "":
		return fmt.Errorf("%w: subject required", ErrInvalidInput)
	case len(subject) > maxSubjectLen:
		return fmt.Errorf("%w: subject too long", ErrInvalidInput)
	case body == "":
		return fmt.Errorf("%w: message required", ErrInvalidInput)
	case len(body) > maxBodyLen:
		return fmt.Errorf("%w: message too long", ErrInvalidInput)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}

func parseFrom(raw string) (name, email string, err error) {
	addr, perr := mail.ParseAddress(strings.TrimSpace(raw))
	if perr != nil {
		return "", "", fmt.Errorf("%w: invalid sender %q", ErrInvalidInput, raw)
	}
	return strings.TrimSpace(addr.Name), strings.ToLower(addr.Address), nil
}

// truncate corta s a n bytes sin partir una runa.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
