package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"
	"wcu-registry/internal/ports/email"
)

type Site struct {
	Registry string
	URL      string
	// AdminAddress recibe los avisos de tickets nuevos. Vacío => no se avisa.
	AdminAddress string
	// SupportAddress va como Reply-To en las respuestas de soporte.
	SupportAddress string
}

// Notifier arma los emails transaccionales y los entrega por un email.Sender.
type Notifier struct {
	sender  email.Sender
	site    Site
	log     logger.Logger
	metrics *metrics.Metrics
}

func New(sender email.Sender, site Site, log logger.Logger, m *metrics.Metrics) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	if strings.TrimSpace(site.Registry) == "" {
		site.Registry = "WCU Dog Registry"
	}
	site.URL = strings.TrimRight(strings.TrimSpace(site.URL), "/")
	return &Notifier{
		sender:  sender,
		site:    site,
		log:     log.With(map[string]any{"component": "notify"}),
		metrics: m,
	}
}

type registrationData struct {
	Registry       string
	OwnerName      string
	DogName        string
	WCU            string
	CertificateURL string
	ProfileURL     string
}

func (n *Notifier) registrationData(reg registrations.Registration) registrationData {
	return registrationData{
		Registry:       n.site.Registry,
		OwnerName:      reg.OwnerName,
		DogName:        reg.DogName,
		WCU:            reg.WCUNumber,
		CertificateURL: reg.CertificateURL,
		ProfileURL:     n.profileURL(reg.WCUNumber),
	}
}

func (n *Notifier) RegistrationReceived(ctx context.Context, reg registrations.Registration) error {
	return n.send(ctx, TplRegistrationReceived, reg.OwnerEmail, reg.OwnerName, "", n.registrationData(reg))
}

func (n *Notifier) CertificateIssued(ctx context.Context, reg registrations.Registration) error {
	return n.send(ctx, TplCertificateIssued, reg.OwnerEmail, reg.OwnerName, "", n.registrationData(reg))
}

// UpdateReview es el resultado de la revisión de una update request.
type UpdateReview struct {
	To       string
	DogName  string
	WCU      string
	Approved bool
	Notes    string
}

func (n *Notifier) UpdateReviewed(ctx context.Context, r UpdateReview) error {
	tpl := TplUpdateRejected
	if r.Approved {
		tpl = TplUpdateApproved
	}
	data := map[string]any{
		"Registry":   n.site.Registry,
		"DogName":    r.DogName,
		"WCU":        r.WCU,
		"Notes":      strings.TrimSpace(r.Notes),
		"ProfileURL": n.profileURL(r.WCU),
	}
	return n.send(ctx, tpl, r.To, "", n.site.SupportAddress, data)
}

// TicketMail describe un mensaje de soporte. Subject ya viene con la referencia.
type TicketMail struct {
	Reference string
	To        string
	ToName    string
	Subject   string
	Body      string
}

func (n *Notifier) TicketReply(ctx context.Context, t TicketMail) error {
	data := map[string]any{
		"Registry":  n.site.Registry,
		"Reference": t.Reference,
		"Subject":   t.Subject,
		"Body":      strings.TrimSpace(t.Body),
	}
	return n.send(ctx, TplTicketReply, t.To, t.ToName, n.site.SupportAddress, data)
}

// TicketOpened avisa a la casilla de admins. Sin casilla configurada no hace nada.
func (n *Notifier) TicketOpened(ctx context.Context, t TicketMail) error {
	if strings.TrimSpace(n.site.AdminAddress) == "" {
		return nil
	}
	data := map[string]any{
		"Reference": t.Reference,
		"Subject":   t.Subject,
		"FromName":  t.ToName,
		"FromEmail": t.To,
		"Body":      strings.TrimSpace(t.Body),
	}
	// Reply-To al remitente: el admin puede contestar directo.
	return n.send(ctx, TplTicketOpened, n.site.AdminAddress, "", t.To, data)
}

func (n *Notifier) profileURL(wcu string) string {
	if n.site.URL == "" || wcu == "" {
		return ""
	}
	return n.site.URL + "/dogs/" + wcu
}

// Render ejecuta una plantilla y devuelve asunto y cuerpo.
func Render(name string, data any) (subject, body string, err error) {
	var sb, bb bytes.Buffer
	if err := templates.ExecuteTemplate(&sb, name+".subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := templates.ExecuteTemplate(&bb, name+".body", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), bb.String(), nil
}

func (n *Notifier) send(ctx context.Context, tpl, to, toName, replyTo string, data any) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("notify %s: empty recipient", tpl)
	}
	subject, body, err := Render(tpl, data)
	if err != nil {
		return err
	}

	err = n.sender.Send(ctx, email.Message{
		To:       to,
		ToName:   toName,
		Subject:  subject,
		Text:     body,
		ReplyTo:  replyTo,
		Template: tpl,
	})

	outcome := "sent"
	if err != nil {
		outcome = "error"
		n.log.Warn("email send failed", map[string]any{"template": tpl, "error": err})
	}
	if n.metrics != nil {
		n.metrics.EmailsSent.WithLabelValues(tpl, outcome).Inc()
	}
	return err
}
