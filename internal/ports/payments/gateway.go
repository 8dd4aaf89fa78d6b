package payments

import (
	"context"
	"errors"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CheckoutInput struct {
	RegistrationID string
	WCUNumber      string
	DogName        string
	CustomerEmail  string
	AmountCents    int64
	Currency       string
	SuccessURL     string
	CancelURL      string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent es la parte del evento del gateway que nos importa.
type WebhookEvent struct {
	ID   string
	Type string

	// Datos del checkout session (si aplica).
	SessionID         string
	ClientReferenceID string
	PaymentStatus     string
	AmountTotal       int64
	Currency          string
	Metadata          map[string]string
}

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

type Gateway interface {
	CreateCheckout(ctx context.Context, in CheckoutInput) (CheckoutSession, error)
	// ParseWebhook verifica la firma y decodifica el evento.
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
}
