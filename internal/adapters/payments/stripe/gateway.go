package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wcu-registry/internal/ports/payments"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
}

// Gateway implementa payments.Gateway con Stripe Checkout.
type Gateway struct {
	sessions      *session.Client
	webhookSecret string
}

func New(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("stripe: secret key required")
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, errors.New("stripe: webhook secret required")
	}
	return &Gateway{
		sessions: &session.Client{
			B:   stripego.GetBackend(stripego.APIBackend),
			Key: cfg.SecretKey,
		},
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (g *Gateway) CreateCheckout(ctx context.Context, in payments.CheckoutInput) (payments.CheckoutSession, error) {
	params := checkoutParams(in)
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return payments.CheckoutSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return payments.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func checkoutParams(in payments.CheckoutInput) *stripego.CheckoutSessionParams {
	name := "Dog registration " + in.WCUNumber
	desc := "Registry entry and certificate"
	if in.DogName != "" {
		desc = "Registry entry and certificate for " + in.DogName
	}

	params := &stripego.CheckoutSessionParams{
		Mode:              stripego.String(string(stripego.CheckoutSessionModePayment)),
		ClientReferenceID: stripego.String(in.RegistrationID),
		SuccessURL:        stripego.String(in.SuccessURL),
		CancelURL:         stripego.String(in.CancelURL),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				Quantity: stripego.Int64(1),
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripego.String(in.Currency),
					UnitAmount: stripego.Int64(in.AmountCents),
					ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripego.String(name),
						Description: stripego.String(desc),
					},
				},
			},
		},
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(in.CustomerEmail)
	}
	params.AddMetadata("registration_id", in.RegistrationID)
	params.AddMetadata("wcu_number", in.WCUNumber)
	return params
}

// ParseWebhook verifica Stripe-Signature. No exige que la versión de API del
// evento coincida con la de la librería: solo leemos campos estables.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (payments.WebhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return payments.WebhookEvent{}, fmt.Errorf("%w: %v", payments.ErrInvalidSignature, err)
	}

	out := payments.WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") || ev.Data == nil {
		return out, nil
	}

	var cs stripego.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return payments.WebhookEvent{}, fmt.Errorf("stripe: decode checkout session: %w", err)
	}
	out.SessionID = cs.ID
	out.ClientReferenceID = cs.ClientReferenceID
	out.PaymentStatus = string(cs.PaymentStatus)
	out.AmountTotal = cs.AmountTotal
	out.Currency = string(cs.Currency)
	out.Metadata = cs.Metadata
	return out, nil
}
