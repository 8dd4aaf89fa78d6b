package stripe

import (
	"encoding/json"
	"testing"
	"time"

	"wcu-registry/internal/ports/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test"

func signed(t *testing.T, body map[string]any) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   raw,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func newTestGateway(t *testing.T) *Gateway {
	g, err := New(Config{SecretKey: "sk_test_x", WebhookSecret: testSecret})
	require.NoError(t, err)
	return g
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	g := newTestGateway(t)
	payload, header := signed(t, map[string]any{
		"id":          "evt_123",
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2020-08-27",
		"data": map[string]any{
			"object": map[string]any{
				"id":                  "cs_test_1",
				"object":              "checkout.session",
				"client_reference_id": "reg-1",
				"payment_status":      "paid",
				"amount_total":        2500,
				"currency":            "usd",
				"metadata":            map[string]string{"wcu_number": "WCU-00001"},
			},
		},
	})

	ev, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", ev.ID)
	assert.Equal(t, payments.EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_test_1", ev.SessionID)
	assert.Equal(t, "reg-1", ev.ClientReferenceID)
	assert.Equal(t, "paid", ev.PaymentStatus)
	assert.Equal(t, int64(2500), ev.AmountTotal)
	assert.Equal(t, "WCU-00001", ev.Metadata["wcu_number"])
}

func TestParseWebhook_BadSignature(t *testing.T) {
	g := newTestGateway(t)
	payload, _ := signed(t, map[string]any{"id": "evt_1", "object": "event", "type": "checkout.session.completed"})

	_, err := g.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, payments.ErrInvalidSignature)
}

func TestParseWebhook_OtherEventType(t *testing.T) {
	g := newTestGateway(t)
	payload, header := signed(t, map[string]any{
		"id": "evt_9", "object": "event", "type": "invoice.created",
		"data": map[string]any{"object": map[string]any{"id": "in_1"}},
	})

	ev, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "invoice.created", ev.Type)
	assert.Empty(t, ev.SessionID)
}

func TestCheckoutParams(t *testing.T) {
	p := checkoutParams(payments.CheckoutInput{
		RegistrationID: "reg-1", WCUNumber: "WCU-00001", DogName: "Luna",
		CustomerEmail: "ana@example.com", AmountCents: 2500, Currency: "usd",
		SuccessURL: "https://x/ok", CancelURL: "https://x/cancel",
	})
	assert.Equal(t, "reg-1", *p.ClientReferenceID)
	assert.Equal(t, "payment", *p.Mode)
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, int64(2500), *p.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "WCU-00001", p.Metadata["wcu_number"])
}

func TestNew_RequiresSecrets(t *testing.T) {
	_, err := New(Config{SecretKey: "sk"})
	assert.Error(t, err)
}
