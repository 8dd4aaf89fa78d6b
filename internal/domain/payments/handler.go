package payments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"wcu-registry/internal/domain/registrations"

	"github.com/go-chi/chi/v5"
)

const maxWebhookBytes = 64 << 10

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/registrations/{registrationID}/checkout", checkoutHandler(svc))
	r.Post("/webhooks/payments", webhookHandler(svc))
}

// RegisterAdminRoutes se monta dentro de /admin.
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/registrations/{registrationID}/payments", listPaymentsHandler(svc))
}

type checkoutResponse struct {
	PaymentID   string `json:"payment_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type paymentResponse struct {
	ID          string     `json:"id"`
	Provider    string     `json:"provider"`
	SessionID   string     `json:"session_id"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// checkoutHandler godoc
// @Summary Iniciar el pago de un registro
// @Description Crea una sesión de checkout en el gateway (o reusa la pendiente) y devuelve la URL de pago.
// @Tags payments
// @Produce json
// @Param registrationID path string true "Registration ID"
// @Success 201 {object} checkoutResponse
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "already paid"
// @Failure 503 {string} string "payments not configured"
// @Router /registrations/{registrationID}/checkout [post]
func checkoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.StartCheckout(r.Context(), chi.URLParam(r, "registrationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, checkoutResponse{
			PaymentID:   p.ID,
			SessionID:   p.SessionID,
			CheckoutURL: p.CheckoutURL,
			AmountCents: p.AmountCents,
			Currency:    p.Currency,
		})
	}
}

// webhookHandler godoc
// @Summary Webhook del gateway de pagos
// @Description Verifica la firma (`Stripe-Signature`) y aplica el evento. Eventos repetidos responden 200 sin efecto.
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {string} string "invalid signature"
// @Router /webhooks/payments [post]
func webhookHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}

		if err := svc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}

func listPaymentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByRegistration(r.Context(), chi.URLParam(r, "registrationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]paymentResponse, 0, len(items))
		for _, p := range items {
			out = append(out, paymentResponse{
				ID:          p.ID,
				Provider:    p.Provider,
				SessionID:   p.SessionID,
				AmountCents: p.AmountCents,
				Currency:    p.Currency,
				Status:      p.Status,
				CreatedAt:   p.CreatedAt,
				PaidAt:      p.PaidAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		http.Error(w, "invalid signature", http.StatusBadRequest)
	case errors.Is(err, registrations.ErrNotFound), errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotConfigured):
		http.Error(w, "payments not configured", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
