package payments

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
)

// Payment es un intento de cobro (una sesión de checkout) para un registro.
type Payment struct {
	ID             string
	RegistrationID string

	Provider  string
	SessionID string

	AmountCents int64
	Currency    string
	Status      Status
	CheckoutURL string

	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}
