package payments

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Payment) error
	Update(ctx context.Context, p Payment) error

	GetBySessionID(ctx context.Context, sessionID string) (Payment, error)
	ListByRegistration(ctx context.Context, registrationID string) ([]Payment, error)

	// Eventos de webhook ya procesados (el gateway reintenta y puede duplicar).
	EventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID string, at time.Time) error

	// SumPaid devuelve el total cobrado por moneda.
	SumPaid(ctx context.Context) (map[string]int64, error)
}
