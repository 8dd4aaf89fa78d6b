package registrations

import "context"

type Repository interface {
	// NextSequence entrega el siguiente número para el WCU (secuencia de la DB).
	NextSequence(ctx context.Context) (int64, error)

	Create(ctx context.Context, r Registration) error
	Update(ctx context.Context, r Registration) error
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (Registration, error)
	GetByWCU(ctx context.Context, wcu string) (Registration, error)
	ListByOwner(ctx context.Context, ownerUserID, ownerEmail string) ([]Registration, error)
	Search(ctx context.Context, f SearchFilter) (Page, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
