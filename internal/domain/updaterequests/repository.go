package updaterequests

import "context"

type Repository interface {
	Create(ctx context.Context, u UpdateRequest) error
	Update(ctx context.Context, u UpdateRequest) error
	GetByID(ctx context.Context, id string) (UpdateRequest, error)

	// ListByRegistration ordena por created_at desc.
	ListByRegistration(ctx context.Context, registrationID string) ([]UpdateRequest, error)
	ListByRequester(ctx context.Context, userID, email string) ([]UpdateRequest, error)
	List(ctx context.Context, f ListFilter) ([]UpdateRequest, int, error)

	CountByStatus(ctx context.Context) (map[Status]int, error)
}
