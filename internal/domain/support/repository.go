package support

import "context"

type Repository interface {
	CreateTicket(ctx context.Context, t Ticket) error
	UpdateTicket(ctx context.Context, t Ticket) error
	GetTicket(ctx context.Context, id string) (Ticket, error)
	GetByReference(ctx context.Context, ref string) (Ticket, error)

	// ListTickets ordena por last_message_at desc.
	ListTickets(ctx context.Context, f ListFilter) ([]Ticket, int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)

	AddMessage(ctx context.Context, m Message) error
	// ListMessages ordena por created_at asc.
	ListMessages(ctx context.Context, ticketID string) ([]Message, error)
}
