package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"wcu-registry/internal/domain/support"
)

type supportRepo struct {
	mu       sync.RWMutex
	tickets  map[string]support.Ticket
	messages map[string][]support.Message // por ticket
}

func NewSupportRepo() support.Repository {
	return &supportRepo{
		tickets:  make(map[string]support.Ticket),
		messages: make(map[string][]support.Message),
	}
}

func (r *supportRepo) CreateTicket(ctx context.Context, t support.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.ID) == "" {
		return errors.New("ticket id required")
	}
	for _, other := range r.tickets {
		if other.Reference == t.Reference {
			return errors.New("ticket reference already taken")
		}
	}
	r.tickets[t.ID] = t
	return nil
}

func (r *supportRepo) UpdateTicket(ctx context.Context, t support.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[t.ID]; !ok {
		return support.ErrNotFound
	}
	r.tickets[t.ID] = t
	return nil
}

func (r *supportRepo) GetTicket(ctx context.Context, id string) (support.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return support.Ticket{}, support.ErrNotFound
	}
	return t, nil
}

func (r *supportRepo) GetByReference(ctx context.Context, ref string) (support.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tickets {
		if t.Reference == ref {
			return t, nil
		}
	}
	return support.Ticket{}, support.ErrNotFound
}

func (r *supportRepo) ListTickets(ctx context.Context, f support.ListFilter) ([]support.Ticket, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]support.Ticket, 0)
	for _, t := range r.tickets {
		if f.Status == "" || t.Status == f.Status {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastMessageAt.After(all[j].LastMessageAt) })
	return paginate(all, f.Limit, f.Offset), len(all), nil
}

func (r *supportRepo) CountByStatus(ctx context.Context) (map[support.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[support.Status]int)
	for _, t := range r.tickets {
		out[t.Status]++
	}
	return out, nil
}

func (r *supportRepo) AddMessage(ctx context.Context, m support.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[m.TicketID]; !ok {
		return support.ErrNotFound
	}
	r.messages[m.TicketID] = append(r.messages[m.TicketID], m)
	return nil
}

func (r *supportRepo) ListMessages(ctx context.Context, ticketID string) ([]support.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages[ticketID]
	out := make([]support.Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
