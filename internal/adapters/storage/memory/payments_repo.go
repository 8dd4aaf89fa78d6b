package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"wcu-registry/internal/domain/payments"
)

type paymentsRepo struct {
	mu     sync.RWMutex
	byID   map[string]payments.Payment
	events map[string]time.Time
}

func NewPaymentsRepo() payments.Repository {
	return &paymentsRepo{
		byID:   make(map[string]payments.Payment),
		events: make(map[string]time.Time),
	}
}

func (r *paymentsRepo) Create(ctx context.Context, p payments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("payment id required")
	}
	for _, other := range r.byID {
		if other.SessionID == p.SessionID {
			return errors.New("session already recorded")
		}
	}
	r.byID[p.ID] = p
	return nil
}

func (r *paymentsRepo) Update(ctx context.Context, p payments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; !ok {
		return payments.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *paymentsRepo) GetBySessionID(ctx context.Context, sessionID string) (payments.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byID {
		if p.SessionID == sessionID {
			return p, nil
		}
	}
	return payments.Payment{}, payments.ErrNotFound
}

func (r *paymentsRepo) ListByRegistration(ctx context.Context, registrationID string) ([]payments.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]payments.Payment, 0)
	for _, p := range r.byID {
		if p.RegistrationID == registrationID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *paymentsRepo) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.events[eventID]
	return ok, nil
}

func (r *paymentsRepo) MarkEventProcessed(ctx context.Context, eventID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[eventID]; !ok {
		r.events[eventID] = at
	}
	return nil
}

func (r *paymentsRepo) SumPaid(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int64)
	for _, p := range r.byID {
		if p.Status == payments.StatusPaid {
			out[p.Currency] += p.AmountCents
		}
	}
	return out, nil
}
