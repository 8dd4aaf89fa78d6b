package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"wcu-registry/internal/domain/registrations"
)

type registrationsRepo struct {
	mu   sync.RWMutex
	seq  int64
	byID map[string]registrations.Registration
}

func NewRegistrationsRepo() registrations.Repository {
	return &registrationsRepo{
		byID: make(map[string]registrations.Registration),
	}
}

func (r *registrationsRepo) NextSequence(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *registrationsRepo) Create(ctx context.Context, reg registrations.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(reg.ID) == "" {
		return errors.New("registration id required")
	}
	if _, exists := r.byID[reg.ID]; exists {
		return errors.New("registration already exists")
	}
	for _, other := range r.byID {
		if other.WCUNumber == reg.WCUNumber {
			return errors.New("wcu number already taken")
		}
	}
	r.byID[reg.ID] = reg
	return nil
}

func (r *registrationsRepo) Update(ctx context.Context, reg registrations.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[reg.ID]; !exists {
		return registrations.ErrNotFound
	}
	r.byID[reg.ID] = reg
	return nil
}

func (r *registrationsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return registrations.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *registrationsRepo) GetByID(ctx context.Context, id string) (registrations.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byID[id]
	if !ok {
		return registrations.Registration{}, registrations.ErrNotFound
	}
	return reg, nil
}

func (r *registrationsRepo) GetByWCU(ctx context.Context, wcu string) (registrations.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reg := range r.byID {
		if reg.WCUNumber == wcu {
			return reg, nil
		}
	}
	return registrations.Registration{}, registrations.ErrNotFound
}

func (r *registrationsRepo) ListByOwner(ctx context.Context, ownerUserID, ownerEmail string) ([]registrations.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registrations.Registration, 0)
	for _, reg := range r.byID {
		byUser := ownerUserID != "" && reg.OwnerUserID == ownerUserID
		byEmail := ownerEmail != "" && strings.EqualFold(reg.OwnerEmail, ownerEmail)
		if byUser || byEmail {
			out = append(out, reg)
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *registrationsRepo) Search(ctx context.Context, f registrations.SearchFilter) (registrations.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	matches := make([]registrations.Registration, 0)
	for _, reg := range r.byID {
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, reg.Status) {
			continue
		}
		if q != "" {
			fields := []string{reg.DogName, reg.OwnerName, reg.WCUNumber}
			if !f.Public {
				fields = append(fields, reg.OwnerEmail)
			}
			if !containsAny(q, fields...) {
				continue
			}
		}
		matches = append(matches, reg)
	}

	// created_at desc, wcu desc para empates
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].WCUNumber > matches[j].WCUNumber
	})

	return registrations.Page{Items: paginate(matches, f.Limit, f.Offset), Total: len(matches)}, nil
}

func (r *registrationsRepo) CountByStatus(ctx context.Context) (map[registrations.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[registrations.Status]int)
	for _, reg := range r.byID {
		out[reg.Status]++
	}
	return out, nil
}

func hasStatus(list []registrations.Status, st registrations.Status) bool {
	for _, s := range list {
		if s == st {
			return true
		}
	}
	return false
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// paginate aplica limit/offset con los mismos topes que postgres.
func paginate[T any](items []T, limit, offset int) []T {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
