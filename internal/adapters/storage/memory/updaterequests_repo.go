package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"wcu-registry/internal/domain/updaterequests"
)

type updateRequestsRepo struct {
	mu   sync.RWMutex
	byID map[string]updaterequests.UpdateRequest
}

func NewUpdateRequestsRepo() updaterequests.Repository {
	return &updateRequestsRepo{
		byID: make(map[string]updaterequests.UpdateRequest),
	}
}

func (r *updateRequestsRepo) Create(ctx context.Context, u updaterequests.UpdateRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("update request id required")
	}
	// Mismo contrato que el índice parcial de postgres.
	if u.Status == updaterequests.StatusPending {
		for _, other := range r.byID {
			if other.RegistrationID == u.RegistrationID && other.Status == updaterequests.StatusPending {
				return updaterequests.ErrConflict
			}
		}
	}
	r.byID[u.ID] = clone(u)
	return nil
}

func (r *updateRequestsRepo) Update(ctx context.Context, u updaterequests.UpdateRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; !ok {
		return updaterequests.ErrNotFound
	}
	r.byID[u.ID] = clone(u)
	return nil
}

func (r *updateRequestsRepo) GetByID(ctx context.Context, id string) (updaterequests.UpdateRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return updaterequests.UpdateRequest{}, updaterequests.ErrNotFound
	}
	return clone(u), nil
}

func (r *updateRequestsRepo) ListByRegistration(ctx context.Context, registrationID string) ([]updaterequests.UpdateRequest, error) {
	return r.filter(func(u updaterequests.UpdateRequest) bool {
		return u.RegistrationID == registrationID
	}), nil
}

func (r *updateRequestsRepo) ListByRequester(ctx context.Context, userID, email string) ([]updaterequests.UpdateRequest, error) {
	return r.filter(func(u updaterequests.UpdateRequest) bool {
		return (userID != "" && u.RequesterUserID == userID) || (email != "" && u.RequesterEmail == email)
	}), nil
}

func (r *updateRequestsRepo) List(ctx context.Context, f updaterequests.ListFilter) ([]updaterequests.UpdateRequest, int, error) {
	all := r.filter(func(u updaterequests.UpdateRequest) bool {
		return f.Status == "" || u.Status == f.Status
	})
	return paginate(all, f.Limit, f.Offset), len(all), nil
}

func (r *updateRequestsRepo) CountByStatus(ctx context.Context) (map[updaterequests.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[updaterequests.Status]int)
	for _, u := range r.byID {
		out[u.Status]++
	}
	return out, nil
}

// filter devuelve copias ordenadas por created_at desc.
func (r *updateRequestsRepo) filter(keep func(updaterequests.UpdateRequest) bool) []updaterequests.UpdateRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]updaterequests.UpdateRequest, 0)
	for _, u := range r.byID {
		if keep(u) {
			out = append(out, clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// clone copia Changes para que el llamador no mute el estado guardado.
func clone(u updaterequests.UpdateRequest) updaterequests.UpdateRequest {
	if u.Changes != nil {
		changes := make(map[string]any, len(u.Changes))
		for k, v := range u.Changes {
			changes[k] = v
		}
		u.Changes = changes
	}
	return u
}
