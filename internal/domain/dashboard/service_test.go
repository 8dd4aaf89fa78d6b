package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/domain/support"
	"wcu-registry/internal/domain/updaterequests"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type regCounts map[registrations.Status]int

func (c regCounts) CountByStatus(ctx context.Context) (map[registrations.Status]int, error) {
	return c, nil
}

type updateCounts map[updaterequests.Status]int

func (c updateCounts) CountByStatus(ctx context.Context) (map[updaterequests.Status]int, error) {
	return c, nil
}

type ticketCounts struct {
	counts map[support.Status]int
	err    error
}

func (c ticketCounts) CountByStatus(ctx context.Context) (map[support.Status]int, error) {
	return c.counts, c.err
}

type revenue map[string]int64

func (r revenue) Revenue(ctx context.Context) (map[string]int64, error) { return r, nil }

func newService(tickets ticketCounts) *Service {
	svc := NewService(
		regCounts{registrations.StatusRegistered: 7, registrations.StatusMemorial: 2},
		updateCounts{updaterequests.StatusPending: 3, updaterequests.StatusApproved: 10},
		tickets,
		revenue{"usd": 22500},
	)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestSummary(t *testing.T) {
	svc := newService(ticketCounts{counts: map[support.Status]int{
		support.StatusOpen: 4, support.StatusAnswered: 1, support.StatusClosed: 9,
	}})

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9, s.TotalRegistrations)
	assert.Equal(t, 0, s.Registrations[registrations.StatusPendingPayment])
	assert.Equal(t, 7, s.Registrations[registrations.StatusRegistered])
	assert.Equal(t, 3, s.PendingUpdateRequests)
	assert.Equal(t, 5, s.OpenTickets)
	assert.Equal(t, int64(22500), s.RevenueCents["usd"])
}

func TestSummary_PropagatesErrors(t *testing.T) {
	svc := newService(ticketCounts{err: errors.New("db down")})
	_, err := svc.Summary(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestSummaryHandler(t *testing.T) {
	r := chi.NewRouter()
	RegisterAdminRoutes(r, newService(ticketCounts{counts: map[support.Status]int{}}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body summaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Registrations["memorial"])
	assert.Equal(t, 0, body.OpenTickets)
}
