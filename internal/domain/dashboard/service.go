package dashboard

import (
	"context"
	"time"

	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/domain/support"
	"wcu-registry/internal/domain/updaterequests"

	"golang.org/x/sync/errgroup"
)

const summaryTimeout = 5 * time.Second

type RegistrationCounter interface {
	CountByStatus(ctx context.Context) (map[registrations.Status]int, error)
}

type UpdateRequestCounter interface {
	CountByStatus(ctx context.Context) (map[updaterequests.Status]int, error)
}

type TicketCounter interface {
	CountByStatus(ctx context.Context) (map[support.Status]int, error)
}

type RevenueSource interface {
	Revenue(ctx context.Context) (map[string]int64, error)
}

// Summary es la portada del panel admin.
type Summary struct {
	Registrations         map[registrations.Status]int
	TotalRegistrations    int
	PendingUpdateRequests int
	OpenTickets           int
	// RevenueCents por moneda (solo pagos confirmados).
	RevenueCents map[string]int64
	GeneratedAt  time.Time
}

type Service struct {
	regs    RegistrationCounter
	updates UpdateRequestCounter
	tickets TicketCounter
	revenue RevenueSource
	now     func() time.Time
}

func NewService(regs RegistrationCounter, updates UpdateRequestCounter, tickets TicketCounter, revenue RevenueSource) *Service {
	return &Service{regs: regs, updates: updates, tickets: tickets, revenue: revenue, now: time.Now}
}

// Summary junta los contadores en paralelo. Cualquier error cancela el resto.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// Cada goroutine escribe solo su variable.
	var (
		regCounts    map[registrations.Status]int
		updateCounts map[updaterequests.Status]int
		ticketCounts map[support.Status]int
		revenue      map[string]int64
	)

	g.Go(func() (err error) {
		regCounts, err = s.regs.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		updateCounts, err = s.updates.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		ticketCounts, err = s.tickets.CountByStatus(ctx)
		return err
	})
	if s.revenue != nil {
		g.Go(func() (err error) {
			revenue, err = s.revenue.Revenue(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	out := Summary{
		Registrations: map[registrations.Status]int{
			registrations.StatusPendingPayment: 0,
			registrations.StatusRegistered:     0,
			registrations.StatusMemorial:       0,
		},
		PendingUpdateRequests: updateCounts[updaterequests.StatusPending],
		// answered sigue abierto hasta que el admin lo cierra.
		OpenTickets:  ticketCounts[support.StatusOpen] + ticketCounts[support.StatusAnswered],
		RevenueCents: map[string]int64{},
		GeneratedAt:  s.now(),
	}
	for st, n := range regCounts {
		out.Registrations[st] = n
		out.TotalRegistrations += n
	}
	for cur, cents := range revenue {
		out.RevenueCents[cur] = cents
	}
	return out, nil
}
