package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterAdminRoutes se monta dentro de /admin.
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/dashboard", summaryHandler(svc))
}

type summaryResponse struct {
	Registrations         map[string]int   `json:"registrations"`
	TotalRegistrations    int              `json:"total_registrations"`
	PendingUpdateRequests int              `json:"pending_update_requests"`
	OpenTickets           int              `json:"open_tickets"`
	RevenueCents          map[string]int64 `json:"revenue_cents"`
	GeneratedAt           time.Time        `json:"generated_at"`
}

// summaryHandler godoc
// @Summary Resumen del panel admin
// @Description Registros por estado, pedidos de cambio pendientes, tickets abiertos y recaudación por moneda.
// @Tags admin
// @Produce json
// @Success 200 {object} summaryResponse
// @Router /admin/dashboard [get]
func summaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Summary(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := summaryResponse{
			Registrations:         make(map[string]int, len(s.Registrations)),
			TotalRegistrations:    s.TotalRegistrations,
			PendingUpdateRequests: s.PendingUpdateRequests,
			OpenTickets:           s.OpenTickets,
			RevenueCents:          s.RevenueCents,
			GeneratedAt:           s.GeneratedAt,
		}
		for st, n := range s.Registrations {
			out.Registrations[string(st)] = n
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(out)
	}
}
