package updaterequests

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

func RegisterRoutes(r chi.Router, svc *Service, intake ...func(http.Handler) http.Handler) {
	r.With(intake...).Post("/registrations/{registrationID}/update-requests", submitHandler(svc))
	r.Get("/me/update-requests", listMineHandler(svc))
}

// RegisterAdminRoutes se monta dentro de /admin.
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/update-requests", adminListHandler(svc))
	r.Get("/update-requests/{updateRequestID}", adminGetHandler(svc))
	r.Post("/update-requests/{updateRequestID}/approve", approveHandler(svc))
	r.Post("/update-requests/{updateRequestID}/reject", rejectHandler(svc))
}

type updateRequestResponse struct {
	ID              string         `json:"id"`
	RegistrationID  string         `json:"registration_id"`
	RequesterUserID string         `json:"requester_user_id,omitempty"`
	RequesterEmail  string         `json:"requester_email"`
	Changes         map[string]any `json:"changes"`
	Status          Status         `json:"status"`
	AdminNotes      string         `json:"admin_notes,omitempty"`
	ReviewedBy      string         `json:"reviewed_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
}

type detailResponse struct {
	updateRequestResponse
	WCUNumber string        `json:"wcu_number"`
	DogName   string        `json:"dog_name"`
	Diff      []FieldChange `json:"diff"`
}

type listResponse struct {
	Items  []updateRequestResponse `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

type approveRequest struct {
	Overrides map[string]any `json:"overrides"`
	Notes     string         `json:"notes"`
}

type rejectRequest struct {
	Notes string `json:"notes"`
}

// submitHandler godoc
// @Summary Pedir cambios en un registro
// @Description El dueño envía un JSON con los campos a cambiar. Se aceptan nombres viejos (dogName, dob, colour, ...). Campos no editables se ignoran. Un admin revisa el pedido antes de aplicarlo.
// @Tags update-requests
// @Accept json
// @Produce json
// @Param registrationID path string true "Registration ID"
// @Param body body object true "Campos a cambiar"
// @Success 201 {object} updateRequestResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "update request already pending"
// @Router /registrations/{registrationID}/update-requests [post]
func submitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var raw map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Submit(r.Context(), claims, chi.URLParam(r, "registrationID"), raw)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(u))
	}
}

func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListMine(r.Context(), claims)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]updateRequestResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func adminListHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		f := ListFilter{Status: Status(strings.TrimSpace(q.Get("status"))), Limit: limit, Offset: offset}
		items, total, err := svc.List(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}

		out := listResponse{Items: make([]updateRequestResponse, 0, len(items)), Total: total, Limit: limit, Offset: offset}
		if out.Limit <= 0 || out.Limit > 200 {
			out.Limit = 50
		}
		for _, u := range items {
			out.Items = append(out.Items, toResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// adminGetHandler godoc
// @Summary Ver un pedido de cambios con su diff
// @Description Compara campo por campo los valores propuestos con el registro actual. Los campos sin cambios no aparecen.
// @Tags admin
// @Produce json
// @Param updateRequestID path string true "Update request ID"
// @Success 200 {object} detailResponse
// @Failure 404 {string} string "not found"
// @Router /admin/update-requests/{updateRequestID} [get]
func adminGetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Get(r.Context(), chi.URLParam(r, "updateRequestID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detailResponse{
			updateRequestResponse: toResponse(d.Request),
			WCUNumber:             d.Registration.WCUNumber,
			DogName:               d.Registration.DogName,
			Diff:                  d.Diff,
		})
	}
}

// approveHandler godoc
// @Summary Aprobar un pedido de cambios
// @Description Aplica los cambios al registro. overrides reemplaza valores propuestos antes de aplicar.
// @Tags admin
// @Accept json
// @Produce json
// @Param updateRequestID path string true "Update request ID"
// @Param body body approveRequest false "Overrides y notas"
// @Success 200 {object} updateRequestResponse
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "already reviewed"
// @Router /admin/update-requests/{updateRequestID}/approve [post]
func approveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req approveRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		u, _, err := svc.Approve(r.Context(), chi.URLParam(r, "updateRequestID"), claims.UserID, req.Overrides, req.Notes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(u))
	}
}

func rejectHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req rejectRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		u, err := svc.Reject(r.Context(), chi.URLParam(r, "updateRequestID"), claims.UserID, req.Notes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(u))
	}
}

func toResponse(u UpdateRequest) updateRequestResponse {
	changes := u.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	return updateRequestResponse{
		ID:              u.ID,
		RegistrationID:  u.RegistrationID,
		RequesterUserID: u.RequesterUserID,
		RequesterEmail:  u.RequesterEmail,
		Changes:         changes,
		Status:          u.Status,
		AdminNotes:      u.AdminNotes,
		ReviewedBy:      u.ReviewedBy,
		CreatedAt:       u.CreatedAt,
		ReviewedAt:      u.ReviewedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, registrations.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, registrations.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict), errors.Is(err, ErrBadState), errors.Is(err, registrations.ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
