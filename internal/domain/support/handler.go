package support

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wcu-registry/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const (
	maxFormBytes    = 64 << 10
	maxInboundBytes = 10 << 20
)

// RegisterRoutes monta el formulario público y el webhook de email entrante.
// inboundToken vacío deshabilita el webhook. intake se aplica al formulario.
func RegisterRoutes(r chi.Router, svc *Service, inboundToken string, intake ...func(http.Handler) http.Handler) {
	r.With(intake...).Post("/support/tickets", openTicketHandler(svc))
	r.Post("/webhooks/email/inbound", inboundHandler(svc, inboundToken))
}

// RegisterAdminRoutes se monta dentro de /admin.
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/tickets", listTicketsHandler(svc))
	r.Get("/tickets/{ticketID}", getTicketHandler(svc))
	r.Post("/tickets/{ticketID}/reply", replyHandler(svc))
	r.Post("/tickets/{ticketID}/status", setStatusHandler(svc))
}

type openTicketRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	RegistrationID string `json:"registration_id"`
}

type openTicketResponse struct {
	Reference string `json:"reference"`
	Status    Status `json:"status"`
}

type ticketResponse struct {
	ID             string    `json:"id"`
	Reference      string    `json:"reference"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email"`
	Subject        string    `json:"subject"`
	Status         Status    `json:"status"`
	RegistrationID string    `json:"registration_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastMessageAt  time.Time `json:"last_message_at"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
	From      string    `json:"from"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type ticketDetailResponse struct {
	ticketResponse
	Messages []messageResponse `json:"messages"`
}

type ticketListResponse struct {
	Items  []ticketResponse `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type replyRequest struct {
	Body string `json:"body"`
}

type statusRequest struct {
	Status Status `json:"status" enums:"open,answered,closed"`
}

// openTicketHandler godoc
// @Summary Abrir un ticket de soporte
// @Description Formulario público de contacto. Devuelve la referencia que viaja en los emails.
// @Tags support
// @Accept json
// @Produce json
// @Param body body openTicketRequest true "Ticket"
// @Success 201 {object} openTicketResponse
// @Failure 400 {string} string "invalid input"
// @Failure 429 {string} string "too many requests"
// @Router /support/tickets [post]
func openTicketHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openTicketRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := svc.Open(r.Context(), OpenInput{
			Name:           req.Name,
			Email:          req.Email,
			Subject:        req.Subject,
			Body:           req.Message,
			RegistrationID: req.RegistrationID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, openTicketResponse{Reference: t.Reference, Status: t.Status})
	}
}

// inboundHandler godoc
// @Summary Webhook de email entrante
// @Description Recibe el POST multipart del proveedor (campos from, subject, text). El token va en la query.
// @Tags support
// @Accept mpfd
// @Produce json
// @Param token query string true "Token compartido"
// @Success 200 {object} map[string]string
// @Failure 401 {string} string "unauthorized"
// @Router /webhooks/email/inbound [post]
func inboundHandler(svc *Service, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			http.Error(w, "inbound email disabled", http.StatusServiceUnavailable)
			return
		}
		got := r.URL.Query().Get("token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxInboundBytes)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			if err := r.ParseMultipartForm(maxInboundBytes); err != nil {
				http.Error(w, "invalid form", http.StatusBadRequest)
				return
			}
		} else if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		t, err := svc.ReceiveInbound(r.Context(), InboundEmail{
			From:    r.FormValue("from"),
			Subject: r.FormValue("subject"),
			Text:    r.FormValue("text"),
		})
		if err != nil {
			// 200 igual para entradas inválidas: el proveedor reintenta cualquier otro código.
			if errors.Is(err, ErrInvalidInput) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "accepted", "reference": t.Reference})
	}
}

func listTicketsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		items, total, err := svc.List(r.Context(), ListFilter{
			Status: Status(strings.TrimSpace(q.Get("status"))),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		out := ticketListResponse{Items: make([]ticketResponse, 0, len(items)), Total: total, Limit: limit, Offset: offset}
		if out.Limit <= 0 || out.Limit > 200 {
			out.Limit = 50
		}
		for _, t := range items {
			out.Items = append(out.Items, toTicketResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getTicketHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, msgs, err := svc.Get(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := ticketDetailResponse{ticketResponse: toTicketResponse(t), Messages: make([]messageResponse, 0, len(msgs))}
		for _, m := range msgs {
			out.Messages = append(out.Messages, messageResponse{
				ID:        m.ID,
				Direction: m.Direction,
				From:      m.From,
				Body:      m.Body,
				CreatedAt: m.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// replyHandler godoc
// @Summary Responder un ticket
// @Description Envía la respuesta por email con asunto "[T-XXXXXXXX] Re: ..." y marca el ticket como answered.
// @Tags admin
// @Accept json
// @Produce json
// @Param ticketID path string true "Ticket ID"
// @Param body body replyRequest true "Respuesta"
// @Success 201 {object} messageResponse
// @Failure 404 {string} string "not found"
// @Failure 502 {string} string "email delivery failed"
// @Router /admin/tickets/{ticketID}/reply [post]
func replyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req replyRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.Reply(r.Context(), chi.URLParam(r, "ticketID"), claims.UserID, req.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, messageResponse{
			ID:        m.ID,
			Direction: m.Direction,
			From:      m.From,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		})
	}
}

func setStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := svc.SetStatus(r.Context(), chi.URLParam(r, "ticketID"), req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTicketResponse(t))
	}
}

func toTicketResponse(t Ticket) ticketResponse {
	return ticketResponse{
		ID:             t.ID,
		Reference:      t.Reference,
		Name:           t.Name,
		Email:          t.Email,
		Subject:        t.Subject,
		Status:         t.Status,
		RegistrationID: t.RegistrationID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		LastMessageAt:  t.LastMessageAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "ticket not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrDelivery):
		http.Error(w, "email delivery failed", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
