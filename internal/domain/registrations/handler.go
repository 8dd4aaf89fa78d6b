package registrations

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wcu-registry/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

// RegisterRoutes monta las rutas públicas y de dueño.
// intake se aplica solo al POST de registro (rate limit).
func RegisterRoutes(r chi.Router, svc *Service, intake ...func(http.Handler) http.Handler) {
	r.With(intake...).Post("/registrations", createRegistrationHandler(svc))
	r.Get("/registrations/{registrationID}", getRegistrationHandler(svc))
	r.Get("/me/registrations", listMyRegistrationsHandler(svc))

	r.Get("/public/dogs", publicSearchHandler(svc))
	r.Get("/public/dogs/{wcu}", publicProfileHandler(svc))
}

// RegisterAdminRoutes se monta dentro de /admin (ya protegido con RequireAdmin).
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/registrations", adminListHandler(svc))
	r.Get("/registrations/{registrationID}", adminGetHandler(svc))
	r.Patch("/registrations/{registrationID}", adminPatchHandler(svc))
	r.Delete("/registrations/{registrationID}", adminDeleteHandler(svc))
	r.Post("/registrations/{registrationID}/memorial", adminMemorialHandler(svc))
}

type createRegistrationRequest struct {
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	OwnerPhone string `json:"owner_phone"`
	DogName    string `json:"dog_name"`
	Breed      string `json:"breed"`
	Sex        string `json:"sex" enums:"male,female,unknown"`
	Color      string `json:"color"`
	BirthDate  string `json:"birth_date"` // YYYY-MM-DD opcional
	PhotoURL   string `json:"photo_url"`
	Bio        string `json:"bio"`
}

type registrationResponse struct {
	ID                  string     `json:"id"`
	WCUNumber           string     `json:"wcu_number"`
	OwnerUserID         string     `json:"owner_user_id,omitempty"`
	OwnerName           string     `json:"owner_name"`
	OwnerEmail          string     `json:"owner_email"`
	OwnerPhone          string     `json:"owner_phone,omitempty"`
	DogName             string     `json:"dog_name"`
	Breed               string     `json:"breed"`
	Sex                 Sex        `json:"sex"`
	Color               string     `json:"color"`
	BirthDate           *string    `json:"birth_date"`
	PhotoURL            string     `json:"photo_url"`
	Bio                 string     `json:"bio"`
	Status              Status     `json:"status"`
	DateOfPassing       *string    `json:"date_of_passing,omitempty"`
	TributeMessage      string     `json:"tribute_message,omitempty"`
	CertificateURL      string     `json:"certificate_url,omitempty"`
	CertificateIssuedAt *time.Time `json:"certificate_issued_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type publicProfileResponse struct {
	WCUNumber            string    `json:"wcu_number"`
	DogName              string    `json:"dog_name"`
	Breed                string    `json:"breed"`
	Sex                  Sex       `json:"sex"`
	Color                string    `json:"color"`
	BirthDate            *string   `json:"birth_date"`
	PhotoURL             string    `json:"photo_url"`
	Bio                  string    `json:"bio"`
	OwnerName            string    `json:"owner_name"`
	Status               Status    `json:"status"`
	IsMemorial           bool      `json:"is_memorial"`
	DateOfPassing        *string   `json:"date_of_passing,omitempty"`
	TributeMessage       string    `json:"tribute_message,omitempty"`
	CertificateAvailable bool      `json:"certificate_available"`
	RegisteredAt         time.Time `json:"registered_at"`
}

type pageResponse struct {
	Items  []registrationResponse `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

type memorialRequest struct {
	DateOfPassing  *string `json:"date_of_passing"`
	TributeMessage *string `json:"tribute_message"`
}

// createRegistrationHandler godoc
// @Summary Registrar un perro
// @Description Intake público. Asigna un número WCU y deja el registro en `pending_payment` hasta que el pago se confirme por webhook. Si viene autenticado, el registro queda asociado al usuario.
// @Tags registrations
// @Accept json
// @Produce json
// @Param payload body createRegistrationRequest true "Datos del perro y del dueño"
// @Success 201 {object} registrationResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 429 {string} string "too many requests"
// @Router /registrations [post]
func createRegistrationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRegistrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		bd, err := parseDate(req.BirthDate)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		ownerUserID := ""
		email := req.OwnerEmail
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			ownerUserID = claims.UserID
			if strings.TrimSpace(email) == "" {
				email = claims.Email
			}
		}

		reg, err := svc.Create(r.Context(), ownerUserID, CreateInput{
			OwnerName:  req.OwnerName,
			OwnerEmail: email,
			OwnerPhone: req.OwnerPhone,
			DogName:    req.DogName,
			Breed:      req.Breed,
			Sex:        req.Sex,
			Color:      req.Color,
			BirthDate:  bd,
			PhotoURL:   req.PhotoURL,
			Bio:        req.Bio,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRegistrationResponse(reg))
	}
}

func getRegistrationHandler(svc *Service) http.HandlerFunc {
	// Dueño o admin
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		reg, err := svc.GetByID(r.Context(), chi.URLParam(r, "registrationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !claims.IsAdmin() && !OwnedBy(reg, claims) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
	}
}

func listMyRegistrationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]registrationResponse, 0, len(items))
		for _, reg := range items {
			out = append(out, toRegistrationResponse(reg))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// publicSearchHandler godoc
// @Summary Buscar en el registro público
// @Tags public
// @Produce json
// @Param q query string false "Nombre del perro, dueño o número WCU"
// @Param limit query int false "Máximo de resultados (1-50). Por defecto 20"
// @Success 200 {array} publicProfileResponse
// @Router /public/dogs [get]
func publicSearchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items, err := svc.PublicSearch(r.Context(), r.URL.Query().Get("q"), limit)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]publicProfileResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPublicResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// publicProfileHandler godoc
// @Summary Perfil público de un perro
// @Description Devuelve el perfil público por número WCU. Los registros sin pago confirmado no son visibles. En memoriales incluye fecha de fallecimiento y tributo.
// @Tags public
// @Produce json
// @Param wcu path string true "Número WCU (ej: WCU-00001)"
// @Success 200 {object} publicProfileResponse
// @Failure 404 {string} string "not found"
// @Router /public/dogs/{wcu} [get]
func publicProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, err := svc.GetByWCU(r.Context(), chi.URLParam(r, "wcu"))
		if err != nil {
			writeError(w, err)
			return
		}
		p, ok := ToPublic(reg)
		if !ok {
			// No revelamos que existe un registro sin pagar.
			http.Error(w, "registration not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toPublicResponse(p))
	}
}

func adminListHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		f := SearchFilter{
			Query:  q.Get("q"),
			Limit:  limit,
			Offset: offset,
		}
		// status=registered,memorial
		if v := strings.TrimSpace(q.Get("status")); v != "" {
			for _, part := range strings.Split(v, ",") {
				if st := Status(strings.TrimSpace(part)); st != "" {
					f.Statuses = append(f.Statuses, st)
				}
			}
		}

		page, err := svc.Search(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}

		out := pageResponse{
			Items:  make([]registrationResponse, 0, len(page.Items)),
			Total:  page.Total,
			Limit:  f.Limit,
			Offset: f.Offset,
		}
		if out.Limit <= 0 || out.Limit > 200 {
			out.Limit = 50
		}
		for _, reg := range page.Items {
			out.Items = append(out.Items, toRegistrationResponse(reg))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func adminGetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, err := svc.GetByID(r.Context(), chi.URLParam(r, "registrationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
	}
}

// adminPatchHandler: PATCH real, campos ausentes no se tocan y las fechas aceptan null para limpiar.
func adminPatchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in, err := DecodePatch(raw)
		if err != nil {
			writeError(w, err)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "registrationID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegistrationResponse(updated))
	}
}

func adminDeleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "registrationID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func adminMemorialHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req memorialRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		var dop *time.Time
		if req.DateOfPassing != nil {
			t, err := parseDate(*req.DateOfPassing)
			if err != nil {
				http.Error(w, "date_of_passing must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			dop = t
		}

		reg, err := svc.ConvertToMemorial(r.Context(), chi.URLParam(r, "registrationID"), MemorialInput{
			DateOfPassing:  dop,
			TributeMessage: req.TributeMessage,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
	}
}

// patchFields son las keys aceptadas en un PATCH admin.
var patchFields = map[string]struct{}{
	"owner_name": {}, "owner_email": {}, "owner_phone": {},
	"dog_name": {}, "breed": {}, "sex": {}, "color": {}, "birth_date": {},
	"photo_url": {}, "bio": {}, "tribute_message": {}, "date_of_passing": {},
}

// DecodePatch convierte un body JSON de PATCH en PatchInput.
// Las fechas aceptan "YYYY-MM-DD" o null (limpiar).
func DecodePatch(raw map[string]json.RawMessage) (PatchInput, error) {
	var in PatchInput

	for k := range raw {
		if _, ok := patchFields[k]; !ok {
			return PatchInput{}, fmt.Errorf("%w: unknown field %s", ErrInvalidInput, k)
		}
	}

	str := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidInput, key)
		}
		return &s, nil
	}
	date := func(key string) (PatchDate, error) {
		v, ok := raw[key]
		if !ok {
			return PatchDate{}, nil
		}
		if string(v) == "null" {
			return PatchDate{Present: true}, nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return PatchDate{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or null", ErrInvalidInput, key)
		}
		t, err := parseDate(s)
		if err != nil {
			return PatchDate{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or null", ErrInvalidInput, key)
		}
		return PatchDate{Present: true, Value: t}, nil
	}

	var err error
	targets := []struct {
		key string
		dst **string
	}{
		{"owner_name", &in.OwnerName},
		{"owner_email", &in.OwnerEmail},
		{"owner_phone", &in.OwnerPhone},
		{"dog_name", &in.DogName},
		{"breed", &in.Breed},
		{"sex", &in.Sex},
		{"color", &in.Color},
		{"photo_url", &in.PhotoURL},
		{"bio", &in.Bio},
		{"tribute_message", &in.TributeMessage},
	}
	for _, t := range targets {
		if *t.dst, err = str(t.key); err != nil {
			return PatchInput{}, err
		}
	}
	if in.BirthDate, err = date("birth_date"); err != nil {
		return PatchInput{}, err
	}
	if in.DateOfPassing, err = date("date_of_passing"); err != nil {
		return PatchInput{}, err
	}
	return in, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "registration not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRegistrationResponse(r Registration) registrationResponse {
	return registrationResponse{
		ID:                  r.ID,
		WCUNumber:           r.WCUNumber,
		OwnerUserID:         r.OwnerUserID,
		OwnerName:           r.OwnerName,
		OwnerEmail:          r.OwnerEmail,
		OwnerPhone:          r.OwnerPhone,
		DogName:             r.DogName,
		Breed:               r.Breed,
		Sex:                 r.Sex,
		Color:               r.Color,
		BirthDate:           formatDate(r.BirthDate),
		PhotoURL:            r.PhotoURL,
		Bio:                 r.Bio,
		Status:              r.Status,
		DateOfPassing:       formatDate(r.DateOfPassing),
		TributeMessage:      r.TributeMessage,
		CertificateURL:      r.CertificateURL,
		CertificateIssuedAt: r.CertificateIssuedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toPublicResponse(p PublicProfile) publicProfileResponse {
	return publicProfileResponse{
		WCUNumber:            p.WCUNumber,
		DogName:              p.DogName,
		Breed:                p.Breed,
		Sex:                  p.Sex,
		Color:                p.Color,
		BirthDate:            formatDate(p.BirthDate),
		PhotoURL:             p.PhotoURL,
		Bio:                  p.Bio,
		OwnerName:            p.OwnerName,
		Status:               p.Status,
		IsMemorial:           p.IsMemorial,
		DateOfPassing:        formatDate(p.DateOfPassing),
		TributeMessage:       p.TributeMessage,
		CertificateAvailable: p.CertificateAvailable,
		RegisteredAt:         p.RegisteredAt,
	}
}

// ParseDate acepta "" (nil) o YYYY-MM-DD.
func ParseDate(s string) (*time.Time, error) {
	return parseDate(s)
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
