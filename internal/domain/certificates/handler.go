package certificates

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/ports/objectstore"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, iss *Issuer) {
	r.Get("/public/dogs/{wcu}/certificate", certificateHandler(iss))
	r.Get("/public/dogs/{wcu}/card.png", cardHandler(iss))
}

// RegisterAdminRoutes se monta dentro de /admin.
func RegisterAdminRoutes(r chi.Router, iss *Issuer) {
	r.Post("/registrations/{registrationID}/certificate", reissueHandler(iss))
}

type issueResponse struct {
	RegistrationID string    `json:"registration_id"`
	WCUNumber      string    `json:"wcu_number"`
	CertificateURL string    `json:"certificate_url"`
	IssuedAt       time.Time `json:"issued_at"`
}

// certificateHandler godoc
// @Summary Certificado PDF de un perro
// @Description Redirige a la URL del certificado vigente. Con `download=1` sirve el PDF como adjunto.
// @Tags public
// @Produce application/pdf
// @Param wcu path string true "Número WCU"
// @Param download query bool false "Descargar como adjunto"
// @Success 302 {string} string "redirect"
// @Success 200 {file} file "PDF"
// @Failure 404 {string} string "not found"
// @Router /public/dogs/{wcu}/certificate [get]
func certificateHandler(iss *Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wcu := chi.URLParam(r, "wcu")

		if r.URL.Query().Get("download") != "1" {
			url, err := iss.URL(r.Context(), wcu)
			if err != nil {
				writeError(w, err)
				return
			}
			http.Redirect(w, r, url, http.StatusFound)
			return
		}

		rc, reg, err := iss.Open(r.Context(), wcu)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+reg.WCUNumber+`-certificate.pdf"`)
		_, _ = io.Copy(w, rc)
	}
}

// cardHandler godoc
// @Summary Tarjeta PNG para compartir
// @Tags public
// @Produce png
// @Param wcu path string true "Número WCU"
// @Success 200 {file} file "PNG 1200x630"
// @Failure 404 {string} string "not found"
// @Router /public/dogs/{wcu}/card.png [get]
func cardHandler(iss *Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Render a buffer: si falla, todavía podemos responder con error.
		var buf bytes.Buffer
		if err := iss.Card(r.Context(), &buf, chi.URLParam(r, "wcu")); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(buf.Bytes())
	}
}

func reissueHandler(iss *Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, err := iss.Issue(r.Context(), chi.URLParam(r, "registrationID"))
		if err != nil {
			writeError(w, err)
			return
		}

		resp := issueResponse{
			RegistrationID: reg.ID,
			WCUNumber:      reg.WCUNumber,
			CertificateURL: reg.CertificateURL,
		}
		if reg.CertificateIssuedAt != nil {
			resp.IssuedAt = *reg.CertificateIssuedAt
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registrations.ErrNotFound), errors.Is(err, objectstore.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrNotEligible):
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
