package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"wcu-registry/internal/adapters/email/logmailer"
	"wcu-registry/internal/platform/config"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"
	gw "wcu-registry/internal/ports/payments"
	"wcu-registry/internal/router"

	"github.com/prometheus/client_golang/prometheus"
)

// fakeGateway firma con "ok" y el payload es el WebhookEvent en JSON.
type fakeGateway struct {
	sessions int
}

func (g *fakeGateway) CreateCheckout(_ context.Context, in gw.CheckoutInput) (gw.CheckoutSession, error) {
	g.sessions++
	id := "cs_test_" + in.WCUNumber
	return gw.CheckoutSession{ID: id, URL: "https://pay.example/" + id}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (gw.WebhookEvent, error) {
	if signature != "ok" {
		return gw.WebhookEvent{}, gw.ErrInvalidSignature
	}
	var ev gw.WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return gw.WebhookEvent{}, errors.New("bad payload")
	}
	return ev, nil
}

type user struct {
	id    string
	email string
	role  string
}

var (
	owner = user{id: "owner-1", email: "ana@example.com"}
	other = user{id: "other-1", email: "otro@example.com"}
	admin = user{id: "admin-1", email: "admin@example.com", role: "admin"}
)

func newServer(t *testing.T) (*httptest.Server, *logmailer.Mailer) {
	t.Helper()

	cfg := config.Config{}
	cfg.Site.URL = "https://registry.example"
	cfg.Site.RegistryName = "WCU Dog Registry"
	cfg.Payments.FeeCents = 2500
	cfg.Payments.Currency = "usd"
	cfg.Email.FromEmail = "registry@example.com"
	cfg.Email.InboundToken = "inbound-secret"
	cfg.RateLimit.PerMinute = 100

	mailer := logmailer.New(logger.Nop())
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Config:  cfg,
		Logger:  logger.Nop(),
		Metrics: metrics.New(prometheus.NewRegistry()),
		Gateway: &fakeGateway{},
		Mailer:  mailer,
	}))
	t.Cleanup(ts.Close)
	return ts, mailer
}

func TestHTTP_EndToEnd_RegistrationLifecycle(t *testing.T) {
	ts, mailer := newServer(t)

	// 1) Dueño registra su perro
	reg := createRegistration(t, ts.URL, owner, map[string]any{
		"owner_name":  "Ana Pérez",
		"owner_email": owner.email,
		"dog_name":    "Firulais",
		"breed":       "Mixed",
		"sex":         "male",
		"birth_date":  "2019-04-02",
	})
	if reg.Status != "pending_payment" {
		t.Fatalf("expected pending_payment, got %s", reg.Status)
	}

	// 2) Todavía no es público
	{
		st, _ := doReq(t, ts.URL, "GET", "/public/dogs/"+reg.WCUNumber, user{}, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 before payment, got %d", st)
		}
	}

	// 3) Checkout
	var checkout struct {
		SessionID   string `json:"session_id"`
		CheckoutURL string `json:"checkout_url"`
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/registrations/"+reg.ID+"/checkout", user{}, nil)
		if st != http.StatusCreated {
			t.Fatalf("expected 201 checkout, got %d body=%s", st, string(body))
		}
		_ = json.Unmarshal(body, &checkout)
		if checkout.CheckoutURL == "" {
			t.Fatalf("checkout: missing url body=%s", string(body))
		}
	}

	// 4) Firma inválida => 400
	event := gw.WebhookEvent{
		ID:            "evt_1",
		Type:          gw.EventCheckoutCompleted,
		SessionID:     checkout.SessionID,
		PaymentStatus: "paid",
		AmountTotal:   2500,
		Currency:      "USD",
	}
	if st, _ := postWebhook(t, ts.URL, event, "bad"); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", st)
	}

	// 5) Webhook de pago (dos veces: el segundo es duplicado)
	for i := 0; i < 2; i++ {
		if st, body := postWebhook(t, ts.URL, event, "ok"); st != http.StatusOK {
			t.Fatalf("expected 200 webhook, got %d body=%s", st, string(body))
		}
	}

	// 6) Perfil público y certificado
	{
		st, body := doReq(t, ts.URL, "GET", "/public/dogs/"+reg.WCUNumber, user{}, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 public profile, got %d body=%s", st, string(body))
		}
		var p struct {
			Status               string `json:"status"`
			CertificateAvailable bool   `json:"certificate_available"`
		}
		_ = json.Unmarshal(body, &p)
		if p.Status != "registered" || !p.CertificateAvailable {
			t.Fatalf("unexpected public profile: %s", string(body))
		}
	}
	{
		res := get(t, ts.URL+"/public/dogs/"+reg.WCUNumber+"/certificate?download=1")
		if res.StatusCode != http.StatusOK || res.Header.Get("Content-Type") != "application/pdf" {
			t.Fatalf("expected pdf download, got %d %s", res.StatusCode, res.Header.Get("Content-Type"))
		}
		if !bytes.HasPrefix(res.Body, []byte("%PDF")) {
			t.Fatalf("certificate is not a pdf")
		}
	}
	{
		// Sin download redirige al objeto servido en /files/.
		res := get(t, ts.URL+"/public/dogs/"+reg.WCUNumber+"/certificate")
		if res.StatusCode != http.StatusOK || !bytes.HasPrefix(res.Body, []byte("%PDF")) {
			t.Fatalf("expected redirect to stored pdf, got %d", res.StatusCode)
		}
	}
	{
		res := get(t, ts.URL+"/public/dogs/"+reg.WCUNumber+"/card.png")
		if res.StatusCode != http.StatusOK || res.Header.Get("Content-Type") != "image/png" {
			t.Fatalf("expected png card, got %d", res.StatusCode)
		}
	}

	// 7) Emails: registro recibido + certificado emitido
	if n := len(mailer.Sent()); n < 2 {
		t.Fatalf("expected at least 2 emails, got %d", n)
	}

	// 8) Pedido de cambios: otro usuario no puede, el dueño sí
	{
		st, _ := doReq(t, ts.URL, "POST", "/registrations/"+reg.ID+"/update-requests", other, map[string]any{
			"dog_name": "Otro",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for non-owner, got %d", st)
		}
	}
	var updateID string
	{
		st, body := doReq(t, ts.URL, "POST", "/registrations/"+reg.ID+"/update-requests", owner, map[string]any{
			"dogName":     "Firulais II",
			"memorialize": true,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 update request, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID      string         `json:"id"`
			Changes map[string]any `json:"changes"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Changes["dog_name"] != "Firulais II" {
			t.Fatalf("legacy key not migrated: %s", string(body))
		}
		updateID = resp.ID
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/registrations/"+reg.ID+"/update-requests", owner, map[string]any{
			"bio": "otra cosa",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 for second pending request, got %d", st)
		}
	}

	// 9) Admin: sin rol => 403
	{
		st, _ := doReq(t, ts.URL, "GET", "/admin/update-requests/"+updateID, owner, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for non-admin, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/admin/update-requests/"+updateID, admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 detail, got %d body=%s", st, string(body))
		}
		var d struct {
			Diff []map[string]any `json:"diff"`
		}
		_ = json.Unmarshal(body, &d)
		if len(d.Diff) != 2 {
			t.Fatalf("expected 2 diff entries, got %s", string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/admin/update-requests/"+updateID+"/approve", admin, map[string]any{
			"overrides": map[string]any{"tribute_message": "Siempre en casa"},
			"notes":     "ok",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
	}

	// 10) Ya es memorial
	{
		st, body := doReq(t, ts.URL, "GET", "/public/dogs/"+reg.WCUNumber, user{}, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 public profile, got %d", st)
		}
		var p struct {
			DogName        string `json:"dog_name"`
			IsMemorial     bool   `json:"is_memorial"`
			TributeMessage string `json:"tribute_message"`
		}
		_ = json.Unmarshal(body, &p)
		if p.DogName != "Firulais II" || !p.IsMemorial || p.TributeMessage != "Siempre en casa" {
			t.Fatalf("unexpected profile after approve: %s", string(body))
		}
	}

	// 11) Dashboard
	{
		st, body := doReq(t, ts.URL, "GET", "/admin/dashboard", admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 dashboard, got %d", st)
		}
		var s struct {
			TotalRegistrations int              `json:"total_registrations"`
			RevenueCents       map[string]int64 `json:"revenue_cents"`
		}
		_ = json.Unmarshal(body, &s)
		if s.TotalRegistrations != 1 || s.RevenueCents["usd"] != 2500 {
			t.Fatalf("unexpected dashboard: %s", string(body))
		}
	}
}

func TestHTTP_Support_TicketThread(t *testing.T) {
	ts, mailer := newServer(t)

	var ref string
	{
		st, body := doReq(t, ts.URL, "POST", "/support/tickets", user{}, map[string]any{
			"name":    "Ana",
			"email":   "ana@example.com",
			"subject": "Cambio de foto",
			"message": "Hola, quiero cambiar la foto.",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 ticket, got %d body=%s", st, string(body))
		}
		var resp struct {
			Reference string `json:"reference"`
		}
		_ = json.Unmarshal(body, &resp)
		ref = resp.Reference
		if !strings.HasPrefix(ref, "T-") {
			t.Fatalf("unexpected reference %q", ref)
		}
	}

	var ticketID string
	{
		st, body := doReq(t, ts.URL, "GET", "/admin/tickets?status=open", admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list tickets, got %d", st)
		}
		var list struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		}
		_ = json.Unmarshal(body, &list)
		if len(list.Items) != 1 {
			t.Fatalf("expected 1 open ticket, got %s", string(body))
		}
		ticketID = list.Items[0].ID
	}

	before := len(mailer.Sent())
	{
		st, body := doReq(t, ts.URL, "POST", "/admin/tickets/"+ticketID+"/reply", admin, map[string]any{
			"body": "Claro, mandala por acá.",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 reply, got %d body=%s", st, string(body))
		}
	}
	sent := mailer.Sent()
	if len(sent) != before+1 || !strings.Contains(sent[len(sent)-1].Subject, "["+ref+"]") {
		t.Fatalf("reply email missing reference")
	}

	// Respuesta del usuario por email
	{
		st := postInbound(t, ts.URL, "inbound-secret", url.Values{
			"from":    {"Ana <ana@example.com>"},
			"subject": {"Re: [" + ref + "] Re: Cambio de foto"},
			"text":    {"Gracias!\n\nOn Mon, someone wrote:\n> Claro"},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 inbound, got %d", st)
		}
	}
	if st := postInbound(t, ts.URL, "wrong", url.Values{"from": {"x@example.com"}}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad inbound token, got %d", st)
	}

	{
		st, body := doReq(t, ts.URL, "GET", "/admin/tickets/"+ticketID, admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 ticket, got %d", st)
		}
		var d struct {
			Status   string `json:"status"`
			Messages []struct {
				Direction string `json:"direction"`
				Body      string `json:"body"`
			} `json:"messages"`
		}
		_ = json.Unmarshal(body, &d)
		if len(d.Messages) != 3 || d.Status != "open" {
			t.Fatalf("unexpected thread: %s", string(body))
		}
		if d.Messages[2].Body != "Gracias!" {
			t.Fatalf("quoted text not stripped: %q", d.Messages[2].Body)
		}
	}
}

func TestHTTP_Health_Metrics_Swagger(t *testing.T) {
	ts, _ := newServer(t)

	for _, path := range []string{"/health", "/metrics", "/swagger/doc.json"} {
		res := get(t, ts.URL+path)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, res.StatusCode)
		}
	}
}

func TestHTTP_Checkout_NotConfigured(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Metrics: metrics.New(prometheus.NewRegistry()),
	}))
	defer ts.Close()

	reg := createRegistration(t, ts.URL, user{}, map[string]any{
		"owner_name":  "Ana",
		"owner_email": "ana@example.com",
		"dog_name":    "Luna",
	})
	st, _ := doReq(t, ts.URL, "POST", "/registrations/"+reg.ID+"/checkout", user{}, nil)
	if st != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without gateway, got %d", st)
	}
}

func TestHTTP_UpdateRequests_RateLimited(t *testing.T) {
	cfg := config.Config{}
	cfg.RateLimit.PerMinute = 1
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Config:  cfg,
		Metrics: metrics.New(prometheus.NewRegistry()),
	}))
	defer ts.Close()

	reg := createRegistration(t, ts.URL, owner, map[string]any{
		"owner_name":  "Ana",
		"owner_email": owner.email,
		"dog_name":    "Luna",
	})

	path := "/registrations/" + reg.ID + "/update-requests"
	payload := map[string]any{"changes": map[string]any{"bio": "Loves the beach"}}
	st, body := doReq(t, ts.URL, "POST", path, owner, payload)
	if st == http.StatusTooManyRequests {
		t.Fatalf("first submit should not be limited body=%s", string(body))
	}
	st, _ = doReq(t, ts.URL, "POST", path, owner, payload)
	if st != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second submit, got %d", st)
	}

	// el límite es por ruta: el buscador público sigue libre
	res := get(t, ts.URL+"/public/dogs?q=ana@example.com")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 public search, got %d", res.StatusCode)
	}
}

type registration struct {
	ID        string `json:"id"`
	WCUNumber string `json:"wcu_number"`
	Status    string `json:"status"`
}

func createRegistration(t *testing.T, baseURL string, u user, payload map[string]any) registration {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/registrations", u, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create registration, got %d body=%s", st, string(body))
	}

	var resp registration
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" || resp.WCUNumber == "" {
		t.Fatalf("create registration: missing id body=%s", string(body))
	}
	return resp
}

func postWebhook(t *testing.T, baseURL string, ev gw.WebhookEvent, signature string) (int, []byte) {
	t.Helper()

	b, _ := json.Marshal(ev)
	req, err := http.NewRequest("POST", baseURL+"/webhooks/payments", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Stripe-Signature", signature)
	return do(t, req)
}

func postInbound(t *testing.T, baseURL, token string, form url.Values) int {
	t.Helper()

	req, err := http.NewRequest("POST", baseURL+"/webhooks/email/inbound?token="+url.QueryEscape(token), strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	st, _ := do(t, req)
	return st
}

type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func get(t *testing.T, u string) response {
	t.Helper()

	res, err := http.Get(u)
	if err != nil {
		t.Fatalf("get %s: %v", u, err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return response{StatusCode: res.StatusCode, Header: res.Header, Body: body}
}

func doReq(t *testing.T, baseURL, method, path string, u user, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u.id != "" {
		req.Header.Set("X-Debug-User-ID", u.id)
		req.Header.Set("X-Debug-Email", u.email)
		req.Header.Set("X-Debug-Role", u.role)
	}
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
