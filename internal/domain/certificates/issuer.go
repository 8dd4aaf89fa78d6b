package certificates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"
	"wcu-registry/internal/ports/objectstore"
)

var ErrNotEligible = errors.New("registration not eligible for a certificate")

// Registrations es lo que el emisor necesita del módulo de registros.
type Registrations interface {
	GetByID(ctx context.Context, id string) (registrations.Registration, error)
	GetByWCU(ctx context.Context, wcu string) (registrations.Registration, error)
	AttachCertificate(ctx context.Context, id, key, url string, issuedAt time.Time) (registrations.Registration, error)
}

type Issuer struct {
	regs    Registrations
	store   objectstore.Store
	opts    Options
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewIssuer(regs Registrations, store objectstore.Store, opts Options, log logger.Logger, m *metrics.Metrics) *Issuer {
	if log == nil {
		log = logger.Nop()
	}
	return &Issuer{
		regs:    regs,
		store:   store,
		opts:    opts,
		log:     log.With(map[string]any{"service": "certificates"}),
		metrics: m,
		now:     time.Now,
	}
}

// ObjectKey: certificates/<WCU>/<unix>.pdf. Cada emisión es un objeto nuevo.
func ObjectKey(wcu string, at time.Time) string {
	return fmt.Sprintf("certificates/%s/%d.pdf", wcu, at.Unix())
}

// Render escribe el PDF de un registro sin guardarlo.
func Render(w io.Writer, reg registrations.Registration, opts Options) error {
	return RenderPDF(w, BuildLayout(reg, opts), opts.IssuedAt)
}

// Issue emite (o reemite) el certificado: render, upload, referencia en el registro.
// El objeto anterior se borra best-effort.
func (i *Issuer) Issue(ctx context.Context, registrationID string) (registrations.Registration, error) {
	reg, err := i.regs.GetByID(ctx, registrationID)
	if err != nil {
		return registrations.Registration{}, err
	}
	if !reg.Status.IsPublic() {
		return registrations.Registration{}, fmt.Errorf("%w: status %s", ErrNotEligible, reg.Status)
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	opts := i.opts
	opts.IssuedAt = issuedAt

	var buf bytes.Buffer
	if err := Render(&buf, reg, opts); err != nil {
		return registrations.Registration{}, err
	}

	key := ObjectKey(reg.WCUNumber, issuedAt)
	if err := i.store.Put(ctx, key, "application/pdf", &buf); err != nil {
		return registrations.Registration{}, fmt.Errorf("upload certificate: %w", err)
	}

	prevKey := reg.CertificateKey
	updated, err := i.regs.AttachCertificate(ctx, reg.ID, key, i.store.PublicURL(key), issuedAt)
	if err != nil {
		// El registro no apunta al objeto nuevo: lo limpiamos.
		_ = i.store.Delete(ctx, key)
		return registrations.Registration{}, err
	}

	if prevKey != "" && prevKey != key {
		if err := i.store.Delete(ctx, prevKey); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			i.log.Warn("delete previous certificate failed", map[string]any{
				"key":   prevKey,
				"error": err,
			})
		}
	}

	if i.metrics != nil {
		i.metrics.CertificatesIssued.Inc()
	}
	i.log.Info("certificate issued", map[string]any{
		"registration_id": reg.ID,
		"wcu_number":      reg.WCUNumber,
		"key":             key,
	})
	return updated, nil
}

// Open devuelve el PDF guardado de un perro público.
func (i *Issuer) Open(ctx context.Context, wcu string) (io.ReadCloser, registrations.Registration, error) {
	reg, err := i.publicByWCU(ctx, wcu)
	if err != nil {
		return nil, registrations.Registration{}, err
	}
	if strings.TrimSpace(reg.CertificateKey) == "" {
		return nil, registrations.Registration{}, objectstore.ErrNotFound
	}
	rc, err := i.store.Get(ctx, reg.CertificateKey)
	if err != nil {
		return nil, registrations.Registration{}, err
	}
	return rc, reg, nil
}

// URL devuelve la URL pública del certificado vigente.
func (i *Issuer) URL(ctx context.Context, wcu string) (string, error) {
	reg, err := i.publicByWCU(ctx, wcu)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reg.CertificateURL) == "" {
		return "", objectstore.ErrNotFound
	}
	return reg.CertificateURL, nil
}

// Card arma la tarjeta PNG de un perro público.
func (i *Issuer) Card(ctx context.Context, w io.Writer, wcu string) error {
	reg, err := i.publicByWCU(ctx, wcu)
	if err != nil {
		return err
	}
	return RenderCard(w, CardFor(reg, i.opts))
}

func (i *Issuer) publicByWCU(ctx context.Context, raw string) (registrations.Registration, error) {
	wcu, ok := registrations.ParseWCU(raw)
	if !ok {
		return registrations.Registration{}, registrations.ErrNotFound
	}
	reg, err := i.regs.GetByWCU(ctx, wcu)
	if err != nil {
		return registrations.Registration{}, err
	}
	if !reg.Status.IsPublic() {
		return registrations.Registration{}, registrations.ErrNotFound
	}
	return reg, nil
}
