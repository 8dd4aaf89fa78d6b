package registrations

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"
	"wcu-registry/internal/ports/auth"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("registration not found")
	ErrBadState     = errors.New("invalid state")
)

const (
	maxNameLen = 80
	maxBioLen  = 2000
)

// Notifier avisa al dueño que el registro se recibió.
type Notifier interface {
	RegistrationReceived(ctx context.Context, reg Registration) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(repo Repository, log logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		log:     log.With(map[string]any{"service": "registrations"}),
		metrics: m,
		now:     time.Now,
	}
}

// SetNotifier habilita el email de confirmación al crear un registro.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateInput struct {
	OwnerName  string
	OwnerEmail string
	OwnerPhone string

	DogName   string
	Breed     string
	Sex       string
	Color     string
	BirthDate *time.Time
	PhotoURL  string
	Bio       string
}

// Create registra un perro. Queda pending_payment hasta que el webhook de pago confirme.
// ownerUserID puede venir vacío (registro sin cuenta).
func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Registration, error) {
	dogName := strings.TrimSpace(in.DogName)
	ownerName := strings.TrimSpace(in.OwnerName)

	if err := validateName("dog_name", dogName); err != nil {
		return Registration{}, err
	}
	if err := validateName("owner_name", ownerName); err != nil {
		return Registration{}, err
	}
	email, err := normalizeEmail(in.OwnerEmail)
	if err != nil {
		return Registration{}, err
	}
	sex, ok := ParseSex(in.Sex)
	if !ok {
		return Registration{}, fmt.Errorf("%w: sex must be male, female or unknown", ErrInvalidInput)
	}
	now := s.now()
	if in.BirthDate != nil && in.BirthDate.After(now) {
		return Registration{}, fmt.Errorf("%w: birth_date cannot be in the future", ErrInvalidInput)
	}
	if len(in.Bio) > maxBioLen {
		return Registration{}, fmt.Errorf("%w: bio too long", ErrInvalidInput)
	}

	seq, err := s.repo.NextSequence(ctx)
	if err != nil {
		return Registration{}, fmt.Errorf("next wcu sequence: %w", err)
	}

	r := Registration{
		ID:          uuid.NewString(),
		WCUNumber:   FormatWCU(seq),
		OwnerUserID: strings.TrimSpace(ownerUserID),
		OwnerName:   ownerName,
		OwnerEmail:  email,
		OwnerPhone:  strings.TrimSpace(in.OwnerPhone),
		DogName:     dogName,
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         sex,
		Color:       strings.TrimSpace(in.Color),
		BirthDate:   in.BirthDate,
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
		Bio:         strings.TrimSpace(in.Bio),
		Status:      StatusPendingPayment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Registration{}, err
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	s.log.Info("registration created", map[string]any{
		"registration_id": r.ID,
		"wcu_number":      r.WCUNumber,
	})

	if s.notifier != nil {
		// Best-effort: el registro ya existe aunque el email falle.
		if err := s.notifier.RegistrationReceived(ctx, r); err != nil {
			s.log.Warn("registration email failed", map[string]any{"registration_id": r.ID, "error": err})
		}
	}
	return r, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Registration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Registration{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByWCU(ctx context.Context, raw string) (Registration, error) {
	wcu, ok := ParseWCU(raw)
	if !ok {
		return Registration{}, ErrNotFound
	}
	return s.repo.GetByWCU(ctx, wcu)
}

func (s *Service) ListByOwner(ctx context.Context, claims auth.Claims) ([]Registration, error) {
	if strings.TrimSpace(claims.UserID) == "" && strings.TrimSpace(claims.Email) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwner(ctx, strings.TrimSpace(claims.UserID), strings.ToLower(strings.TrimSpace(claims.Email)))
}

func (s *Service) Search(ctx context.Context, f SearchFilter) (Page, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return Page{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
		}
	}
	f.Query = strings.TrimSpace(f.Query)
	return s.repo.Search(ctx, f)
}

// PublicSearch busca solo entre perfiles públicos.
func (s *Service) PublicSearch(ctx context.Context, query string, limit int) ([]PublicProfile, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	page, err := s.repo.Search(ctx, SearchFilter{
		Statuses: []Status{StatusRegistered, StatusMemorial},
		Query:    strings.TrimSpace(query),
		Public:   true,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]PublicProfile, 0, len(page.Items))
	for _, r := range page.Items {
		if p, ok := ToPublic(r); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// PatchInput: punteros nil = no tocar.
type PatchInput struct {
	OwnerName  *string
	OwnerEmail *string
	OwnerPhone *string

	DogName   *string
	Breed     *string
	Sex       *string
	Color     *string
	BirthDate PatchDate
	PhotoURL  *string
	Bio       *string

	TributeMessage *string
	DateOfPassing  PatchDate
}

func (p PatchInput) IsEmpty() bool {
	return p.OwnerName == nil && p.OwnerEmail == nil && p.OwnerPhone == nil &&
		p.DogName == nil && p.Breed == nil && p.Sex == nil && p.Color == nil &&
		!p.BirthDate.Present && p.PhotoURL == nil && p.Bio == nil &&
		p.TributeMessage == nil && !p.DateOfPassing.Present
}

// Update aplica un patch curado (admin o update request aprobada).
func (s *Service) Update(ctx context.Context, id string, in PatchInput) (Registration, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	if in.IsEmpty() {
		return r, nil
	}

	if err := applyPatch(&r, in); err != nil {
		return Registration{}, err
	}
	if err := validateDates(r, s.now()); err != nil {
		return Registration{}, err
	}

	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return Registration{}, err
	}
	return r, nil
}

func applyPatch(r *Registration, in PatchInput) error {
	if in.DogName != nil {
		v := strings.TrimSpace(*in.DogName)
		if err := validateName("dog_name", v); err != nil {
			return err
		}
		r.DogName = v
	}
	if in.OwnerName != nil {
		v := strings.TrimSpace(*in.OwnerName)
		if err := validateName("owner_name", v); err != nil {
			return err
		}
		r.OwnerName = v
	}
	if in.OwnerEmail != nil {
		v, err := normalizeEmail(*in.OwnerEmail)
		if err != nil {
			return err
		}
		r.OwnerEmail = v
	}
	if in.OwnerPhone != nil {
		r.OwnerPhone = strings.TrimSpace(*in.OwnerPhone)
	}
	if in.Breed != nil {
		r.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		sex, ok := ParseSex(*in.Sex)
		if !ok {
			return fmt.Errorf("%w: sex must be male, female or unknown", ErrInvalidInput)
		}
		r.Sex = sex
	}
	if in.Color != nil {
		r.Color = strings.TrimSpace(*in.Color)
	}
	if in.BirthDate.Present {
		r.BirthDate = in.BirthDate.Value
	}
	if in.PhotoURL != nil {
		r.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}
	if in.Bio != nil {
		v := strings.TrimSpace(*in.Bio)
		if len(v) > maxBioLen {
			return fmt.Errorf("%w: bio too long", ErrInvalidInput)
		}
		r.Bio = v
	}
	if in.TributeMessage != nil {
		v := strings.TrimSpace(*in.TributeMessage)
		if len(v) > maxBioLen {
			return fmt.Errorf("%w: tribute_message too long", ErrInvalidInput)
		}
		r.TributeMessage = v
	}
	if in.DateOfPassing.Present {
		r.DateOfPassing = in.DateOfPassing.Value
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("registration deleted", map[string]any{"registration_id": id})
	return nil
}

// MarkRegistered pasa de pending_payment a registered. Idempotente.
func (s *Service) MarkRegistered(ctx context.Context, id string) (Registration, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	if r.Status != StatusPendingPayment {
		return r, nil
	}
	r.Status = StatusRegistered
	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return Registration{}, err
	}
	return r, nil
}

// AttachCertificate guarda la referencia al PDF emitido.
func (s *Service) AttachCertificate(ctx context.Context, id, key, url string, issuedAt time.Time) (Registration, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	r.CertificateKey = strings.TrimSpace(key)
	r.CertificateURL = strings.TrimSpace(url)
	at := issuedAt
	r.CertificateIssuedAt = &at
	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return Registration{}, err
	}
	return r, nil
}

type MemorialInput struct {
	DateOfPassing  *time.Time
	TributeMessage *string
}

// ConvertToMemorial marca al perro como fallecido.
// Solo desde registered; sobre un memorial existente actualiza los campos de tributo.
func (s *Service) ConvertToMemorial(ctx context.Context, id string, in MemorialInput) (Registration, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	switch r.Status {
	case StatusRegistered, StatusMemorial:
	default:
		return Registration{}, fmt.Errorf("%w: only registered dogs can be memorialized", ErrBadState)
	}

	if in.DateOfPassing != nil {
		r.DateOfPassing = in.DateOfPassing
	}
	if in.TributeMessage != nil {
		v := strings.TrimSpace(*in.TributeMessage)
		if len(v) > maxBioLen {
			return Registration{}, fmt.Errorf("%w: tribute_message too long", ErrInvalidInput)
		}
		r.TributeMessage = v
	}
	now := s.now()
	if err := validateDates(r, now); err != nil {
		return Registration{}, err
	}

	wasMemorial := r.Status == StatusMemorial
	r.Status = StatusMemorial
	r.UpdatedAt = now
	if err := s.repo.Update(ctx, r); err != nil {
		return Registration{}, err
	}
	if !wasMemorial {
		s.log.Info("registration converted to memorial", map[string]any{
			"registration_id": r.ID,
			"wcu_number":      r.WCUNumber,
		})
	}
	return r, nil
}

// OwnedBy: el dueño se reconoce por user id o, si se registró sin cuenta, por email.
func OwnedBy(r Registration, c auth.Claims) bool {
	if uid := strings.TrimSpace(c.UserID); uid != "" && uid == r.OwnerUserID {
		return true
	}
	email := strings.ToLower(strings.TrimSpace(c.Email))
	return email != "" && email == strings.ToLower(r.OwnerEmail)
}

func validateName(field, v string) error {
	if v == "" {
		return fmt.Errorf("%w: %s required", ErrInvalidInput, field)
	}
	if len([]rune(v)) > maxNameLen {
		return fmt.Errorf("%w: %s too long", ErrInvalidInput, field)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: owner_email required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || !strings.Contains(addr.Address, "@") {
		return "", fmt.Errorf("%w: owner_email invalid", ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}

func validateDates(r Registration, now time.Time) error {
	if r.BirthDate != nil && r.BirthDate.After(now) {
		return fmt.Errorf("%w: birth_date cannot be in the future", ErrInvalidInput)
	}
	if r.DateOfPassing != nil {
		if r.DateOfPassing.After(now) {
			return fmt.Errorf("%w: date_of_passing cannot be in the future", ErrInvalidInput)
		}
		if r.BirthDate != nil && r.DateOfPassing.Before(*r.BirthDate) {
			return fmt.Errorf("%w: date_of_passing before birth_date", ErrInvalidInput)
		}
	}
	return nil
}
