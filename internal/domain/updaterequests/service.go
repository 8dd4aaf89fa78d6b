package updaterequests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/notify"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"
	"wcu-registry/internal/ports/auth"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("update request not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadState     = errors.New("invalid state")
	ErrConflict     = errors.New("update request already pending")
)

const maxNotesLen = 2000

// Registrations es lo que este módulo usa del registro vivo.
type Registrations interface {
	GetByID(ctx context.Context, id string) (registrations.Registration, error)
	Update(ctx context.Context, id string, in registrations.PatchInput) (registrations.Registration, error)
	ConvertToMemorial(ctx context.Context, id string, in registrations.MemorialInput) (registrations.Registration, error)
}

type Notifier interface {
	UpdateReviewed(ctx context.Context, r notify.UpdateReview) error
}

type Service struct {
	repo     Repository
	regs     Registrations
	notifier Notifier
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService: notifier puede ser nil.
func NewService(repo Repository, regs Registrations, notifier Notifier, log logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		regs:     regs,
		notifier: notifier,
		log:      log.With(map[string]any{"service": "updaterequests"}),
		metrics:  m,
		now:      time.Now,
	}
}

// Submit registra un pedido de cambios del dueño. Las keys se migran a su
// nombre canónico y las no editables se descartan.
func (s *Service) Submit(ctx context.Context, requester auth.Claims, registrationID string, raw map[string]any) (UpdateRequest, error) {
	if strings.TrimSpace(requester.UserID) == "" && strings.TrimSpace(requester.Email) == "" {
		return UpdateRequest{}, ErrForbidden
	}

	reg, err := s.regs.GetByID(ctx, strings.TrimSpace(registrationID))
	if err != nil {
		return UpdateRequest{}, err
	}
	if !registrations.OwnedBy(reg, requester) {
		return UpdateRequest{}, ErrForbidden
	}

	changes, dropped, err := MigrateKeys(raw)
	if err != nil {
		return UpdateRequest{}, err
	}
	if len(dropped) > 0 {
		s.log.Debug("update request fields dropped", map[string]any{
			"registration_id": reg.ID,
			"fields":          dropped,
		})
	}
	if len(changes) == 0 {
		return UpdateRequest{}, fmt.Errorf("%w: no editable fields", ErrInvalidInput)
	}
	if len(Diff(reg, changes)) == 0 {
		return UpdateRequest{}, fmt.Errorf("%w: nothing to change", ErrInvalidInput)
	}
	if changes[FieldMemorialize] == true && reg.Status == registrations.StatusPendingPayment {
		return UpdateRequest{}, fmt.Errorf("%w: registration is not paid yet", ErrBadState)
	}

	existing, err := s.repo.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return UpdateRequest{}, err
	}
	for _, u := range existing {
		if u.Status == StatusPending {
			return UpdateRequest{}, ErrConflict
		}
	}

	u := UpdateRequest{
		ID:              uuid.NewString(),
		RegistrationID:  reg.ID,
		RequesterUserID: strings.TrimSpace(requester.UserID),
		RequesterEmail:  strings.ToLower(strings.TrimSpace(requester.Email)),
		Changes:         changes,
		Status:          StatusPending,
		CreatedAt:       s.now(),
	}
	if u.RequesterEmail == "" {
		u.RequesterEmail = reg.OwnerEmail
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return UpdateRequest{}, err
	}

	s.log.Info("update request submitted", map[string]any{
		"update_request_id": u.ID,
		"registration_id":   reg.ID,
	})
	return u, nil
}

// Detail es un pedido junto al diff contra el registro actual.
type Detail struct {
	Request      UpdateRequest
	Registration registrations.Registration
	Diff         []FieldChange
}

func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Detail{}, err
	}
	reg, err := s.regs.GetByID(ctx, u.RegistrationID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Request: u, Registration: reg, Diff: Diff(reg, u.Changes)}, nil
}

func (s *Service) ListMine(ctx context.Context, c auth.Claims) ([]UpdateRequest, error) {
	return s.repo.ListByRequester(ctx, strings.TrimSpace(c.UserID), strings.ToLower(strings.TrimSpace(c.Email)))
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]UpdateRequest, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// Approve aplica los cambios (con los overrides del admin encima) al registro.
// memorialize=true además lo convierte en memorial.
func (s *Service) Approve(ctx context.Context, id, adminID string, overrides map[string]any, notes string) (UpdateRequest, registrations.Registration, error) {
	u, err := s.pending(ctx, id)
	if err != nil {
		return UpdateRequest{}, registrations.Registration{}, err
	}
	if len(notes) > maxNotesLen {
		return UpdateRequest{}, registrations.Registration{}, fmt.Errorf("%w: notes too long", ErrInvalidInput)
	}

	merged, err := mergeOverrides(u.Changes, overrides)
	if err != nil {
		return UpdateRequest{}, registrations.Registration{}, err
	}

	reg, err := s.regs.GetByID(ctx, u.RegistrationID)
	if err != nil {
		return UpdateRequest{}, registrations.Registration{}, err
	}
	memorialize := merged[FieldMemorialize] == true
	if memorialize && !reg.Status.IsPublic() {
		return UpdateRequest{}, registrations.Registration{}, fmt.Errorf("%w: registration is not paid yet", ErrBadState)
	}

	patch, err := toPatch(merged)
	if err != nil {
		return UpdateRequest{}, registrations.Registration{}, err
	}
	if reg, err = s.regs.Update(ctx, reg.ID, patch); err != nil {
		return UpdateRequest{}, registrations.Registration{}, err
	}
	if memorialize {
		// Fecha y tributo ya quedaron aplicados por el patch.
		if reg, err = s.regs.ConvertToMemorial(ctx, reg.ID, registrations.MemorialInput{}); err != nil {
			return UpdateRequest{}, registrations.Registration{}, err
		}
	}

	now := s.now()
	u.Changes = merged
	u.Status = StatusApproved
	u.AdminNotes = strings.TrimSpace(notes)
	u.ReviewedBy = strings.TrimSpace(adminID)
	u.ReviewedAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		return UpdateRequest{}, registrations.Registration{}, err
	}

	s.reviewed(ctx, u, reg, true)
	return u, reg, nil
}

func (s *Service) Reject(ctx context.Context, id, adminID, notes string) (UpdateRequest, error) {
	u, err := s.pending(ctx, id)
	if err != nil {
		return UpdateRequest{}, err
	}
	if len(notes) > maxNotesLen {
		return UpdateRequest{}, fmt.Errorf("%w: notes too long", ErrInvalidInput)
	}

	now := s.now()
	u.Status = StatusRejected
	u.AdminNotes = strings.TrimSpace(notes)
	u.ReviewedBy = strings.TrimSpace(adminID)
	u.ReviewedAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		return UpdateRequest{}, err
	}

	reg, err := s.regs.GetByID(ctx, u.RegistrationID)
	if err != nil {
		s.log.Warn("registration missing for rejected update request", map[string]any{
			"update_request_id": u.ID,
			"error":             err,
		})
	}
	s.reviewed(ctx, u, reg, false)
	return u, nil
}

func (s *Service) pending(ctx context.Context, id string) (UpdateRequest, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return UpdateRequest{}, err
	}
	if u.Status != StatusPending {
		return UpdateRequest{}, fmt.Errorf("%w: request already %s", ErrBadState, u.Status)
	}
	return u, nil
}

func (s *Service) reviewed(ctx context.Context, u UpdateRequest, reg registrations.Registration, approved bool) {
	decision := "rejected"
	if approved {
		decision = "approved"
	}
	if s.metrics != nil {
		s.metrics.UpdateReviews.WithLabelValues(decision).Inc()
	}
	s.log.Info("update request reviewed", map[string]any{
		"update_request_id": u.ID,
		"registration_id":   u.RegistrationID,
		"decision":          decision,
		"reviewed_by":       u.ReviewedBy,
	})

	if s.notifier == nil || u.RequesterEmail == "" {
		return
	}
	err := s.notifier.UpdateReviewed(ctx, notify.UpdateReview{
		To:       u.RequesterEmail,
		DogName:  reg.DogName,
		WCU:      reg.WCUNumber,
		Approved: approved,
		Notes:    u.AdminNotes,
	})
	if err != nil {
		s.log.Warn("notify update review failed", map[string]any{
			"update_request_id": u.ID,
			"error":             err,
		})
	}
}

// mergeOverrides: los overrides siguen las mismas reglas de keys que el pedido.
// memorialize=false en un override cancela la conversión pedida.
func mergeOverrides(changes, overrides map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(changes)+len(overrides))
	for k, v := range changes {
		merged[k] = v
	}
	if len(overrides) == 0 {
		return merged, nil
	}

	extra, _, err := migrate(overrides)
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		merged[k] = v
	}
	if merged[FieldMemorialize] == false {
		delete(merged, FieldMemorialize)
	}
	return merged, nil
}
