package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wcu-registry/internal/domain/payments"
)

type PaymentsRepo struct {
	db *sql.DB
}

func NewPaymentsRepo(db *sql.DB) *PaymentsRepo {
	return &PaymentsRepo{db: db}
}

const paymentColumns = `
	id, registration_id, provider, session_id,
	amount_cents, currency, status, checkout_url,
	created_at, updated_at, paid_at`

func (r *PaymentsRepo) Create(ctx context.Context, p payments.Payment) error {
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = p.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.RegistrationID,
		p.Provider,
		p.SessionID,
		p.AmountCents,
		p.Currency,
		string(p.Status),
		p.CheckoutURL,
		p.CreatedAt,
		updated,
		toNullDate(p.PaidAt),
	)
	return err
}

func (r *PaymentsRepo) Update(ctx context.Context, p payments.Payment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET
			amount_cents = $2,
			currency = $3,
			status = $4,
			checkout_url = $5,
			updated_at = $6,
			paid_at = $7
		WHERE id = $1
	`,
		p.ID,
		p.AmountCents,
		p.Currency,
		string(p.Status),
		p.CheckoutURL,
		p.UpdatedAt,
		toNullDate(p.PaidAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return payments.ErrNotFound
	}
	return nil
}

func (r *PaymentsRepo) GetBySessionID(ctx context.Context, sessionID string) (payments.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE session_id = $1`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return payments.Payment{}, payments.ErrNotFound
	}
	return p, err
}

func (r *PaymentsRepo) ListByRegistration(ctx context.Context, registrationID string) ([]payments.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE registration_id::text = $1
		ORDER BY created_at DESC
	`, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]payments.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PaymentsRepo) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_webhook_events WHERE event_id = $1)`, eventID,
	).Scan(&exists)
	return exists, err
}

func (r *PaymentsRepo) MarkEventProcessed(ctx context.Context, eventID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO processed_webhook_events (event_id, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, at)
	return err
}

func (r *PaymentsRepo) SumPaid(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT currency, COALESCE(sum(amount_cents), 0)
		FROM payments
		WHERE status = 'paid'
		GROUP BY currency
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var cur string
		var total int64
		if err := rows.Scan(&cur, &total); err != nil {
			return nil, err
		}
		out[cur] = total
	}
	return out, rows.Err()
}

func scanPayment(row rowScanner) (payments.Payment, error) {
	var p payments.Payment
	var status string
	var paid sql.NullTime
	if err := row.Scan(
		&p.ID,
		&p.RegistrationID,
		&p.Provider,
		&p.SessionID,
		&p.AmountCents,
		&p.Currency,
		&status,
		&p.CheckoutURL,
		&p.CreatedAt,
		&p.UpdatedAt,
		&paid,
	); err != nil {
		return payments.Payment{}, err
	}
	p.Status = payments.Status(status)
	p.PaidAt = fromNullTime(paid)
	return p, nil
}
