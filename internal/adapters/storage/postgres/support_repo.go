package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wcu-registry/internal/domain/support"
)

type SupportRepo struct {
	db *sql.DB
}

func NewSupportRepo(db *sql.DB) *SupportRepo {
	return &SupportRepo{db: db}
}

const ticketColumns = `
	id, reference, name, email, subject, status, registration_id,
	created_at, updated_at, last_message_at`

func (r *SupportRepo) CreateTicket(ctx context.Context, t support.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO support_tickets (`+ticketColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		t.ID,
		t.Reference,
		t.Name,
		t.Email,
		t.Subject,
		string(t.Status),
		t.RegistrationID,
		t.CreatedAt,
		t.UpdatedAt,
		t.LastMessageAt,
	)
	return err
}

func (r *SupportRepo) UpdateTicket(ctx context.Context, t support.Ticket) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE support_tickets
		SET
			name = $2,
			subject = $3,
			status = $4,
			registration_id = $5,
			updated_at = $6,
			last_message_at = $7
		WHERE id = $1
	`,
		t.ID,
		t.Name,
		t.Subject,
		string(t.Status),
		t.RegistrationID,
		t.UpdatedAt,
		t.LastMessageAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return support.ErrNotFound
	}
	return nil
}

func (r *SupportRepo) GetTicket(ctx context.Context, id string) (support.Ticket, error) {
	return r.getTicket(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE id::text = $1`, id)
}

func (r *SupportRepo) GetByReference(ctx context.Context, ref string) (support.Ticket, error) {
	return r.getTicket(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE reference = $1`, ref)
}

func (r *SupportRepo) getTicket(ctx context.Context, query, arg string) (support.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return support.Ticket{}, support.ErrNotFound
	}
	return t, err
}

func (r *SupportRepo) ListTickets(ctx context.Context, f support.ListFilter) ([]support.Ticket, int, error) {
	where := ""
	args := []any{}
	if f.Status != "" {
		where = " WHERE status = $1"
		args = append(args, string(f.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM support_tickets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)
	n := len(args)
	query := `SELECT ` + ticketColumns + ` FROM support_tickets` + where +
		fmt.Sprintf(" ORDER BY last_message_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]support.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *SupportRepo) CountByStatus(ctx context.Context) (map[support.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, count(*) FROM support_tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[support.Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[support.Status(st)] = n
	}
	return out, rows.Err()
}

func (r *SupportRepo) AddMessage(ctx context.Context, m support.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO support_messages (id, ticket_id, direction, sender, body, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, m.ID, m.TicketID, string(m.Direction), m.From, m.Body, m.CreatedAt)
	return err
}

func (r *SupportRepo) ListMessages(ctx context.Context, ticketID string) ([]support.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ticket_id, direction, sender, body, created_at
		FROM support_messages
		WHERE ticket_id::text = $1
		ORDER BY created_at ASC
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]support.Message, 0)
	for rows.Next() {
		var m support.Message
		var dir string
		if err := rows.Scan(&m.ID, &m.TicketID, &dir, &m.From, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Direction = support.Direction(dir)
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanTicket(row rowScanner) (support.Ticket, error) {
	var t support.Ticket
	var status string
	if err := row.Scan(
		&t.ID,
		&t.Reference,
		&t.Name,
		&t.Email,
		&t.Subject,
		&status,
		&t.RegistrationID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.LastMessageAt,
	); err != nil {
		return support.Ticket{}, err
	}
	t.Status = support.Status(status)
	return t, nil
}
