package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"wcu-registry/internal/domain/updaterequests"
)

type UpdateRequestsRepo struct {
	db *sql.DB
}

func NewUpdateRequestsRepo(db *sql.DB) *UpdateRequestsRepo {
	return &UpdateRequestsRepo{db: db}
}

const updateRequestColumns = `
	id, registration_id, requester_user_id, requester_email,
	changes, status, admin_notes, reviewed_by,
	created_at, reviewed_at`

func (r *UpdateRequestsRepo) Create(ctx context.Context, u updaterequests.UpdateRequest) error {
	changes, err := json.Marshal(u.Changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO update_requests (`+updateRequestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		u.ID,
		u.RegistrationID,
		u.RequesterUserID,
		u.RequesterEmail,
		string(changes),
		string(u.Status),
		u.AdminNotes,
		u.ReviewedBy,
		u.CreatedAt,
		toNullDate(u.ReviewedAt),
	)
	if isUniqueViolation(err) {
		// update_requests_one_pending_idx
		return updaterequests.ErrConflict
	}
	return err
}

func (r *UpdateRequestsRepo) Update(ctx context.Context, u updaterequests.UpdateRequest) error {
	changes, err := json.Marshal(u.Changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE update_requests
		SET
			changes = $2,
			status = $3,
			admin_notes = $4,
			reviewed_by = $5,
			reviewed_at = $6
		WHERE id = $1
	`,
		u.ID,
		string(changes),
		string(u.Status),
		u.AdminNotes,
		u.ReviewedBy,
		toNullDate(u.ReviewedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return updaterequests.ErrNotFound
	}
	return nil
}

func (r *UpdateRequestsRepo) GetByID(ctx context.Context, id string) (updaterequests.UpdateRequest, error) {
	u, err := scanUpdateRequest(r.db.QueryRowContext(ctx,
		`SELECT `+updateRequestColumns+` FROM update_requests WHERE id::text = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return updaterequests.UpdateRequest{}, updaterequests.ErrNotFound
	}
	return u, err
}

func (r *UpdateRequestsRepo) ListByRegistration(ctx context.Context, registrationID string) ([]updaterequests.UpdateRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+updateRequestColumns+`
		FROM update_requests
		WHERE registration_id::text = $1
		ORDER BY created_at DESC
	`, registrationID)
	if err != nil {
		return nil, err
	}
	return collectUpdateRequests(rows)
}

func (r *UpdateRequestsRepo) ListByRequester(ctx context.Context, userID, email string) ([]updaterequests.UpdateRequest, error) {
	if userID == "" && email == "" {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+updateRequestColumns+`
		FROM update_requests
		WHERE ($1 <> '' AND requester_user_id = $1)
		   OR ($2 <> '' AND requester_email = $2)
		ORDER BY created_at DESC
	`, userID, email)
	if err != nil {
		return nil, err
	}
	return collectUpdateRequests(rows)
}

func (r *UpdateRequestsRepo) List(ctx context.Context, f updaterequests.ListFilter) ([]updaterequests.UpdateRequest, int, error) {
	where := ""
	args := []any{}
	if f.Status != "" {
		where = " WHERE status = $1"
		args = append(args, string(f.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM update_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)
	n := len(args)
	query := `SELECT ` + updateRequestColumns + ` FROM update_requests` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectUpdateRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *UpdateRequestsRepo) CountByStatus(ctx context.Context) (map[updaterequests.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, count(*) FROM update_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[updaterequests.Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[updaterequests.Status(st)] = n
	}
	return out, rows.Err()
}

func scanUpdateRequest(row rowScanner) (updaterequests.UpdateRequest, error) {
	var u updaterequests.UpdateRequest
	var changes []byte
	var status string
	var reviewed sql.NullTime
	if err := row.Scan(
		&u.ID,
		&u.RegistrationID,
		&u.RequesterUserID,
		&u.RequesterEmail,
		&changes,
		&status,
		&u.AdminNotes,
		&u.ReviewedBy,
		&u.CreatedAt,
		&reviewed,
	); err != nil {
		return updaterequests.UpdateRequest{}, err
	}
	if err := json.Unmarshal(changes, &u.Changes); err != nil {
		return updaterequests.UpdateRequest{}, fmt.Errorf("decode changes of %s: %w", u.ID, err)
	}
	u.Status = updaterequests.Status(status)
	u.ReviewedAt = fromNullTime(reviewed)
	return u, nil
}

func collectUpdateRequests(rows *sql.Rows) ([]updaterequests.UpdateRequest, error) {
	defer rows.Close()
	out := make([]updaterequests.UpdateRequest, 0)
	for rows.Next() {
		u, err := scanUpdateRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
