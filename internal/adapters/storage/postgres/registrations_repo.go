package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wcu-registry/internal/domain/registrations"
)

type RegistrationsRepo struct {
	db *sql.DB
}

func NewRegistrationsRepo(db *sql.DB) *RegistrationsRepo {
	return &RegistrationsRepo{db: db}
}

const registrationColumns = `
	id, wcu_number,
	owner_user_id, owner_name, owner_email, owner_phone,
	dog_name, breed, sex, color, birth_date, photo_url, bio,
	status, date_of_passing, tribute_message,
	certificate_key, certificate_url, certificate_issued_at,
	created_at, updated_at`

func (r *RegistrationsRepo) NextSequence(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT nextval('wcu_number_seq')`).Scan(&n)
	return n, err
}

func (r *RegistrationsRepo) Create(ctx context.Context, reg registrations.Registration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		reg.ID,
		reg.WCUNumber,
		reg.OwnerUserID,
		reg.OwnerName,
		reg.OwnerEmail,
		reg.OwnerPhone,
		reg.DogName,
		reg.Breed,
		string(reg.Sex),
		reg.Color,
		toNullDate(reg.BirthDate),
		reg.PhotoURL,
		reg.Bio,
		string(reg.Status),
		toNullDate(reg.DateOfPassing),
		reg.TributeMessage,
		reg.CertificateKey,
		reg.CertificateURL,
		toNullDate(reg.CertificateIssuedAt),
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	return err
}

func (r *RegistrationsRepo) Update(ctx context.Context, reg registrations.Registration) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE registrations
		SET
			owner_user_id = $2,
			owner_name = $3,
			owner_email = $4,
			owner_phone = $5,
			dog_name = $6,
			breed = $7,
			sex = $8,
			color = $9,
			birth_date = $10,
			photo_url = $11,
			bio = $12,
			status = $13,
			date_of_passing = $14,
			tribute_message = $15,
			certificate_key = $16,
			certificate_url = $17,
			certificate_issued_at = $18,
			updated_at = $19
		WHERE id = $1
	`,
		reg.ID,
		reg.OwnerUserID,
		reg.OwnerName,
		reg.OwnerEmail,
		reg.OwnerPhone,
		reg.DogName,
		reg.Breed,
		string(reg.Sex),
		reg.Color,
		toNullDate(reg.BirthDate),
		reg.PhotoURL,
		reg.Bio,
		string(reg.Status),
		toNullDate(reg.DateOfPassing),
		reg.TributeMessage,
		reg.CertificateKey,
		reg.CertificateURL,
		toNullDate(reg.CertificateIssuedAt),
		reg.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return registrations.ErrNotFound
	}
	return nil
}

func (r *RegistrationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return registrations.ErrNotFound
	}
	return nil
}

func (r *RegistrationsRepo) GetByID(ctx context.Context, id string) (registrations.Registration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return registrations.Registration{}, registrations.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id::text = $1`, id)
}

func (r *RegistrationsRepo) GetByWCU(ctx context.Context, wcu string) (registrations.Registration, error) {
	return r.getOne(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE wcu_number = $1`, wcu)
}

func (r *RegistrationsRepo) getOne(ctx context.Context, query string, arg any) (registrations.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return registrations.Registration{}, registrations.ErrNotFound
	}
	return reg, err
}

// ListByOwner: por user id o por email (registros hechos sin cuenta).
func (r *RegistrationsRepo) ListByOwner(ctx context.Context, ownerUserID, ownerEmail string) ([]registrations.Registration, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))
	if ownerUserID == "" && ownerEmail == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE ($1 <> '' AND owner_user_id = $1)
		   OR ($2 <> '' AND lower(owner_email) = $2)
		ORDER BY created_at ASC
	`, ownerUserID, ownerEmail)
	if err != nil {
		return nil, err
	}
	return collectRegistrations(rows)
}

func (r *RegistrationsRepo) Search(ctx context.Context, f registrations.SearchFilter) (registrations.Page, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []any{}
	argN := 1

	if len(f.Statuses) > 0 {
		placeholders := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(st))
			argN++
		}
		where.WriteString(" AND status IN (" + strings.Join(placeholders, ",") + ")")
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		cols := []string{"dog_name", "owner_name", "wcu_number"}
		if !f.Public {
			cols = append(cols, "owner_email")
		}
		conds := make([]string, 0, len(cols))
		for _, c := range cols {
			conds = append(conds, fmt.Sprintf("%s ILIKE $%d", c, argN))
		}
		where.WriteString(" AND (" + strings.Join(conds, " OR ") + ")")
		args = append(args, "%"+escapeLike(q)+"%")
		argN++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM registrations`+where.String(), args...).Scan(&total); err != nil {
		return registrations.Page{}, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)
	query := `SELECT ` + registrationColumns + ` FROM registrations` + where.String() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return registrations.Page{}, err
	}
	items, err := collectRegistrations(rows)
	if err != nil {
		return registrations.Page{}, err
	}
	return registrations.Page{Items: items, Total: total}, nil
}

func (r *RegistrationsRepo) CountByStatus(ctx context.Context) (map[registrations.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, count(*) FROM registrations GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[registrations.Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[registrations.Status(st)] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (registrations.Registration, error) {
	var reg registrations.Registration
	var sex, status string
	var birth, passing, issued sql.NullTime
	if err := row.Scan(
		&reg.ID,
		&reg.WCUNumber,
		&reg.OwnerUserID,
		&reg.OwnerName,
		&reg.OwnerEmail,
		&reg.OwnerPhone,
		&reg.DogName,
		&reg.Breed,
		&sex,
		&reg.Color,
		&birth,
		&reg.PhotoURL,
		&reg.Bio,
		&status,
		&passing,
		&reg.TributeMessage,
		&reg.CertificateKey,
		&reg.CertificateURL,
		&issued,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		return registrations.Registration{}, err
	}
	reg.Sex = registrations.Sex(sex)
	reg.Status = registrations.Status(status)
	// DATE llega como medianoche UTC.
	reg.BirthDate = fromNullTime(birth)
	reg.DateOfPassing = fromNullTime(passing)
	reg.CertificateIssuedAt = fromNullTime(issued)
	return reg, nil
}

func collectRegistrations(rows *sql.Rows) ([]registrations.Registration, error) {
	defer rows.Close()
	out := make([]registrations.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
