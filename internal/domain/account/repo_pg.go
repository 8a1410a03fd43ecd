package account

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bloodlink/bloodlink/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const accountColumns = `id, email, password_hash, full_name, phone, role, status,
	blood_type_id, gender, date_of_birth, address, facility_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO account (
			id, email, password_hash, full_name, phone, role, status,
			blood_type_id, gender, date_of_birth, address, facility_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		a.ID, strings.ToLower(a.Email), a.PasswordHash, a.FullName, a.Phone, a.Role, a.Status,
		a.BloodTypeID, a.Gender, a.DateOfBirth, a.Address, a.FacilityID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err == nil {
		a.Email = strings.ToLower(a.Email)
		a.fillBloodType()
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM account WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM account WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

func (r *repoPG) List(ctx context.Context) ([]*Account, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+accountColumns+` FROM account ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) UpdateProfile(ctx context.Context, a *Account) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE account SET
			full_name = $2, phone = $3, gender = $4, date_of_birth = $5,
			address = $6, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.FullName, a.Phone, a.Gender, a.DateOfBirth, a.Address,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE account SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetBloodTypeIfUnknown(ctx context.Context, id uuid.UUID, bloodTypeID int) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE account SET blood_type_id = $2, updated_at = NOW()
		WHERE id = $1 AND blood_type_id IS NULL`, id, bloodTypeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Phone, &a.Role, &a.Status,
		&a.BloodTypeID, &a.Gender, &a.DateOfBirth, &a.Address, &a.FacilityID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.fillBloodType()
	return &a, nil
}
