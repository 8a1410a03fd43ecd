package inventory

import (
	"context"
	"time"

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

const unitColumns = `id, blood_procedure_id, blood_type_id, component_id, volume_ml,
	status, collected_at, expires_at, updated_at`

func (r *repoPG) Create(ctx context.Context, u *Unit) error {
	u.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO blood_unit (
			id, blood_procedure_id, blood_type_id, component_id, volume_ml,
			status, collected_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING updated_at`,
		u.ID, u.BloodProcedureID, u.BloodTypeID, u.ComponentID, u.VolumeML,
		u.Status, u.CollectedAt, u.ExpiresAt,
	).Scan(&u.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return scanUnit(r.conn(ctx).QueryRow(ctx, `SELECT `+unitColumns+` FROM blood_unit WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context) ([]*Unit, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+unitColumns+` FROM blood_unit ORDER BY expires_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repoPG) Transition(ctx context.Context, id uuid.UUID, from []string, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE blood_unit SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)`, id, from, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (r *repoPG) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE blood_unit SET status = 'expired', updated_at = NOW()
		WHERE status IN ('available', 'reserved') AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUnit(row pgx.Row) (*Unit, error) {
	var u Unit
	err := row.Scan(
		&u.ID, &u.BloodProcedureID, &u.BloodTypeID, &u.ComponentID, &u.VolumeML,
		&u.Status, &u.CollectedAt, &u.ExpiresAt, &u.UpdatedAt,
	)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.fill()
	return &u, nil
}
