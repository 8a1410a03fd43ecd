package volunteer

import (
	"context"

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

const volunteerSelect = `SELECT v.id, v.member_id, COALESCE(a.full_name, ''), v.facility_id,
	v.blood_type_id, v.component_id, v.available_from, v.available_to, v.status,
	v.phone, v.email, v.note, v.created_at
	FROM volunteer v LEFT JOIN account a ON a.id = v.member_id`

func (r *repoPG) Create(ctx context.Context, v *Volunteer) error {
	v.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO volunteer (
			id, member_id, facility_id, blood_type_id, component_id,
			available_from, available_to, status, phone, email, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`,
		v.ID, v.MemberID, v.FacilityID, v.BloodTypeID, v.ComponentID,
		v.AvailableFrom, v.AvailableTo, v.Status, v.Phone, v.Email, v.Note,
	).Scan(&v.CreatedAt)
	if err == nil {
		v.fill()
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Volunteer, error) {
	return scanVolunteer(r.conn(ctx).QueryRow(ctx, volunteerSelect+` WHERE v.id = $1`, id))
}

func (r *repoPG) ListByFacility(ctx context.Context, facilityID uuid.UUID) ([]*Volunteer, error) {
	return r.list(ctx, volunteerSelect+` WHERE v.facility_id = $1 ORDER BY v.created_at DESC`, facilityID)
}

func (r *repoPG) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*Volunteer, error) {
	return r.list(ctx, volunteerSelect+` WHERE v.member_id = $1 ORDER BY v.created_at DESC`, memberID)
}

func (r *repoPG) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Volunteer, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	return r.list(ctx, volunteerSelect+` WHERE v.id = ANY($1::uuid[]) ORDER BY v.created_at`, keys)
}

func (r *repoPG) ListActive(ctx context.Context, facilityID *uuid.UUID) ([]*Volunteer, error) {
	return r.list(ctx, volunteerSelect+`
		WHERE v.status = 'active' AND ($1::uuid IS NULL OR v.facility_id = $1)
		ORDER BY v.created_at`, facilityID)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE volunteer SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) list(ctx context.Context, query string, args ...any) ([]*Volunteer, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVolunteer(row pgx.Row) (*Volunteer, error) {
	var v Volunteer
	err := row.Scan(&v.ID, &v.MemberID, &v.MemberName, &v.FacilityID,
		&v.BloodTypeID, &v.ComponentID, &v.AvailableFrom, &v.AvailableTo, &v.Status,
		&v.Phone, &v.Email, &v.Note, &v.CreatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.fill()
	return &v, nil
}
