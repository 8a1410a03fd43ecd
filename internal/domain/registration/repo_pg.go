package registration

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

const registrationSelect = `
	SELECT r.id, r.event_id, r.member_id, r.status, r.last_donation_date, r.note,
		r.reject_reason, r.created_at, r.updated_at,
		a.full_name, a.email, a.phone, a.blood_type_id,
		e.title, e.event_date
	FROM blood_registration r
	JOIN account a ON a.id = r.member_id
	JOIN donation_event e ON e.id = r.event_id`

func (r *repoPG) Create(ctx context.Context, reg *Registration) error {
	reg.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO blood_registration (id, event_id, member_id, status, last_donation_date, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		reg.ID, reg.EventID, reg.MemberID, reg.Status, reg.LastDonationDate, reg.Note,
	).Scan(&reg.CreatedAt, &reg.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return scanRegistration(r.conn(ctx).QueryRow(ctx, registrationSelect+` WHERE r.id = $1`, id))
}

func (r *repoPG) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Registration, error) {
	return r.list(ctx, registrationSelect+` WHERE r.event_id = $1 ORDER BY r.created_at`, eventID)
}

func (r *repoPG) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*Registration, error) {
	return r.list(ctx, registrationSelect+` WHERE r.member_id = $1 ORDER BY e.event_date DESC`, memberID)
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Registration, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (r *repoPG) HasActive(ctx context.Context, eventID, memberID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blood_registration
			WHERE event_id = $1 AND member_id = $2 AND status <> 'cancelled'
		)`, eventID, memberID).Scan(&exists)
	return exists, err
}

func (r *repoPG) Transition(ctx context.Context, id uuid.UUID, from []string, status, reason string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE blood_registration
		SET status = $3, reject_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)`, id, from, status, reason)
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

func scanRegistration(row pgx.Row) (*Registration, error) {
	var reg Registration
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.MemberID, &reg.Status, &reg.LastDonationDate, &reg.Note,
		&reg.RejectReason, &reg.CreatedAt, &reg.UpdatedAt,
		&reg.MemberName, &reg.MemberEmail, &reg.MemberPhone, &reg.MemberBloodTypeID,
		&reg.EventTitle, &reg.EventDate,
	)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	reg.fillBloodType()
	return &reg, nil
}
