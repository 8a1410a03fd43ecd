package event

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

const eventColumns = `id, title, description, location, facility_id, event_date,
	start_time, end_time, max_donors, registered_count, status, is_urgent,
	required_blood_type_id, required_component_id, created_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, e *Event) error {
	e.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO donation_event (
			id, title, description, location, facility_id, event_date,
			start_time, end_time, max_donors, status, is_urgent,
			required_blood_type_id, required_component_id, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING registered_count, created_at, updated_at`,
		e.ID, e.Title, e.Description, e.Location, e.FacilityID, e.EventDate,
		e.StartTime, e.EndTime, e.MaxDonors, e.Status, e.IsUrgent,
		e.RequiredBloodTypeID, e.RequiredComponentID, e.CreatedBy,
	).Scan(&e.RegisteredCount, &e.CreatedAt, &e.UpdatedAt)
	if err == nil {
		e.fillBloodType()
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return scanEvent(r.conn(ctx).QueryRow(ctx, `SELECT `+eventColumns+` FROM donation_event WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+eventColumns+` FROM donation_event ORDER BY event_date DESC, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, e *Event) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE donation_event SET
			title = $2, description = $3, location = $4, facility_id = $5,
			event_date = $6, start_time = $7, end_time = $8, max_donors = $9,
			status = $10, is_urgent = $11, required_blood_type_id = $12,
			required_component_id = $13, updated_at = NOW()
		WHERE id = $1 AND registered_count <= $9`,
		e.ID, e.Title, e.Description, e.Location, e.FacilityID,
		e.EventDate, e.StartTime, e.EndTime, e.MaxDonors,
		e.Status, e.IsUrgent, e.RequiredBloodTypeID, e.RequiredComponentID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// Either the event is gone or a registration landed after the caller
	// read registered_count.
	if _, err := r.GetByID(ctx, e.ID); err != nil {
		return err
	}
	return ErrBelowRegistered
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE donation_event SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM donation_event
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM blood_registration WHERE event_id = $1)`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrHasRegistrations
}

func (r *repoPG) ReserveSeat(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE donation_event SET registered_count = registered_count + 1, updated_at = NOW()
		WHERE id = $1 AND registered_count < max_donors`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFull
	}
	return nil
}

func (r *repoPG) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE donation_event SET registered_count = registered_count - 1, updated_at = NOW()
		WHERE id = $1 AND registered_count > 0`, id)
	return err
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.FacilityID, &e.EventDate,
		&e.StartTime, &e.EndTime, &e.MaxDonors, &e.RegisteredCount, &e.Status, &e.IsUrgent,
		&e.RequiredBloodTypeID, &e.RequiredComponentID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.fillBloodType()
	return &e, nil
}
