package procedure

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

const healthColumns = `id, registration_id, systolic, diastolic, temperature, hb, hbv,
	weight, height, is_health, description, performed_by, created_at`

const bloodColumns = `id, registration_id, volume_ml, collect_note, collected_by, collected_at,
	hematocrit, hiv, hepatitis_c, syphilis, is_qualified, blood_type_id, component_id,
	qualify_note, qualified_by, qualified_at`

func (r *repoPG) CreateHealth(ctx context.Context, p *HealthProcedure) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_procedure (
			id, registration_id, systolic, diastolic, temperature, hb, hbv,
			weight, height, is_health, description, performed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		p.ID, p.RegistrationID, p.Systolic, p.Diastolic, p.Temperature, p.Hb, p.HBV,
		p.Weight, p.Height, p.IsHealth, p.Description, p.PerformedBy,
	).Scan(&p.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrAlreadyRecorded
	}
	return err
}

func (r *repoPG) GetHealthByRegistration(ctx context.Context, registrationID uuid.UUID) (*HealthProcedure, error) {
	var p HealthProcedure
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+healthColumns+` FROM health_procedure WHERE registration_id = $1`, registrationID,
	).Scan(
		&p.ID, &p.RegistrationID, &p.Systolic, &p.Diastolic, &p.Temperature, &p.Hb, &p.HBV,
		&p.Weight, &p.Height, &p.IsHealth, &p.Description, &p.PerformedBy, &p.CreatedAt,
	)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) CreateCollection(ctx context.Context, p *BloodProcedure) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO blood_procedure (id, registration_id, volume_ml, collect_note, collected_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING collected_at`,
		p.ID, p.RegistrationID, p.VolumeML, p.CollectNote, p.CollectedBy,
	).Scan(&p.CollectedAt)
	if db.IsUniqueViolation(err) {
		return ErrAlreadyRecorded
	}
	return err
}

func (r *repoPG) GetBloodByRegistration(ctx context.Context, registrationID uuid.UUID) (*BloodProcedure, error) {
	return scanBlood(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bloodColumns+` FROM blood_procedure WHERE registration_id = $1`, registrationID))
}

func (r *repoPG) SaveQualification(ctx context.Context, p *BloodProcedure) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE blood_procedure SET
			hematocrit = $2, hiv = $3, hepatitis_c = $4, syphilis = $5,
			is_qualified = $6, blood_type_id = $7, component_id = $8,
			qualify_note = $9, qualified_by = $10, qualified_at = $11
		WHERE id = $1 AND is_qualified IS NULL`,
		p.ID, p.Hematocrit, p.HIV, p.HepatitisC, p.Syphilis,
		p.IsQualified, p.BloodTypeID, p.ComponentID,
		p.QualifyNote, p.QualifiedBy, p.QualifiedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyQualified
	}
	return nil
}

func scanBlood(row pgx.Row) (*BloodProcedure, error) {
	var p BloodProcedure
	err := row.Scan(
		&p.ID, &p.RegistrationID, &p.VolumeML, &p.CollectNote, &p.CollectedBy, &p.CollectedAt,
		&p.Hematocrit, &p.HIV, &p.HepatitisC, &p.Syphilis, &p.IsQualified, &p.BloodTypeID, &p.ComponentID,
		&p.QualifyNote, &p.QualifiedBy, &p.QualifiedAt,
	)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
