package report

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) AccountsByRole(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, `SELECT role, COUNT(*) FROM account GROUP BY role`)
}

func (r *repoPG) EventsByStatus(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, `SELECT status, COUNT(*) FROM donation_event GROUP BY status`)
}

func (r *repoPG) RegistrationsByStatus(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, `SELECT status, COUNT(*) FROM blood_registration GROUP BY status`)
}

func (r *repoPG) countBy(ctx context.Context, query string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

func (r *repoPG) Stock(ctx context.Context, now time.Time) ([]StockRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT blood_type_id, component_id, COUNT(*), COALESCE(SUM(volume_ml), 0)
		FROM blood_unit
		WHERE status = 'available' AND expires_at > $1
		GROUP BY blood_type_id, component_id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockRow
	for rows.Next() {
		var s StockRow
		if err := rows.Scan(&s.BloodTypeID, &s.ComponentID, &s.Units, &s.VolumeML); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
