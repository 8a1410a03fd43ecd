package report

import (
	"context"
	"time"
)

// Repository runs the aggregate queries behind the reports.
type Repository interface {
	AccountsByRole(ctx context.Context) (map[string]int, error)
	EventsByStatus(ctx context.Context) (map[string]int, error)
	RegistrationsByStatus(ctx context.Context) (map[string]int, error)
	// Stock counts available units that have not expired at now.
	Stock(ctx context.Context, now time.Time) ([]StockRow, error)
}
