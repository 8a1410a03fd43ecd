package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("blood unit not found")
	ErrInvalidTransition = errors.New("blood unit cannot change to the requested status")
)

type Repository interface {
	Create(ctx context.Context, u *Unit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	List(ctx context.Context) ([]*Unit, error)
	Transition(ctx context.Context, id uuid.UUID, from []string, status string) error
	// ExpireBefore marks available and reserved units expiring at or
	// before now as expired and returns how many changed.
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}
