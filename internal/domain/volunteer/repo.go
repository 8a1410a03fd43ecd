package volunteer

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("volunteer not found")
	ErrNotOwner = errors.New("volunteer belongs to another member")
)

type Repository interface {
	Create(ctx context.Context, v *Volunteer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Volunteer, error)
	ListByFacility(ctx context.Context, facilityID uuid.UUID) ([]*Volunteer, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]*Volunteer, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Volunteer, error)
	// ListActive returns active volunteers, of one facility when facilityID
	// is set.
	ListActive(ctx context.Context, facilityID *uuid.UUID) ([]*Volunteer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
