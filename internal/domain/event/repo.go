package event

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("event not found")
	ErrFull             = errors.New("event has no seats left")
	ErrHasRegistrations = errors.New("event has registrations and cannot be deleted")
	ErrBelowRegistered  = errors.New("maxDonors cannot be lower than the number of registered donors")
	ErrClosed           = errors.New("event is already completed or cancelled")
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, e *Event) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// Delete removes an event that has never had a registration.
	Delete(ctx context.Context, id uuid.UUID) error
	// ReserveSeat increments registered_count when a seat is left and
	// returns ErrFull otherwise.
	ReserveSeat(ctx context.Context, id uuid.UUID) error
	ReleaseSeat(ctx context.Context, id uuid.UUID) error
}
