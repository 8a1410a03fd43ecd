package registration

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("registration not found")
	ErrDuplicate         = errors.New("you have already registered for this event")
	ErrEventClosed       = errors.New("event is not open for registration")
	ErrIncompatible      = errors.New("your blood type does not match the urgent request")
	ErrBloodTypeUnknown  = errors.New("your blood type is not on record yet")
	ErrInvalidTransition = errors.New("registration cannot change to the requested status")
	ErrNotOwner          = errors.New("registration belongs to another member")
)

type Repository interface {
	Create(ctx context.Context, r *Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Registration, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]*Registration, error)
	HasActive(ctx context.Context, eventID, memberID uuid.UUID) (bool, error)
	// Transition moves a registration from one of from to status and
	// returns ErrInvalidTransition when its current status is not in from.
	Transition(ctx context.Context, id uuid.UUID, from []string, status, reason string) error
}
