package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDisabled           = errors.New("account is disabled")
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	UpdateProfile(ctx context.Context, a *Account) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// SetBloodTypeIfUnknown records the blood type only when none is
	// stored yet and reports whether the row changed.
	SetBloodTypeIfUnknown(ctx context.Context, id uuid.UUID, bloodTypeID int) (bool, error)
}
