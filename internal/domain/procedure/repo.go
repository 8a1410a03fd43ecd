package procedure

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("procedure not found")
	ErrAlreadyRecorded  = errors.New("procedure has already been recorded for this registration")
	ErrNotCollected     = errors.New("blood has not been collected for this registration")
	ErrAlreadyQualified = errors.New("unit has already been qualified")
	ErrWrongStage       = errors.New("registration is not at the required stage")
)

type Repository interface {
	CreateHealth(ctx context.Context, p *HealthProcedure) error
	GetHealthByRegistration(ctx context.Context, registrationID uuid.UUID) (*HealthProcedure, error)
	CreateCollection(ctx context.Context, p *BloodProcedure) error
	GetBloodByRegistration(ctx context.Context, registrationID uuid.UUID) (*BloodProcedure, error)
	// SaveQualification stores the lab result on an unqualified procedure
	// and returns ErrAlreadyQualified otherwise.
	SaveQualification(ctx context.Context, p *BloodProcedure) error
}
