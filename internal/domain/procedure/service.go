package procedure

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/domain/inventory"
	"github.com/bloodlink/bloodlink/internal/domain/registration"
	"github.com/bloodlink/bloodlink/internal/domain/screening"
)

// RegistrationStore is the part of the registration service the
// procedures drive.
type RegistrationStore interface {
	Get(ctx context.Context, id uuid.UUID) (*registration.Registration, error)
	Advance(ctx context.Context, id uuid.UUID, from []string, status, reason string) error
}

// UnitStore stores qualified units and announces inventory changes.
type UnitStore interface {
	Create(ctx context.Context, u *inventory.Unit) error
	Announce(ctx context.Context, typ string, payload any)
}

// BloodTypeRecorder backfills a donor's blood type from lab results.
type BloodTypeRecorder interface {
	RecordBloodType(ctx context.Context, accountID uuid.UUID, t bloodtype.BloodType) error
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo          Repository
	registrations RegistrationStore
	units         UnitStore
	bloodTypes    BloodTypeRecorder
	screening     *screening.Service
	tx            TxRunner
	logger        zerolog.Logger
	now           func() time.Time
}

type Deps struct {
	Repo          Repository
	Registrations RegistrationStore
	Units         UnitStore
	BloodTypes    BloodTypeRecorder
	Screening     *screening.Service
	Tx            TxRunner
	Logger        zerolog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		repo:          d.Repo,
		registrations: d.Registrations,
		units:         d.Units,
		bloodTypes:    d.BloodTypes,
		screening:     d.Screening,
		tx:            d.Tx,
		logger:        d.Logger,
		now:           time.Now,
	}
}

// RecordHealth stores a health check for a pending registration and
// approves or rejects the registration from the server's own evaluation.
func (s *Service) RecordHealth(ctx context.Context, registrationID, staffID uuid.UUID, req HealthRequest) (*HealthOutcome, error) {
	reg, err := s.registrations.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != registration.StatusPending {
		return nil, ErrWrongStage
	}
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	result, err := s.screening.Health(req.Vitals())
	if err != nil {
		return nil, err
	}
	if req.IsHealth != nil && *req.IsHealth != result.Qualified {
		s.logger.Warn().
			Str("registration_id", registrationID.String()).
			Bool("client", *req.IsHealth).
			Bool("server", result.Qualified).
			Msg("client health verdict differs from server evaluation")
	}

	p := &HealthProcedure{
		RegistrationID: registrationID,
		Systolic:       req.Systolic,
		Diastolic:      req.Diastolic,
		Temperature:    req.Temperature,
		Hb:             req.Hb,
		HBV:            req.HBV,
		Weight:         req.Weight,
		Height:         req.Height,
		IsHealth:       result.Qualified,
		Description:    describe(req.Description, result),
		PerformedBy:    &staffID,
	}
	status, reason := registration.StatusApproved, ""
	if !result.Qualified {
		status, reason = registration.StatusRejected, result.Summary()
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateHealth(ctx, p); err != nil {
			return err
		}
		return s.registrations.Advance(ctx, registrationID, []string{registration.StatusPending}, status, reason)
	})
	if err != nil {
		return nil, err
	}
	return &HealthOutcome{Procedure: p, Result: result, RegistrationStatus: status}, nil
}

// Collect records the drawn volume for an approved registration and
// completes it.
func (s *Service) Collect(ctx context.Context, registrationID, staffID uuid.UUID, req CollectRequest) (*BloodProcedure, error) {
	reg, err := s.registrations.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != registration.StatusApproved {
		return nil, ErrWrongStage
	}
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}

	p := &BloodProcedure{
		RegistrationID: registrationID,
		VolumeML:       req.Volume,
		CollectNote:    strings.TrimSpace(req.Note),
		CollectedBy:    &staffID,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateCollection(ctx, p); err != nil {
			return err
		}
		return s.registrations.Advance(ctx, registrationID, []string{registration.StatusApproved}, registration.StatusCompleted, "")
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Qualify stores the lab result of a collected unit. A qualified unit enters
// the inventory and the donor's blood type is recorded if it was unknown.
func (s *Service) Qualify(ctx context.Context, registrationID, staffID uuid.UUID, req QualifyRequest) (*QualifyOutcome, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	reg, err := s.registrations.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetBloodByRegistration(ctx, registrationID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotCollected
	}
	if err != nil {
		return nil, err
	}
	if p.Qualified() {
		return nil, ErrAlreadyQualified
	}

	component := req.Component()
	result, err := s.screening.Unit(req.UnitTest(p.VolumeML))
	if err != nil {
		return nil, err
	}
	if req.IsQualified != nil && *req.IsQualified != result.Qualified {
		s.logger.Warn().
			Str("registration_id", registrationID.String()).
			Bool("client", *req.IsQualified).
			Bool("server", result.Qualified).
			Msg("client qualification differs from server evaluation")
	}
	donorType, err := bloodtype.FromID(req.BloodTypeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	componentID := component.ID()
	p.Hematocrit = &req.Hematocrit
	p.HIV = &req.HIV
	p.HepatitisC = &req.HepatitisC
	p.Syphilis = &req.Syphilis
	p.IsQualified = &result.Qualified
	p.BloodTypeID = &req.BloodTypeID
	p.ComponentID = &componentID
	p.QualifyNote = describe(req.Note, result)
	p.QualifiedBy = &staffID
	p.QualifiedAt = &now

	var unit *inventory.Unit
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SaveQualification(ctx, p); err != nil {
			return err
		}
		if err := s.bloodTypes.RecordBloodType(ctx, reg.MemberID, donorType); err != nil {
			return err
		}
		if !result.Qualified {
			return nil
		}
		unit = inventory.NewUnit(p.ID, donorType, component, p.VolumeML, p.CollectedAt)
		return s.units.Create(ctx, unit)
	})
	if err != nil {
		return nil, err
	}
	if unit != nil {
		s.units.Announce(ctx, "unit.added", unit)
	}
	return &QualifyOutcome{Procedure: p, Result: result, Unit: unit}, nil
}

// Get returns the procedures recorded so far for a registration.
func (s *Service) Get(ctx context.Context, registrationID uuid.UUID) (*Record, error) {
	if _, err := s.registrations.Get(ctx, registrationID); err != nil {
		return nil, err
	}
	rec := &Record{}
	h, err := s.repo.GetHealthByRegistration(ctx, registrationID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	rec.Health = h
	b, err := s.repo.GetBloodByRegistration(ctx, registrationID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	rec.Blood = b
	return rec, nil
}

// describe appends the failed criteria to a staff note.
func describe(note string, r screening.Result) string {
	note = strings.TrimSpace(note)
	if r.Qualified {
		return note
	}
	if note == "" {
		return r.Summary()
	}
	return note + " (" + r.Summary() + ")"
}
