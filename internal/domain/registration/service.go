package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/account"
	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/domain/event"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
	"github.com/bloodlink/bloodlink/pkg/dates"
	"github.com/bloodlink/bloodlink/pkg/listops"
)

// EventStore is the part of the event service registrations depend on.
type EventStore interface {
	Get(ctx context.Context, id uuid.UUID) (*event.Event, error)
	ReserveSeat(ctx context.Context, id uuid.UUID) error
	ReleaseSeat(ctx context.Context, id uuid.UUID) error
}

type MemberLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Recorder counts registration attempts by outcome.
type Recorder interface {
	ObserveRegistration(outcome string)
}

// EventListSpec drives the per-event registrant table.
var EventListSpec = listops.Spec[*Registration]{
	SearchFields: []func(*Registration) string{
		func(r *Registration) string { return r.MemberName },
		func(r *Registration) string { return r.MemberEmail },
		func(r *Registration) string { return r.MemberPhone },
	},
	Filters: map[string]func(*Registration) string{
		"status":    func(r *Registration) string { return r.Status },
		"bloodType": func(r *Registration) string { return r.MemberBloodType.String() },
	},
	Sorters: map[string]listops.Less[*Registration]{
		"memberName": listops.ByString(func(r *Registration) string { return r.MemberName }),
		"status":     listops.ByString(func(r *Registration) string { return r.Status }),
		"createdAt":  listops.ByTime(func(r *Registration) time.Time { return r.CreatedAt }),
	},
}

// HistoryListSpec drives a member's own registration history.
var HistoryListSpec = listops.Spec[*Registration]{
	SearchFields: []func(*Registration) string{
		func(r *Registration) string { return r.EventTitle },
	},
	Filters: map[string]func(*Registration) string{
		"status": func(r *Registration) string { return r.Status },
	},
	Sorters: map[string]listops.Less[*Registration]{
		"eventTitle": listops.ByString(func(r *Registration) string { return r.EventTitle }),
		"eventDate":  listops.ByTime(func(r *Registration) time.Time { return r.EventDate.Time }),
		"createdAt":  listops.ByTime(func(r *Registration) time.Time { return r.CreatedAt }),
	},
}

type Service struct {
	repo     Repository
	events   EventStore
	members  MemberLookup
	tx       TxRunner
	recorder Recorder
	logger   zerolog.Logger
	today    func() dates.Date
}

func NewService(repo Repository, events EventStore, members MemberLookup, tx TxRunner, recorder Recorder, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		events:   events,
		members:  members,
		tx:       tx,
		recorder: recorder,
		logger:   logger,
		today:    dates.Today,
	}
}

// Create registers memberID for eventID. The seat is reserved and the row
// inserted in one transaction so a full event never gains a registration.
func (s *Service) Create(ctx context.Context, eventID, memberID uuid.UUID, req CreateRequest) (*Registration, error) {
	reg, err := s.create(ctx, eventID, memberID, req)
	s.observe(outcome(err))
	return reg, err
}

func (s *Service) create(ctx context.Context, eventID, memberID uuid.UUID, req CreateRequest) (*Registration, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.OpenForRegistration() {
		return nil, ErrEventClosed
	}
	if err := ValidateRequest(req, ev.EventDate, s.today()).Err(); err != nil {
		return nil, err
	}

	member, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if ev.IsUrgent {
		if err := checkUrgent(member, ev.RequiredType()); err != nil {
			return nil, err
		}
	}

	dup, err := s.repo.HasActive(ctx, eventID, memberID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicate
	}

	reg := &Registration{
		EventID:           eventID,
		MemberID:          memberID,
		Status:            StatusPending,
		LastDonationDate:  req.LastDonationDate,
		Note:              strings.TrimSpace(req.Note),
		MemberName:        member.FullName,
		MemberEmail:       member.Email,
		MemberPhone:       member.Phone,
		MemberBloodTypeID: member.BloodTypeID,
		EventTitle:        ev.Title,
		EventDate:         ev.EventDate,
	}
	reg.fillBloodType()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.events.ReserveSeat(ctx, eventID); err != nil {
			return err
		}
		return s.repo.Create(ctx, reg)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("registration_id", reg.ID.String()).Str("event_id", eventID.String()).Msg("registration created")
	return reg, nil
}

// checkUrgent applies the urgent-event identity rule. A typed request needs
// a member whose blood type is known.
func checkUrgent(member *account.Account, required *bloodtype.BloodType) error {
	if required == nil {
		return nil
	}
	donor, ok := member.KnownBloodType()
	if !ok {
		return ErrBloodTypeUnknown
	}
	if !bloodtype.IsCompatibleWithRequest(donor, required) {
		return ErrIncompatible
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID, q listops.Query) (listops.Page[*Registration], error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return listops.Page[*Registration]{}, err
	}
	all, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return listops.Page[*Registration]{}, err
	}
	return listops.Apply(all, q, EventListSpec), nil
}

// ExportByEvent returns every registrant matching q, unpaginated.
func (s *Service) ExportByEvent(ctx context.Context, eventID uuid.UUID, q listops.Query) ([]*Registration, error) {
	all, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return listops.Process(all, q, EventListSpec), nil
}

func (s *Service) History(ctx context.Context, memberID uuid.UUID, q listops.Query) (listops.Page[*Registration], error) {
	all, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return listops.Page[*Registration]{}, err
	}
	return listops.Apply(all, q, HistoryListSpec), nil
}

// Reject turns down a pending or approved registration and frees its seat.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, req RejectRequest) (*Registration, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, validation.Errors{"reason": "reason is required"}
	}
	return s.release(ctx, id, []string{StatusPending, StatusApproved}, StatusRejected, reason)
}

// Cancel withdraws a member's own pending registration.
func (s *Service) Cancel(ctx context.Context, id, memberID uuid.UUID) (*Registration, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.MemberID != memberID {
		return nil, ErrNotOwner
	}
	return s.release(ctx, id, []string{StatusPending}, StatusCancelled, "")
}

func (s *Service) release(ctx context.Context, id uuid.UUID, from []string, status, reason string) (*Registration, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Transition(ctx, id, from, status, reason); err != nil {
			return err
		}
		return s.events.ReleaseSeat(ctx, reg.EventID)
	})
	if err != nil {
		return nil, err
	}
	reg.Status = status
	reg.RejectReason = reason
	return reg, nil
}

// Advance moves a registration through the screening workflow without
// touching the event's seat count.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, from []string, status, reason string) error {
	return s.repo.Transition(ctx, id, from, status, reason)
}

func (s *Service) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveRegistration(outcome)
	}
}

func outcome(err error) string {
	var ve validation.Errors
	switch {
	case err == nil:
		return "created"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, event.ErrFull):
		return "full"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrIncompatible), errors.Is(err, ErrBloodTypeUnknown):
		return "incompatible"
	case errors.Is(err, ErrEventClosed), errors.Is(err, event.ErrNotFound):
		return "closed"
	}
	return "error"
}

var exportHeaders = []string{"Member", "Email", "Phone", "Blood type", "Status", "Last donation", "Registered"}

func exportRow(r *Registration) []string {
	return []string{
		r.MemberName, r.MemberEmail, r.MemberPhone, r.MemberBloodType.String(),
		r.Status, r.LastDonationDate.String(), r.CreatedAt.Format(time.RFC3339),
	}
}
