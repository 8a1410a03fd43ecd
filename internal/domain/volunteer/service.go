package volunteer

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/websocket"
	"github.com/bloodlink/bloodlink/pkg/dates"
	"github.com/bloodlink/bloodlink/pkg/listops"
)

// ListSpec drives the staff volunteer table.
var ListSpec = listops.Spec[*Volunteer]{
	SearchFields: []func(*Volunteer) string{
		func(v *Volunteer) string { return v.MemberName },
		func(v *Volunteer) string { return v.Phone },
		func(v *Volunteer) string { return v.Email },
		func(v *Volunteer) string { return v.Note },
	},
	Filters: map[string]func(*Volunteer) string{
		"bloodTypeId": func(v *Volunteer) string { return strconv.Itoa(v.BloodTypeID) },
		"componentId": func(v *Volunteer) string { return strconv.Itoa(v.ComponentID) },
		"status":      func(v *Volunteer) string { return v.Status },
	},
	Sorters: map[string]listops.Less[*Volunteer]{
		"memberName":    listops.ByString(func(v *Volunteer) string { return v.MemberName }),
		"availableFrom": listops.ByTime(func(v *Volunteer) time.Time { return v.AvailableFrom.Time }),
		"availableTo":   listops.ByTime(func(v *Volunteer) time.Time { return v.AvailableTo.Time }),
		"createdAt":     listops.ByTime(func(v *Volunteer) time.Time { return v.CreatedAt }),
	},
}

type Service struct {
	repo      Repository
	publisher websocket.EventPublisher
	logger    zerolog.Logger
	today     func() dates.Date
}

func NewService(repo Repository, publisher websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger, today: dates.Today}
}

// Register records a member's availability.
func (s *Service) Register(ctx context.Context, memberID uuid.UUID, req CreateRequest) (*Volunteer, error) {
	if err := ValidateRequest(req, s.today()).Err(); err != nil {
		return nil, err
	}
	v := &Volunteer{
		MemberID:      memberID,
		FacilityID:    req.FacilityID,
		BloodTypeID:   req.ResolvedBloodTypeID(),
		ComponentID:   req.ResolvedComponentID(),
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		Status:        StatusActive,
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Note:          strings.TrimSpace(req.Note),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) ListByFacility(ctx context.Context, facilityID uuid.UUID, q listops.Query) (listops.Page[*Volunteer], error) {
	all, err := s.repo.ListByFacility(ctx, facilityID)
	if err != nil {
		return listops.Page[*Volunteer]{}, err
	}
	return listops.Apply(all, q, ListSpec), nil
}

func (s *Service) Mine(ctx context.Context, memberID uuid.UUID) ([]*Volunteer, error) {
	return s.repo.ListByMember(ctx, memberID)
}

// Withdraw deactivates an offer. Members may only withdraw their own.
func (s *Service) Withdraw(ctx context.Context, id, memberID uuid.UUID, staff bool) (*Volunteer, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && v.MemberID != memberID {
		return nil, ErrNotOwner
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusInactive); err != nil {
		return nil, err
	}
	v.Status = StatusInactive
	return v, nil
}

// FindDonors returns the active volunteers available today whose blood can
// be given to the requested type and component, and calls each of them up.
func (s *Service) FindDonors(ctx context.Context, req FindDonorsRequest) ([]*Volunteer, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	recipient, _ := bloodtype.FromID(req.BloodTypeID)
	component, _ := bloodtype.ComponentFromID(req.BloodComponentID)

	var candidates []*Volunteer
	var err error
	if len(req.VolunteerIDs) > 0 {
		candidates, err = s.repo.ListByIDs(ctx, req.VolunteerIDs)
	} else {
		candidates, err = s.repo.ListActive(ctx, req.FacilityID)
	}
	if err != nil {
		return nil, err
	}

	today := s.today()
	matches := make([]*Volunteer, 0, len(candidates))
	for _, v := range candidates {
		if v.Status != StatusActive || !v.AvailableOn(today) {
			continue
		}
		if !bloodtype.CanDonate(v.BloodType, recipient, component) {
			continue
		}
		matches = append(matches, v)
	}

	for _, v := range matches {
		s.callUp(ctx, v, CallUp{VolunteerID: v.ID, BloodType: recipient, Component: component})
	}
	s.logger.Info().
		Str("blood_type", recipient.String()).
		Str("component", string(component)).
		Int("candidates", len(candidates)).
		Int("matches", len(matches)).
		Msg("donor search")
	return matches, nil
}

// callUp notifies one volunteer. Delivery is best effort.
func (s *Service) callUp(ctx context.Context, v *Volunteer, msg CallUp) {
	if s.publisher == nil {
		return
	}
	evt, err := websocket.NewEvent(websocket.MemberTopic(v.MemberID), "donor.requested", "volunteer", v.ID.String(), msg)
	if err == nil {
		err = s.publisher.Publish(ctx, evt)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("volunteer_id", v.ID.String()).Msg("failed to notify volunteer")
	}
}
