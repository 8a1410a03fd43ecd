package event

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/platform/websocket"
	"github.com/bloodlink/bloodlink/pkg/dates"
	"github.com/bloodlink/bloodlink/pkg/listops"
)

// ListSpec drives the public event table.
var ListSpec = listops.Spec[*Event]{
	SearchFields: []func(*Event) string{
		func(e *Event) string { return e.Title },
		func(e *Event) string { return e.Location },
	},
	Filters: map[string]func(*Event) string{
		"status":   func(e *Event) string { return e.Status },
		"isUrgent": func(e *Event) string { return strconv.FormatBool(e.IsUrgent) },
	},
	Sorters: map[string]listops.Less[*Event]{
		"title":     listops.ByString(func(e *Event) string { return e.Title }),
		"eventDate": listops.ByTime(func(e *Event) time.Time { return e.EventDate.Time }),
		"seatsLeft": listops.ByInt(func(e *Event) int { return e.SeatsLeft() }),
		"createdAt": listops.ByTime(func(e *Event) time.Time { return e.CreatedAt }),
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

func (s *Service) Create(ctx context.Context, req Request, createdBy uuid.UUID) (*Event, error) {
	if err := req.Validate(true, s.today()).Err(); err != nil {
		return nil, err
	}
	e := &Event{CreatedBy: &createdBy, Status: StatusUpcoming}
	apply(e, req)
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	if e.IsUrgent {
		s.publishUrgent(ctx, e)
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, q listops.Query) (listops.Page[*Event], error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return listops.Page[*Event]{}, err
	}
	return listops.Apply(all, q, ListSpec), nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req Request) (*Event, error) {
	if err := req.Validate(false, s.today()).Err(); err != nil {
		return nil, err
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.MaxDonors < e.RegisteredCount {
		return nil, ErrBelowRegistered
	}
	wasUrgent := e.IsUrgent
	apply(e, req)
	if req.Status != "" {
		e.Status = req.Status
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	if e.IsUrgent && !wasUrgent {
		s.publishUrgent(ctx, e)
	}
	return e, nil
}

// Cancel closes an event to new registrations.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.OpenForRegistration() {
		return nil, ErrClosed
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	e.Status = StatusCancelled
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ReserveSeat(ctx context.Context, id uuid.UUID) error {
	return s.repo.ReserveSeat(ctx, id)
}

func (s *Service) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	return s.repo.ReleaseSeat(ctx, id)
}

func apply(e *Event, req Request) {
	e.Title = strings.TrimSpace(req.Title)
	e.Description = req.Description
	e.Location = req.Location
	e.FacilityID = req.FacilityID
	e.EventDate = req.EventDate
	e.StartTime = req.StartTime
	e.EndTime = req.EndTime
	e.MaxDonors = req.MaxDonors
	e.IsUrgent = req.IsUrgent
	e.RequiredBloodTypeID = req.RequiredBloodTypeID
	e.RequiredComponentID = req.RequiredComponentID
	e.fillBloodType()
}

// publishUrgent announces an urgent event. Delivery is best effort.
func (s *Service) publishUrgent(ctx context.Context, e *Event) {
	if s.publisher == nil {
		return
	}
	evt, err := websocket.NewEvent(websocket.TopicUrgentEvents, "event.urgent", "event", e.ID.String(), e)
	if err == nil {
		err = s.publisher.Publish(ctx, evt)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("event_id", e.ID.String()).Msg("failed to publish urgent event")
	}
}
