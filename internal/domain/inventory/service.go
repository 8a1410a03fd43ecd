package inventory

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/platform/websocket"
	"github.com/bloodlink/bloodlink/pkg/listops"
)

// ListSpec drives the inventory table.
var ListSpec = listops.Spec[*Unit]{
	SearchFields: []func(*Unit) string{
		func(u *Unit) string { return u.BloodType.String() },
		func(u *Unit) string { return string(u.Component) },
	},
	Filters: map[string]func(*Unit) string{
		"bloodTypeId": func(u *Unit) string { return strconv.Itoa(u.BloodTypeID) },
		"componentId": func(u *Unit) string { return strconv.Itoa(u.ComponentID) },
		"status":      func(u *Unit) string { return u.Status },
	},
	Sorters: map[string]listops.Less[*Unit]{
		"expiresAt":   listops.ByTime(func(u *Unit) time.Time { return u.ExpiresAt }),
		"collectedAt": listops.ByTime(func(u *Unit) time.Time { return u.CollectedAt }),
		"volume":      listops.ByInt(func(u *Unit) int { return u.VolumeML }),
		"bloodTypeId": listops.ByInt(func(u *Unit) int { return u.BloodTypeID }),
	},
}

type Service struct {
	repo      Repository
	publisher websocket.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// Create stores a new unit. Callers publish the inventory change once
// their transaction has committed.
func (s *Service) Create(ctx context.Context, u *Unit) error {
	return s.repo.Create(ctx, u)
}

func (s *Service) List(ctx context.Context, q listops.Query) (listops.Page[*Unit], error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return listops.Page[*Unit]{}, err
	}
	return listops.Apply(all, q, ListSpec), nil
}

func (s *Service) Export(ctx context.Context, q listops.Query) ([]*Unit, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return listops.Process(all, q, ListSpec), nil
}

// UpdateStatus applies a reserve, release, use or discard action.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req StatusRequest) (*Unit, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Expired(s.now()) {
		return nil, ErrInvalidTransition
	}
	tr := transitions[req.Action]
	if err := s.repo.Transition(ctx, id, tr.from, tr.to); err != nil {
		return nil, err
	}
	u.Status = tr.to
	s.Announce(ctx, "unit."+req.Action, u)
	return u, nil
}

// Expire marks every unit past its expiry as expired.
func (s *Service) Expire(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("units", n).Msg("blood units expired")
		s.Announce(ctx, "units.expired", map[string]int64{"expired": n})
	}
	return n, nil
}

// Announce publishes an inventory change. Delivery is best effort.
func (s *Service) Announce(ctx context.Context, typ string, payload any) {
	if s.publisher == nil {
		return
	}
	resourceID := ""
	if u, ok := payload.(*Unit); ok {
		resourceID = u.ID.String()
	}
	evt, err := websocket.NewEvent(websocket.TopicInventory, typ, "blood_unit", resourceID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, evt)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("type", typ).Msg("failed to publish inventory update")
	}
}

var exportHeaders = []string{"Unit", "Blood type", "Component", "Volume (ml)", "Status", "Collected", "Expires"}

func exportRow(u *Unit) []string {
	return []string{
		u.ID.String(), u.BloodType.String(), string(u.Component), strconv.Itoa(u.VolumeML),
		u.Status, u.CollectedAt.Format(time.RFC3339), u.ExpiresAt.Format(time.RFC3339),
	}
}
