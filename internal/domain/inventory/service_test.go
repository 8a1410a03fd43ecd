package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/websocket"
	"github.com/bloodlink/bloodlink/pkg/listops"
)

type mockRepo struct {
	units map[uuid.UUID]*Unit
}

func newMockRepo() *mockRepo {
	return &mockRepo{units: make(map[uuid.UUID]*Unit)}
}

func (m *mockRepo) Create(_ context.Context, u *Unit) error {
	u.ID = uuid.New()
	u.UpdatedAt = time.Now()
	m.units[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context) ([]*Unit, error) {
	out := make([]*Unit, 0, len(m.units))
	for _, u := range m.units {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepo) Transition(_ context.Context, id uuid.UUID, from []string, status string) error {
	u, ok := m.units[id]
	if !ok {
		return ErrNotFound
	}
	for _, f := range from {
		if u.Status == f {
			u.Status = status
			return nil
		}
	}
	return ErrInvalidTransition
}

func (m *mockRepo) ExpireBefore(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, u := range m.units {
		if (u.Status == StatusAvailable || u.Status == StatusReserved) && !u.ExpiresAt.After(now) {
			u.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	events []websocket.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt websocket.Event) error {
	p.events = append(p.events, evt)
	return nil
}

var now = time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockRepo, *recordingPublisher) {
	repo := newMockRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, pub, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc, repo, pub
}

func TestNewUnit_ShelfLife(t *testing.T) {
	tests := []struct {
		component bloodtype.Component
		days      int
	}{
		{bloodtype.WholeBlood, 35},
		{bloodtype.RedBloodCells, 42},
		{bloodtype.Plasma, 365},
		{bloodtype.Platelets, 5},
	}
	for _, tt := range tests {
		u := NewUnit(uuid.New(), bloodtype.ONeg, tt.component, 350, now)
		if got := u.ExpiresAt.Sub(now); got != time.Duration(tt.days)*24*time.Hour {
			t.Errorf("%s: expected %d days shelf life, got %v", tt.component, tt.days, got)
		}
		if u.Status != StatusAvailable || u.BloodTypeID != 8 || u.ComponentID != tt.component.ID() {
			t.Errorf("%s: unexpected unit %+v", tt.component, u)
		}
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	svc, repo, pub := newTestService()
	ctx := context.Background()
	u := NewUnit(uuid.New(), bloodtype.APos, bloodtype.Plasma, 250, now)
	repo.Create(ctx, u)

	if _, err := svc.UpdateStatus(ctx, u.ID, StatusRequest{Action: "sell"}); err == nil {
		t.Error("expected validation error for unknown action")
	}
	got, err := svc.UpdateStatus(ctx, u.ID, StatusRequest{Action: ActionReserve})
	if err != nil || got.Status != StatusReserved {
		t.Fatalf("reserve: %v %+v", err, got)
	}
	if _, err := svc.UpdateStatus(ctx, u.ID, StatusRequest{Action: ActionReserve}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition reserving twice, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, u.ID, StatusRequest{Action: ActionUse}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(ctx, u.ID, StatusRequest{Action: ActionDiscard}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("used units are final, got %v", err)
	}
	if len(pub.events) != 2 || pub.events[0].Topic != websocket.TopicInventory {
		t.Errorf("expected two inventory notifications, got %+v", pub.events)
	}
}

func TestUpdateStatus_ExpiredUnit(t *testing.T) {
	svc, repo, _ := newTestService()
	u := NewUnit(uuid.New(), bloodtype.APos, bloodtype.Platelets, 250, now.Add(-6*24*time.Hour))
	repo.Create(context.Background(), u)

	if _, err := svc.UpdateStatus(context.Background(), u.ID, StatusRequest{Action: ActionReserve}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected expired unit to be rejected, got %v", err)
	}
}

func TestExpire(t *testing.T) {
	svc, repo, pub := newTestService()
	ctx := context.Background()
	old := NewUnit(uuid.New(), bloodtype.BPos, bloodtype.Platelets, 200, now.Add(-10*24*time.Hour))
	fresh := NewUnit(uuid.New(), bloodtype.BPos, bloodtype.Platelets, 200, now)
	used := NewUnit(uuid.New(), bloodtype.BPos, bloodtype.Platelets, 200, now.Add(-10*24*time.Hour))
	used.Status = StatusUsed
	for _, u := range []*Unit{old, fresh, used} {
		repo.Create(ctx, u)
	}

	n, err := svc.Expire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || old.Status != StatusExpired || fresh.Status != StatusAvailable || used.Status != StatusUsed {
		t.Errorf("expected only the old available unit to expire, n=%d", n)
	}
	if len(pub.events) != 1 {
		t.Errorf("expected one notification, got %d", len(pub.events))
	}

	n, _ = svc.Expire(ctx)
	if n != 0 || len(pub.events) != 1 {
		t.Error("second run must be a no-op")
	}
}

func TestList_Filters(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	repo.Create(ctx, NewUnit(uuid.New(), bloodtype.ONeg, bloodtype.WholeBlood, 450, now))
	repo.Create(ctx, NewUnit(uuid.New(), bloodtype.ONeg, bloodtype.Plasma, 250, now))
	repo.Create(ctx, NewUnit(uuid.New(), bloodtype.APos, bloodtype.Plasma, 250, now))

	page, err := svc.List(ctx, listops.Query{}.WithFilter("bloodTypeId", "8").WithFilter("componentId", "4"))
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Component != bloodtype.Plasma {
		t.Errorf("expected one O- plasma unit, got %d", page.Total)
	}
}
