package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/account"
	"github.com/bloodlink/bloodlink/internal/domain/event"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
	"github.com/bloodlink/bloodlink/pkg/dates"
	"github.com/bloodlink/bloodlink/pkg/listops"
)

// -- Mocks --

type mockRepo struct {
	regs map[uuid.UUID]*Registration
}

func newMockRepo() *mockRepo {
	return &mockRepo{regs: make(map[uuid.UUID]*Registration)}
}

func (m *mockRepo) Create(_ context.Context, r *Registration) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	m.regs[r.ID] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Registration, error) {
	r, ok := m.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*Registration, error) {
	var out []*Registration
	for _, r := range m.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]*Registration, error) {
	var out []*Registration
	for _, r := range m.regs {
		if r.MemberID == memberID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) HasActive(_ context.Context, eventID, memberID uuid.UUID) (bool, error) {
	for _, r := range m.regs {
		if r.EventID == eventID && r.MemberID == memberID && r.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Transition(_ context.Context, id uuid.UUID, from []string, status, reason string) error {
	r, ok := m.regs[id]
	if !ok {
		return ErrNotFound
	}
	for _, f := range from {
		if r.Status == f {
			r.Status = status
			r.RejectReason = reason
			return nil
		}
	}
	return ErrInvalidTransition
}

type mockEvents struct {
	events map[uuid.UUID]*event.Event
}

func (m *mockEvents) Get(_ context.Context, id uuid.UUID) (*event.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	return e, nil
}

func (m *mockEvents) ReserveSeat(_ context.Context, id uuid.UUID) error {
	e := m.events[id]
	if e.RegisteredCount >= e.MaxDonors {
		return event.ErrFull
	}
	e.RegisteredCount++
	return nil
}

func (m *mockEvents) ReleaseSeat(_ context.Context, id uuid.UUID) error {
	if e := m.events[id]; e.RegisteredCount > 0 {
		e.RegisteredCount--
	}
	return nil
}

type mockMembers map[uuid.UUID]*account.Account

func (m mockMembers) Get(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := m[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a, nil
}

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type countingRecorder map[string]int

func (c countingRecorder) ObserveRegistration(outcome string) { c[outcome]++ }

var today = dates.New(2025, time.June, 1)

type fixture struct {
	svc      *Service
	repo     *mockRepo
	events   *mockEvents
	members  mockMembers
	recorder countingRecorder
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMockRepo(),
		events:   &mockEvents{events: map[uuid.UUID]*event.Event{}},
		members:  mockMembers{},
		recorder: countingRecorder{},
	}
	f.svc = NewService(f.repo, f.events, f.members, passthroughTx{}, f.recorder, zerolog.Nop())
	f.svc.today = func() dates.Date { return today }
	return f
}

func (f *fixture) addEvent(maxDonors int) *event.Event {
	e := &event.Event{
		ID:        uuid.New(),
		Title:     "Community drive",
		EventDate: today.AddDays(14),
		MaxDonors: maxDonors,
		Status:    event.StatusUpcoming,
	}
	f.events.events[e.ID] = e
	return e
}

func (f *fixture) addMember(bloodTypeID *int) *account.Account {
	a := &account.Account{ID: uuid.New(), FullName: "Vo Minh", Email: uuid.NewString() + "@example.com", BloodTypeID: bloodTypeID, Status: account.StatusActive}
	f.members[a.ID] = a
	return a
}

func intPtr(i int) *int { return &i }

// -- Tests --

func TestCreate_ReservesSeat(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(2)
	m := f.addMember(nil)

	reg, err := f.svc.Create(context.Background(), ev.ID, m.ID, CreateRequest{Note: " first time "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if reg.Status != StatusPending || reg.Note != "first time" {
		t.Errorf("unexpected registration %+v", reg)
	}
	if ev.RegisteredCount != 1 {
		t.Errorf("expected registered count 1, got %d", ev.RegisteredCount)
	}
	if f.recorder["created"] != 1 {
		t.Errorf("expected created outcome recorded, got %v", f.recorder)
	}
}

func TestCreate_Full(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(1)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, ev.ID, f.addMember(nil).ID, CreateRequest{}); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.Create(ctx, ev.ID, f.addMember(nil).ID, CreateRequest{})
	if !errors.Is(err, event.ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	if len(f.repo.regs) != 1 {
		t.Errorf("a full event must not gain registrations, have %d", len(f.repo.regs))
	}
	if f.recorder["full"] != 1 {
		t.Errorf("expected full outcome recorded, got %v", f.recorder)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(5)
	m := f.addMember(nil)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, ev.ID, m.ID, CreateRequest{}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Create(ctx, ev.ID, m.ID, CreateRequest{}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreate_ClosedEvent(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(5)
	ev.Status = event.StatusCancelled

	_, err := f.svc.Create(context.Background(), ev.ID, f.addMember(nil).ID, CreateRequest{})
	if !errors.Is(err, ErrEventClosed) {
		t.Errorf("expected ErrEventClosed, got %v", err)
	}
}

func TestCreate_UrgentCompatibility(t *testing.T) {
	tests := []struct {
		name     string
		required *int
		donor    *int
		wantErr  error
	}{
		{"any type accepted", nil, intPtr(1), nil},
		{"unknown donor accepted for untyped request", nil, nil, nil},
		{"exact match", intPtr(8), intPtr(8), nil},
		{"universal donor still rejected", intPtr(1), intPtr(8), ErrIncompatible},
		{"mismatch", intPtr(8), intPtr(7), ErrIncompatible},
		{"unknown donor", intPtr(8), nil, ErrBloodTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ev := f.addEvent(5)
			ev.IsUrgent = true
			ev.RequiredBloodTypeID = tt.required

			_, err := f.svc.Create(context.Background(), ev.ID, f.addMember(tt.donor).ID, CreateRequest{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreate_NonUrgentIgnoresRequiredType(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(5)
	ev.RequiredBloodTypeID = intPtr(8)

	if _, err := f.svc.Create(context.Background(), ev.ID, f.addMember(intPtr(1)).ID, CreateRequest{}); err != nil {
		t.Errorf("non-urgent events accept every donor, got %v", err)
	}
}

func TestValidateRequest(t *testing.T) {
	eventDate := today.AddDays(14)
	tests := []struct {
		name    string
		last    dates.Date
		wantErr bool
	}{
		{"no last donation", dates.Date{}, false},
		{"exactly 84 days before event", eventDate.AddDays(-84), false},
		{"83 days before event", eventDate.AddDays(-83), true},
		{"in the future", today.AddDays(1), true},
		{"today is too recent", today, true},
		{"long ago", today.AddDays(-400), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRequest(CreateRequest{LastDonationDate: tt.last}, eventDate, today)
			if got := errs.Has("lastDonationDate"); got != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, errs)
			}
		})
	}
}

func TestCreate_RecentDonationRejected(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(5)

	_, err := f.svc.Create(context.Background(), ev.ID, f.addMember(nil).ID,
		CreateRequest{LastDonationDate: today.AddDays(-10)})
	var ve validation.Errors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ev.RegisteredCount != 0 {
		t.Error("invalid requests must not reserve a seat")
	}
	if f.recorder["invalid"] != 1 {
		t.Errorf("expected invalid outcome, got %v", f.recorder)
	}
}

func TestReject_ReleasesSeat(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(5)
	ctx := context.Background()
	reg, _ := f.svc.Create(ctx, ev.ID, f.addMember(nil).ID, CreateRequest{})

	if _, err := f.svc.Reject(ctx, reg.ID, RejectRequest{}); err == nil {
		t.Error("expected reason to be required")
	}
	got, err := f.svc.Reject(ctx, reg.ID, RejectRequest{Reason: "incomplete documents"})
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != StatusRejected || got.RejectReason != "incomplete documents" {
		t.Errorf("unexpected registration %+v", got)
	}
	if ev.RegisteredCount != 0 {
		t.Errorf("expected seat released, got %d", ev.RegisteredCount)
	}
	if _, err := f.svc.Reject(ctx, reg.ID, RejectRequest{Reason: "again"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancel_OwnPendingOnly(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(5)
	m := f.addMember(nil)
	ctx := context.Background()
	reg, _ := f.svc.Create(ctx, ev.ID, m.ID, CreateRequest{})

	if _, err := f.svc.Cancel(ctx, reg.ID, uuid.New()); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if _, err := f.svc.Cancel(ctx, reg.ID, m.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if ev.RegisteredCount != 0 {
		t.Errorf("expected seat released, got %d", ev.RegisteredCount)
	}

	// a cancelled registration no longer blocks signing up again
	if _, err := f.svc.Create(ctx, ev.ID, m.ID, CreateRequest{}); err != nil {
		t.Errorf("expected re-registration after cancel, got %v", err)
	}
}

func TestListByEvent_SearchAndPage(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(10)
	ctx := context.Background()
	for _, name := range []string{"Hoang Anh", "Do Binh", "Hoang Cuc"} {
		m := f.addMember(nil)
		m.FullName = name
		if _, err := f.svc.Create(ctx, ev.ID, m.ID, CreateRequest{}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := f.svc.ListByEvent(ctx, ev.ID, listops.Query{Search: "hoang", SortKey: "memberName", PageSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.TotalPages != 2 || page.Items[0].MemberName != "Hoang Anh" {
		t.Errorf("unexpected page %+v", page)
	}

	if _, err := f.svc.ListByEvent(ctx, uuid.New(), listops.Query{}); !errors.Is(err, event.ErrNotFound) {
		t.Errorf("expected event.ErrNotFound, got %v", err)
	}
}

func TestHistory_OnlyOwn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	m := f.addMember(nil)
	other := f.addMember(nil)
	f.svc.Create(ctx, f.addEvent(5).ID, m.ID, CreateRequest{})
	f.svc.Create(ctx, f.addEvent(5).ID, m.ID, CreateRequest{})
	f.svc.Create(ctx, f.addEvent(5).ID, other.ID, CreateRequest{})

	page, err := f.svc.History(ctx, m.ID, listops.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 {
		t.Errorf("expected 2 own registrations, got %d", page.Total)
	}
}
