package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/platform/validation"
	"github.com/bloodlink/bloodlink/internal/platform/websocket"
	"github.com/bloodlink/bloodlink/pkg/dates"
	"github.com/bloodlink/bloodlink/pkg/listops"
)

// -- Mock Repository --

type mockRepo struct {
	events        map[uuid.UUID]*Event
	registrations map[uuid.UUID]int
}

func newMockRepo() *mockRepo {
	return &mockRepo{events: make(map[uuid.UUID]*Event), registrations: make(map[uuid.UUID]int)}
}

func (m *mockRepo) Create(_ context.Context, e *Event) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.events[e.ID] = e
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *mockRepo) List(_ context.Context) ([]*Event, error) {
	out := make([]*Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, e *Event) error {
	if _, ok := m.events[e.ID]; !ok {
		return ErrNotFound
	}
	m.events[e.ID] = e
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	e, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	if m.registrations[id] > 0 {
		return ErrHasRegistrations
	}
	delete(m.events, id)
	return nil
}

func (m *mockRepo) ReserveSeat(_ context.Context, id uuid.UUID) error {
	e, ok := m.events[id]
	if !ok || e.RegisteredCount >= e.MaxDonors {
		return ErrFull
	}
	e.RegisteredCount++
	m.registrations[id]++
	return nil
}

func (m *mockRepo) ReleaseSeat(_ context.Context, id uuid.UUID) error {
	if e, ok := m.events[id]; ok && e.RegisteredCount > 0 {
		e.RegisteredCount--
	}
	return nil
}

type recordingPublisher struct {
	events []websocket.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt websocket.Event) error {
	p.events = append(p.events, evt)
	return nil
}

var fixedToday = dates.New(2025, time.March, 10)

func newTestService() (*Service, *mockRepo, *recordingPublisher) {
	repo := newMockRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, pub, zerolog.Nop())
	svc.today = func() dates.Date { return fixedToday }
	return svc, repo, pub
}

func validRequest() Request {
	return Request{
		Title:     "Spring donation drive",
		Location:  "District 1 hall",
		EventDate: fixedToday.AddDays(7),
		StartTime: "08:00",
		EndTime:   "11:30",
		MaxDonors: 50,
	}
}

// -- Tests --

func TestCreate(t *testing.T) {
	svc, _, pub := newTestService()
	e, err := svc.Create(context.Background(), validRequest(), uuid.New())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Status != StatusUpcoming || e.RegisteredCount != 0 {
		t.Errorf("expected upcoming event with no registrations, got %s/%d", e.Status, e.RegisteredCount)
	}
	if len(pub.events) != 0 {
		t.Error("non-urgent events must not be published")
	}
}

func TestCreate_UrgentPublishes(t *testing.T) {
	svc, _, pub := newTestService()
	req := validRequest()
	req.IsUrgent = true
	oNeg := 8
	req.RequiredBloodTypeID = &oNeg

	e, err := svc.Create(context.Background(), req, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if e.RequiredBloodType.String() != "O-" {
		t.Errorf("expected required type O-, got %q", e.RequiredBloodType.String())
	}
	if len(pub.events) != 1 || pub.events[0].Topic != websocket.TopicUrgentEvents {
		t.Fatalf("expected one urgent notification, got %+v", pub.events)
	}
	if pub.events[0].ResourceID != e.ID.String() {
		t.Errorf("expected resource id %s, got %s", e.ID, pub.events[0].ResourceID)
	}
}

func TestRequest_Validate(t *testing.T) {
	nine := 9
	tests := []struct {
		name  string
		edit  func(*Request)
		field string
	}{
		{"missing title", func(r *Request) { r.Title = " " }, "title"},
		{"past date", func(r *Request) { r.EventDate = fixedToday.AddDays(-1) }, "eventDate"},
		{"end before start", func(r *Request) { r.EndTime = "07:00" }, "endTime"},
		{"end equals start", func(r *Request) { r.EndTime = r.StartTime }, "endTime"},
		{"bad clock", func(r *Request) { r.StartTime = "8am" }, "startTime"},
		{"zero capacity", func(r *Request) { r.MaxDonors = 0 }, "maxDonors"},
		{"blood type out of range", func(r *Request) { r.RequiredBloodTypeID = &nine }, "requiredBloodTypeId"},
		{"bad status", func(r *Request) { r.Status = "archived" }, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.edit(&r)
			errs := r.Validate(true, fixedToday)
			if !errs.Has(tt.field) {
				t.Errorf("expected error on %s, got %v", tt.field, errs)
			}
		})
	}

	if errs := validRequest().Validate(true, fixedToday); len(errs) != 0 {
		t.Errorf("valid request reported %v", errs)
	}
}

func TestRequest_Validate_TodayAllowed(t *testing.T) {
	r := validRequest()
	r.EventDate = fixedToday
	if errs := r.Validate(true, fixedToday); errs.Has("eventDate") {
		t.Errorf("an event today must be accepted, got %v", errs)
	}
}

func TestUpdate_PastDateAllowed(t *testing.T) {
	svc, _, _ := newTestService()
	e, _ := svc.Create(context.Background(), validRequest(), uuid.New())

	req := validRequest()
	req.EventDate = fixedToday.AddDays(-3)
	req.Status = StatusCompleted
	got, err := svc.Update(context.Background(), e.ID, req)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
}

func TestUpdate_CapacityBelowRegistered(t *testing.T) {
	svc, _, _ := newTestService()
	e, _ := svc.Create(context.Background(), validRequest(), uuid.New())
	for i := 0; i < 3; i++ {
		if err := svc.ReserveSeat(context.Background(), e.ID); err != nil {
			t.Fatal(err)
		}
	}
	req := validRequest()
	req.MaxDonors = 2
	if _, err := svc.Update(context.Background(), e.ID, req); !errors.Is(err, ErrBelowRegistered) {
		t.Errorf("expected ErrBelowRegistered, got %v", err)
	}
}

func TestReserveSeat_Full(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRequest()
	req.MaxDonors = 1
	e, _ := svc.Create(context.Background(), req, uuid.New())

	if err := svc.ReserveSeat(context.Background(), e.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.ReserveSeat(context.Background(), e.ID); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if err := svc.ReleaseSeat(context.Background(), e.ID); err != nil {
		t.Fatal(err)
	}
	if e.RegisteredCount != 0 {
		t.Errorf("expected seat released, got %d", e.RegisteredCount)
	}
}

func TestCancel(t *testing.T) {
	svc, _, _ := newTestService()
	e, _ := svc.Create(context.Background(), validRequest(), uuid.New())

	got, err := svc.Cancel(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if _, err := svc.Cancel(context.Background(), e.ID); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on second cancel, got %v", err)
	}
}

func TestDelete_WithRegistrations(t *testing.T) {
	svc, _, _ := newTestService()
	e, _ := svc.Create(context.Background(), validRequest(), uuid.New())
	_ = svc.ReserveSeat(context.Background(), e.ID)

	if err := svc.Delete(context.Background(), e.ID); !errors.Is(err, ErrHasRegistrations) {
		t.Errorf("expected ErrHasRegistrations, got %v", err)
	}

	other, _ := svc.Create(context.Background(), validRequest(), uuid.New())
	if err := svc.Delete(context.Background(), other.ID); err != nil {
		t.Errorf("expected delete to succeed, got %v", err)
	}
}

func TestList_FilterUrgent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, validRequest(), uuid.New())
	urgent := validRequest()
	urgent.Title = "Urgent O- call"
	urgent.IsUrgent = true
	svc.Create(ctx, urgent, uuid.New())

	page, err := svc.List(ctx, listops.Query{}.WithFilter("isUrgent", "true"))
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Title != "Urgent O- call" {
		t.Errorf("expected only the urgent event, got %d", page.Total)
	}
}

func TestCreate_ValidationErrorType(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), Request{}, uuid.New())
	var ve validation.Errors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation.Errors, got %v", err)
	}
}
