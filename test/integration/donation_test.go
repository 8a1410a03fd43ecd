//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/account"
	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/domain/event"
	"github.com/bloodlink/bloodlink/internal/domain/inventory"
	"github.com/bloodlink/bloodlink/internal/domain/procedure"
	"github.com/bloodlink/bloodlink/internal/domain/registration"
	"github.com/bloodlink/bloodlink/internal/domain/report"
	"github.com/bloodlink/bloodlink/internal/domain/screening"
	"github.com/bloodlink/bloodlink/internal/platform/db"
	"github.com/bloodlink/bloodlink/pkg/dates"
)

type services struct {
	accounts      *account.Service
	events        *event.Service
	registrations *registration.Service
	inventory     *inventory.Service
	procedures    *procedure.Service
	reports       *report.Service
}

func newServices() *services {
	logger := zerolog.Nop()
	tx := db.NewTransactor(globalPool)
	s := &services{accounts: newAccountService()}
	s.events = event.NewService(event.NewRepo(globalPool), nil, logger)
	s.registrations = registration.NewService(registration.NewRepo(globalPool), s.events, s.accounts, tx, nil, logger)
	s.inventory = inventory.NewService(inventory.NewRepo(globalPool), nil, logger)
	s.procedures = procedure.NewService(procedure.Deps{
		Repo:          procedure.NewRepo(globalPool),
		Registrations: s.registrations,
		Units:         s.inventory,
		BloodTypes:    s.accounts,
		Screening:     screening.NewService(nil),
		Tx:            tx,
		Logger:        logger,
	})
	s.reports = report.NewService(report.NewRepo(globalPool), nil, 0, logger)
	return s
}

func createEvent(t *testing.T, ctx context.Context, s *services, staff *account.Account, maxDonors int) *event.Event {
	t.Helper()
	ev, err := s.events.Create(ctx, event.Request{
		Title:     "Spring drive",
		Location:  "Hall A",
		EventDate: dates.Today().AddDays(7),
		StartTime: "08:00",
		EndTime:   "16:00",
		MaxDonors: maxDonors,
	}, staff.ID)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return ev
}

func TestDonationLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newServices()
	staff := createStaff(t, ctx)
	member := createMember(t, ctx, "")
	ev := createEvent(t, ctx, s, staff, 10)

	reg, err := s.registrations.Create(ctx, ev.ID, member.ID, registration.CreateRequest{Note: "first time"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Status != registration.StatusPending {
		t.Fatalf("status = %q, want pending", reg.Status)
	}
	if _, err := s.registrations.Create(ctx, ev.ID, member.ID, registration.CreateRequest{}); !errors.Is(err, registration.ErrDuplicate) {
		t.Errorf("second registration: err = %v, want ErrDuplicate", err)
	}

	health, err := s.procedures.RecordHealth(ctx, reg.ID, staff.ID, procedure.HealthRequest{
		Systolic: 115, Diastolic: 75, Temperature: 37, Hb: 13.5, Weight: 58, Height: 1.62,
	})
	if err != nil {
		t.Fatalf("record health: %v", err)
	}
	if health.RegistrationStatus != registration.StatusApproved {
		t.Fatalf("registration status = %q, want approved", health.RegistrationStatus)
	}

	if _, err := s.procedures.Collect(ctx, reg.ID, staff.ID, procedure.CollectRequest{Volume: 350}); err != nil {
		t.Fatalf("collect: %v", err)
	}

	out, err := s.procedures.Qualify(ctx, reg.ID, staff.ID, procedure.QualifyRequest{
		Hematocrit:     44,
		BloodTypeID:    bloodtype.ONeg.ID(),
		BloodComponent: "plasma",
	})
	if err != nil {
		t.Fatalf("qualify: %v", err)
	}
	if !out.Result.Qualified || out.Unit == nil {
		t.Fatalf("qualify outcome = %+v, want a stocked unit", out)
	}
	if got := out.Unit.ExpiresAt.Sub(out.Unit.CollectedAt); got != bloodtype.Plasma.ShelfLife() {
		t.Errorf("unit shelf life = %v, want %v", got, bloodtype.Plasma.ShelfLife())
	}

	got, err := s.registrations.Get(ctx, reg.ID)
	if err != nil {
		t.Fatalf("get registration: %v", err)
	}
	if got.Status != registration.StatusCompleted {
		t.Errorf("registration status = %q, want completed", got.Status)
	}

	donor, err := s.accounts.Get(ctx, member.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if donor.BloodTypeID == nil || *donor.BloodTypeID != bloodtype.ONeg.ID() {
		t.Errorf("member blood type id = %v, want %d", donor.BloodTypeID, bloodtype.ONeg.ID())
	}

	record, err := s.procedures.Get(ctx, reg.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Health == nil || record.Blood == nil {
		t.Errorf("record = %+v, want both procedures", record)
	}

	stock, err := s.reports.BloodStock(ctx)
	if err != nil {
		t.Fatalf("blood stock: %v", err)
	}
	found := false
	for _, level := range stock {
		if level.BloodTypeID == bloodtype.ONeg.ID() && level.ComponentID == bloodtype.PlasmaComponentID {
			found = level.Units >= 1 && level.VolumeML >= 350
		}
	}
	if !found {
		t.Error("O- plasma unit missing from blood stock")
	}
}

func TestRejectReleasesSeat(t *testing.T) {
	ctx := context.Background()
	s := newServices()
	staff := createStaff(t, ctx)
	ev := createEvent(t, ctx, s, staff, 1)

	first := createMember(t, ctx, "A+")
	reg, err := s.registrations.Create(ctx, ev.ID, first.ID, registration.CreateRequest{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	second := createMember(t, ctx, "B+")
	if _, err := s.registrations.Create(ctx, ev.ID, second.ID, registration.CreateRequest{}); !errors.Is(err, event.ErrFull) {
		t.Fatalf("full event: err = %v, want ErrFull", err)
	}

	if _, err := s.registrations.Reject(ctx, reg.ID, registration.RejectRequest{Reason: "travelled recently"}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := s.registrations.Create(ctx, ev.ID, second.ID, registration.CreateRequest{}); err != nil {
		t.Errorf("register after reject: %v", err)
	}
}

func TestSeatReservationUnderContention(t *testing.T) {
	ctx := context.Background()
	s := newServices()
	staff := createStaff(t, ctx)
	ev := createEvent(t, ctx, s, staff, 3)

	const donors = 8
	members := make([]*account.Account, donors)
	for i := range members {
		members[i] = createMember(t, ctx, "O+")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for _, m := range members {
		wg.Add(1)
		go func(m *account.Account) {
			defer wg.Done()
			if _, err := s.registrations.Create(ctx, ev.ID, m.ID, registration.CreateRequest{}); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(m)
	}
	wg.Wait()

	if accepted != 3 {
		t.Errorf("accepted %d registrations, want 3", accepted)
	}
	got, err := s.events.Get(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.RegisteredCount != 3 {
		t.Errorf("registeredCount = %d, want 3", got.RegisteredCount)
	}
}

func TestExpireUnits(t *testing.T) {
	ctx := context.Background()
	s := newServices()
	staff := createStaff(t, ctx)
	member := createMember(t, ctx, "AB+")
	ev := createEvent(t, ctx, s, staff, 5)

	reg, err := s.registrations.Create(ctx, ev.ID, member.ID, registration.CreateRequest{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.procedures.RecordHealth(ctx, reg.ID, staff.ID, procedure.HealthRequest{
		Systolic: 110, Diastolic: 70, Temperature: 36.9, Hb: 14, Weight: 70, Height: 1.75,
	}); err != nil {
		t.Fatalf("record health: %v", err)
	}
	if _, err := s.procedures.Collect(ctx, reg.ID, staff.ID, procedure.CollectRequest{Volume: 250}); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out, err := s.procedures.Qualify(ctx, reg.ID, staff.ID, procedure.QualifyRequest{
		Hematocrit: 45, BloodTypeID: bloodtype.ABPos.ID(), BloodComponent: "platelets",
	})
	if err != nil || out.Unit == nil {
		t.Fatalf("qualify: %v", err)
	}

	if _, err := globalPool.Exec(ctx,
		`UPDATE blood_unit SET expires_at = $1 WHERE id = $2`, time.Now().Add(-time.Hour), out.Unit.ID); err != nil {
		t.Fatalf("backdate unit: %v", err)
	}

	n, err := s.inventory.Expire(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n < 1 {
		t.Errorf("expired %d units, want at least 1", n)
	}
}

func TestEventUpdateRacingRegistrations(t *testing.T) {
	ctx := context.Background()
	s := newServices()
	staff := createStaff(t, ctx)
	ev := createEvent(t, ctx, s, staff, 5)

	repo := event.NewRepo(globalPool)
	stale, err := repo.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.ReserveSeat(ctx, ev.ID); err != nil {
			t.Fatalf("reserve seat: %v", err)
		}
	}

	stale.MaxDonors = 2
	if err := repo.Update(ctx, stale); !errors.Is(err, event.ErrBelowRegistered) {
		t.Fatalf("update below registered: err = %v, want ErrBelowRegistered", err)
	}
	got, err := repo.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.MaxDonors != 5 || got.RegisteredCount != 3 {
		t.Errorf("event = %d/%d, want 3/5", got.RegisteredCount, got.MaxDonors)
	}
}

func TestHealthCheckWithHeightInCentimetres(t *testing.T) {
	ctx := context.Background()
	s := newServices()
	staff := createStaff(t, ctx)
	member := createMember(t, ctx, "B-")
	ev := createEvent(t, ctx, s, staff, 5)

	reg, err := s.registrations.Create(ctx, ev.ID, member.ID, registration.CreateRequest{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	out, err := s.procedures.RecordHealth(ctx, reg.ID, staff.ID, procedure.HealthRequest{
		Systolic: 115, Diastolic: 75, Temperature: 37, Hb: 13.5, Weight: 60, Height: 170,
	})
	if err != nil {
		t.Fatalf("record health: %v", err)
	}
	if out.RegistrationStatus != registration.StatusRejected {
		t.Errorf("registration status = %q, want rejected", out.RegistrationStatus)
	}

	record, err := s.procedures.Get(ctx, reg.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Health == nil || record.Health.Height != 170 {
		t.Errorf("stored health = %+v, want height 170", record.Health)
	}
}
