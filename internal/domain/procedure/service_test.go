package procedure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/domain/inventory"
	"github.com/bloodlink/bloodlink/internal/domain/registration"
	"github.com/bloodlink/bloodlink/internal/domain/screening"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
)

// -- Mocks --

type mockRepo struct {
	health map[uuid.UUID]*HealthProcedure
	blood  map[uuid.UUID]*BloodProcedure
}

func newMockRepo() *mockRepo {
	return &mockRepo{health: map[uuid.UUID]*HealthProcedure{}, blood: map[uuid.UUID]*BloodProcedure{}}
}

func (m *mockRepo) CreateHealth(_ context.Context, p *HealthProcedure) error {
	if _, ok := m.health[p.RegistrationID]; ok {
		return ErrAlreadyRecorded
	}
	// Mirror the column precision of health_procedure.
	if p.Height > 999.99 || p.Weight > 9999.9 || p.Temperature > 999.9 || p.Hb > 999.9 {
		return errors.New("numeric field overflow")
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.health[p.RegistrationID] = p
	return nil
}

func (m *mockRepo) GetHealthByRegistration(_ context.Context, id uuid.UUID) (*HealthProcedure, error) {
	p, ok := m.health[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) CreateCollection(_ context.Context, p *BloodProcedure) error {
	if _, ok := m.blood[p.RegistrationID]; ok {
		return ErrAlreadyRecorded
	}
	p.ID = uuid.New()
	p.CollectedAt = time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)
	m.blood[p.RegistrationID] = p
	return nil
}

func (m *mockRepo) GetBloodByRegistration(_ context.Context, id uuid.UUID) (*BloodProcedure, error) {
	p, ok := m.blood[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) SaveQualification(_ context.Context, p *BloodProcedure) error {
	stored := m.blood[p.RegistrationID]
	if stored.IsQualified != nil {
		return ErrAlreadyQualified
	}
	*stored = *p
	return nil
}

type mockRegistrations map[uuid.UUID]*registration.Registration

func (m mockRegistrations) Get(_ context.Context, id uuid.UUID) (*registration.Registration, error) {
	r, ok := m[id]
	if !ok {
		return nil, registration.ErrNotFound
	}
	return r, nil
}

func (m mockRegistrations) Advance(_ context.Context, id uuid.UUID, from []string, status, reason string) error {
	r := m[id]
	for _, f := range from {
		if r.Status == f {
			r.Status = status
			r.RejectReason = reason
			return nil
		}
	}
	return registration.ErrInvalidTransition
}

type mockUnits struct {
	units     []*inventory.Unit
	announced []string
}

func (m *mockUnits) Create(_ context.Context, u *inventory.Unit) error {
	u.ID = uuid.New()
	m.units = append(m.units, u)
	return nil
}

func (m *mockUnits) Announce(_ context.Context, typ string, _ any) {
	m.announced = append(m.announced, typ)
}

type mockBloodTypes map[uuid.UUID]bloodtype.BloodType

func (m mockBloodTypes) RecordBloodType(_ context.Context, id uuid.UUID, t bloodtype.BloodType) error {
	if _, ok := m[id]; !ok {
		m[id] = t
	}
	return nil
}

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc        *Service
	repo       *mockRepo
	regs       mockRegistrations
	units      *mockUnits
	bloodTypes mockBloodTypes
}

func newFixture() *fixture {
	f := &fixture{
		repo:       newMockRepo(),
		regs:       mockRegistrations{},
		units:      &mockUnits{},
		bloodTypes: mockBloodTypes{},
	}
	f.svc = NewService(Deps{
		Repo:          f.repo,
		Registrations: f.regs,
		Units:         f.units,
		BloodTypes:    f.bloodTypes,
		Screening:     screening.NewService(nil),
		Tx:            passthroughTx{},
		Logger:        zerolog.Nop(),
	})
	return f
}

func (f *fixture) addRegistration(status string) *registration.Registration {
	r := &registration.Registration{ID: uuid.New(), EventID: uuid.New(), MemberID: uuid.New(), Status: status}
	f.regs[r.ID] = r
	return r
}

func healthyRequest() HealthRequest {
	return HealthRequest{
		Systolic: 115, Diastolic: 75, Temperature: 37.0, Hb: 13.5,
		Weight: 55, Height: 1.65,
	}
}

func qualifyingRequest() QualifyRequest {
	return QualifyRequest{Hematocrit: 42, BloodTypeID: 7, BloodComponent: "red-blood-cells"}
}

// -- Tests --

func TestHealthyDonorEndToEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	staff := uuid.New()
	reg := f.addRegistration(registration.StatusPending)

	health, err := f.svc.RecordHealth(ctx, reg.ID, staff, healthyRequest())
	if err != nil {
		t.Fatalf("RecordHealth: %v", err)
	}
	if !health.Result.Qualified || !health.Procedure.IsHealth || reg.Status != registration.StatusApproved {
		t.Fatalf("expected approved donor, got %+v (registration %s)", health.Result, reg.Status)
	}

	collected, err := f.svc.Collect(ctx, reg.ID, staff, CollectRequest{Volume: 350, Note: "left arm"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if collected.VolumeML != 350 || reg.Status != registration.StatusCompleted {
		t.Fatalf("expected completed registration with 350 ml, got %d/%s", collected.VolumeML, reg.Status)
	}

	out, err := f.svc.Qualify(ctx, reg.ID, staff, qualifyingRequest())
	if err != nil {
		t.Fatalf("Qualify: %v", err)
	}
	if !out.Result.Qualified || out.Unit == nil {
		t.Fatalf("expected a qualified unit, got %+v", out)
	}
	if out.Unit.Status != inventory.StatusAvailable || out.Unit.BloodTypeID != 7 || out.Unit.ComponentID != bloodtype.RedBloodCellComponentID {
		t.Errorf("unexpected unit %+v", out.Unit)
	}
	if want := collected.CollectedAt.Add(42 * 24 * time.Hour); !out.Unit.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, out.Unit.ExpiresAt)
	}
	if got := f.bloodTypes[reg.MemberID]; got != bloodtype.OPos {
		t.Errorf("expected donor blood type O+ recorded, got %v", got)
	}
	if len(f.units.announced) != 1 {
		t.Errorf("expected one inventory announcement, got %v", f.units.announced)
	}
}

func TestRecordHealth_Ineligible(t *testing.T) {
	f := newFixture()
	reg := f.addRegistration(registration.StatusPending)
	req := healthyRequest()
	req.Weight = 40
	req.HBV = true
	claimed := true
	req.IsHealth = &claimed

	out, err := f.svc.RecordHealth(context.Background(), reg.ID, uuid.New(), req)
	if err != nil {
		t.Fatal(err)
	}
	if out.Procedure.IsHealth {
		t.Error("stored verdict must be the server result, not the client claim")
	}
	if reg.Status != registration.StatusRejected {
		t.Errorf("expected rejected registration, got %s", reg.Status)
	}
	if !out.Result.Has(screening.CodeWeightLow) || !out.Result.Has(screening.CodeHBVPositive) {
		t.Errorf("expected weight and HBV reasons, got %+v", out.Result.Reasons)
	}
	if reg.RejectReason != out.Result.Summary() {
		t.Errorf("expected reasons as reject reason, got %q", reg.RejectReason)
	}
}

func TestRecordHealth_HeightInCentimetres(t *testing.T) {
	f := newFixture()
	reg := f.addRegistration(registration.StatusPending)
	req := healthyRequest()
	req.Height = 170

	out, err := f.svc.RecordHealth(context.Background(), reg.ID, uuid.New(), req)
	if err != nil {
		t.Fatalf("expected a stored ineligible check, got %v", err)
	}
	if out.Procedure.IsHealth || out.Procedure.Height != 170 {
		t.Errorf("stored procedure = %+v", out.Procedure)
	}
	if !out.Result.Has(screening.CodeHeightInvalid) {
		t.Errorf("expected height reason, got %+v", out.Result.Reasons)
	}
	if reg.Status != registration.StatusRejected {
		t.Errorf("expected rejected registration, got %s", reg.Status)
	}
}

func TestRecordHealth_UnstorableMeasurements(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*HealthRequest)
	}{
		{"height", func(r *HealthRequest) { r.Height = 1000 }},
		{"weight", func(r *HealthRequest) { r.Weight = 10000 }},
		{"temperature", func(r *HealthRequest) { r.Temperature = 1000 }},
		{"hb", func(r *HealthRequest) { r.Hb = 1e9 }},
	}
	for _, tc := range cases {
		f := newFixture()
		reg := f.addRegistration(registration.StatusPending)
		req := healthyRequest()
		tc.mutate(&req)

		_, err := f.svc.RecordHealth(context.Background(), reg.ID, uuid.New(), req)
		var ve validation.Errors
		if !errors.As(err, &ve) || !ve.Has(tc.field) {
			t.Errorf("%s: expected validation error, got %v", tc.field, err)
		}
		if reg.Status != registration.StatusPending {
			t.Errorf("%s: registration moved to %s", tc.field, reg.Status)
		}
	}

	req := healthyRequest()
	req.Height = 999.99
	if errs := req.Validate(); errs.Has("height") {
		t.Errorf("999.99 fits the column, got %v", errs)
	}
}

func TestRecordHealth_WrongStage(t *testing.T) {
	f := newFixture()
	reg := f.addRegistration(registration.StatusApproved)
	if _, err := f.svc.RecordHealth(context.Background(), reg.ID, uuid.New(), healthyRequest()); !errors.Is(err, ErrWrongStage) {
		t.Errorf("expected ErrWrongStage, got %v", err)
	}
}

func TestHealthRequest_Validate(t *testing.T) {
	errs := HealthRequest{}.Validate()
	for _, field := range []string{"systolic", "diastolic", "weight", "height", "temperature", "hb"} {
		if !errs.Has(field) {
			t.Errorf("expected error on %s, got %v", field, errs)
		}
	}
	if errs.Has("bloodPressure") {
		t.Error("missing systolic/diastolic should not also report bloodPressure")
	}

	req := healthyRequest()
	req.Systolic = 1200
	if errs := req.Validate(); !errs.Has("bloodPressure") {
		t.Errorf("expected malformed blood pressure, got %v", errs)
	}
}

func TestCollect_VolumeBounds(t *testing.T) {
	for _, v := range []int{0, 651, -5} {
		f := newFixture()
		reg := f.addRegistration(registration.StatusApproved)
		_, err := f.svc.Collect(context.Background(), reg.ID, uuid.New(), CollectRequest{Volume: v})
		var ve validation.Errors
		if !errors.As(err, &ve) || !ve.Has("volume") {
			t.Errorf("volume %d: expected validation error, got %v", v, err)
		}
	}
	for _, v := range []int{1, 650} {
		f := newFixture()
		reg := f.addRegistration(registration.StatusApproved)
		if _, err := f.svc.Collect(context.Background(), reg.ID, uuid.New(), CollectRequest{Volume: v}); err != nil {
			t.Errorf("volume %d: unexpected error %v", v, err)
		}
	}
}

func TestCollect_RequiresApproval(t *testing.T) {
	f := newFixture()
	reg := f.addRegistration(registration.StatusPending)
	if _, err := f.svc.Collect(context.Background(), reg.ID, uuid.New(), CollectRequest{Volume: 350}); !errors.Is(err, ErrWrongStage) {
		t.Errorf("expected ErrWrongStage, got %v", err)
	}
}

func TestQualify_NotCollected(t *testing.T) {
	f := newFixture()
	reg := f.addRegistration(registration.StatusApproved)
	if _, err := f.svc.Qualify(context.Background(), reg.ID, uuid.New(), qualifyingRequest()); !errors.Is(err, ErrNotCollected) {
		t.Errorf("expected ErrNotCollected, got %v", err)
	}
}

func TestQualify_FailedUnitNotStocked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg := f.addRegistration(registration.StatusApproved)
	if _, err := f.svc.Collect(ctx, reg.ID, uuid.New(), CollectRequest{Volume: 300}); err != nil {
		t.Fatal(err)
	}
	req := qualifyingRequest()
	req.Syphilis = true

	out, err := f.svc.Qualify(ctx, reg.ID, uuid.New(), req)
	if err != nil {
		t.Fatal(err)
	}
	if out.Result.Qualified || out.Unit != nil || len(f.units.units) != 0 {
		t.Errorf("a failed unit must not enter the inventory: %+v", out)
	}
	if *out.Procedure.IsQualified {
		t.Error("expected isQualified=false stored")
	}

	if _, err := f.svc.Qualify(ctx, reg.ID, uuid.New(), qualifyingRequest()); !errors.Is(err, ErrAlreadyQualified) {
		t.Errorf("expected ErrAlreadyQualified, got %v", err)
	}
}

func TestQualify_UnknownComponentIsWholeBlood(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg := f.addRegistration(registration.StatusApproved)
	f.svc.Collect(ctx, reg.ID, uuid.New(), CollectRequest{Volume: 450})
	req := qualifyingRequest()
	req.BloodComponent = "cryo"

	out, err := f.svc.Qualify(ctx, reg.ID, uuid.New(), req)
	if err != nil {
		t.Fatal(err)
	}
	if out.Unit == nil || out.Unit.Component != bloodtype.WholeBlood {
		t.Errorf("expected whole blood unit, got %+v", out.Unit)
	}
}

func TestGet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg := f.addRegistration(registration.StatusPending)

	rec, err := f.svc.Get(ctx, reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Health != nil || rec.Blood != nil {
		t.Error("expected empty record before any procedure")
	}

	f.svc.RecordHealth(ctx, reg.ID, uuid.New(), healthyRequest())
	rec, _ = f.svc.Get(ctx, reg.ID)
	if rec.Health == nil {
		t.Error("expected health procedure")
	}

	if _, err := f.svc.Get(ctx, uuid.New()); !errors.Is(err, registration.ErrNotFound) {
		t.Errorf("expected registration.ErrNotFound, got %v", err)
	}
}
