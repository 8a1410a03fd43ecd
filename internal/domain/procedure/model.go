package procedure

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/domain/inventory"
	"github.com/bloodlink/bloodlink/internal/domain/screening"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
)

// Collection volume bounds in millilitres.
const (
	MinVolumeML = 1
	MaxVolumeML = 650
)

// HealthProcedure is the recorded pre-donation health check.
type HealthProcedure struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID uuid.UUID  `json:"registrationId"`
	Systolic       int        `json:"systolic"`
	Diastolic      int        `json:"diastolic"`
	Temperature    float64    `json:"temperature"`
	Hb             float64    `json:"hb"`
	HBV            bool       `json:"hbv"`
	Weight         float64    `json:"weight"`
	Height         float64    `json:"height"`
	IsHealth       bool       `json:"isHealth"`
	Description    string     `json:"description"`
	PerformedBy    *uuid.UUID `json:"performedBy"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// BloodProcedure is the collection record and, once tested, its
// qualification.
type BloodProcedure struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID uuid.UUID  `json:"registrationId"`
	VolumeML       int        `json:"volume"`
	CollectNote    string     `json:"collectNote"`
	CollectedBy    *uuid.UUID `json:"collectedBy"`
	CollectedAt    time.Time  `json:"collectedAt"`

	Hematocrit  *float64   `json:"hematocrit"`
	HIV         *bool      `json:"hiv"`
	HepatitisC  *bool      `json:"hepatitisC"`
	Syphilis    *bool      `json:"syphilis"`
	IsQualified *bool      `json:"isQualified"`
	BloodTypeID *int       `json:"bloodTypeId"`
	ComponentID *int       `json:"componentId"`
	QualifyNote string     `json:"qualifyNote"`
	QualifiedBy *uuid.UUID `json:"qualifiedBy"`
	QualifiedAt *time.Time `json:"qualifiedAt"`
}

// Qualified reports whether a qualification has been recorded.
func (b *BloodProcedure) Qualified() bool {
	return b.IsQualified != nil
}

// HealthRequest is the health-check form. IsHealth is the client's own
// verdict; the server recomputes it.
type HealthRequest struct {
	Systolic    int     `json:"systolic"`
	Diastolic   int     `json:"diastolic"`
	Temperature float64 `json:"temperature"`
	Hb          float64 `json:"hb"`
	HBV         bool    `json:"hbv"`
	Weight      float64 `json:"weight"`
	Height      float64 `json:"height"`
	IsHealth    *bool   `json:"isHealth"`
	Description string  `json:"description"`
}

// Vitals converts the form into the screening record.
func (r HealthRequest) Vitals() screening.Vitals {
	return screening.Vitals{
		Weight:        r.Weight,
		Height:        r.Height,
		Temperature:   r.Temperature,
		BloodPressure: screening.FormatBloodPressure(r.Systolic, r.Diastolic),
		Hemoglobin:    r.Hb,
		HBV:           r.HBV,
	}
}

// Largest measurements the health_procedure columns can hold. Values up to
// these are stored even when screening rejects them (a height typed in
// centimetres is an ineligible check, not a bad request).
const (
	maxRecordedWeight      = 9999.9
	maxRecordedHeight      = 999.99
	maxRecordedTemperature = 999.9
	maxRecordedHb          = 999.9
)

// Validate reports missing or unstorable fields using the request's own
// field names.
func (r HealthRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if r.Systolic <= 0 {
		errs.Add("systolic", "systolic is required")
	}
	if r.Diastolic <= 0 {
		errs.Add("diastolic", "diastolic is required")
	}
	for field, msg := range r.Vitals().Validate() {
		switch field {
		case "hemoglobin":
			errs.Add("hb", "hb is required")
		case "bloodPressure":
			if r.Systolic > 0 && r.Diastolic > 0 {
				errs.Add("bloodPressure", "systolic and diastolic must have 2 to 3 digits")
			}
		default:
			errs.Add(field, msg)
		}
	}
	for _, m := range []struct {
		field string
		value float64
		max   float64
	}{
		{"weight", r.Weight, maxRecordedWeight},
		{"height", r.Height, maxRecordedHeight},
		{"temperature", r.Temperature, maxRecordedTemperature},
		{"hb", r.Hb, maxRecordedHb},
	} {
		if m.value > m.max && !errs.Has(m.field) {
			errs.Add(m.field, fmt.Sprintf("%s must be at most %g", m.field, m.max))
		}
	}
	return errs
}

type CollectRequest struct {
	Volume int    `json:"volume"`
	Note   string `json:"note"`
}

func (r CollectRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if r.Volume < MinVolumeML || r.Volume > MaxVolumeML {
		errs.Add("volume", "volume must be between 1 and 650 ml")
	}
	return errs
}

// QualifyRequest is the laboratory result for a collected unit.
type QualifyRequest struct {
	Hematocrit     float64 `json:"hematocrit"`
	HIV            bool    `json:"hiv"`
	HepatitisC     bool    `json:"hepatitisC"`
	Syphilis       bool    `json:"syphilis"`
	IsQualified    *bool   `json:"isQualified"`
	BloodTypeID    int     `json:"bloodTypeId"`
	BloodComponent string  `json:"bloodComponent"`
	Note           string  `json:"note"`
}

// Component resolves the component code. Unmapped codes are treated as
// whole blood.
func (r QualifyRequest) Component() bloodtype.Component {
	c, err := bloodtype.ComponentFromID(bloodtype.ComponentID(r.BloodComponent))
	if err != nil {
		return bloodtype.WholeBlood
	}
	return c
}

// UnitTest converts the request into the screening record.
func (r QualifyRequest) UnitTest(volumeML int) screening.UnitTest {
	return screening.UnitTest{
		Hematocrit:  r.Hematocrit,
		HIV:         r.HIV,
		HepatitisC:  r.HepatitisC,
		Syphilis:    r.Syphilis,
		BloodTypeID: r.BloodTypeID,
		ComponentID: r.Component().ID(),
		VolumeML:    volumeML,
	}
}

func (r QualifyRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if r.BloodTypeID < 1 || r.BloodTypeID > 8 {
		errs.Add("bloodTypeId", "bloodTypeId must be between 1 and 8")
	}
	if r.BloodComponent == "" {
		errs.Add("bloodComponent", "bloodComponent is required")
	}
	if r.Hematocrit <= 0 {
		errs.Add("hematocrit", "hematocrit is required")
	}
	return errs
}

// HealthOutcome is the response of a health check.
type HealthOutcome struct {
	Procedure          *HealthProcedure `json:"procedure"`
	Result             screening.Result `json:"result"`
	RegistrationStatus string           `json:"registrationStatus"`
}

// QualifyOutcome is the response of a qualification. Unit is nil when the
// unit failed.
type QualifyOutcome struct {
	Procedure *BloodProcedure  `json:"procedure"`
	Result    screening.Result `json:"result"`
	Unit      *inventory.Unit  `json:"unit"`
}

// Record groups every procedure of one registration.
type Record struct {
	Health *HealthProcedure `json:"health"`
	Blood  *BloodProcedure  `json:"blood"`
}
