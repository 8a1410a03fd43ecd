package screening

import (
	"github.com/bloodlink/bloodlink/internal/platform/validation"
)

// Vitals is the health-check form for one donor visit.
type Vitals struct {
	Weight        float64 `json:"weight"`
	Height        float64 `json:"height"`
	Temperature   float64 `json:"temperature"`
	BloodPressure string  `json:"bloodPressure"`
	Hemoglobin    float64 `json:"hemoglobin"`
	HBV           bool    `json:"hbv"`
}

// Validate reports missing or malformed fields. It is independent of
// eligibility: a fully valid form can still be disqualifying.
func (v Vitals) Validate() validation.Errors {
	errs := validation.Errors{}
	if v.Weight <= 0 {
		errs.Add("weight", "weight is required")
	}
	if v.Height <= 0 {
		errs.Add("height", "height is required")
	}
	if v.Temperature <= 0 {
		errs.Add("temperature", "temperature is required")
	}
	if v.Hemoglobin <= 0 {
		errs.Add("hemoglobin", "hemoglobin is required")
	}
	if v.BloodPressure == "" {
		errs.Add("bloodPressure", "blood pressure is required")
	} else if _, _, ok := ParseBloodPressure(v.BloodPressure); !ok {
		errs.Add("bloodPressure", "blood pressure must look like 120/80")
	}
	return errs
}

// UnitTest is the laboratory analysis of one collected unit.
type UnitTest struct {
	Hematocrit  float64 `json:"hematocrit"`
	HIV         bool    `json:"hiv"`
	HepatitisC  bool    `json:"hepatitisC"`
	Syphilis    bool    `json:"syphilis"`
	BloodTypeID int     `json:"bloodTypeId"`
	ComponentID int     `json:"componentId"`
	VolumeML    int     `json:"volume"`
}

// Validate reports missing or malformed fields.
func (u UnitTest) Validate() validation.Errors {
	errs := validation.Errors{}
	if u.Hematocrit <= 0 {
		errs.Add("hematocrit", "hematocrit is required")
	}
	if u.BloodTypeID != 0 && (u.BloodTypeID < 1 || u.BloodTypeID > 8) {
		errs.Add("bloodTypeId", "bloodTypeId must be between 1 and 8")
	}
	if u.ComponentID < 0 || u.ComponentID > 4 {
		errs.Add("componentId", "componentId must be between 0 and 4")
	}
	if u.VolumeML < 0 {
		errs.Add("volume", "volume must not be negative")
	}
	return errs
}
