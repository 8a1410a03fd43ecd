// Package screening implements the donor health-eligibility and blood-unit
// qualification predicates. Both are pure: every criterion is evaluated and
// all failures are reported together.
package screening

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reason codes are stable and used as metric labels.
const (
	CodeHeightInvalid         = "height_invalid"
	CodeWeightLow             = "weight_low"
	CodeTemperatureOutOfRange = "temperature_out_of_range"
	CodeHemoglobinLow         = "hemoglobin_low"
	CodeBloodPressureOutRange = "blood_pressure_out_of_range"
	CodeHBVPositive           = "hbv_positive"

	CodeHematocritOutOfRange = "hematocrit_out_of_range"
	CodeHIVDetected          = "hiv_detected"
	CodeHepatitisCDetected   = "hepatitis_c_detected"
	CodeSyphilisDetected     = "syphilis_detected"
)

// Health thresholds.
const (
	MaxHeightM       = 2.5
	MinWeightKg      = 42.0
	MinTemperatureC  = 36.7
	MaxTemperatureC  = 37.2
	MinHemoglobinGdL = 12.0
	MinSystolic      = 90
	MaxSystolic      = 120
	MinDiastolic     = 60
	MaxDiastolic     = 80
)

// Unit thresholds, inclusive.
const (
	MinHematocrit = 37.0
	MaxHematocrit = 52.0
)

// Reason is one failed criterion.
type Reason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a predicate. Qualified is true iff Reasons is
// empty.
type Result struct {
	Qualified bool     `json:"qualified"`
	Reasons   []Reason `json:"reasons"`
}

// Messages returns the human-readable reasons in evaluation order.
func (r Result) Messages() []string {
	out := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		out[i] = reason.Message
	}
	return out
}

// Summary joins the reason messages into a single line.
func (r Result) Summary() string {
	return strings.Join(r.Messages(), "; ")
}

// Has reports whether the result contains a reason with the given code.
func (r Result) Has(code string) bool {
	for _, reason := range r.Reasons {
		if reason.Code == code {
			return true
		}
	}
	return false
}

func newResult(reasons []Reason) Result {
	if reasons == nil {
		reasons = []Reason{}
	}
	return Result{Qualified: len(reasons) == 0, Reasons: reasons}
}

var bloodPressurePattern = regexp.MustCompile(`^\s*(\d{2,3})\s*/\s*(\d{2,3})\s*$`)

// ParseBloodPressure reads a "systolic/diastolic" reading. ok is false when
// the string does not have the NN/NN shape.
func ParseBloodPressure(s string) (systolic, diastolic int, ok bool) {
	m := bloodPressurePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	systolic, _ = strconv.Atoi(m[1])
	diastolic, _ = strconv.Atoi(m[2])
	return systolic, diastolic, true
}

// FormatBloodPressure renders a reading in the form ParseBloodPressure reads.
func FormatBloodPressure(systolic, diastolic int) string {
	return fmt.Sprintf("%d/%d", systolic, diastolic)
}

// EvaluateHealth applies the donor eligibility criteria to v. A malformed
// blood pressure is not evaluated here; Vitals.Validate reports it.
func EvaluateHealth(v Vitals) Result {
	var reasons []Reason

	if v.Height > MaxHeightM {
		reasons = append(reasons, Reason{CodeHeightInvalid,
			fmt.Sprintf("Height %.2f m is not a valid measurement", v.Height)})
	}
	if v.Weight <= MinWeightKg {
		reasons = append(reasons, Reason{CodeWeightLow,
			fmt.Sprintf("Weight %.1f kg must be above %.0f kg", v.Weight, MinWeightKg)})
	}
	if v.Temperature < MinTemperatureC || v.Temperature > MaxTemperatureC {
		reasons = append(reasons, Reason{CodeTemperatureOutOfRange,
			fmt.Sprintf("Temperature %.1f °C is outside %.1f-%.1f °C", v.Temperature, MinTemperatureC, MaxTemperatureC)})
	}
	if v.Hemoglobin < MinHemoglobinGdL {
		reasons = append(reasons, Reason{CodeHemoglobinLow,
			fmt.Sprintf("Hemoglobin %.1f g/dL is below %.1f g/dL", v.Hemoglobin, MinHemoglobinGdL)})
	}
	if sys, dia, ok := ParseBloodPressure(v.BloodPressure); ok {
		if sys < MinSystolic || sys > MaxSystolic || dia < MinDiastolic || dia > MaxDiastolic {
			reasons = append(reasons, Reason{CodeBloodPressureOutRange,
				fmt.Sprintf("Blood pressure %d/%d mmHg is outside %d-%d/%d-%d mmHg",
					sys, dia, MinSystolic, MaxSystolic, MinDiastolic, MaxDiastolic)})
		}
	}
	if v.HBV {
		reasons = append(reasons, Reason{CodeHBVPositive, "Prior Hepatitis B diagnosis"})
	}

	return newResult(reasons)
}

// EvaluateUnit decides whether a collected unit is usable.
func EvaluateUnit(u UnitTest) Result {
	var reasons []Reason

	if u.Hematocrit < MinHematocrit || u.Hematocrit > MaxHematocrit {
		reasons = append(reasons, Reason{CodeHematocritOutOfRange,
			fmt.Sprintf("Hematocrit %.1f%% is outside %.0f-%.0f%%", u.Hematocrit, MinHematocrit, MaxHematocrit)})
	}
	if u.HIV {
		reasons = append(reasons, Reason{CodeHIVDetected, "HIV detected"})
	}
	if u.HepatitisC {
		reasons = append(reasons, Reason{CodeHepatitisCDetected, "Hepatitis C detected"})
	}
	if u.Syphilis {
		reasons = append(reasons, Reason{CodeSyphilisDetected, "Syphilis detected"})
	}

	return newResult(reasons)
}
