package volunteer

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/domain/account"
	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
	"github.com/bloodlink/bloodlink/pkg/dates"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const maxNoteLen = 500

// Volunteer is a member's standing offer to donate when called.
type Volunteer struct {
	ID            uuid.UUID           `json:"id"`
	MemberID      uuid.UUID           `json:"memberId"`
	MemberName    string              `json:"memberName"`
	FacilityID    uuid.UUID           `json:"facilityId"`
	BloodTypeID   int                 `json:"bloodTypeId"`
	BloodType     bloodtype.BloodType `json:"bloodType"`
	ComponentID   int                 `json:"componentId"`
	Component     bloodtype.Component `json:"component"`
	AvailableFrom dates.Date          `json:"availableFrom"`
	AvailableTo   dates.Date          `json:"availableTo"`
	Status        string              `json:"status"`
	Phone         string              `json:"phone"`
	Email         string              `json:"email"`
	Note          string              `json:"note"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func (v *Volunteer) fill() {
	if t, err := bloodtype.FromID(v.BloodTypeID); err == nil {
		v.BloodType = t
	}
	if c, err := bloodtype.ComponentFromID(v.ComponentID); err == nil {
		v.Component = c
	}
}

// AvailableOn reports whether day falls inside the availability window.
func (v *Volunteer) AvailableOn(day dates.Date) bool {
	return !day.Before(v.AvailableFrom) && !day.After(v.AvailableTo)
}

// CreateRequest is the volunteer sign-up form. The blood type may be given
// as a code ("O-") or as a backend id.
type CreateRequest struct {
	FacilityID    uuid.UUID  `json:"facilityId"`
	BloodType     string     `json:"bloodType"`
	BloodTypeID   int        `json:"bloodTypeId"`
	Component     string     `json:"component"`
	AvailableFrom dates.Date `json:"availableFrom"`
	AvailableTo   dates.Date `json:"availableTo"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email"`
	Note          string     `json:"note"`
}

// ResolvedBloodTypeID returns the id form of the blood type. A code takes
// the codec's fallback for unknown input.
func (r CreateRequest) ResolvedBloodTypeID() int {
	if r.BloodTypeID != 0 {
		return r.BloodTypeID
	}
	return bloodtype.CodeToNumericID(r.BloodType)
}

// ResolvedComponentID maps the component code, treating unknown codes as
// whole blood.
func (r CreateRequest) ResolvedComponentID() int {
	if id := bloodtype.ComponentID(r.Component); id != bloodtype.UnknownComponentID {
		return id
	}
	return bloodtype.WholeBloodComponentID
}

// ValidateRequest checks a sign-up form. The client runs it before
// submitting and the server runs it again on receipt.
func ValidateRequest(r CreateRequest, today dates.Date) validation.Errors {
	errs := validation.Errors{}
	if r.FacilityID == uuid.Nil {
		errs.Add("facilityId", "facility is required")
	}
	switch {
	case r.BloodTypeID != 0:
		if r.BloodTypeID < 1 || r.BloodTypeID > 8 {
			errs.Add("bloodTypeId", "bloodTypeId must be between 1 and 8")
		}
	case strings.TrimSpace(r.BloodType) == "":
		errs.Add("bloodType", "blood type is required")
	default:
		if _, err := bloodtype.New(r.BloodType); err != nil {
			errs.Add("bloodType", err.Error())
		}
	}
	if strings.TrimSpace(r.Component) == "" {
		errs.Add("component", "component is required")
	}

	switch {
	case r.AvailableFrom.IsZero():
		errs.Add("availableFrom", "start date is required")
	case r.AvailableTo.IsZero():
		errs.Add("availableTo", "end date is required")
	case r.AvailableTo.Before(r.AvailableFrom):
		errs.Add("availableTo", "end date must not be before start date")
	case r.AvailableTo.After(dates.Of(r.AvailableFrom.AddDate(1, 0, 0))):
		errs.Add("availableTo", "availability window must not exceed one year")
	case r.AvailableTo.Before(today):
		errs.Add("availableTo", "availability window has already ended")
	}

	if r.Phone != "" && !govalidator.Matches(r.Phone, account.PhonePattern) {
		errs.Add("phone", "phone must be 10 digits starting with 0")
	}
	if r.Email != "" && !govalidator.IsEmail(r.Email) {
		errs.Add("email", "email is not valid")
	}
	if utf8.RuneCountInString(r.Note) > maxNoteLen {
		errs.Add("note", "note must be at most 500 characters")
	}
	return errs
}

// FindDonorsRequest asks for volunteers able to give a component to a
// recipient type. An empty VolunteerIDs searches every active volunteer,
// restricted to FacilityID when set.
type FindDonorsRequest struct {
	BloodTypeID      int         `json:"bloodTypeId"`
	BloodComponentID int         `json:"bloodComponentId"`
	VolunteerIDs     []uuid.UUID `json:"volunteerIds"`
	FacilityID       *uuid.UUID  `json:"facilityId"`
}

func (r FindDonorsRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if r.BloodTypeID < 1 || r.BloodTypeID > 8 {
		errs.Add("bloodTypeId", "bloodTypeId must be between 1 and 8")
	}
	if _, err := bloodtype.ComponentFromID(r.BloodComponentID); err != nil {
		errs.Add("bloodComponentId", "bloodComponentId must be between 0 and 4")
	}
	return errs
}

// CallUp is the notification sent to a matched volunteer.
type CallUp struct {
	VolunteerID uuid.UUID           `json:"volunteerId"`
	BloodType   bloodtype.BloodType `json:"bloodType"`
	Component   bloodtype.Component `json:"component"`
}
