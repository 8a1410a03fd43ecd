package event

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
	"github.com/bloodlink/bloodlink/pkg/dates"
)

const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// clockLayout is the HH:MM format of start and end times.
const clockLayout = "15:04"

// Event is a scheduled donation drive.
type Event struct {
	ID                  uuid.UUID           `json:"id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Location            string              `json:"location"`
	FacilityID          *uuid.UUID          `json:"facilityId"`
	EventDate           dates.Date          `json:"eventDate"`
	StartTime           string              `json:"startTime"`
	EndTime             string              `json:"endTime"`
	MaxDonors           int                 `json:"maxDonors"`
	RegisteredCount     int                 `json:"registeredCount"`
	Status              string              `json:"status"`
	IsUrgent            bool                `json:"isUrgent"`
	RequiredBloodTypeID *int                `json:"requiredBloodTypeId"`
	RequiredBloodType   bloodtype.BloodType `json:"requiredBloodType"`
	RequiredComponentID *int                `json:"requiredComponentId"`
	CreatedBy           *uuid.UUID          `json:"createdBy"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// RequiredType returns the blood type an urgent event asks for, or nil when
// any donor is accepted.
func (e *Event) RequiredType() *bloodtype.BloodType {
	if e.RequiredBloodTypeID == nil {
		return nil
	}
	t, err := bloodtype.FromID(*e.RequiredBloodTypeID)
	if err != nil {
		return nil
	}
	return &t
}

// OpenForRegistration reports whether donors may still sign up.
func (e *Event) OpenForRegistration() bool {
	return e.Status == StatusUpcoming || e.Status == StatusOngoing
}

func (e *Event) SeatsLeft() int {
	if n := e.MaxDonors - e.RegisteredCount; n > 0 {
		return n
	}
	return 0
}

func (e *Event) fillBloodType() {
	if t := e.RequiredType(); t != nil {
		e.RequiredBloodType = *t
	} else {
		e.RequiredBloodType = bloodtype.BloodType{}
	}
}

// Request is the body of create and update calls.
type Request struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Location            string     `json:"location"`
	FacilityID          *uuid.UUID `json:"facilityId"`
	EventDate           dates.Date `json:"eventDate"`
	StartTime           string     `json:"startTime"`
	EndTime             string     `json:"endTime"`
	MaxDonors           int        `json:"maxDonors"`
	IsUrgent            bool       `json:"isUrgent"`
	RequiredBloodTypeID *int       `json:"requiredBloodTypeId"`
	RequiredComponentID *int       `json:"requiredComponentId"`
	Status              string     `json:"status"`
}

// Validate checks the form. Past dates are only rejected when creating.
func (r Request) Validate(creating bool, today dates.Date) validation.Errors {
	errs := validation.Errors{}
	if strings.TrimSpace(r.Title) == "" {
		errs.Add("title", "title is required")
	}
	if r.EventDate.IsZero() {
		errs.Add("eventDate", "event date is required")
	} else if creating && r.EventDate.Before(today) {
		errs.Add("eventDate", "event date cannot be in the past")
	}

	start, startErr := time.Parse(clockLayout, r.StartTime)
	if startErr != nil {
		errs.Add("startTime", "start time must be HH:MM")
	}
	end, endErr := time.Parse(clockLayout, r.EndTime)
	if endErr != nil {
		errs.Add("endTime", "end time must be HH:MM")
	}
	if startErr == nil && endErr == nil && !end.After(start) {
		errs.Add("endTime", "end time must be after start time")
	}

	if r.MaxDonors <= 0 {
		errs.Add("maxDonors", "maxDonors must be greater than 0")
	}
	if id := r.RequiredBloodTypeID; id != nil && (*id < 1 || *id > 8) {
		errs.Add("requiredBloodTypeId", "requiredBloodTypeId must be between 1 and 8")
	}
	if id := r.RequiredComponentID; id != nil && (*id < bloodtype.UnknownComponentID || *id > bloodtype.PlasmaComponentID) {
		errs.Add("requiredComponentId", "requiredComponentId must be between 0 and 4")
	}
	if r.Status != "" && !validStatus(r.Status) {
		errs.Add("status", "status must be upcoming, ongoing, completed or cancelled")
	}
	return errs
}

func validStatus(s string) bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
