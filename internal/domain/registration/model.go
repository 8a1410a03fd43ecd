package registration

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
	"github.com/bloodlink/bloodlink/pkg/dates"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// MinDonationIntervalDays is the minimum gap between two whole-blood
// donations.
const MinDonationIntervalDays = 84

const maxNoteLen = 500

// Registration is a member's sign-up for one event, joined with the member
// and event fields the dashboards display.
type Registration struct {
	ID               uuid.UUID  `json:"id"`
	EventID          uuid.UUID  `json:"eventId"`
	MemberID         uuid.UUID  `json:"memberId"`
	Status           string     `json:"status"`
	LastDonationDate dates.Date `json:"lastDonationDate"`
	Note             string     `json:"note"`
	RejectReason     string     `json:"rejectReason"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	MemberName        string              `json:"memberName"`
	MemberEmail       string              `json:"memberEmail"`
	MemberPhone       string              `json:"memberPhone"`
	MemberBloodTypeID *int                `json:"memberBloodTypeId"`
	MemberBloodType   bloodtype.BloodType `json:"memberBloodType"`
	EventTitle        string              `json:"eventTitle"`
	EventDate         dates.Date          `json:"eventDate"`
}

func (r *Registration) fillBloodType() {
	r.MemberBloodType = bloodtype.BloodType{}
	if r.MemberBloodTypeID != nil {
		if t, err := bloodtype.FromID(*r.MemberBloodTypeID); err == nil {
			r.MemberBloodType = t
		}
	}
}

// Active reports whether the registration still holds a seat.
func (r *Registration) Active() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}

type CreateRequest struct {
	LastDonationDate dates.Date `json:"lastDonationDate"`
	Note             string     `json:"note"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// ValidateRequest checks a registration form against the event date. It is
// shared by the server and the API client.
func ValidateRequest(req CreateRequest, eventDate, today dates.Date) validation.Errors {
	errs := validation.Errors{}
	if last := req.LastDonationDate; !last.IsZero() {
		switch {
		case last.After(today):
			errs.Add("lastDonationDate", "last donation date cannot be in the future")
		case !eventDate.IsZero() && last.DaysUntil(eventDate) < MinDonationIntervalDays:
			errs.Add("lastDonationDate", "at least 84 days must pass between donations")
		}
	}
	if len([]rune(req.Note)) > maxNoteLen {
		errs.Add("note", "note must be at most 500 characters")
	}
	return errs
}
