package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
)

const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusUsed      = "used"
	StatusExpired   = "expired"
	StatusDiscarded = "discarded"
)

// Unit is one qualified, stored blood product.
type Unit struct {
	ID               uuid.UUID           `json:"id"`
	BloodProcedureID uuid.UUID           `json:"bloodProcedureId"`
	BloodTypeID      int                 `json:"bloodTypeId"`
	BloodType        bloodtype.BloodType `json:"bloodType"`
	ComponentID      int                 `json:"componentId"`
	Component        bloodtype.Component `json:"component"`
	VolumeML         int                 `json:"volume"`
	Status           string              `json:"status"`
	CollectedAt      time.Time           `json:"collectedAt"`
	ExpiresAt        time.Time           `json:"expiresAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// NewUnit builds an available unit whose expiry follows the component's
// shelf life.
func NewUnit(procedureID uuid.UUID, t bloodtype.BloodType, c bloodtype.Component, volumeML int, collectedAt time.Time) *Unit {
	u := &Unit{
		BloodProcedureID: procedureID,
		BloodTypeID:      t.ID(),
		ComponentID:      c.ID(),
		VolumeML:         volumeML,
		Status:           StatusAvailable,
		CollectedAt:      collectedAt,
		ExpiresAt:        collectedAt.Add(c.ShelfLife()),
	}
	u.fill()
	return u
}

func (u *Unit) fill() {
	if t, err := bloodtype.FromID(u.BloodTypeID); err == nil {
		u.BloodType = t
	}
	if c, err := bloodtype.ComponentFromID(u.ComponentID); err == nil {
		u.Component = c
	}
}

// Expired reports whether the unit is past its expiry at now.
func (u *Unit) Expired(now time.Time) bool {
	return !now.Before(u.ExpiresAt)
}

// Actions accepted by the status endpoint.
const (
	ActionReserve = "reserve"
	ActionRelease = "release"
	ActionUse     = "use"
	ActionDiscard = "discard"
)

type transition struct {
	from []string
	to   string
}

var transitions = map[string]transition{
	ActionReserve: {from: []string{StatusAvailable}, to: StatusReserved},
	ActionRelease: {from: []string{StatusReserved}, to: StatusAvailable},
	ActionUse:     {from: []string{StatusAvailable, StatusReserved}, to: StatusUsed},
	ActionDiscard: {from: []string{StatusAvailable, StatusReserved}, to: StatusDiscarded},
}

type StatusRequest struct {
	Action string `json:"action"`
}

func (r StatusRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if _, ok := transitions[r.Action]; !ok {
		errs.Add("action", "action must be reserve, release, use or discard")
	}
	return errs
}
