package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/pkg/dates"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type Account struct {
	ID           uuid.UUID           `json:"id"`
	Email        string              `json:"email"`
	PasswordHash string              `json:"-"`
	FullName     string              `json:"fullName"`
	Phone        string              `json:"phone"`
	Role         string              `json:"role"`
	Status       string              `json:"status"`
	BloodTypeID  *int                `json:"bloodTypeId"`
	BloodType    bloodtype.BloodType `json:"bloodType"`
	Gender       string              `json:"gender"`
	DateOfBirth  dates.Date          `json:"dateOfBirth"`
	Address      string              `json:"address"`
	FacilityID   *uuid.UUID          `json:"facilityId"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// KnownBloodType returns the account's blood type when it has been
// recorded.
func (a *Account) KnownBloodType() (bloodtype.BloodType, bool) {
	if a.BloodTypeID == nil {
		return bloodtype.BloodType{}, false
	}
	t, err := bloodtype.FromID(*a.BloodTypeID)
	if err != nil {
		return bloodtype.BloodType{}, false
	}
	return t, true
}

func (a *Account) fillBloodType() {
	if t, ok := a.KnownBloodType(); ok {
		a.BloodType = t
	} else {
		a.BloodType = bloodtype.BloodType{}
	}
}

func (a *Account) Active() bool {
	return a.Status == StatusActive
}

type RegisterRequest struct {
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FullName    string     `json:"fullName"`
	Phone       string     `json:"phone"`
	Gender      string     `json:"gender"`
	DateOfBirth dates.Date `json:"dateOfBirth"`
	Address     string     `json:"address"`
	BloodType   string     `json:"bloodType"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Account     *Account  `json:"account"`
}

// AddStaffRequest creates a staff or admin account. The blood type may be
// given as separate abo/rh selectors or as a combined code.
type AddStaffRequest struct {
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	FullName   string     `json:"fullName"`
	Phone      string     `json:"phone"`
	Role       string     `json:"role"`
	ABO        string     `json:"abo"`
	Rh         string     `json:"rh"`
	BloodType  string     `json:"bloodType"`
	Gender     string     `json:"gender"`
	Address    string     `json:"address"`
	FacilityID *uuid.UUID `json:"facilityId"`
}

// BloodTypeID resolves the selectors to a backend id. Unknown selectors
// fall back to the codec default; nil means no blood type was given.
func (r AddStaffRequest) BloodTypeID() *int {
	var id int
	switch {
	case r.ABO != "" || r.Rh != "":
		id = bloodtype.ToNumericID(bloodtype.ABO(r.ABO), bloodtype.Rh(r.Rh))
	case r.BloodType != "":
		id = bloodtype.CodeToNumericID(r.BloodType)
	default:
		return nil
	}
	return &id
}

type UpdateProfileRequest struct {
	FullName    string     `json:"fullName"`
	Phone       string     `json:"phone"`
	Gender      string     `json:"gender"`
	DateOfBirth dates.Date `json:"dateOfBirth"`
	Address     string     `json:"address"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
