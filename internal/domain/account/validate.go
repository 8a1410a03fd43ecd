package account

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
	"github.com/bloodlink/bloodlink/internal/platform/validation"
	"github.com/bloodlink/bloodlink/pkg/dates"
)

// PhonePattern is the local mobile number format: a leading zero and nine
// more digits.
const PhonePattern = `^0\d{9}$`

const (
	minPasswordLen = "8"
	maxPasswordLen = "72"
)

func validateCredentials(errs validation.Errors, email, password string) {
	if strings.TrimSpace(email) == "" {
		errs.Add("email", "email is required")
	} else if !govalidator.IsEmail(email) {
		errs.Add("email", "email is not valid")
	}
	if password == "" {
		errs.Add("password", "password is required")
	} else if !govalidator.StringLength(password, minPasswordLen, maxPasswordLen) {
		errs.Add("password", "password must be 8 to 72 characters")
	}
}

func validateProfile(errs validation.Errors, fullName, phone string, dob dates.Date) {
	if strings.TrimSpace(fullName) == "" {
		errs.Add("fullName", "full name is required")
	} else if !govalidator.StringLength(fullName, "1", "200") {
		errs.Add("fullName", "full name is too long")
	}
	if phone != "" && !govalidator.Matches(phone, PhonePattern) {
		errs.Add("phone", "phone must be 10 digits starting with 0")
	}
	if !dob.IsZero() && dob.After(dates.Today()) {
		errs.Add("dateOfBirth", "date of birth cannot be in the future")
	}
}

func (r RegisterRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	validateCredentials(errs, r.Email, r.Password)
	validateProfile(errs, r.FullName, r.Phone, r.DateOfBirth)
	if r.BloodType != "" {
		if _, err := bloodtype.New(r.BloodType); err != nil {
			errs.Add("bloodType", "blood type must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
		}
	}
	return errs
}

func (r LoginRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if strings.TrimSpace(r.Email) == "" {
		errs.Add("email", "email is required")
	}
	if r.Password == "" {
		errs.Add("password", "password is required")
	}
	return errs
}

func (r AddStaffRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	validateCredentials(errs, r.Email, r.Password)
	validateProfile(errs, r.FullName, r.Phone, dates.Date{})
	if r.Role != "" && r.Role != auth.RoleStaff && r.Role != auth.RoleAdmin {
		errs.Add("role", "role must be staff or admin")
	}
	return errs
}

func (r UpdateProfileRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	validateProfile(errs, r.FullName, r.Phone, r.DateOfBirth)
	return errs
}

func (r UpdateStatusRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if r.Status != StatusActive && r.Status != StatusDisabled {
		errs.Add("status", "status must be active or disabled")
	}
	return errs
}
