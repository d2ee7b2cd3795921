package types

import "time"

// Roles an account can hold. An account has exactly one role at any time,
// and RoleDoctor is reachable only through admin approval.
const (
	RolePatient       = "patient"
	RolePendingDoctor = "pending_doctor"
	RoleDoctor        = "doctor"
	RoleAdmin         = "admin"
)

// Account represents one registered identity in the system.
// It contains identity, role, and audit metadata.
type Account struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// Seq is the sequential numeric identifier, allocated exactly once at
	// registration and strictly increasing across all accounts.
	Seq int64 `json:"seq" db:"seq"`

	// FullName is the account holder's display name.
	FullName string `json:"full_name" db:"full_name"`

	// Email is the unique login email address.
	Email string `json:"email" db:"email"`

	// Role indicates the account's authorization level within the system
	// ("patient", "pending_doctor", "doctor", or "admin").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// MobileNumber is the account holder's contact number.
	MobileNumber string `json:"mobile_number,omitempty" db:"mobile_number"`

	// BirthDate is the account holder's date of birth.
	BirthDate *time.Time `json:"birth_date,omitempty" db:"birth_date"`

	// ProfileImage is the object key or filename of the profile picture.
	ProfileImage string `json:"profile_image,omitempty" db:"profile_image"`

	// SelectedDoctorID references the doctor profile a patient has chosen,
	// if any. Only meaningful for patient accounts.
	SelectedDoctorID *int `json:"selected_doctor_id,omitempty" db:"selected_doctor_id"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidRegistrationRole reports whether a role may be requested at
// registration time. Doctor intent registers as pending_doctor; the doctor
// role itself is never assignable directly.
func ValidRegistrationRole(role string) bool {
	switch role {
	case RolePatient, RolePendingDoctor, RoleDoctor:
		return true
	default:
		return false
	}
}
