package types

import "time"

// DoctorProfile is a qualification submission owned by exactly one account.
// At most one profile exists per account; the medical license number is
// globally unique. A profile with Approved=false is pending admin review.
type DoctorProfile struct {
	ID             int       `json:"id" db:"id"`
	AccountID      int       `json:"account_id" db:"account_id"`
	Specialization string    `json:"specialization" db:"specialization"`
	Experience     string    `json:"experience" db:"experience"`
	Qualifications string    `json:"qualifications" db:"qualifications"`
	MedicalLicense string    `json:"medical_license" db:"medical_license"`
	Hospital       string    `json:"hospital" db:"hospital"`
	ContactNumber  string    `json:"contact_number" db:"contact_number"`
	Approved       bool      `json:"approved" db:"approved"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// DoctorListing is a profile joined with the owning account's public
// identity fields, used by the directory and admin review endpoints.
type DoctorListing struct {
	DoctorProfile
	FullName     string `json:"full_name" db:"full_name"`
	Email        string `json:"email" db:"email"`
	ProfileImage string `json:"profile_image,omitempty" db:"profile_image"`
}
