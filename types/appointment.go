package types

import "time"

// Appointment statuses.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentRejected  = "rejected"
)

// Appointment is a booking between a patient and a doctor.
type Appointment struct {
	ID        int       `json:"id" db:"id"`
	PatientID int       `json:"patient_id" db:"patient_id"`
	DoctorID  int       `json:"doctor_id" db:"doctor_id"`
	Date      string    `json:"date" db:"date"`
	Time      string    `json:"time" db:"time"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidAppointmentStatus reports whether a status value is known.
func ValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentPending, AppointmentConfirmed, AppointmentRejected:
		return true
	default:
		return false
	}
}
