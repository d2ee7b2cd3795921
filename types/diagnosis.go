package types

import "time"

// Diagnosis is the stored outcome of one AI-classified image upload.
type Diagnosis struct {
	ID         int       `json:"id" db:"id"`
	AccountID  int       `json:"account_id" db:"account_id"`
	ObjectKey  string    `json:"object_key" db:"object_key"`
	Result     string    `json:"result" db:"result"`
	Confidence float64   `json:"confidence" db:"confidence"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DiagnosisListing joins a diagnosis with the patient's identity fields
// for the doctor-facing inbox.
type DiagnosisListing struct {
	Diagnosis
	PatientName  string `json:"patient_name" db:"patient_name"`
	PatientEmail string `json:"patient_email" db:"patient_email"`
}
