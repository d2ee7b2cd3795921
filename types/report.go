package types

import "time"

// Report is a doctor-authored medical report attached to a diagnosis.
// ObjectKey points at the generated PDF in object storage.
type Report struct {
	ID          int       `json:"id" db:"id"`
	DoctorID    int       `json:"doctor_id" db:"doctor_id"`
	PatientID   int       `json:"patient_id" db:"patient_id"`
	DiagnosisID int       `json:"diagnosis_id" db:"diagnosis_id"`
	Description string    `json:"description" db:"description"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ReportListing joins a report with doctor identity and diagnosis detail
// for the patient-facing report list.
type ReportListing struct {
	Report
	DoctorName       string  `json:"doctor_name" db:"doctor_name"`
	Specialization   string  `json:"specialization,omitempty" db:"specialization"`
	DiagnosisResult  string  `json:"diagnosis_result" db:"diagnosis_result"`
	DiagnosisKey     string  `json:"diagnosis_key" db:"diagnosis_key"`
	DiagnosisConf    float64 `json:"diagnosis_confidence" db:"diagnosis_confidence"`
}
