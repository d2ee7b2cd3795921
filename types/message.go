package types

import "time"

// Message is a note a patient attaches to a diagnosis when sending it to a
// doctor.
type Message struct {
	ID          int       `json:"id" db:"id"`
	FromID      int       `json:"from_id" db:"from_id"`
	ToID        int       `json:"to_id" db:"to_id"`
	DiagnosisID int       `json:"diagnosis_id" db:"diagnosis_id"`
	Text        string    `json:"text" db:"text"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// MessageListing joins a message with sender identity and the referenced
// diagnosis for the doctor-facing inbox.
type MessageListing struct {
	Message
	SenderName      string `json:"sender_name" db:"sender_name"`
	SenderEmail     string `json:"sender_email" db:"sender_email"`
	DiagnosisResult string `json:"diagnosis_result" db:"diagnosis_result"`
}
