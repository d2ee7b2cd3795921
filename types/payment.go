package types

import "time"

// Payment statuses and methods.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"

	PaymentMethodCard   = "card"
	PaymentMethodPaypal = "paypal"
)

// Payment records a patient payment against an appointment.
type Payment struct {
	ID            int       `json:"id" db:"id"`
	Reference     string    `json:"reference" db:"reference"`
	AppointmentID int       `json:"appointment_id" db:"appointment_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Method        string    `json:"method" db:"method"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ValidPaymentMethod reports whether a payment method is supported.
func ValidPaymentMethod(method string) bool {
	return method == PaymentMethodCard || method == PaymentMethodPaypal
}

// ValidPaymentStatus reports whether a payment status value is known.
func ValidPaymentStatus(status string) bool {
	switch status {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	default:
		return false
	}
}
