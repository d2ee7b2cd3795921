package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment types.Payment) (types.Payment, error)
	GetByID(ctx context.Context, id int) (types.Payment, error)
	UpdateStatus(ctx context.Context, id int, status string) error
	ListByDoctor(ctx context.Context, doctorID int) ([]types.Payment, error)
}

// PaymentService encapsulates payment use-cases. All patient operations
// are scoped through the appointment's ownership, never a client-supplied
// account id.
type PaymentService struct {
	payments     PaymentRepository
	appointments AppointmentRepository
	profiles     DoctorProfileRepository
}

func NewPaymentService(payments PaymentRepository, appointments AppointmentRepository, profiles DoctorProfileRepository) *PaymentService {
	return &PaymentService{
		payments:     payments,
		appointments: appointments,
		profiles:     profiles,
	}
}

// Pay initiates a payment for the patient's own appointment, and only when
// the appointment is held with the patient's selected doctor.
func (s *PaymentService) Pay(ctx context.Context, patient types.Account, appointmentID int, amount float64, method string) (types.Payment, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return types.Payment{}, err
	}
	if appointment.PatientID != patient.ID {
		return types.Payment{}, store.ErrNotFound
	}

	if patient.SelectedDoctorID == nil {
		return types.Payment{}, ErrDoctorNotSelected
	}
	profile, err := s.profiles.GetByID(ctx, *patient.SelectedDoctorID)
	if err != nil {
		return types.Payment{}, err
	}
	if profile.AccountID != appointment.DoctorID {
		return types.Payment{}, ErrDoctorNotSelected
	}

	return s.payments.Create(ctx, types.Payment{
		Reference:     uuid.NewString(),
		AppointmentID: appointmentID,
		Amount:        amount,
		Method:        method,
		Status:        types.PaymentPending,
	})
}

// Status returns a payment when the patient owns the paid appointment.
func (s *PaymentService) Status(ctx context.Context, patientID, paymentID int) (types.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return types.Payment{}, err
	}
	appointment, err := s.appointments.GetByID(ctx, payment.AppointmentID)
	if err != nil {
		return types.Payment{}, err
	}
	if appointment.PatientID != patientID {
		return types.Payment{}, store.ErrNotFound
	}
	return payment, nil
}

// UpdateStatus moves an owned payment to a new status.
func (s *PaymentService) UpdateStatus(ctx context.Context, patientID, paymentID int, status string) (types.Payment, error) {
	payment, err := s.Status(ctx, patientID, paymentID)
	if err != nil {
		return types.Payment{}, err
	}
	if err := s.payments.UpdateStatus(ctx, payment.ID, status); err != nil {
		return types.Payment{}, err
	}
	payment.Status = status
	return payment, nil
}

// ListForDoctor returns payments against the doctor's appointments.
func (s *PaymentService) ListForDoctor(ctx context.Context, doctorID int) ([]types.Payment, error) {
	return s.payments.ListByDoctor(ctx, doctorID)
}
