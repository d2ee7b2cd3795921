package services

import (
	"context"

	"github.com/medscan/apiserver/internal/mq"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
)

// AppointmentRepository defines persistence operations for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment types.Appointment) (types.Appointment, error)
	GetByID(ctx context.Context, id int) (types.Appointment, error)
	ListByPatient(ctx context.Context, patientID int) ([]types.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID int) ([]types.Appointment, error)
	UpdateStatus(ctx context.Context, id int, status string) error
}

// AppointmentService encapsulates booking use-cases.
type AppointmentService struct {
	appointments AppointmentRepository
	accounts     AccountRepository
	events       *mq.Events
}

func NewAppointmentService(appointments AppointmentRepository, accounts AccountRepository, events *mq.Events) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		accounts:     accounts,
		events:       events,
	}
}

// Book creates a pending appointment between the patient and a doctor
// account. Booking against anything but a doctor-role account is a not
// found, not a validation error.
func (s *AppointmentService) Book(ctx context.Context, patientID, doctorID int, date, timeSlot string) (types.Appointment, error) {
	doctor, err := s.accounts.GetByID(ctx, doctorID)
	if err != nil {
		return types.Appointment{}, err
	}
	if doctor.Role != types.RoleDoctor {
		return types.Appointment{}, store.ErrNotFound
	}

	appointment, err := s.appointments.Create(ctx, types.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      timeSlot,
		Status:    types.AppointmentPending,
	})
	if err != nil {
		return types.Appointment{}, err
	}

	s.events.Publish(ctx, mq.ChannelAppointmentBooked, mq.Event{AccountID: patientID, BookingID: appointment.ID})
	return appointment, nil
}

// ListForPatient returns the patient's own appointments.
func (s *AppointmentService) ListForPatient(ctx context.Context, patientID int) ([]types.Appointment, error) {
	return s.appointments.ListByPatient(ctx, patientID)
}

// ListForDoctor returns appointments held with the doctor.
func (s *AppointmentService) ListForDoctor(ctx context.Context, doctorID int) ([]types.Appointment, error) {
	return s.appointments.ListByDoctor(ctx, doctorID)
}

// SetStatus lets the doctor confirm or reject an appointment they hold.
func (s *AppointmentService) SetStatus(ctx context.Context, doctorID, appointmentID int, status string) (types.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return types.Appointment{}, err
	}
	if appointment.DoctorID != doctorID {
		return types.Appointment{}, store.ErrNotFound
	}

	if err := s.appointments.UpdateStatus(ctx, appointmentID, status); err != nil {
		return types.Appointment{}, err
	}
	appointment.Status = status
	return appointment, nil
}
