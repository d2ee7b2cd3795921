package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/medscan/apiserver/types"
)

// AppointmentRepository handles persistence for appointments.
type AppointmentRepository struct {
	db *sql.DB
}

func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment types.Appointment) (types.Appointment, error) {
	now := time.Now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	if appointment.Status == "" {
		appointment.Status = types.AppointmentPending
	}

	const query = `
		INSERT INTO appointments (patient_id, doctor_id, date, time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	).Scan(&appointment.ID)
	if err != nil {
		return types.Appointment{}, err
	}
	return appointment, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int) (types.Appointment, error) {
	const query = `
		SELECT id, patient_id, doctor_id, date, time, status, created_at, updated_at
		FROM appointments
		WHERE id = $1`
	var a types.Appointment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&a.Time,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Appointment{}, ErrNotFound
		}
		return types.Appointment{}, err
	}
	return a, nil
}

func (r *AppointmentRepository) listBy(ctx context.Context, column string, id int) ([]types.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, date, time, status, created_at, updated_at
		FROM appointments
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]types.Appointment, 0)
	for rows.Next() {
		var a types.Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID int) ([]types.Appointment, error) {
	return r.listBy(ctx, "patient_id", patientID)
}

func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID int) ([]types.Appointment, error) {
	return r.listBy(ctx, "doctor_id", doctorID)
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	const query = `
		UPDATE appointments
		SET status = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
