package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/medscan/apiserver/types"
)

// PaymentRepository handles persistence for payments.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment types.Payment) (types.Payment, error) {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = types.PaymentPending
	}

	const query = `
		INSERT INTO payments (reference, appointment_id, amount, method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		payment.Reference,
		payment.AppointmentID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return types.Payment{}, err
	}
	return payment, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int) (types.Payment, error) {
	const query = `
		SELECT id, reference, appointment_id, amount, method, status, created_at, updated_at
		FROM payments
		WHERE id = $1`
	var p types.Payment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Reference,
		&p.AppointmentID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Payment{}, ErrNotFound
		}
		return types.Payment{}, err
	}
	return p, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	const query = `
		UPDATE payments
		SET status = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// ListByDoctor returns payments for all appointments held with a doctor,
// newest first.
func (r *PaymentRepository) ListByDoctor(ctx context.Context, doctorID int) ([]types.Payment, error) {
	const query = `
		SELECT p.id, p.reference, p.appointment_id, p.amount, p.method, p.status, p.created_at, p.updated_at
		FROM payments p
		JOIN appointments a ON a.id = p.appointment_id
		WHERE a.doctor_id = $1
		ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]types.Payment, 0)
	for rows.Next() {
		var p types.Payment
		if err := rows.Scan(&p.ID, &p.Reference, &p.AppointmentID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}
