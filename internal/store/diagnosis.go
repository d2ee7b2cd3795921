package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medscan/apiserver/types"
)

// DiagnosisRepository handles persistence for diagnoses.
type DiagnosisRepository struct {
	db *sql.DB
}

func NewDiagnosisRepository(db *sql.DB) *DiagnosisRepository {
	return &DiagnosisRepository{db: db}
}

func (r *DiagnosisRepository) Create(ctx context.Context, diagnosis types.Diagnosis) (types.Diagnosis, error) {
	const query = `
		INSERT INTO diagnoses (account_id, object_key, result, confidence)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		diagnosis.AccountID,
		diagnosis.ObjectKey,
		diagnosis.Result,
		diagnosis.Confidence,
	).Scan(&diagnosis.ID, &diagnosis.CreatedAt)
	if err != nil {
		return types.Diagnosis{}, err
	}
	return diagnosis, nil
}

func (r *DiagnosisRepository) GetByID(ctx context.Context, id int) (types.Diagnosis, error) {
	const query = `
		SELECT id, account_id, object_key, result, confidence, created_at
		FROM diagnoses
		WHERE id = $1`
	var diagnosis types.Diagnosis
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&diagnosis.ID,
		&diagnosis.AccountID,
		&diagnosis.ObjectKey,
		&diagnosis.Result,
		&diagnosis.Confidence,
		&diagnosis.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Diagnosis{}, ErrNotFound
		}
		return types.Diagnosis{}, err
	}
	return diagnosis, nil
}

// ListByAccount returns a patient's own diagnosis history, newest first.
func (r *DiagnosisRepository) ListByAccount(ctx context.Context, accountID int) ([]types.Diagnosis, error) {
	const query = `
		SELECT id, account_id, object_key, result, confidence, created_at
		FROM diagnoses
		WHERE account_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	diagnoses := make([]types.Diagnosis, 0)
	for rows.Next() {
		var d types.Diagnosis
		if err := rows.Scan(&d.ID, &d.AccountID, &d.ObjectKey, &d.Result, &d.Confidence, &d.CreatedAt); err != nil {
			return nil, err
		}
		diagnoses = append(diagnoses, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return diagnoses, nil
}

// ListAll returns every diagnosis joined with patient identity, newest
// first. Used by the doctor-facing inbox.
func (r *DiagnosisRepository) ListAll(ctx context.Context) ([]types.DiagnosisListing, error) {
	const query = `
		SELECT d.id, d.account_id, d.object_key, d.result, d.confidence, d.created_at,
			a.full_name, a.email
		FROM diagnoses d
		JOIN accounts a ON a.id = d.account_id
		ORDER BY d.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]types.DiagnosisListing, 0)
	for rows.Next() {
		var l types.DiagnosisListing
		if err := rows.Scan(
			&l.ID,
			&l.AccountID,
			&l.ObjectKey,
			&l.Result,
			&l.Confidence,
			&l.CreatedAt,
			&l.PatientName,
			&l.PatientEmail,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}
