package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medscan/apiserver/types"
)

// ReportRepository handles persistence for medical reports.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report types.Report) (types.Report, error) {
	const query = `
		INSERT INTO reports (doctor_id, patient_id, diagnosis_id, description, object_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		report.DoctorID,
		report.PatientID,
		report.DiagnosisID,
		report.Description,
		report.ObjectKey,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return types.Report{}, err
	}
	return report, nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id int) (types.Report, error) {
	const query = `
		SELECT id, doctor_id, patient_id, diagnosis_id, description, object_key, created_at
		FROM reports
		WHERE id = $1`
	var report types.Report
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.DoctorID,
		&report.PatientID,
		&report.DiagnosisID,
		&report.Description,
		&report.ObjectKey,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Report{}, ErrNotFound
		}
		return types.Report{}, err
	}
	return report, nil
}

const reportListingQuery = `
	SELECT r.id, r.doctor_id, r.patient_id, r.diagnosis_id, r.description, r.object_key, r.created_at,
		a.full_name, COALESCE(p.specialization, ''),
		d.result, d.object_key, d.confidence
	FROM reports r
	JOIN accounts a ON a.id = r.doctor_id
	LEFT JOIN doctor_profiles p ON p.account_id = r.doctor_id
	JOIN diagnoses d ON d.id = r.diagnosis_id`

func scanReportListing(row interface{ Scan(...any) error }) (types.ReportListing, error) {
	var l types.ReportListing
	err := row.Scan(
		&l.ID,
		&l.DoctorID,
		&l.PatientID,
		&l.DiagnosisID,
		&l.Description,
		&l.ObjectKey,
		&l.CreatedAt,
		&l.DoctorName,
		&l.Specialization,
		&l.DiagnosisResult,
		&l.DiagnosisKey,
		&l.DiagnosisConf,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ReportListing{}, ErrNotFound
		}
		return types.ReportListing{}, err
	}
	return l, nil
}

// ListByPatient returns a patient's reports with doctor and diagnosis
// context, newest first. Scoping is always by the authenticated patient id.
func (r *ReportRepository) ListByPatient(ctx context.Context, patientID int) ([]types.ReportListing, error) {
	const query = reportListingQuery + `
	WHERE r.patient_id = $1
	ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]types.ReportListing, 0)
	for rows.Next() {
		l, err := scanReportListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing returns one report with doctor and diagnosis context.
func (r *ReportRepository) GetListing(ctx context.Context, id int) (types.ReportListing, error) {
	const query = reportListingQuery + `
	WHERE r.id = $1`
	return scanReportListing(r.db.QueryRowContext(ctx, query, id))
}

// GetByDiagnosis returns the report attached to a diagnosis, if any.
func (r *ReportRepository) GetByDiagnosis(ctx context.Context, diagnosisID int) (types.ReportListing, error) {
	const query = reportListingQuery + `
	WHERE r.diagnosis_id = $1`
	return scanReportListing(r.db.QueryRowContext(ctx, query, diagnosisID))
}
