package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/medscan/apiserver/types"
)

// DoctorRepository handles persistence for doctor profiles.
type DoctorRepository struct {
	db *sql.DB
}

func NewDoctorRepository(db *sql.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

const profileColumns = `id, account_id, specialization, experience, qualifications, medical_license, hospital, contact_number, approved, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (types.DoctorProfile, error) {
	var profile types.DoctorProfile
	err := row.Scan(
		&profile.ID,
		&profile.AccountID,
		&profile.Specialization,
		&profile.Experience,
		&profile.Qualifications,
		&profile.MedicalLicense,
		&profile.Hospital,
		&profile.ContactNumber,
		&profile.Approved,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.DoctorProfile{}, ErrNotFound
		}
		return types.DoctorProfile{}, err
	}
	return profile, nil
}

// Create inserts a new doctor profile. The unique constraints on account_id
// and medical_license arbitrate concurrent submissions: the losing insert
// fails with ErrProfileExists or ErrDuplicateLicense, never overwrites.
func (r *DoctorRepository) Create(ctx context.Context, profile types.DoctorProfile) (types.DoctorProfile, error) {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	const query = `
		INSERT INTO doctor_profiles (account_id, specialization, experience, qualifications, medical_license, hospital, contact_number, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		profile.AccountID,
		profile.Specialization,
		profile.Experience,
		profile.Qualifications,
		profile.MedicalLicense,
		profile.Hospital,
		profile.ContactNumber,
		profile.Approved,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Scan(&profile.ID)
	if err != nil {
		if isUniqueViolation(err, "doctor_profiles_account_id_key") {
			return types.DoctorProfile{}, ErrProfileExists
		}
		if isUniqueViolation(err, "doctor_profiles_medical_license_key") {
			return types.DoctorProfile{}, ErrDuplicateLicense
		}
		return types.DoctorProfile{}, err
	}
	return profile, nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id int) (types.DoctorProfile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM doctor_profiles
		WHERE id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, id))
}

func (r *DoctorRepository) GetByAccount(ctx context.Context, accountID int) (types.DoctorProfile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM doctor_profiles
		WHERE account_id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, accountID))
}

// SetApproved flips the approval flag on a profile.
func (r *DoctorRepository) SetApproved(ctx context.Context, id int, approved bool) error {
	const query = `
		UPDATE doctor_profiles
		SET approved = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, approved, time.Now(), id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Update rewrites the mutable profile fields (admin corrections).
func (r *DoctorRepository) Update(ctx context.Context, profile types.DoctorProfile) (types.DoctorProfile, error) {
	profile.UpdatedAt = time.Now()

	const query = `
		UPDATE doctor_profiles
		SET specialization = $1,
			experience = $2,
			qualifications = $3,
			medical_license = $4,
			hospital = $5,
			contact_number = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		profile.Specialization,
		profile.Experience,
		profile.Qualifications,
		profile.MedicalLicense,
		profile.Hospital,
		profile.ContactNumber,
		profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "doctor_profiles_medical_license_key") {
			return types.DoctorProfile{}, ErrDuplicateLicense
		}
		return types.DoctorProfile{}, err
	}
	if err := checkAffected(result); err != nil {
		return types.DoctorProfile{}, err
	}
	return profile, nil
}

func (r *DoctorRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM doctor_profiles WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// ListByApproval returns profiles joined with the owning account's public
// identity, filtered on the approval flag.
func (r *DoctorRepository) ListByApproval(ctx context.Context, approved bool) ([]types.DoctorListing, error) {
	const query = `
		SELECT p.id, p.account_id, p.specialization, p.experience, p.qualifications, p.medical_license, p.hospital, p.contact_number, p.approved, p.created_at, p.updated_at,
			a.full_name, a.email, a.profile_image
		FROM doctor_profiles p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.approved = $1
		ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, query, approved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]types.DoctorListing, 0)
	for rows.Next() {
		var l types.DoctorListing
		if err := rows.Scan(
			&l.ID,
			&l.AccountID,
			&l.Specialization,
			&l.Experience,
			&l.Qualifications,
			&l.MedicalLicense,
			&l.Hospital,
			&l.ContactNumber,
			&l.Approved,
			&l.CreatedAt,
			&l.UpdatedAt,
			&l.FullName,
			&l.Email,
			&l.ProfileImage,
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

// GetListing returns one profile joined with account identity.
func (r *DoctorRepository) GetListing(ctx context.Context, id int) (types.DoctorListing, error) {
	const query = `
		SELECT p.id, p.account_id, p.specialization, p.experience, p.qualifications, p.medical_license, p.hospital, p.contact_number, p.approved, p.created_at, p.updated_at,
			a.full_name, a.email, a.profile_image
		FROM doctor_profiles p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.id = $1`
	var l types.DoctorListing
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID,
		&l.AccountID,
		&l.Specialization,
		&l.Experience,
		&l.Qualifications,
		&l.MedicalLicense,
		&l.Hospital,
		&l.ContactNumber,
		&l.Approved,
		&l.CreatedAt,
		&l.UpdatedAt,
		&l.FullName,
		&l.Email,
		&l.ProfileImage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.DoctorListing{}, ErrNotFound
		}
		return types.DoctorListing{}, err
	}
	return l, nil
}
