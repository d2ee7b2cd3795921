package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/medscan/apiserver/types"
)

// AccountRepository handles persistence for accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, seq, full_name, email, role, password_hash, mobile_number, birth_date, profile_image, selected_doctor_id, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (types.Account, error) {
	var account types.Account
	err := row.Scan(
		&account.ID,
		&account.Seq,
		&account.FullName,
		&account.Email,
		&account.Role,
		&account.PasswordHash,
		&account.MobileNumber,
		&account.BirthDate,
		&account.ProfileImage,
		&account.SelectedDoctorID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (types.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	const query = `
		INSERT INTO accounts (seq, full_name, email, role, password_hash, mobile_number, birth_date, profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if account.ProfileImage == "" {
		account.ProfileImage = "default.png"
	}
	err := r.db.QueryRowContext(
		ctx,
		query,
		account.Seq,
		account.FullName,
		account.Email,
		account.Role,
		account.PasswordHash,
		account.MobileNumber,
		account.BirthDate,
		account.ProfileImage,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		if isUniqueViolation(err, "accounts_email_key") {
			return types.Account{}, ErrDuplicateEmail
		}
		return types.Account{}, err
	}
	return account, nil
}

// UpdateRole moves an account to a new role. Role transitions are driven by
// the doctor-approval flow and login-time reconciliation only.
func (r *AccountRepository) UpdateRole(ctx context.Context, id int, role string) error {
	const query = `
		UPDATE accounts
		SET role = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, role, time.Now(), id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SetSelectedDoctor records a patient's chosen doctor profile.
func (r *AccountRepository) SetSelectedDoctor(ctx context.Context, accountID, profileID int) error {
	const query = `
		UPDATE accounts
		SET selected_doctor_id = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, profileID, time.Now(), accountID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *AccountRepository) List(ctx context.Context, offset, limit int) ([]types.Account, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM accounts`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY seq
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	accounts := make([]types.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// ExistsByRole reports whether any account holds the given role.
func (r *AccountRepository) ExistsByRole(ctx context.Context, role string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE role = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, role).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM accounts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
