package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medscan/apiserver/config"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	UpdateRole(ctx context.Context, id int, role string) error
	SetSelectedDoctor(ctx context.Context, accountID, profileID int) error
	List(ctx context.Context, offset, limit int) ([]types.Account, int, error)
	ExistsByRole(ctx context.Context, role string) (bool, error)
	Delete(ctx context.Context, id int) error
}

// CounterRepository allocates monotonically increasing sequence values.
type CounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

const (
	accountCounterName   = "account"
	allocateMaxAttempts  = 3
	allocateRetryBackoff = 100 * time.Millisecond
)

// AccountService encapsulates registration, authentication, and account
// administration use-cases.
type AccountService struct {
	accounts AccountRepository
	counters CounterRepository
	profiles DoctorProfileRepository
	logger   zerolog.Logger
}

func NewAccountService(accounts AccountRepository, counters CounterRepository, profiles DoctorProfileRepository, logger zerolog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		counters: counters,
		profiles: profiles,
		logger:   logger,
	}
}

// Register allocates a sequential identifier and creates the account.
// Allocation failure aborts registration: no account exists without a
// unique sequence value.
func (s *AccountService) Register(ctx context.Context, account types.Account) (types.Account, error) {
	seq, err := s.allocateSeq(ctx)
	if err != nil {
		return types.Account{}, err
	}
	account.Seq = seq

	if account.Role == "" {
		account.Role = types.RolePatient
	}
	// Doctor intent always starts unapproved.
	if account.Role == types.RoleDoctor {
		account.Role = types.RolePendingDoctor
	}

	return s.accounts.Create(ctx, account)
}

func (s *AccountService) allocateSeq(ctx context.Context) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= allocateMaxAttempts; attempt++ {
		seq, err := s.counters.Next(ctx, accountCounterName)
		if err == nil {
			return seq, nil
		}
		lastErr = err
		s.logger.Warn().Err(err).Int("attempt", attempt).Msg("sequence allocation failed")

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(allocateRetryBackoff):
		}
	}
	return 0, fmt.Errorf("sequence allocation exhausted retries: %w", lastErr)
}

// Authenticate verifies credentials and applies the doctor login gate: for
// doctor-track accounts the current profile is the ground truth, not the
// stored role. An approved profile reconciles a drifted role to doctor
// before any token is issued.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (types.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, ErrInvalidCredentials
		}
		return types.Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return types.Account{}, ErrInvalidCredentials
	}

	if account.Role == types.RolePendingDoctor || account.Role == types.RoleDoctor {
		profile, err := s.profiles.GetByAccount(ctx, account.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.Account{}, ErrProfileMissing
			}
			return types.Account{}, err
		}
		if !profile.Approved {
			return types.Account{}, ErrPendingApproval
		}
		if account.Role != types.RoleDoctor {
			if err := s.accounts.UpdateRole(ctx, account.ID, types.RoleDoctor); err != nil {
				return types.Account{}, err
			}
			account.Role = types.RoleDoctor
		}
	}

	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int) (types.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *AccountService) List(ctx context.Context, offset, limit int) ([]types.Account, int, error) {
	return s.accounts.List(ctx, offset, limit)
}

// Delete removes an account permanently. Destructive and irreversible;
// admin-gated at the handler.
func (s *AccountService) Delete(ctx context.Context, id int) error {
	return s.accounts.Delete(ctx, id)
}

// EnsureAdmin creates the bootstrap admin account at startup when none
// exists. A blank email or password disables seeding.
func (s *AccountService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		s.logger.Info().Msg("admin seeding disabled: no credentials configured")
		return nil
	}

	exists, err := s.accounts.ExistsByRole(ctx, types.RoleAdmin)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := types.Account{
		FullName:     cfg.Name,
		Email:        cfg.Email,
		Role:         types.RoleAdmin,
		PasswordHash: string(hashed),
	}
	if _, err := s.Register(ctx, admin); err != nil {
		return err
	}
	s.logger.Info().Str("email", cfg.Email).Msg("admin account created")
	return nil
}
