package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/medscan/apiserver/config"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func newAccountService(accounts *fakeAccounts, counters *fakeCounters, profiles *fakeProfiles) *AccountService {
	return NewAccountService(accounts, counters, profiles, zerolog.Nop())
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hashed)
}

func TestRegisterAllocatesDistinctSequences(t *testing.T) {
	accounts := newFakeAccounts()
	svc := newAccountService(accounts, &fakeCounters{}, newFakeProfiles(accounts))

	const n = 20
	results := make([]types.Account, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			account, err := svc.Register(context.Background(), types.Account{
				FullName: "User",
				Email:    "user" + string(rune('a'+i)) + "@example.com",
				Role:     types.RolePatient,
			})
			if err != nil {
				t.Errorf("register: %v", err)
				return
			}
			results[i] = account
		}(i)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for _, account := range results {
		if account.Seq < 1 {
			t.Fatalf("sequence not allocated: %+v", account)
		}
		if seen[account.Seq] {
			t.Fatalf("duplicate sequence %d", account.Seq)
		}
		seen[account.Seq] = true
	}
}

func TestRegisterRetriesSequenceAllocation(t *testing.T) {
	accounts := newFakeAccounts()
	counters := &fakeCounters{failures: 2}
	svc := newAccountService(accounts, counters, newFakeProfiles(accounts))

	account, err := svc.Register(context.Background(), types.Account{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if account.Seq != 1 {
		t.Fatalf("expected seq 1, got %d", account.Seq)
	}
}

func TestRegisterAbortsWhenAllocationExhausted(t *testing.T) {
	accounts := newFakeAccounts()
	counters := &fakeCounters{failures: allocateMaxAttempts}
	svc := newAccountService(accounts, counters, newFakeProfiles(accounts))

	if _, err := svc.Register(context.Background(), types.Account{Email: "a@example.com"}); err == nil {
		t.Fatalf("expected allocation exhaustion error")
	}
	if len(accounts.items) != 0 {
		t.Fatalf("no account may exist without a sequence value")
	}
}

func TestRegisterDoctorStartsPending(t *testing.T) {
	accounts := newFakeAccounts()
	svc := newAccountService(accounts, &fakeCounters{}, newFakeProfiles(accounts))

	account, err := svc.Register(context.Background(), types.Account{
		Email: "doc@example.com",
		Role:  types.RoleDoctor,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.Role != types.RolePendingDoctor {
		t.Fatalf("expected pending_doctor, got %q", account.Role)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	accounts := newFakeAccounts()
	svc := newAccountService(accounts, &fakeCounters{}, newFakeProfiles(accounts))

	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}

	_, err := svc.Register(context.Background(), types.Account{
		Email:        "p@example.com",
		Role:         types.RolePatient,
		PasswordHash: mustHash(t, "right"),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "p@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateDoctorGate(t *testing.T) {
	accounts := newFakeAccounts()
	profiles := newFakeProfiles(accounts)
	svc := newAccountService(accounts, &fakeCounters{}, profiles)

	account, err := svc.Register(context.Background(), types.Account{
		Email:        "doc@example.com",
		Role:         types.RoleDoctor,
		PasswordHash: mustHash(t, "pw"),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "doc@example.com", "pw"); !errors.Is(err, ErrProfileMissing) {
		t.Fatalf("no profile: expected ErrProfileMissing, got %v", err)
	}

	profile, err := profiles.Create(context.Background(), types.DoctorProfile{
		AccountID:      account.ID,
		MedicalLicense: "LIC-1",
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "doc@example.com", "pw"); !errors.Is(err, ErrPendingApproval) {
		t.Fatalf("unapproved profile: expected ErrPendingApproval, got %v", err)
	}

	if err := profiles.SetApproved(context.Background(), profile.ID, true); err != nil {
		t.Fatalf("approve profile: %v", err)
	}

	authed, err := svc.Authenticate(context.Background(), "doc@example.com", "pw")
	if err != nil {
		t.Fatalf("approved login: %v", err)
	}
	if authed.Role != types.RoleDoctor {
		t.Fatalf("expected role reconciled to doctor, got %q", authed.Role)
	}

	stored, _ := accounts.GetByID(context.Background(), account.ID)
	if stored.Role != types.RoleDoctor {
		t.Fatalf("expected stored role doctor after reconciliation, got %q", stored.Role)
	}
}

func TestEnsureAdmin(t *testing.T) {
	accounts := newFakeAccounts()
	svc := newAccountService(accounts, &fakeCounters{}, newFakeProfiles(accounts))

	if err := svc.EnsureAdmin(context.Background(), config.AdminConfig{}); err != nil {
		t.Fatalf("disabled seeding: %v", err)
	}
	if len(accounts.items) != 0 {
		t.Fatalf("expected no account without credentials")
	}

	cfg := config.AdminConfig{Name: "Admin", Email: "admin@example.com", Password: "secret"}
	if err := svc.EnsureAdmin(context.Background(), cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := svc.EnsureAdmin(context.Background(), cfg); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(accounts.items) != 1 {
		t.Fatalf("expected exactly one admin account, got %d", len(accounts.items))
	}

	admin, err := accounts.GetByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("lookup admin: %v", err)
	}
	if admin.Role != types.RoleAdmin {
		t.Fatalf("expected admin role, got %q", admin.Role)
	}
}
