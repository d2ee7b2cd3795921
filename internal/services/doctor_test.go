package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/medscan/apiserver/internal/mq"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
)

func newDoctorFixture(t *testing.T) (*DoctorService, *fakeAccounts, *fakeProfiles) {
	t.Helper()
	accounts := newFakeAccounts()
	profiles := newFakeProfiles(accounts)
	svc := NewDoctorService(profiles, accounts, mq.NewEvents(nil, zerolog.Nop()), zerolog.Nop())
	return svc, accounts, profiles
}

func addAccount(t *testing.T, accounts *fakeAccounts, email, role string) types.Account {
	t.Helper()
	account, err := accounts.Create(context.Background(), types.Account{
		FullName: "Test User",
		Email:    email,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func TestSubmitMovesPatientToPendingDoctor(t *testing.T) {
	svc, accounts, _ := newDoctorFixture(t)
	account := addAccount(t, accounts, "p@example.com", types.RolePatient)

	profile, err := svc.Submit(context.Background(), account.ID, SubmitInput{
		Specialization: "Radiology",
		MedicalLicense: "LIC-001",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if profile.Approved {
		t.Fatalf("new submission must not be approved")
	}

	stored, _ := accounts.GetByID(context.Background(), account.ID)
	if stored.Role != types.RolePendingDoctor {
		t.Fatalf("expected pending_doctor, got %q", stored.Role)
	}
}

func TestDoubleSubmitConflicts(t *testing.T) {
	svc, accounts, profiles := newDoctorFixture(t)
	account := addAccount(t, accounts, "d@example.com", types.RolePendingDoctor)

	if _, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-001"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-002"}); !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}
	if len(profiles.items) != 1 {
		t.Fatalf("expected a single profile row, got %d", len(profiles.items))
	}
}

func TestSubmitAfterApprovalConflicts(t *testing.T) {
	svc, accounts, _ := newDoctorFixture(t)
	account := addAccount(t, accounts, "d@example.com", types.RolePendingDoctor)

	profile, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-001"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(context.Background(), profile.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-002"}); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}
}

func TestConcurrentSubmitsSameLicense(t *testing.T) {
	svc, accounts, profiles := newDoctorFixture(t)
	first := addAccount(t, accounts, "a@example.com", types.RolePendingDoctor)
	second := addAccount(t, accounts, "b@example.com", types.RolePendingDoctor)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, account := range []types.Account{first, second} {
		wg.Add(1)
		go func(i, accountID int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(context.Background(), accountID, SubmitInput{MedicalLicense: "LIC-999"})
		}(i, account.ID)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, store.ErrDuplicateLicense):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected one success and one conflict, got %d/%d", successes, conflicts)
	}
	if len(profiles.items) != 1 {
		t.Fatalf("expected a single profile row, got %d", len(profiles.items))
	}
}

func TestApprovePromotesAccount(t *testing.T) {
	svc, accounts, _ := newDoctorFixture(t)
	account := addAccount(t, accounts, "d@example.com", types.RolePendingDoctor)

	profile, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-001"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	approved, err := svc.Approve(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.Approved {
		t.Fatalf("expected approved flag set")
	}

	stored, _ := accounts.GetByID(context.Background(), account.ID)
	if stored.Role != types.RoleDoctor {
		t.Fatalf("expected doctor role, got %q", stored.Role)
	}

	if _, err := svc.Approve(context.Background(), profile.ID); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("re-approve: expected ErrAlreadyApproved, got %v", err)
	}
}

func TestApproveMissingProfile(t *testing.T) {
	svc, _, _ := newDoctorFixture(t)
	if _, err := svc.Approve(context.Background(), 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectAllowsResubmission(t *testing.T) {
	svc, accounts, profiles := newDoctorFixture(t)
	account := addAccount(t, accounts, "d@example.com", types.RolePendingDoctor)

	profile, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-001"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Reject(context.Background(), profile.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(profiles.items) != 0 {
		t.Fatalf("expected profile deleted on rejection")
	}

	stored, err := accounts.GetByID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("rejection must never delete the account: %v", err)
	}
	if stored.Role != types.RolePendingDoctor {
		t.Fatalf("expected pending_doctor after rejection, got %q", stored.Role)
	}

	if _, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-001"}); err != nil {
		t.Fatalf("resubmission after rejection: %v", err)
	}
}

func TestRejectApprovedProfileConflicts(t *testing.T) {
	svc, accounts, _ := newDoctorFixture(t)
	account := addAccount(t, accounts, "d@example.com", types.RolePendingDoctor)

	profile, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-001"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(context.Background(), profile.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := svc.Reject(context.Background(), profile.ID); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}
}

func TestDirectoryHidesPendingProfiles(t *testing.T) {
	svc, accounts, _ := newDoctorFixture(t)
	account := addAccount(t, accounts, "d@example.com", types.RolePendingDoctor)

	profile, err := svc.Submit(context.Background(), account.ID, SubmitInput{MedicalLicense: "LIC-001"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.GetApproved(context.Background(), profile.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("pending profile must be hidden, got %v", err)
	}

	if _, err := svc.Approve(context.Background(), profile.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	listing, err := svc.GetApproved(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("approved profile: %v", err)
	}
	if listing.Email != "d@example.com" {
		t.Fatalf("expected listing joined with account identity, got %q", listing.Email)
	}
}

func TestSelectDoctor(t *testing.T) {
	svc, accounts, _ := newDoctorFixture(t)
	doctorAccount := addAccount(t, accounts, "d@example.com", types.RolePendingDoctor)
	patient := addAccount(t, accounts, "p@example.com", types.RolePatient)

	profile, err := svc.Submit(context.Background(), doctorAccount.ID, SubmitInput{MedicalLicense: "LIC-001"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.SelectDoctor(context.Background(), patient.ID, profile.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("selecting a pending doctor must fail, got %v", err)
	}

	if _, err := svc.Approve(context.Background(), profile.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.SelectDoctor(context.Background(), patient.ID, profile.ID); err != nil {
		t.Fatalf("select doctor: %v", err)
	}

	stored, _ := accounts.GetByID(context.Background(), patient.ID)
	if stored.SelectedDoctorID == nil || *stored.SelectedDoctorID != profile.ID {
		t.Fatalf("expected selected doctor persisted on account")
	}
}

func TestAdminUpdateKeepsBlankFields(t *testing.T) {
	svc, accounts, _ := newDoctorFixture(t)
	account := addAccount(t, accounts, "d@example.com", types.RolePendingDoctor)

	profile, err := svc.Submit(context.Background(), account.ID, SubmitInput{
		Specialization: "Radiology",
		Hospital:       "General Hospital",
		MedicalLicense: "LIC-001",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.AdminUpdate(context.Background(), account.ID, SubmitInput{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("non-doctor account must not be updatable, got %v", err)
	}

	if _, err := svc.Approve(context.Background(), profile.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	updated, err := svc.AdminUpdate(context.Background(), account.ID, SubmitInput{Specialization: "Oncology"})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Specialization != "Oncology" {
		t.Fatalf("expected specialization updated, got %q", updated.Specialization)
	}
	if updated.Hospital != "General Hospital" {
		t.Fatalf("blank input must keep current value, got %q", updated.Hospital)
	}
	if updated.MedicalLicense != "LIC-001" {
		t.Fatalf("blank input must keep current license, got %q", updated.MedicalLicense)
	}
}
