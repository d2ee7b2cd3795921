package services

import (
	"context"
	"errors"
	"testing"

	"github.com/medscan/apiserver/internal/mq"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
)

func newAppointmentFixture() (*AppointmentService, *fakeAccounts) {
	accounts := newFakeAccounts()
	return NewAppointmentService(newFakeAppointments(), accounts, mq.NewEvents(nil, zerolog.Nop())), accounts
}

func TestBookRequiresDoctorRole(t *testing.T) {
	svc, accounts := newAppointmentFixture()

	patient, err := accounts.Create(context.Background(), types.Account{Email: "p@example.com", Role: types.RolePatient})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}

	if _, err := svc.Book(context.Background(), patient.ID, patient.ID, "2026-09-15", "10:30"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("booking a non-doctor must read as not found, got %v", err)
	}
	if _, err := svc.Book(context.Background(), patient.ID, 404, "2026-09-15", "10:30"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("booking an unknown account must read as not found, got %v", err)
	}
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	svc, accounts := newAppointmentFixture()

	doctor, err := accounts.Create(context.Background(), types.Account{Email: "d@example.com", Role: types.RoleDoctor})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	appointment, err := svc.Book(context.Background(), 5, doctor.ID, "2026-09-15", "10:30")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appointment.Status != types.AppointmentPending {
		t.Fatalf("expected pending, got %q", appointment.Status)
	}

	own, err := svc.ListForPatient(context.Background(), 5)
	if err != nil {
		t.Fatalf("list for patient: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("expected one appointment, got %d", len(own))
	}
}

func TestSetStatusScopesByDoctor(t *testing.T) {
	svc, accounts := newAppointmentFixture()

	doctor, err := accounts.Create(context.Background(), types.Account{Email: "d@example.com", Role: types.RoleDoctor})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	appointment, err := svc.Book(context.Background(), 5, doctor.ID, "2026-09-15", "10:30")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), 999, appointment.ID, types.AppointmentConfirmed); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign appointment must read as not found, got %v", err)
	}

	confirmed, err := svc.SetStatus(context.Background(), doctor.ID, appointment.ID, types.AppointmentConfirmed)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if confirmed.Status != types.AppointmentConfirmed {
		t.Fatalf("expected confirmed, got %q", confirmed.Status)
	}
}
