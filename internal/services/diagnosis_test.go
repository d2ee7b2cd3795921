package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/medscan/apiserver/internal/classifier"
	"github.com/medscan/apiserver/internal/storage"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
)

func newDiagnosisFixture(cl classifier.Classifier) (*DiagnosisService, *fakeDiagnoses, *fakeObjectStorage) {
	diagnoses := newFakeDiagnoses()
	objects := newFakeObjectStorage()
	svc := NewDiagnosisService(diagnoses, storage.NewStorage(objects), cl, zerolog.Nop())
	return svc, diagnoses, objects
}

func TestIntakeStoresImageAndRecord(t *testing.T) {
	svc, diagnoses, objects := newDiagnosisFixture(classifier.Static{
		Result: classifier.Result{Label: "melanoma", Confidence: 0.93},
	})

	patient := types.Account{ID: 7, Seq: 42}
	diagnosis, err := svc.Intake(context.Background(), patient, "scan.png", "image/png", []byte("imagedata"))
	if err != nil {
		t.Fatalf("intake: %v", err)
	}

	if diagnosis.Result != "melanoma" || diagnosis.Confidence != 0.93 {
		t.Fatalf("unexpected classification: %+v", diagnosis)
	}
	if !strings.HasPrefix(diagnosis.ObjectKey, "patients/42/") {
		t.Fatalf("object key must be scoped by patient sequence, got %q", diagnosis.ObjectKey)
	}
	if objects.len() != 1 {
		t.Fatalf("expected one stored object, got %d", objects.len())
	}
	if len(diagnoses.items) != 1 {
		t.Fatalf("expected one diagnosis row, got %d", len(diagnoses.items))
	}
}

func TestIntakeClassifierFailurePersistsNothing(t *testing.T) {
	svc, diagnoses, objects := newDiagnosisFixture(classifier.Static{
		Err: errors.New("connection refused"),
	})

	_, err := svc.Intake(context.Background(), types.Account{ID: 1, Seq: 1}, "scan.png", "image/png", []byte("imagedata"))
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if objects.len() != 0 {
		t.Fatalf("classification failure must persist no object")
	}
	if len(diagnoses.items) != 0 {
		t.Fatalf("classification failure must persist no record")
	}
}

func TestIntakeInsertFailureCleansUpObject(t *testing.T) {
	svc, diagnoses, objects := newDiagnosisFixture(classifier.Static{
		Result: classifier.Result{Label: "benign", Confidence: 0.8},
	})
	diagnoses.failCreate = true

	if _, err := svc.Intake(context.Background(), types.Account{ID: 1, Seq: 1}, "scan.png", "image/png", []byte("imagedata")); err == nil {
		t.Fatalf("expected insert failure")
	}
	if objects.len() != 0 {
		t.Fatalf("expected compensating delete of stored object")
	}
}

func TestGetOwnedScopesByAccount(t *testing.T) {
	svc, diagnoses, _ := newDiagnosisFixture(classifier.Static{})

	created, err := diagnoses.Create(context.Background(), types.Diagnosis{AccountID: 5, ObjectKey: "patients/1/x.png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetOwned(context.Background(), 6, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign diagnosis must read as not found, got %v", err)
	}
	if _, err := svc.GetOwned(context.Background(), 5, created.ID); err != nil {
		t.Fatalf("owned diagnosis: %v", err)
	}
}

func TestImageStreamsOwnedObject(t *testing.T) {
	svc, diagnoses, objects := newDiagnosisFixture(classifier.Static{})

	key := "patients/9/scan.png"
	if err := objects.Put(context.Background(), key, strings.NewReader("imagebytes"), 10, "image/png"); err != nil {
		t.Fatalf("seed object: %v", err)
	}
	created, err := diagnoses.Create(context.Background(), types.Diagnosis{AccountID: 9, ObjectKey: key})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reader, err := svc.Image(context.Background(), 9, created.ID)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "imagebytes" {
		t.Fatalf("unexpected image payload: %q", data)
	}
}
