package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/medscan/apiserver/internal/classifier"
	"github.com/medscan/apiserver/internal/storage"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
)

// DiagnosisRepository defines persistence operations for diagnoses.
type DiagnosisRepository interface {
	Create(ctx context.Context, diagnosis types.Diagnosis) (types.Diagnosis, error)
	GetByID(ctx context.Context, id int) (types.Diagnosis, error)
	ListByAccount(ctx context.Context, accountID int) ([]types.Diagnosis, error)
	ListAll(ctx context.Context) ([]types.DiagnosisListing, error)
}

// DiagnosisService runs the image intake pipeline: classify, store the
// image, record the result.
type DiagnosisService struct {
	diagnoses  DiagnosisRepository
	storage    *storage.Storage
	classifier classifier.Classifier
	logger     zerolog.Logger
}

func NewDiagnosisService(diagnoses DiagnosisRepository, st *storage.Storage, cl classifier.Classifier, logger zerolog.Logger) *DiagnosisService {
	return &DiagnosisService{
		diagnoses:  diagnoses,
		storage:    st,
		classifier: cl,
		logger:     logger,
	}
}

// Intake classifies an uploaded image and persists both the object and the
// diagnosis record. Classification failure persists nothing; a record
// insert failure removes the already-stored object so no orphan remains.
func (s *DiagnosisService) Intake(ctx context.Context, account types.Account, filename, contentType string, image []byte) (types.Diagnosis, error) {
	result, err := s.classifier.Classify(ctx, filename, contentType, image)
	if err != nil {
		return types.Diagnosis{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	key := storage.DiagnosisKey(account.Seq, filename)
	if err := s.storage.Put(ctx, key, bytes.NewReader(image), int64(len(image)), contentType); err != nil {
		return types.Diagnosis{}, err
	}

	diagnosis, err := s.diagnoses.Create(ctx, types.Diagnosis{
		AccountID:  account.ID,
		ObjectKey:  key,
		Result:     result.Label,
		Confidence: result.Confidence,
	})
	if err != nil {
		if cleanupErr := s.storage.Delete(ctx, key); cleanupErr != nil {
			s.logger.Error().Err(cleanupErr).Str("key", key).Msg("orphaned upload cleanup failed")
		}
		return types.Diagnosis{}, err
	}

	return diagnosis, nil
}

// History returns a patient's own diagnoses.
func (s *DiagnosisService) History(ctx context.Context, accountID int) ([]types.Diagnosis, error) {
	return s.diagnoses.ListByAccount(ctx, accountID)
}

// Inbox returns all diagnoses with patient identity for doctor review.
func (s *DiagnosisService) Inbox(ctx context.Context) ([]types.DiagnosisListing, error) {
	return s.diagnoses.ListAll(ctx)
}

// GetOwned returns a diagnosis only when it belongs to the given account.
func (s *DiagnosisService) GetOwned(ctx context.Context, accountID, diagnosisID int) (types.Diagnosis, error) {
	diagnosis, err := s.diagnoses.GetByID(ctx, diagnosisID)
	if err != nil {
		return types.Diagnosis{}, err
	}
	if diagnosis.AccountID != accountID {
		return types.Diagnosis{}, store.ErrNotFound
	}
	return diagnosis, nil
}

// Image streams the stored image for a diagnosis owned by the account.
func (s *DiagnosisService) Image(ctx context.Context, accountID, diagnosisID int) (io.ReadCloser, error) {
	diagnosis, err := s.GetOwned(ctx, accountID, diagnosisID)
	if err != nil {
		return nil, err
	}
	return s.storage.Get(ctx, diagnosis.ObjectKey)
}
