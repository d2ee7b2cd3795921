package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/medscan/apiserver/internal/mq"
	"github.com/medscan/apiserver/internal/pdf"
	"github.com/medscan/apiserver/internal/storage"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
)

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	Create(ctx context.Context, report types.Report) (types.Report, error)
	GetByID(ctx context.Context, id int) (types.Report, error)
	ListByPatient(ctx context.Context, patientID int) ([]types.ReportListing, error)
	GetListing(ctx context.Context, id int) (types.ReportListing, error)
	GetByDiagnosis(ctx context.Context, diagnosisID int) (types.ReportListing, error)
}

// ReportService creates doctor-authored reports with generated PDFs and
// serves them back, always scoped by the authenticated identity.
type ReportService struct {
	reports   ReportRepository
	diagnoses DiagnosisRepository
	accounts  AccountRepository
	profiles  DoctorProfileRepository
	storage   *storage.Storage
	events    *mq.Events
	logger    zerolog.Logger
}

func NewReportService(
	reports ReportRepository,
	diagnoses DiagnosisRepository,
	accounts AccountRepository,
	profiles DoctorProfileRepository,
	st *storage.Storage,
	events *mq.Events,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		reports:   reports,
		diagnoses: diagnoses,
		accounts:  accounts,
		profiles:  profiles,
		storage:   st,
		events:    events,
		logger:    logger,
	}
}

// Create renders a PDF for the diagnosis, stores it, and records the
// report. A record insert failure removes the stored PDF.
func (s *ReportService) Create(ctx context.Context, doctor types.Account, diagnosisID int, description string) (types.Report, error) {
	diagnosis, err := s.diagnoses.GetByID(ctx, diagnosisID)
	if err != nil {
		return types.Report{}, err
	}

	patient, err := s.accounts.GetByID(ctx, diagnosis.AccountID)
	if err != nil {
		return types.Report{}, err
	}

	data := pdf.ReportData{
		PatientName:     patient.FullName,
		DoctorName:      doctor.FullName,
		DiagnosisResult: diagnosis.Result,
		Confidence:      diagnosis.Confidence,
		Description:     description,
		Date:            time.Now(),
	}
	if profile, err := s.profiles.GetByAccount(ctx, doctor.ID); err == nil {
		data.Specialization = profile.Specialization
		data.Hospital = profile.Hospital
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Report{}, err
	}

	rendered, err := pdf.RenderReport(data)
	if err != nil {
		return types.Report{}, err
	}

	key := storage.ReportKey(patient.Seq)
	if err := s.storage.Put(ctx, key, bytes.NewReader(rendered), int64(len(rendered)), "application/pdf"); err != nil {
		return types.Report{}, err
	}

	report, err := s.reports.Create(ctx, types.Report{
		DoctorID:    doctor.ID,
		PatientID:   patient.ID,
		DiagnosisID: diagnosisID,
		Description: description,
		ObjectKey:   key,
	})
	if err != nil {
		if cleanupErr := s.storage.Delete(ctx, key); cleanupErr != nil {
			s.logger.Error().Err(cleanupErr).Str("key", key).Msg("orphaned report pdf cleanup failed")
		}
		return types.Report{}, err
	}

	s.events.Publish(ctx, mq.ChannelReportCreated, mq.Event{AccountID: patient.ID, ReportID: report.ID})
	return report, nil
}

// ListForPatient returns the authenticated patient's reports.
func (s *ReportService) ListForPatient(ctx context.Context, patientID int) ([]types.ReportListing, error) {
	return s.reports.ListByPatient(ctx, patientID)
}

// GetForPatient returns one report only when the patient owns it.
func (s *ReportService) GetForPatient(ctx context.Context, patientID, reportID int) (types.ReportListing, error) {
	listing, err := s.reports.GetListing(ctx, reportID)
	if err != nil {
		return types.ReportListing{}, err
	}
	if listing.PatientID != patientID {
		return types.ReportListing{}, store.ErrNotFound
	}
	return listing, nil
}

// File streams the report PDF for a report the patient owns.
func (s *ReportService) File(ctx context.Context, patientID, reportID int) (io.ReadCloser, error) {
	listing, err := s.GetForPatient(ctx, patientID, reportID)
	if err != nil {
		return nil, err
	}
	return s.storage.Get(ctx, listing.ObjectKey)
}

// GetByDiagnosis returns the report attached to a diagnosis. Patients only
// see reports on their own diagnoses; doctors see any.
func (s *ReportService) GetByDiagnosis(ctx context.Context, viewer types.Account, diagnosisID int) (types.ReportListing, error) {
	listing, err := s.reports.GetByDiagnosis(ctx, diagnosisID)
	if err != nil {
		return types.ReportListing{}, err
	}
	if viewer.Role == types.RolePatient && listing.PatientID != viewer.ID {
		return types.ReportListing{}, store.ErrNotFound
	}
	return listing, nil
}
