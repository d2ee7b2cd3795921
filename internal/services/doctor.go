package services

import (
	"context"
	"errors"

	"github.com/medscan/apiserver/internal/mq"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
)

// DoctorProfileRepository defines persistence operations for doctor
// profiles.
type DoctorProfileRepository interface {
	Create(ctx context.Context, profile types.DoctorProfile) (types.DoctorProfile, error)
	GetByID(ctx context.Context, id int) (types.DoctorProfile, error)
	GetByAccount(ctx context.Context, accountID int) (types.DoctorProfile, error)
	SetApproved(ctx context.Context, id int, approved bool) error
	Update(ctx context.Context, profile types.DoctorProfile) (types.DoctorProfile, error)
	Delete(ctx context.Context, id int) error
	ListByApproval(ctx context.Context, approved bool) ([]types.DoctorListing, error)
	GetListing(ctx context.Context, id int) (types.DoctorListing, error)
}

// SubmitInput is the qualification data a doctor-track account submits for
// review.
type SubmitInput struct {
	Specialization string
	Experience     string
	Qualifications string
	MedicalLicense string
	Hospital       string
	ContactNumber  string
}

// DoctorService governs the approval state machine: a submission moves
// unsubmitted -> pending review -> approved or rejected. Rejection deletes
// the profile, so a rejected account may resubmit.
type DoctorService struct {
	profiles DoctorProfileRepository
	accounts AccountRepository
	events   *mq.Events
	logger   zerolog.Logger
}

func NewDoctorService(profiles DoctorProfileRepository, accounts AccountRepository, events *mq.Events, logger zerolog.Logger) *DoctorService {
	return &DoctorService{
		profiles: profiles,
		accounts: accounts,
		events:   events,
		logger:   logger,
	}
}

// Submit files qualification data for review. Allowed only when no profile
// exists for the account (first submission, or resubmission after a
// rejection removed the previous one). The store's uniqueness constraints
// arbitrate concurrent submissions; the losing call gets a conflict, never
// a silent overwrite.
func (s *DoctorService) Submit(ctx context.Context, accountID int, input SubmitInput) (types.DoctorProfile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return types.DoctorProfile{}, err
	}

	profile := types.DoctorProfile{
		AccountID:      accountID,
		Specialization: input.Specialization,
		Experience:     input.Experience,
		Qualifications: input.Qualifications,
		MedicalLicense: input.MedicalLicense,
		Hospital:       input.Hospital,
		ContactNumber:  input.ContactNumber,
		Approved:       false,
	}

	created, err := s.profiles.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, store.ErrProfileExists) {
			existing, lookupErr := s.profiles.GetByAccount(ctx, accountID)
			if lookupErr == nil && existing.Approved {
				return types.DoctorProfile{}, ErrAlreadyApproved
			}
			return types.DoctorProfile{}, ErrAlreadyPending
		}
		return types.DoctorProfile{}, err
	}

	if account.Role == types.RolePatient {
		if err := s.accounts.UpdateRole(ctx, accountID, types.RolePendingDoctor); err != nil {
			s.logger.Error().Err(err).Int("account_id", accountID).Msg("role transition to pending_doctor failed")
		}
	}

	return created, nil
}

// Approve marks a pending profile approved and promotes the owning account
// to the doctor role. Re-invocation on an approved profile fails rather
// than silently succeeding.
func (s *DoctorService) Approve(ctx context.Context, profileID int) (types.DoctorProfile, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return types.DoctorProfile{}, err
	}
	if profile.Approved {
		return types.DoctorProfile{}, ErrAlreadyApproved
	}

	if err := s.profiles.SetApproved(ctx, profileID, true); err != nil {
		return types.DoctorProfile{}, err
	}
	profile.Approved = true

	// The role update is a second, non-transactional step. If it fails the
	// login gate reconciles the role from the approved profile.
	if err := s.accounts.UpdateRole(ctx, profile.AccountID, types.RoleDoctor); err != nil {
		s.logger.Error().Err(err).Int("account_id", profile.AccountID).Msg("role transition to doctor failed; reconciled at next login")
	}

	s.events.Publish(ctx, mq.ChannelDoctorApproved, mq.Event{AccountID: profile.AccountID, ProfileID: profileID})
	return profile, nil
}

// Reject removes a pending profile and resets the owning account to
// pending_doctor, preserving its ability to resubmit. The account itself
// is never deleted here.
func (s *DoctorService) Reject(ctx context.Context, profileID int) error {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	if profile.Approved {
		return ErrAlreadyApproved
	}

	if err := s.profiles.Delete(ctx, profileID); err != nil {
		return err
	}
	if err := s.accounts.UpdateRole(ctx, profile.AccountID, types.RolePendingDoctor); err != nil {
		s.logger.Error().Err(err).Int("account_id", profile.AccountID).Msg("role reset after rejection failed")
	}

	s.events.Publish(ctx, mq.ChannelDoctorRejected, mq.Event{AccountID: profile.AccountID, ProfileID: profileID})
	return nil
}

// ListPending returns profiles awaiting review.
func (s *DoctorService) ListPending(ctx context.Context) ([]types.DoctorListing, error) {
	return s.profiles.ListByApproval(ctx, false)
}

// ListApproved returns the approved doctor directory.
func (s *DoctorService) ListApproved(ctx context.Context) ([]types.DoctorListing, error) {
	return s.profiles.ListByApproval(ctx, true)
}

// GetApproved returns one approved profile; unapproved profiles are not
// visible through the directory.
func (s *DoctorService) GetApproved(ctx context.Context, profileID int) (types.DoctorListing, error) {
	listing, err := s.profiles.GetListing(ctx, profileID)
	if err != nil {
		return types.DoctorListing{}, err
	}
	if !listing.Approved {
		return types.DoctorListing{}, store.ErrNotFound
	}
	return listing, nil
}

// SelectDoctor records a patient's choice of an approved doctor.
func (s *DoctorService) SelectDoctor(ctx context.Context, patientID, profileID int) (types.DoctorListing, error) {
	listing, err := s.GetApproved(ctx, profileID)
	if err != nil {
		return types.DoctorListing{}, err
	}
	if err := s.accounts.SetSelectedDoctor(ctx, patientID, profileID); err != nil {
		return types.DoctorListing{}, err
	}
	return listing, nil
}

// AdminUpdate rewrites profile fields for an approved doctor account.
// Blank input fields keep their current values.
func (s *DoctorService) AdminUpdate(ctx context.Context, accountID int, input SubmitInput) (types.DoctorProfile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return types.DoctorProfile{}, err
	}
	if account.Role != types.RoleDoctor {
		return types.DoctorProfile{}, store.ErrNotFound
	}

	profile, err := s.profiles.GetByAccount(ctx, accountID)
	if err != nil {
		return types.DoctorProfile{}, err
	}

	if input.Specialization != "" {
		profile.Specialization = input.Specialization
	}
	if input.Experience != "" {
		profile.Experience = input.Experience
	}
	if input.Qualifications != "" {
		profile.Qualifications = input.Qualifications
	}
	if input.MedicalLicense != "" {
		profile.MedicalLicense = input.MedicalLicense
	}
	if input.Hospital != "" {
		profile.Hospital = input.Hospital
	}
	if input.ContactNumber != "" {
		profile.ContactNumber = input.ContactNumber
	}

	return s.profiles.Update(ctx, profile)
}
