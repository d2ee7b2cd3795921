package services

import "errors"

// Domain errors surfaced by services. Handlers map these onto HTTP
// statuses; everything else is treated as an internal failure.
var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPendingApproval is returned when a doctor-track account
	// authenticates before an admin has approved its profile.
	ErrPendingApproval = errors.New("account pending admin approval")

	// ErrProfileMissing is returned when a doctor-track account
	// authenticates but no doctor profile exists for it.
	ErrProfileMissing = errors.New("doctor profile not found")

	// ErrAlreadyPending is returned when a qualification submission exists
	// and is still awaiting review.
	ErrAlreadyPending = errors.New("a submission is already pending review")

	// ErrAlreadyApproved is returned when an approval-flow operation is
	// re-invoked on an already approved profile.
	ErrAlreadyApproved = errors.New("doctor profile already approved")

	// ErrDoctorNotSelected is returned when a patient pays for an
	// appointment held with a doctor other than their selected one.
	ErrDoctorNotSelected = errors.New("appointment is not with the selected doctor")

	// ErrUpstream is returned when the classification collaborator is
	// unreachable, times out, or returns garbage.
	ErrUpstream = errors.New("classification service unavailable")
)
