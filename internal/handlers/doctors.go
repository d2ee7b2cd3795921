package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medscan/apiserver/internal/services"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
)

// DoctorHandler serves the public doctor directory, profile submission, and
// the doctor workspace (diagnoses inbox, reports, appointments, payments,
// messages).
type DoctorHandler struct {
	doctors      *services.DoctorService
	accounts     *services.AccountService
	diagnoses    *services.DiagnosisService
	reports      *services.ReportService
	appointments *services.AppointmentService
	payments     *services.PaymentService
	messages     *services.MessageService
	responder
}

// NewDoctorHandler constructs a handler with the provided services.
func NewDoctorHandler(
	doctors *services.DoctorService,
	accounts *services.AccountService,
	diagnoses *services.DiagnosisService,
	reports *services.ReportService,
	appointments *services.AppointmentService,
	payments *services.PaymentService,
	messages *services.MessageService,
	logger zerolog.Logger,
	production bool,
) *DoctorHandler {
	return &DoctorHandler{
		doctors:      doctors,
		accounts:     accounts,
		diagnoses:    diagnoses,
		reports:      reports,
		appointments: appointments,
		payments:     payments,
		messages:     messages,
		responder:    responder{logger: logger, production: production},
	}
}

// DoctorRouter registers directory and doctor workspace routes.
func (h *DoctorHandler) DoctorRouter(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", h.ListDoctors)
	r.Get("/{doctorID}", h.GetDoctor)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.With(RequireRole(types.RolePatient, types.RolePendingDoctor)).Post("/profile", h.SubmitProfile)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(types.RoleDoctor))
			r.Get("/patients", h.PatientsInbox)
			r.Post("/reports/{diagnosisID}", h.CreateReport)
			r.Get("/appointments", h.ListAppointments)
			r.Post("/appointments/{appointmentID}/status", h.UpdateAppointmentStatus)
			r.Get("/payments", h.ListPayments)
			r.Get("/messages", h.ListMessages)
		})
	})
}

// ListDoctors returns the public approved doctor directory.
func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	listings, err := h.doctors.ListApproved(r.Context())
	if err != nil {
		h.internalError(w, err, "failed to list doctors")
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// GetDoctor returns one approved doctor profile.
func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "doctorID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.doctors.GetApproved(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "doctor not found")
			return
		}
		h.internalError(w, err, "failed to fetch doctor")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// SubmitProfile files qualification data for admin review.
func (h *DoctorHandler) SubmitProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SubmitProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Specialization = strings.TrimSpace(req.Specialization)
	req.MedicalLicense = strings.TrimSpace(req.MedicalLicense)
	if req.Specialization == "" || req.MedicalLicense == "" {
		writeError(w, http.StatusBadRequest, "specialization and medical license are required")
		return
	}

	profile, err := h.doctors.Submit(r.Context(), principal.ID, services.SubmitInput{
		Specialization: req.Specialization,
		Experience:     strings.TrimSpace(req.Experience),
		Qualifications: strings.TrimSpace(req.Qualifications),
		MedicalLicense: req.MedicalLicense,
		Hospital:       strings.TrimSpace(req.Hospital),
		ContactNumber:  strings.TrimSpace(req.ContactNumber),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyPending):
			writeError(w, http.StatusConflict, "a submission is already pending review")
		case errors.Is(err, services.ErrAlreadyApproved):
			writeError(w, http.StatusConflict, "profile already approved")
		case errors.Is(err, store.ErrDuplicateLicense):
			writeError(w, http.StatusConflict, "medical license already registered")
		default:
			h.internalError(w, err, "failed to submit profile")
		}
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

// PatientsInbox returns all patient diagnoses awaiting doctor review.
func (h *DoctorHandler) PatientsInbox(w http.ResponseWriter, r *http.Request) {
	listings, err := h.diagnoses.Inbox(r.Context())
	if err != nil {
		h.internalError(w, err, "failed to list diagnoses")
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// CreateReport authors a medical report for a diagnosis, rendering and
// storing its PDF.
func (h *DoctorHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	diagnosisID, err := parseIDParam(r, "diagnosisID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	doctor, err := h.accounts.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to load account")
		return
	}

	report, err := h.reports.Create(r.Context(), doctor, diagnosisID, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "diagnosis not found")
			return
		}
		h.internalError(w, err, "failed to create report")
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// ListAppointments returns the doctor's own appointments.
func (h *DoctorHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	appointments, err := h.appointments.ListForDoctor(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to list appointments")
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

// UpdateAppointmentStatus confirms or rejects one of the doctor's own
// appointments.
func (h *DoctorHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	appointmentID, err := parseIDParam(r, "appointmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !types.ValidAppointmentStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	appointment, err := h.appointments.SetStatus(r.Context(), principal.ID, appointmentID, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.internalError(w, err, "failed to update appointment")
		return
	}
	writeJSON(w, http.StatusOK, appointment)
}

// ListPayments returns payments made against the doctor's appointments.
func (h *DoctorHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	payments, err := h.payments.ListForDoctor(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to list payments")
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// ListMessages returns messages patients sent to this doctor.
func (h *DoctorHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	messages, err := h.messages.Inbox(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type SubmitProfileRequest struct {
	Specialization string `json:"specialization"`
	Experience     string `json:"experience"`
	Qualifications string `json:"qualifications"`
	MedicalLicense string `json:"medical_license"`
	Hospital       string `json:"hospital"`
	ContactNumber  string `json:"contact_number"`
}

type CreateReportRequest struct {
	Description string `json:"description"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

func parseIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
