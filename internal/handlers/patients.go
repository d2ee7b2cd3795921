package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medscan/apiserver/internal/services"
	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
	"github.com/rs/zerolog"
)

const (
	maxMultipartMemory = 8 << 20
	maxImageBytes      = 5 << 20
	formFieldImage     = "image"
)

// PatientHandler serves the patient workspace: doctor selection, diagnosis
// uploads, reports, appointments, payments, and messaging.
type PatientHandler struct {
	accounts     *services.AccountService
	doctors      *services.DoctorService
	diagnoses    *services.DiagnosisService
	reports      *services.ReportService
	appointments *services.AppointmentService
	payments     *services.PaymentService
	messages     *services.MessageService
	responder
}

// NewPatientHandler constructs a handler with the provided services.
func NewPatientHandler(
	accounts *services.AccountService,
	doctors *services.DoctorService,
	diagnoses *services.DiagnosisService,
	reports *services.ReportService,
	appointments *services.AppointmentService,
	payments *services.PaymentService,
	messages *services.MessageService,
	logger zerolog.Logger,
	production bool,
) *PatientHandler {
	return &PatientHandler{
		accounts:     accounts,
		doctors:      doctors,
		diagnoses:    diagnoses,
		reports:      reports,
		appointments: appointments,
		payments:     payments,
		messages:     messages,
		responder:    responder{logger: logger, production: production},
	}
}

// PatientRouter registers patient workspace routes on the root router.
func (h *PatientHandler) PatientRouter(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.With(RequireRole(types.RolePatient, types.RoleDoctor)).
			Get("/reports/by-diagnosis/{diagnosisID}", h.ReportByDiagnosis)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(types.RolePatient))

			r.Post("/patients/select-doctor/{doctorID}", h.SelectDoctor)
			r.Get("/patients/reports", h.ListReports)
			r.Get("/patients/reports/{reportID}", h.GetReport)
			r.Get("/patients/reports/{reportID}/file", h.ReportFile)

			r.Post("/diagnoses", h.UploadDiagnosis)
			r.Get("/diagnoses", h.DiagnosisHistory)
			r.Get("/diagnoses/{diagnosisID}", h.GetDiagnosis)
			r.Get("/diagnoses/{diagnosisID}/image", h.DiagnosisImage)

			r.Post("/appointments", h.BookAppointment)
			r.Get("/appointments", h.ListAppointments)

			r.Post("/payments", h.CreatePayment)
			r.Get("/payments/{paymentID}", h.PaymentStatus)
			r.Post("/payments/{paymentID}/status", h.UpdatePaymentStatus)

			r.Post("/messages", h.SendMessage)
		})
	})
}

// SelectDoctor records the patient's choice of an approved doctor.
func (h *PatientHandler) SelectDoctor(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	doctorID, err := parseIDParam(r, "doctorID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.doctors.SelectDoctor(r.Context(), principal.ID, doctorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "doctor not found")
			return
		}
		h.internalError(w, err, "failed to select doctor")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// UploadDiagnosis accepts a multipart image, classifies it, and records the
// diagnosis.
func (h *PatientHandler) UploadDiagnosis(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	filename, contentType, data, err := parseImageFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to load account")
		return
	}

	diagnosis, err := h.diagnoses.Intake(r.Context(), account, filename, contentType, data)
	if err != nil {
		if errors.Is(err, services.ErrUpstream) {
			h.internalError(w, err, "classification service unavailable")
			return
		}
		h.internalError(w, err, "failed to record diagnosis")
		return
	}

	writeJSON(w, http.StatusCreated, diagnosis)
}

// DiagnosisHistory returns the patient's own diagnoses.
func (h *PatientHandler) DiagnosisHistory(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	history, err := h.diagnoses.History(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to list diagnoses")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// GetDiagnosis returns one of the patient's own diagnoses.
func (h *PatientHandler) GetDiagnosis(w http.ResponseWriter, r *http.Request) {
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

	diagnosis, err := h.diagnoses.GetOwned(r.Context(), principal.ID, diagnosisID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "diagnosis not found")
			return
		}
		h.internalError(w, err, "failed to fetch diagnosis")
		return
	}
	writeJSON(w, http.StatusOK, diagnosis)
}

// DiagnosisImage streams the stored image for one of the patient's own
// diagnoses.
func (h *PatientHandler) DiagnosisImage(w http.ResponseWriter, r *http.Request) {
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

	reader, err := h.diagnoses.Image(r.Context(), principal.ID, diagnosisID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "diagnosis not found")
			return
		}
		h.internalError(w, err, "failed to fetch image")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// ListReports returns the patient's own reports.
func (h *PatientHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reports, err := h.reports.ListForPatient(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// GetReport returns one of the patient's own reports.
func (h *PatientHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reportID, err := parseIDParam(r, "reportID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.reports.GetForPatient(r.Context(), principal.ID, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		h.internalError(w, err, "failed to fetch report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ReportFile streams the PDF for one of the patient's own reports.
func (h *PatientHandler) ReportFile(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reportID, err := parseIDParam(r, "reportID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.reports.File(r.Context(), principal.ID, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		h.internalError(w, err, "failed to fetch report file")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// ReportByDiagnosis returns the report written for a diagnosis. Patients
// see only reports on their own diagnoses; doctors see any.
func (h *PatientHandler) ReportByDiagnosis(w http.ResponseWriter, r *http.Request) {
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

	viewer, err := h.accounts.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to load account")
		return
	}

	report, err := h.reports.GetByDiagnosis(r.Context(), viewer, diagnosisID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		h.internalError(w, err, "failed to fetch report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// BookAppointment books an appointment with an approved doctor.
func (h *PatientHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if req.DoctorID < 1 || req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "doctor_id, date, and time are required")
		return
	}

	appointment, err := h.appointments.Book(r.Context(), principal.ID, req.DoctorID, req.Date, req.Time)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "doctor not found")
			return
		}
		h.internalError(w, err, "failed to book appointment")
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}

// ListAppointments returns the patient's own appointments.
func (h *PatientHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	appointments, err := h.appointments.ListForPatient(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to list appointments")
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

// CreatePayment records a payment against one of the patient's own
// appointments with their selected doctor.
func (h *PatientHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.AppointmentID < 1 || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "appointment_id and a positive amount are required")
		return
	}
	if !types.ValidPaymentMethod(req.Method) {
		writeError(w, http.StatusBadRequest, "invalid payment method")
		return
	}

	patient, err := h.accounts.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to load account")
		return
	}

	payment, err := h.payments.Pay(r.Context(), patient, req.AppointmentID, req.Amount, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "appointment not found")
		case errors.Is(err, services.ErrDoctorNotSelected):
			writeError(w, http.StatusBadRequest, "appointment is not with your selected doctor")
		default:
			h.internalError(w, err, "failed to create payment")
		}
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// PaymentStatus returns one of the patient's own payments.
func (h *PatientHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	paymentID, err := parseIDParam(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.payments.Status(r.Context(), principal.ID, paymentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		h.internalError(w, err, "failed to fetch payment")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// UpdatePaymentStatus updates the status of one of the patient's own
// payments.
func (h *PatientHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	paymentID, err := parseIDParam(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !types.ValidPaymentStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	payment, err := h.payments.UpdateStatus(r.Context(), principal.ID, paymentID, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		h.internalError(w, err, "failed to update payment")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// SendMessage sends one of the patient's diagnoses to a doctor with a note.
func (h *PatientHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.DoctorID < 1 || req.DiagnosisID < 1 || req.Text == "" {
		writeError(w, http.StatusBadRequest, "doctor_id, diagnosis_id, and text are required")
		return
	}

	sender, err := h.accounts.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.internalError(w, err, "failed to load account")
		return
	}

	message, err := h.messages.Send(r.Context(), sender, req.DoctorID, req.DiagnosisID, req.Text)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "diagnosis or doctor not found")
			return
		}
		h.internalError(w, err, "failed to send message")
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

type BookAppointmentRequest struct {
	DoctorID int    `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

type CreatePaymentRequest struct {
	AppointmentID int     `json:"appointment_id"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
}

type SendMessageRequest struct {
	DoctorID    int    `json:"doctor_id"`
	DiagnosisID int    `json:"diagnosis_id"`
	Text        string `json:"text"`
}

func parseImageFile(r *http.Request) (filename, contentType string, data []byte, err error) {
	if r.MultipartForm == nil {
		return "", "", nil, errors.New("missing form data")
	}

	files := r.MultipartForm.File[formFieldImage]
	if len(files) == 0 {
		return "", "", nil, errors.New("image file is required")
	}
	if len(files) > 1 {
		return "", "", nil, errors.New("only one image file is allowed")
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to read image file: %w", err)
	}

	data, err = readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return "", "", nil, err
	}

	contentType = header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return header.Filename, contentType, data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
