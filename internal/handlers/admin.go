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

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// AdminHandler serves the review queue and account administration.
type AdminHandler struct {
	doctors  *services.DoctorService
	accounts *services.AccountService
	responder
}

// NewAdminHandler constructs a handler with the provided services.
func NewAdminHandler(doctors *services.DoctorService, accounts *services.AccountService, logger zerolog.Logger, production bool) *AdminHandler {
	return &AdminHandler{
		doctors:   doctors,
		accounts:  accounts,
		responder: responder{logger: logger, production: production},
	}
}

// AdminRouter registers admin routes on the given router. Every route is
// auth-gated and restricted to the admin role.
func (h *AdminHandler) AdminRouter(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware, RequireRole(types.RoleAdmin))

	r.Get("/pending-doctors", h.PendingDoctors)
	r.Get("/approved-doctors", h.ApprovedDoctors)
	r.Post("/approve-doctor/{profileID}", h.ApproveDoctor)
	r.Post("/reject-doctor/{profileID}", h.RejectDoctor)
	r.Get("/accounts", h.ListAccounts)
	r.Delete("/accounts/{accountID}", h.DeleteAccount)
	r.Put("/doctors/{accountID}", h.UpdateDoctor)
}

// PendingDoctors returns profiles awaiting review.
func (h *AdminHandler) PendingDoctors(w http.ResponseWriter, r *http.Request) {
	listings, err := h.doctors.ListPending(r.Context())
	if err != nil {
		h.internalError(w, err, "failed to list pending doctors")
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// ApprovedDoctors returns approved profiles.
func (h *AdminHandler) ApprovedDoctors(w http.ResponseWriter, r *http.Request) {
	listings, err := h.doctors.ListApproved(r.Context())
	if err != nil {
		h.internalError(w, err, "failed to list approved doctors")
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// ApproveDoctor approves a pending profile and promotes the account.
func (h *AdminHandler) ApproveDoctor(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r, "profileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.doctors.Approve(r.Context(), profileID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "profile not found")
		case errors.Is(err, services.ErrAlreadyApproved):
			writeError(w, http.StatusConflict, "profile already approved")
		default:
			h.internalError(w, err, "failed to approve doctor")
		}
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// RejectDoctor removes a pending profile; the account keeps its ability to
// resubmit.
func (h *AdminHandler) RejectDoctor(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r, "profileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.doctors.Reject(r.Context(), profileID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "profile not found")
		case errors.Is(err, services.ErrAlreadyApproved):
			writeError(w, http.StatusConflict, "profile already approved")
		default:
			h.internalError(w, err, "failed to reject doctor")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAccounts returns a paginated account listing.
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	accounts, total, err := h.accounts.List(r.Context(), offset, limit)
	if err != nil {
		h.internalError(w, err, "failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, AccountListResponse{
		Items: accounts,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// DeleteAccount removes an account permanently.
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accounts.Delete(r.Context(), accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.internalError(w, err, "failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateDoctor rewrites profile fields for an approved doctor account.
func (h *AdminHandler) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SubmitProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	profile, err := h.doctors.AdminUpdate(r.Context(), accountID, services.SubmitInput{
		Specialization: strings.TrimSpace(req.Specialization),
		Experience:     strings.TrimSpace(req.Experience),
		Qualifications: strings.TrimSpace(req.Qualifications),
		MedicalLicense: strings.TrimSpace(req.MedicalLicense),
		Hospital:       strings.TrimSpace(req.Hospital),
		ContactNumber:  strings.TrimSpace(req.ContactNumber),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "doctor not found")
		case errors.Is(err, store.ErrDuplicateLicense):
			writeError(w, http.StatusConflict, "medical license already registered")
		default:
			h.internalError(w, err, "failed to update doctor")
		}
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// AccountListResponse is the paginated account list payload.
type AccountListResponse struct {
	Items []types.Account `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}

	rawLimit := strings.TrimSpace(r.URL.Query().Get("limit"))
	if rawLimit == "" {
		rawLimit = strings.TrimSpace(r.URL.Query().Get("per_page"))
	}
	if rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}
