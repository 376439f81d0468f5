package httpx

import (
	"errors"
	"net/http"

	"github.com/afyacare/hms/internal/data"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/service"
)

// PatientHandlers serves the patient registry API.
type PatientHandlers struct {
	Svc *service.PatientService
}

const (
	defaultPatientsLimit = 50
	maxPatientsLimit     = 200
)

func (h *PatientHandlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePatientRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	patient, err := h.Svc.Register(r.Context(), actorID(r), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, patient)
}

func (h *PatientHandlers) handleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultPatientsLimit, maxPatientsLimit)
	opts := model.PatientsListOptions{Limit: limit, Offset: offset}
	if q := r.URL.Query().Get("q"); q != "" {
		opts.Q = &q
	}

	page, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (h *PatientHandlers) handleGet(w http.ResponseWriter, r *http.Request) {
	patient, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, patient)
}

func (h *PatientHandlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePatientRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	patient, err := h.Svc.Update(r.Context(), actorID(r), r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, patient)
}

func (h *PatientHandlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), actorID(r), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PatientHandlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data.ErrPatientNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "patient_not_found", Err: err})
	case errors.Is(err, data.ErrMRNExists):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "mrn_exists", Err: err})
	case isValidationError(err):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
	default:
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errors.New("internal error")})
	}
}

// actorID returns the authenticated principal's ID for audit attribution.
// Handlers behind the guard always have one.
func actorID(r *http.Request) string {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		return ""
	}
	return principal.ID
}
