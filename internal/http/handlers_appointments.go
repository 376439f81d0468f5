package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/afyacare/hms/internal/data"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/service"
)

// AppointmentHandlers serves the appointment scheduling API.
type AppointmentHandlers struct {
	Svc *service.AppointmentService
}

func (h *AppointmentHandlers) handleBook(w http.ResponseWriter, r *http.Request) {
	var req model.BookAppointmentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	appt, err := h.Svc.Book(r.Context(), actorID(r), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, appt)
}

func (h *AppointmentHandlers) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// ?date=2006-01-02 selects one EAT civil day.
	if dateParam := query.Get("date"); dateParam != "" {
		date, err := time.Parse("2006-01-02", dateParam)
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_date", Err: errors.New("date must be YYYY-MM-DD")})
			return
		}
		appts, listErr := h.Svc.ListForDay(r.Context(), query.Get("doctor_id"), date)
		if listErr != nil {
			h.writeError(w, listErr)
			return
		}
		WriteJSON(w, http.StatusOK, appts)
		return
	}

	limit, offset := ParseLimitOffset(r, 100, 500)
	opts := model.AppointmentsListOptions{Limit: limit, Offset: offset}
	if doctorID := query.Get("doctor_id"); doctorID != "" {
		opts.DoctorID = &doctorID
	}
	if patientID := query.Get("patient_id"); patientID != "" {
		opts.PatientID = &patientID
	}
	if statusParam := query.Get("status"); statusParam != "" {
		status := model.AppointmentStatus(statusParam)
		if !status.Valid() {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_status", Err: errors.New("unknown appointment status")})
			return
		}
		opts.Status = &status
	}

	appts, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, appts)
}

func (h *AppointmentHandlers) handleGet(w http.ResponseWriter, r *http.Request) {
	appt, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandlers) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Cancel)
}

func (h *AppointmentHandlers) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Complete)
}

func (h *AppointmentHandlers) handleNoShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.MarkNoShow)
}

func (h *AppointmentHandlers) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor, id string) (*model.Appointment, error)) {
	appt, err := fn(r.Context(), actorID(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data.ErrAppointmentNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "appointment_not_found", Err: err})
	case errors.Is(err, data.ErrSlotTaken):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "slot_taken", Err: errors.New("the doctor already has an appointment in that time range")})
	case errors.Is(err, service.ErrSlotInPast):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "slot_in_past", Err: err})
	case errors.Is(err, service.ErrStatusFinal):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "status_final", Err: err})
	case isValidationError(err):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
	default:
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errors.New("internal error")})
	}
}
