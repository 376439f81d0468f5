package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxAppointmentReasonLen = 500
	// MinAppointmentLength is the shortest bookable slot.
	MinAppointmentLength = 5 * time.Minute
	// MaxAppointmentLength bounds a single slot; longer engagements are booked
	// as multiple slots.
	MaxAppointmentLength = 4 * time.Hour
)

// AppointmentStatus tracks an appointment through its lifecycle.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// Valid reports whether the status value is supported.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	default:
		return false
	}
}

// Appointment is a booked slot binding a doctor and a patient to a time range.
// Only status=scheduled rows participate in conflict detection; the database
// enforces non-overlap per doctor, so two concurrent bookings of the same slot
// cannot both succeed.
type Appointment struct {
	ID        string            `json:"id"         db:"id"`
	DoctorID  string            `json:"doctor_id"  db:"doctor_id"`
	PatientID string            `json:"patient_id" db:"patient_id"`
	StartsAt  time.Time         `json:"starts_at"  db:"starts_at"`
	EndsAt    time.Time         `json:"ends_at"    db:"ends_at"`
	Status    AppointmentStatus `json:"status"     db:"status"`
	Reason    string            `json:"reason"     db:"reason"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time        `json:"updated_at" db:"updated_at"`
}

// BookAppointmentRequest carries the fields accepted when booking a slot.
type BookAppointmentRequest struct {
	DoctorID  string    `json:"doctor_id"`
	PatientID string    `json:"patient_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Reason    string    `json:"reason"`
}

// Validate checks the booking request for structural problems.
func (r *BookAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.DoctorID) == "" {
		return errors.New("doctor_id is required")
	}
	if strings.TrimSpace(r.PatientID) == "" {
		return errors.New("patient_id is required")
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return errors.New("starts_at and ends_at are required")
	}
	if !r.EndsAt.After(r.StartsAt) {
		return errors.New("ends_at must be after starts_at")
	}
	length := r.EndsAt.Sub(r.StartsAt)
	if length < MinAppointmentLength {
		return errors.New("appointment is shorter than the minimum slot")
	}
	if length > MaxAppointmentLength {
		return errors.New("appointment exceeds the maximum slot length")
	}
	if utf8.RuneCountInString(r.Reason) > maxAppointmentReasonLen {
		return errors.New("reason is too long")
	}
	return nil
}

// AppointmentsListOptions controls filtering for listing appointments.
// Day filters select the EAT civil day computed by the caller into From/To.
type AppointmentsListOptions struct {
	Limit     int
	Offset    int
	DoctorID  *string
	PatientID *string
	From      *time.Time // inclusive lower bound on starts_at
	To        *time.Time // exclusive upper bound on starts_at
	Status    *AppointmentStatus
}
