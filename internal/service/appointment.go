package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afyacare/hms/internal/core"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/util"
)

// Appointment lifecycle errors.
var (
	// ErrSlotInPast rejects bookings that start before the current instant.
	ErrSlotInPast = errors.New("appointment starts in the past")
	// ErrStatusFinal rejects transitions out of a terminal appointment status.
	ErrStatusFinal = errors.New("appointment status is final")
)

// AppointmentService books and manages doctor appointment slots. Conflict
// detection is delegated to the repository: the database's exclusion
// constraint decides overlaps, so concurrent bookings of the same slot cannot
// both succeed.
type AppointmentService struct {
	repo   core.AppointmentRepository
	audit  *AuditService
	clock  util.Clock
	logger *slog.Logger
}

// NewAppointmentService constructs a new AppointmentService.
func NewAppointmentService(repo core.AppointmentRepository, audit *AuditService, clock util.Clock, logger *slog.Logger) *AppointmentService {
	if clock == nil {
		clock = util.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AppointmentService{
		repo:   repo,
		audit:  audit,
		clock:  clock,
		logger: logger.With("component", "appointments"),
	}
}

// Book reserves a slot. A data.ErrSlotTaken from the repository means another
// scheduled appointment for the doctor overlaps the requested range.
func (s *AppointmentService) Book(ctx context.Context, actor string, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate booking: %w", err)
	}
	if req.StartsAt.Before(s.clock.Now()) {
		return nil, ErrSlotInPast
	}

	appt, err := s.repo.Book(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    actor,
		Entity:   "appointment",
		EntityID: appt.ID,
		Action:   "appointment_booked",
		Details: map[string]string{
			"doctor_id":  appt.DoctorID,
			"patient_id": appt.PatientID,
			"starts_at":  util.FormatEAT(appt.StartsAt),
		},
	})
	return appt, nil
}

// Get returns one appointment by ID.
func (s *AppointmentService) Get(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, errors.New("appointment id is required")
	}
	return s.repo.GetByID(ctx, id)
}

const defaultAppointmentPageSize = 100

// List returns appointments matching the filters.
func (s *AppointmentService) List(ctx context.Context, opts model.AppointmentsListOptions) ([]*model.Appointment, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultAppointmentPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return s.repo.List(ctx, opts)
}

// ListForDay returns a doctor's appointments on the EAT civil day containing
// date. An empty doctorID lists the whole day across doctors.
func (s *AppointmentService) ListForDay(ctx context.Context, doctorID string, date time.Time) ([]*model.Appointment, error) {
	from, to := util.DayBoundsEAT(date)
	opts := model.AppointmentsListOptions{
		Limit: defaultAppointmentPageSize,
		From:  &from,
		To:    &to,
	}
	if doctorID != "" {
		opts.DoctorID = &doctorID
	}
	return s.repo.List(ctx, opts)
}

// Cancel releases a scheduled slot. Cancelled rows leave conflict detection,
// so the range becomes bookable again.
func (s *AppointmentService) Cancel(ctx context.Context, actor, id string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentCancelled, "appointment_cancelled")
}

// Complete marks a scheduled appointment as seen.
func (s *AppointmentService) Complete(ctx context.Context, actor, id string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentCompleted, "appointment_completed")
}

// MarkNoShow records that the patient did not attend.
func (s *AppointmentService) MarkNoShow(ctx context.Context, actor, id string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentNoShow, "appointment_no_show")
}

// transition moves a scheduled appointment into a terminal status. Terminal
// statuses are one-way; completed/cancelled/no_show rows never change again.
func (s *AppointmentService) transition(ctx context.Context, actor, id string, to model.AppointmentStatus, action string) (*model.Appointment, error) {
	if id == "" {
		return nil, errors.New("appointment id is required")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if current.Status != model.AppointmentScheduled {
		return nil, fmt.Errorf("%w: %s", ErrStatusFinal, current.Status)
	}

	appt, err := s.repo.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    actor,
		Entity:   "appointment",
		EntityID: appt.ID,
		Action:   action,
		Details:  map[string]string{"status": string(appt.Status)},
	})
	return appt, nil
}

func (s *AppointmentService) recordAudit(ctx context.Context, entry model.AuditEntry) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, entry)
}
