package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/afyacare/hms/internal/data"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/mocks"
	mockauth "github.com/afyacare/hms/internal/mocks/auth"
	"github.com/afyacare/hms/internal/service"
	"github.com/afyacare/hms/internal/testutil"
	"github.com/afyacare/hms/internal/util"
)

func newAppointmentService(t *testing.T) (*service.AppointmentService, *mocks.MockAppointmentRepository, *mockauth.MemoryAuditRepo, *util.FixedClock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAppointmentRepository(ctrl)
	audit := mockauth.NewMemoryAuditRepo()
	clock := util.NewFixedClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	svc := service.NewAppointmentService(repo, service.NewAuditService(audit, testutil.DiscardLogger()), clock, testutil.DiscardLogger())
	return svc, repo, audit, clock
}

func validBooking(clock util.Clock) *model.BookAppointmentRequest {
	start := clock.Now().Add(24 * time.Hour)
	return &model.BookAppointmentRequest{
		DoctorID:  "user-doctor",
		PatientID: "pat-1",
		StartsAt:  start,
		EndsAt:    start.Add(30 * time.Minute),
		Reason:    "follow-up",
	}
}

func TestAppointmentService_Book(t *testing.T) {
	ctx := context.Background()

	t.Run("books a future slot and audits", func(t *testing.T) {
		svc, repo, audit, clock := newAppointmentService(t)
		req := validBooking(clock)
		booked := &model.Appointment{
			ID:        "appt-1",
			DoctorID:  req.DoctorID,
			PatientID: req.PatientID,
			StartsAt:  req.StartsAt,
			EndsAt:    req.EndsAt,
			Status:    model.AppointmentScheduled,
		}
		repo.EXPECT().Book(gomock.Any(), req).Return(booked, nil)

		appt, err := svc.Book(ctx, "user-reception", req)
		require.NoError(t, err)
		assert.Equal(t, "appt-1", appt.ID)
		assert.Contains(t, audit.Actions(), "appointment_booked")
	})

	t.Run("rejects a slot in the past", func(t *testing.T) {
		svc, _, _, clock := newAppointmentService(t)
		req := validBooking(clock)
		req.StartsAt = clock.Now().Add(-time.Hour)
		req.EndsAt = req.StartsAt.Add(30 * time.Minute)

		_, err := svc.Book(ctx, "user-reception", req)
		assert.ErrorIs(t, err, service.ErrSlotInPast)
	})

	t.Run("invalid request never reaches the repository", func(t *testing.T) {
		svc, _, _, clock := newAppointmentService(t)
		req := validBooking(clock)
		req.EndsAt = req.StartsAt // zero length

		_, err := svc.Book(ctx, "user-reception", req)
		assert.Error(t, err)
	})

	t.Run("overlapping slot surfaces as conflict", func(t *testing.T) {
		svc, repo, audit, clock := newAppointmentService(t)
		req := validBooking(clock)
		repo.EXPECT().Book(gomock.Any(), req).Return(nil, data.ErrSlotTaken)

		_, err := svc.Book(ctx, "user-reception", req)
		assert.ErrorIs(t, err, data.ErrSlotTaken)
		assert.Empty(t, audit.Actions(), "failed bookings are not audited")
	})
}

func TestAppointmentService_ListForDay(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newAppointmentService(t)

	// 2025-06-01 22:00 UTC is already 2025-06-02 in EAT; the day filter must
	// follow the civil day, not the UTC one.
	date := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	wantFrom := time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)
	wantTo := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)

	repo.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts model.AppointmentsListOptions) ([]*model.Appointment, error) {
			require.NotNil(t, opts.From)
			require.NotNil(t, opts.To)
			assert.True(t, opts.From.Equal(wantFrom), "from = %v", opts.From)
			assert.True(t, opts.To.Equal(wantTo), "to = %v", opts.To)
			require.NotNil(t, opts.DoctorID)
			assert.Equal(t, "user-doctor", *opts.DoctorID)
			return []*model.Appointment{{ID: "appt-1"}}, nil
		})

	appts, err := svc.ListForDay(ctx, "user-doctor", date)
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestAppointmentService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel releases a scheduled slot", func(t *testing.T) {
		svc, repo, audit, _ := newAppointmentService(t)
		repo.EXPECT().GetByID(gomock.Any(), "appt-1").
			Return(&model.Appointment{ID: "appt-1", Status: model.AppointmentScheduled}, nil)
		repo.EXPECT().UpdateStatus(gomock.Any(), "appt-1", model.AppointmentCancelled).
			Return(&model.Appointment{ID: "appt-1", Status: model.AppointmentCancelled}, nil)

		appt, err := svc.Cancel(ctx, "user-reception", "appt-1")
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentCancelled, appt.Status)
		assert.Contains(t, audit.Actions(), "appointment_cancelled")
	})

	t.Run("complete and no-show follow the same path", func(t *testing.T) {
		svc, repo, audit, _ := newAppointmentService(t)
		repo.EXPECT().GetByID(gomock.Any(), "appt-1").
			Return(&model.Appointment{ID: "appt-1", Status: model.AppointmentScheduled}, nil).Times(2)
		repo.EXPECT().UpdateStatus(gomock.Any(), "appt-1", model.AppointmentCompleted).
			Return(&model.Appointment{ID: "appt-1", Status: model.AppointmentCompleted}, nil)
		repo.EXPECT().UpdateStatus(gomock.Any(), "appt-1", model.AppointmentNoShow).
			Return(&model.Appointment{ID: "appt-1", Status: model.AppointmentNoShow}, nil)

		_, err := svc.Complete(ctx, "user-doctor", "appt-1")
		require.NoError(t, err)
		_, err = svc.MarkNoShow(ctx, "user-doctor", "appt-1")
		require.NoError(t, err)

		assert.Contains(t, audit.Actions(), "appointment_completed")
		assert.Contains(t, audit.Actions(), "appointment_no_show")
	})

	t.Run("terminal statuses are one-way", func(t *testing.T) {
		svc, repo, _, _ := newAppointmentService(t)
		repo.EXPECT().GetByID(gomock.Any(), "appt-1").
			Return(&model.Appointment{ID: "appt-1", Status: model.AppointmentCancelled}, nil)

		_, err := svc.Complete(ctx, "user-doctor", "appt-1")
		assert.ErrorIs(t, err, service.ErrStatusFinal)
	})

	t.Run("missing appointment", func(t *testing.T) {
		svc, repo, _, _ := newAppointmentService(t)
		repo.EXPECT().GetByID(gomock.Any(), "appt-missing").
			Return(nil, data.ErrAppointmentNotFound)

		_, err := svc.Cancel(ctx, "user-reception", "appt-missing")
		assert.ErrorIs(t, err, data.ErrAppointmentNotFound)
	})
}
