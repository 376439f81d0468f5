package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBooking() BookAppointmentRequest {
	start := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	return BookAppointmentRequest{
		DoctorID:  "doc-1",
		PatientID: "pat-1",
		StartsAt:  start,
		EndsAt:    start.Add(30 * time.Minute),
		Reason:    "follow-up",
	}
}

func TestBookAppointmentRequestValidate(t *testing.T) {
	req := validBooking()
	require.NoError(t, req.Validate())

	tests := []struct {
		name   string
		mutate func(*BookAppointmentRequest)
	}{
		{"missing doctor", func(r *BookAppointmentRequest) { r.DoctorID = "" }},
		{"missing patient", func(r *BookAppointmentRequest) { r.PatientID = " " }},
		{"zero start", func(r *BookAppointmentRequest) { r.StartsAt = time.Time{} }},
		{"end before start", func(r *BookAppointmentRequest) { r.EndsAt = r.StartsAt.Add(-time.Minute) }},
		{"end equals start", func(r *BookAppointmentRequest) { r.EndsAt = r.StartsAt }},
		{"too short", func(r *BookAppointmentRequest) { r.EndsAt = r.StartsAt.Add(time.Minute) }},
		{"too long", func(r *BookAppointmentRequest) { r.EndsAt = r.StartsAt.Add(5 * time.Hour) }},
		{"reason too long", func(r *BookAppointmentRequest) { r.Reason = strings.Repeat("r", maxAppointmentReasonLen+1) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validBooking()
			tc.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestAppointmentStatusValid(t *testing.T) {
	for _, s := range []AppointmentStatus{AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, AppointmentStatus("pending").Valid())
	assert.False(t, AppointmentStatus("").Valid())
}
