package data

import (
	"errors"

	"github.com/afyacare/hms/internal/ports"
)

// Shared sentinel errors for data-layer repositories.
var (
	// Profile repository sentinels. Not-found matches the ports-level error
	// so service code can branch without importing this package.
	ErrProfileNotFound = ports.ErrProfileNotFound
	ErrProfileExists   = errors.New("profile already exists")

	// Patient repository sentinels.
	ErrPatientNotFound = errors.New("patient not found")
	ErrMRNExists       = errors.New("medical record number already exists")

	// Appointment repository sentinels.
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("appointment slot already taken")
)
