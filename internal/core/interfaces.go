// Package core defines repository interfaces consumed by the service layer.
// Concrete implementations live in internal/data; gomock mocks are generated
// into internal/mocks.
package core

import (
	"context"

	"github.com/afyacare/hms/internal/domain/model"
)

// PatientRepository defines the interface for patient registry operations.
type PatientRepository interface {
	Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	GetByID(ctx context.Context, id string) (*model.Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*model.Patient, error)
	List(ctx context.Context, opts model.PatientsListOptions) ([]*model.Patient, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id string, req model.UpdatePatientRequest) (*model.Patient, error)
	SoftDelete(ctx context.Context, id string) error
}

// AppointmentRepository defines the interface for appointment slot operations.
type AppointmentRepository interface {
	Book(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error)
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	List(ctx context.Context, opts model.AppointmentsListOptions) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error)
}

// AuditRepository defines the interface for audit trail operations.
type AuditRepository interface {
	Record(ctx context.Context, entry model.AuditEntry) error
	ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]model.AuditEntry, error)
}
