package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afyacare/hms/internal/core"
	"github.com/afyacare/hms/internal/domain/model"
)

// PatientService owns the patient registry: registration, lookup, demographic
// updates, and soft deletion. Every mutation is attributed to the acting staff
// member in the audit trail.
type PatientService struct {
	repo   core.PatientRepository
	audit  *AuditService
	logger *slog.Logger
}

// NewPatientService constructs a new PatientService.
func NewPatientService(repo core.PatientRepository, audit *AuditService, logger *slog.Logger) *PatientService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatientService{
		repo:   repo,
		audit:  audit,
		logger: logger.With("component", "patients"),
	}
}

// Register creates a patient record. The MRN must be unique among live
// patients; a clash surfaces as data.ErrMRNExists.
func (s *PatientService) Register(ctx context.Context, actor string, req *model.CreatePatientRequest) (*model.Patient, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate patient: %w", err)
	}

	patient, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    actor,
		Entity:   "patient",
		EntityID: patient.ID,
		Action:   "patient_registered",
		Details:  map[string]string{"mrn": patient.MRN},
	})
	return patient, nil
}

// Get returns one patient by ID, tombstoned or not.
func (s *PatientService) Get(ctx context.Context, id string) (*model.Patient, error) {
	if id == "" {
		return nil, errors.New("patient id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// GetByMRN returns one live patient by medical record number.
func (s *PatientService) GetByMRN(ctx context.Context, mrn string) (*model.Patient, error) {
	if mrn == "" {
		return nil, errors.New("mrn is required")
	}
	return s.repo.GetByMRN(ctx, mrn)
}

// PatientPage is one page of the registry listing.
type PatientPage struct {
	Patients []*model.Patient `json:"patients"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

const defaultPatientPageSize = 50

// List returns a page of patients with the live total.
func (s *PatientService) List(ctx context.Context, opts model.PatientsListOptions) (*PatientPage, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPatientPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	patients, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	return &PatientPage{
		Patients: patients,
		Total:    total,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}, nil
}

// Update applies a partial demographic update.
func (s *PatientService) Update(ctx context.Context, actor, id string, req model.UpdatePatientRequest) (*model.Patient, error) {
	if id == "" {
		return nil, errors.New("patient id is required")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate update: %w", err)
	}

	patient, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    actor,
		Entity:   "patient",
		EntityID: patient.ID,
		Action:   "patient_updated",
	})
	return patient, nil
}

// Delete tombstones a patient. The record stays readable by ID for clinical
// history; it disappears from listings and MRN lookup.
func (s *PatientService) Delete(ctx context.Context, actor, id string) error {
	if id == "" {
		return errors.New("patient id is required")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    actor,
		Entity:   "patient",
		EntityID: id,
		Action:   "patient_deleted",
		Severity: model.AuditWarning,
	})
	return nil
}

func (s *PatientService) recordAudit(ctx context.Context, entry model.AuditEntry) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, entry)
}
