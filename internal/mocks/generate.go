// Package mocks provides mock implementations for testing the hospital services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockPatientRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(patient, nil)
package mocks

// Generate mock for PatientRepository interface from internal/core package.
// This creates MockPatientRepository with methods for all PatientRepository interface methods:
// Create, GetByID, GetByMRN, List, Count, Update, SoftDelete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=patient_repository_mock.go github.com/afyacare/hms/internal/core PatientRepository

// Generate mock for AppointmentRepository interface from internal/core package.
// This creates MockAppointmentRepository with methods for all AppointmentRepository interface methods:
// Book, GetByID, List, UpdateStatus
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=appointment_repository_mock.go github.com/afyacare/hms/internal/core AppointmentRepository

// Generate mock for AuditRepository interface from internal/core package.
// This creates MockAuditRepository with methods for all AuditRepository interface methods:
// Record, ListByEntity
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=audit_repository_mock.go github.com/afyacare/hms/internal/core AuditRepository
