//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxPatientNameLen = 255
	maxMRNLen         = 32
)

// PatientSex is the administrative sex recorded at registration.
type PatientSex string

const (
	PatientSexFemale  PatientSex = "female"
	PatientSexMale    PatientSex = "male"
	PatientSexUnknown PatientSex = "unknown"
)

// Valid reports whether the sex value is supported.
func (s PatientSex) Valid() bool {
	switch s {
	case PatientSexFemale, PatientSexMale, PatientSexUnknown:
		return true
	default:
		return false
	}
}

// Patient represents a registered patient. Patients are soft-deleted only;
// DeletedAt carries the tombstone.
type Patient struct {
	ID        string     `json:"id"         db:"id"`
	MRN       string     `json:"mrn"        db:"mrn"`
	FullName  string     `json:"full_name"  db:"full_name"`
	DOB       time.Time  `json:"dob"        db:"dob"`
	Sex       PatientSex `json:"sex"        db:"sex"`
	Phone     string     `json:"phone"      db:"phone"`
	Address   string     `json:"address"    db:"address"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreatePatientRequest carries the fields accepted at registration.
type CreatePatientRequest struct {
	MRN      string     `json:"mrn"`
	FullName string     `json:"full_name"`
	DOB      time.Time  `json:"dob"`
	Sex      PatientSex `json:"sex"`
	Phone    string     `json:"phone"`
	Address  string     `json:"address"`
}

// Validate checks the request for structural problems.
func (r *CreatePatientRequest) Validate() error {
	name := strings.TrimSpace(r.FullName)
	if name == "" {
		return errors.New("patient full name is required")
	}
	if utf8.RuneCountInString(name) > maxPatientNameLen {
		return errors.New("patient full name is too long")
	}
	if strings.TrimSpace(r.MRN) == "" {
		return errors.New("medical record number is required")
	}
	if utf8.RuneCountInString(r.MRN) > maxMRNLen {
		return errors.New("medical record number is too long")
	}
	if r.DOB.IsZero() {
		return errors.New("date of birth is required")
	}
	if r.Sex != "" && !r.Sex.Valid() {
		return errors.New("unsupported sex value")
	}
	return nil
}

// UpdatePatientRequest carries optional field updates; nil means unchanged.
type UpdatePatientRequest struct {
	FullName *string     `json:"full_name,omitempty"`
	Phone    *string     `json:"phone,omitempty"`
	Address  *string     `json:"address,omitempty"`
	Sex      *PatientSex `json:"sex,omitempty"`
}

// Validate checks the update for structural problems.
func (r *UpdatePatientRequest) Validate() error {
	if r.FullName != nil {
		name := strings.TrimSpace(*r.FullName)
		if name == "" {
			return errors.New("patient full name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxPatientNameLen {
			return errors.New("patient full name is too long")
		}
	}
	if r.Sex != nil && !r.Sex.Valid() {
		return errors.New("unsupported sex value")
	}
	return nil
}

// PatientsListOptions controls paging and filtering for listing patients.
type PatientsListOptions struct {
	Limit          int
	Offset         int
	Q              *string // substring match on full_name or MRN (ILIKE)
	IncludeDeleted bool
}
