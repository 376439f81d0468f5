package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreatePatient() CreatePatientRequest {
	return CreatePatientRequest{
		MRN:      "MRN-00042",
		FullName: "Amina Njoroge",
		DOB:      time.Date(1988, 4, 12, 0, 0, 0, 0, time.UTC),
		Sex:      PatientSexFemale,
		Phone:    "+254700000000",
	}
}

func TestCreatePatientRequestValidate(t *testing.T) {
	req := validCreatePatient()
	require.NoError(t, req.Validate())

	tests := []struct {
		name   string
		mutate func(*CreatePatientRequest)
	}{
		{"missing name", func(r *CreatePatientRequest) { r.FullName = "  " }},
		{"name too long", func(r *CreatePatientRequest) { r.FullName = strings.Repeat("x", maxPatientNameLen+1) }},
		{"missing mrn", func(r *CreatePatientRequest) { r.MRN = "" }},
		{"mrn too long", func(r *CreatePatientRequest) { r.MRN = strings.Repeat("9", maxMRNLen+1) }},
		{"missing dob", func(r *CreatePatientRequest) { r.DOB = time.Time{} }},
		{"bad sex", func(r *CreatePatientRequest) { r.Sex = "other" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreatePatient()
			tc.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestCreatePatientRequestSexOptional(t *testing.T) {
	req := validCreatePatient()
	req.Sex = ""
	assert.NoError(t, req.Validate())
}

func TestUpdatePatientRequestValidate(t *testing.T) {
	empty := ""
	bad := PatientSex("cyborg")
	name := "Peter Otieno"

	assert.NoError(t, (&UpdatePatientRequest{FullName: &name}).Validate())
	assert.Error(t, (&UpdatePatientRequest{FullName: &empty}).Validate())
	assert.Error(t, (&UpdatePatientRequest{Sex: &bad}).Validate())
	assert.NoError(t, (&UpdatePatientRequest{}).Validate())
}
