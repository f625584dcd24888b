package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStudent() Student {
	return Student{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	}
}

func ptr[T any](v T) *T { return &v }

func TestValidate(t *testing.T) {
	v := NewValidator(0.0, 4.0)

	tests := []struct {
		name   string
		mutate func(s *Student)
		fields []string
	}{
		{name: "minimal record is valid", mutate: func(s *Student) {}},
		{name: "gpa on the upper bound is valid", mutate: func(s *Student) { s.GPA = ptr(4.0) }},
		{name: "gpa on the lower bound is valid", mutate: func(s *Student) { s.GPA = ptr(0.0) }},
		{name: "missing first name", mutate: func(s *Student) { s.FirstName = "" }, fields: []string{"firstName"}},
		{name: "blank last name", mutate: func(s *Student) { s.LastName = "   " }, fields: []string{"lastName"}},
		{name: "missing email", mutate: func(s *Student) { s.Email = "" }, fields: []string{"email"}},
		{name: "malformed email", mutate: func(s *Student) { s.Email = "not-an-email" }, fields: []string{"email"}},
		{name: "gpa above bound", mutate: func(s *Student) { s.GPA = ptr(4.5) }, fields: []string{"gpa"}},
		{name: "gpa below bound", mutate: func(s *Student) { s.GPA = ptr(-0.1) }, fields: []string{"gpa"}},
		{name: "enrollment year on the upper bound is valid", mutate: func(s *Student) { s.EnrollmentYear = ptr(MaxEnrollmentYear) }},
		{name: "enrollment year below bound", mutate: func(s *Student) { s.EnrollmentYear = ptr(MinEnrollmentYear - 1) }, fields: []string{"enrollmentYear"}},
		{name: "enrollment year above bound", mutate: func(s *Student) { s.EnrollmentYear = ptr(MaxEnrollmentYear + 1) }, fields: []string{"enrollmentYear"}},
		{name: "enrollment year wider than 32 bits", mutate: func(s *Student) { s.EnrollmentYear = ptr(5_000_000_000) }, fields: []string{"enrollmentYear"}},
		{
			name:   "several failures are all reported",
			mutate: func(s *Student) { s.FirstName, s.LastName, s.Email = "", "", "" },
			fields: []string{"firstName", "lastName", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validStudent()
			tt.mutate(&s)

			err := v.Validate(s)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
			got := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestValidateMessages(t *testing.T) {
	v := NewValidator(0.0, 4.0)

	s := validStudent()
	s.FirstName = ""
	s.Email = "nope"
	s.GPA = ptr(9.0)

	err := v.Validate(s)
	require.Error(t, err)
	assert.Equal(t,
		"firstName is required, email must be a valid email address, gpa must be between 0.0 and 4.0",
		err.Error())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email must be a valid email address", verr.FieldMessage("email"))
	assert.Empty(t, verr.FieldMessage("lastName"))
}

func TestValidateUsesConfiguredBound(t *testing.T) {
	v := NewValidator(0.0, 5.0)
	s := validStudent()
	s.GPA = ptr(4.8)
	assert.NoError(t, v.Validate(s))
}

func TestValidateEnrollmentYearMessage(t *testing.T) {
	v := NewValidator(1.0, 4.0)
	s := validStudent()
	s.EnrollmentYear = ptr(5_000_000_000)

	err := v.Validate(s)
	require.Error(t, err)
	assert.Equal(t, "enrollmentYear must be between 1800 and 2200", err.Error())
}

func TestReplaceFieldsKeepsID(t *testing.T) {
	existing := Student{ID: 7, FirstName: "Old", LastName: "Name", Email: "old@example.com", Major: "Math", GPA: ptr(3.0)}
	existing.ReplaceFields(Student{ID: 99, FirstName: "New", LastName: "Name", Email: "new@example.com"})

	assert.Equal(t, int64(7), existing.ID)
	assert.Equal(t, "New", existing.FirstName)
	assert.Equal(t, "new@example.com", existing.Email)
	assert.Empty(t, existing.Major, "absent fields overwrite")
	assert.Nil(t, existing.GPA, "absent fields overwrite")
}

func TestDateJSON(t *testing.T) {
	s := validStudent()
	d := NewDate(1815, time.December, 10)
	s.DateOfBirth = &d

	body, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"dateOfBirth":"1815-12-10"`)
	assert.Contains(t, string(body), `"gpa":null`)

	var decoded Student
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.NotNil(t, decoded.DateOfBirth)
	assert.True(t, d.Equal(decoded.DateOfBirth.Time))

	err = json.Unmarshal([]byte(`{"dateOfBirth":"10/12/1815"}`), &decoded)
	assert.Error(t, err)
}
