// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, the service, and every storage backend can import types
// without depending on each other.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Student represents a student record in our system.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON.
//     The API speaks camelCase (firstName, dateOfBirth, ...).
//
//  2. validate:"..." — rules checked by Validator (see validate.go).
//     "notblank" rejects empty and whitespace-only strings, "gpa" is a
//     custom rule bound to the configured GPA range, "enrollmentyear"
//     keeps the year within [MinEnrollmentYear, MaxEnrollmentYear].
//
// Optional numeric and date fields are pointers so that "absent" (null)
// can be told apart from a real zero value.
type Student struct {
	ID             int64    `json:"id"`
	FirstName      string   `json:"firstName"      validate:"notblank"`
	LastName       string   `json:"lastName"       validate:"notblank"`
	Email          string   `json:"email"          validate:"notblank,email"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	DateOfBirth    *Date    `json:"dateOfBirth"`
	Major          string   `json:"major"`
	GPA            *float64 `json:"gpa"            validate:"omitempty,gpa"`
	EnrollmentYear *int     `json:"enrollmentYear" validate:"omitempty,enrollmentyear"`
}

// ReplaceFields overwrites every mutable field of s with the values from
// other. The identifier is left untouched. Absent values in other clear
// the corresponding field: this is a full replace, not a merge.
func (s *Student) ReplaceFields(other Student) {
	s.FirstName = other.FirstName
	s.LastName = other.LastName
	s.Email = other.Email
	s.Phone = other.Phone
	s.Address = other.Address
	s.DateOfBirth = other.DateOfBirth
	s.Major = other.Major
	s.GPA = other.GPA
	s.EnrollmentYear = other.EnrollmentYear
}

// DateLayout is the wire and storage format for dates of birth.
const DateLayout = "2006-01-02"

// Date is a calendar day. It encodes to JSON as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day (UTC midnight).
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as a quoted "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s: expected a string", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
