package service

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrNotFound       = errors.New("student not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// NotFoundError reports that no student carries the requested identifier.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Student not found with id: %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateEmailError reports that another student already owns the email.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("Email already exists: %s", e.Email)
}

func (e *DuplicateEmailError) Is(target error) bool { return target == ErrDuplicateEmail }
