// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// The service layer should not know or care which database it is talking
// to. By depending only on this interface:
//
//   - Switching databases = pick another backend in the config file.
//     sqlite, postgres and memory all satisfy Storage.
//
//   - Writing tests = pass the in-memory store or the generated mock.
//     No real database needed for unit tests.
package storage

//go:generate mockgen -source=storage.go -destination=mocks/storage_mock.go -package=mocks

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-management/internal/types"
)

// Sentinel errors shared by every backend. Wrap them with fmt.Errorf and
// %w; callers match with errors.Is.
var (
	// ErrNotFound is returned by Save and Delete when no record carries the
	// given identifier. Finders report absence with found=false instead.
	ErrNotFound = errors.New("student not found")

	// ErrDuplicateEmail is returned by Save when another record already
	// owns the email. Backends enforce this atomically.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrOutOfRange is returned by Save when a value does not fit the
	// backend's column type. Backends reject such values rather than
	// storing a different number.
	ErrOutOfRange = errors.New("value out of range")
)

// Storage is the persistence contract for student records.
type Storage interface {
	// FindAll returns every stored student in insertion order.
	// Returns an empty slice (not nil) if there are no students.
	FindAll(ctx context.Context) ([]types.Student, error)

	// FindByID looks a student up by primary key. Absence is reported as
	// found == false with a nil error.
	FindByID(ctx context.Context, id int64) (student types.Student, found bool, err error)

	// FindByEmail looks a student up by exact email match.
	FindByEmail(ctx context.Context, email string) (student types.Student, found bool, err error)

	// Save inserts the student when its ID is zero (assigning a fresh,
	// never reused identifier) or replaces the stored record with the
	// same ID. It returns the record as stored.
	Save(ctx context.Context, student types.Student) (types.Student, error)

	// Delete removes the record with the student's ID, failing with
	// ErrNotFound if there is none.
	Delete(ctx context.Context, student types.Student) error

	// Close releases the underlying connection(s).
	Close() error
}
