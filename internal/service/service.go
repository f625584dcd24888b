// Package service holds the business rules for student records. It is the
// only layer allowed to enforce cross-record invariants (email uniqueness,
// existence) and it talks to persistence exclusively through
// storage.Storage.
//
// Input is expected to be structurally valid already (see
// types.Validator); the boundary layer runs that check before calling in.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-management/internal/metrics"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
)

// StudentService orchestrates storage calls for student records. It keeps
// no state of its own between calls.
type StudentService struct {
	store   storage.Storage
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a StudentService.
type Option func(*StudentService)

// WithLogger sets the structured logger (defaults to slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *StudentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables the domain counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *StudentService) {
		s.metrics = m
	}
}

// NewStudentService builds a service over store.
func NewStudentService(store storage.Storage, opts ...Option) *StudentService {
	s := &StudentService{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ListAll returns every student in insertion order.
func (s *StudentService) ListAll(ctx context.Context) ([]types.Student, error) {
	students, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// GetByID returns the student with the given id or a *NotFoundError.
// Update and Delete resolve existence through here so the not-found
// message lives in one place.
func (s *StudentService) GetByID(ctx context.Context, id int64) (types.Student, error) {
	student, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return types.Student{}, fmt.Errorf("get student %d: %w", id, err)
	}
	if !found {
		return types.Student{}, &NotFoundError{ID: id}
	}
	return student, nil
}

// Create persists candidate as a new record and returns it with its
// assigned identifier. Any existing record with the same email makes it
// fail with a *DuplicateEmailError and nothing is written.
//
// The lookup gives the common case a clean answer; the store's own
// uniqueness enforcement decides when two creates race.
func (s *StudentService) Create(ctx context.Context, candidate types.Student) (types.Student, error) {
	if _, found, err := s.store.FindByEmail(ctx, candidate.Email); err != nil {
		return types.Student{}, fmt.Errorf("create student: %w", err)
	} else if found {
		return types.Student{}, s.duplicate(candidate.Email)
	}

	candidate.ID = 0
	created, err := s.store.Save(ctx, candidate)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return types.Student{}, s.duplicate(candidate.Email)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("create student: %w", err)
	}

	s.logger.InfoContext(ctx, "student created",
		slog.Int64("id", created.ID),
		slog.String("email", created.Email))
	s.metrics.IncrementStudentsCreated()

	return created, nil
}

// Update replaces every mutable field of the student with the given id by
// the corresponding field of updated (absent values clear the field) and
// returns the stored result. A record may keep its own email; taking an
// email owned by another record fails with a *DuplicateEmailError and
// leaves the original untouched.
func (s *StudentService) Update(ctx context.Context, id int64, updated types.Student) (types.Student, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return types.Student{}, err
	}

	owner, found, err := s.store.FindByEmail(ctx, updated.Email)
	if err != nil {
		return types.Student{}, fmt.Errorf("update student %d: %w", id, err)
	}
	if found && owner.ID != id {
		return types.Student{}, s.duplicate(updated.Email)
	}

	existing.ReplaceFields(updated)

	saved, err := s.store.Save(ctx, existing)
	switch {
	case errors.Is(err, storage.ErrDuplicateEmail):
		return types.Student{}, s.duplicate(updated.Email)
	case errors.Is(err, storage.ErrNotFound):
		// Deleted between the lookup and the write.
		return types.Student{}, &NotFoundError{ID: id}
	case err != nil:
		return types.Student{}, fmt.Errorf("update student %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "student updated", slog.Int64("id", id))
	s.metrics.IncrementStudentsUpdated()

	return saved, nil
}

// Delete permanently removes the student with the given id.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, existing); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{ID: id}
		}
		return fmt.Errorf("delete student %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "student deleted", slog.Int64("id", id))
	s.metrics.IncrementStudentsDeleted()

	return nil
}

func (s *StudentService) duplicate(email string) error {
	s.logger.Debug("duplicate email rejected", slog.String("email", email))
	s.metrics.IncrementDuplicateEmails()
	return &DuplicateEmailError{Email: email}
}
