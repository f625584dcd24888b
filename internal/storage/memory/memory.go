// Package memory provides an in-process implementation of storage.Storage.
// It backs the "memory" driver and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
)

// Memory keeps students in a map keyed by ID, an insertion-ordered ID list
// and an email index. All three are guarded by one RWMutex so a Save
// checks and claims an email atomically.
type Memory struct {
	mu      sync.RWMutex
	byID    map[int64]types.Student
	order   []int64
	byEmail map[string]int64

	seq atomic.Int64
}

// New returns an empty store.
func New() *Memory {
	return &Memory{
		byID:    make(map[int64]types.Student),
		byEmail: make(map[string]int64),
	}
}

// FindAll returns every student in insertion order. The slice is never
// nil, so an empty store encodes as [] rather than null.
func (m *Memory) FindAll(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0, len(m.order))
	for _, id := range m.order {
		students = append(students, m.byID[id])
	}
	return students, nil
}

// FindByID looks a student up by identifier. found is false when no
// record carries id.
func (m *Memory) FindByID(_ context.Context, id int64) (types.Student, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	return s, ok, nil
}

// FindByEmail looks a student up by exact, case-sensitive email.
func (m *Memory) FindByEmail(_ context.Context, email string) (types.Student, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return types.Student{}, false, nil
	}
	return m.byID[id], true, nil
}

// Save inserts a student when ID is 0 and assigns the next sequence
// value, otherwise it replaces the stored record. The email check and the
// write happen under one lock, so two concurrent inserts with the same
// email cannot both succeed.
//
// Errors: storage.ErrDuplicateEmail when another record owns the email,
// storage.ErrNotFound when ID is set but unknown.
func (m *Memory) Save(_ context.Context, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, taken := m.byEmail[student.Email]; taken && owner != student.ID {
		return types.Student{}, fmt.Errorf("memory.Save: %w", storage.ErrDuplicateEmail)
	}

	if student.ID == 0 {
		student.ID = m.seq.Add(1)
		m.order = append(m.order, student.ID)
	} else {
		prev, ok := m.byID[student.ID]
		if !ok {
			return types.Student{}, fmt.Errorf("memory.Save: id %d: %w", student.ID, storage.ErrNotFound)
		}
		delete(m.byEmail, prev.Email)
	}

	m.byID[student.ID] = student
	m.byEmail[student.Email] = student.ID
	return student, nil
}

// Delete removes the record with student.ID and frees its email.
// It returns storage.ErrNotFound when the record is already gone.
func (m *Memory) Delete(_ context.Context, student types.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.byID[student.ID]
	if !ok {
		return fmt.Errorf("memory.Delete: id %d: %w", student.ID, storage.ErrNotFound)
	}

	delete(m.byID, student.ID)
	delete(m.byEmail, prev.Email)
	for i, id := range m.order {
		if id == student.ID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ storage.Storage = (*Memory)(nil)
