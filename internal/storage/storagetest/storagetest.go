// Package storagetest holds the behavioural contract every storage.Storage
// backend must pass. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
)

// Factory returns a fresh, empty store. It is called before every test.
type Factory func(t *testing.T) storage.Storage

// Run executes the contract suite against the store built by newStore.
func Run(t *testing.T, newStore Factory) {
	suite.Run(t, &ContractSuite{newStore: newStore})
}

// ContractSuite verifies the input/output contract of storage.Storage.
type ContractSuite struct {
	suite.Suite
	newStore Factory
	store    storage.Storage
	ctx      context.Context
}

func (s *ContractSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
}

func (s *ContractSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

// NewStudent builds a minimal valid record with the given email.
func NewStudent(first, email string) types.Student {
	return types.Student{FirstName: first, LastName: "Tester", Email: email}
}

// FullStudent builds a record with every optional field populated.
func FullStudent(email string) types.Student {
	gpa := 3.75
	year := 2021
	dob := types.NewDate(2002, time.March, 14)
	return types.Student{
		FirstName:      "Grace",
		LastName:       "Hopper",
		Email:          email,
		Phone:          "+1-555-0100",
		Address:        "1 Navy Yard",
		DateOfBirth:    &dob,
		Major:          "Mathematics",
		GPA:            &gpa,
		EnrollmentYear: &year,
	}
}

func (s *ContractSuite) TestSaveAssignsIdentifiers() {
	s.Run("insert assigns distinct non-zero ids", func() {
		a, err := s.store.Save(s.ctx, NewStudent("A", "a@example.com"))
		s.Require().NoError(err)
		b, err := s.store.Save(s.ctx, NewStudent("B", "b@example.com"))
		s.Require().NoError(err)

		s.NotZero(a.ID)
		s.NotZero(b.ID)
		s.NotEqual(a.ID, b.ID)
	})

	s.Run("ids are not reused after delete", func() {
		c, err := s.store.Save(s.ctx, NewStudent("C", "c@example.com"))
		s.Require().NoError(err)
		s.Require().NoError(s.store.Delete(s.ctx, c))

		d, err := s.store.Save(s.ctx, NewStudent("D", "d@example.com"))
		s.Require().NoError(err)
		s.Greater(d.ID, c.ID)
	})
}

func (s *ContractSuite) TestRoundTrip() {
	s.Run("every field survives a save and load", func() {
		in := FullStudent("grace@example.com")
		saved, err := s.store.Save(s.ctx, in)
		s.Require().NoError(err)

		got, found, err := s.store.FindByID(s.ctx, saved.ID)
		s.Require().NoError(err)
		s.Require().True(found)

		in.ID = saved.ID
		s.assertStudentEqual(in, got)
	})

	s.Run("absent optional fields stay absent", func() {
		in := NewStudent("Min", "min@example.com")
		saved, err := s.store.Save(s.ctx, in)
		s.Require().NoError(err)

		got, found, err := s.store.FindByID(s.ctx, saved.ID)
		s.Require().NoError(err)
		s.Require().True(found)
		s.Nil(got.GPA)
		s.Nil(got.EnrollmentYear)
		s.Nil(got.DateOfBirth)
		s.Empty(got.Phone)
	})
}

func (s *ContractSuite) TestFinders() {
	saved, err := s.store.Save(s.ctx, NewStudent("Ada", "ada@example.com"))
	s.Require().NoError(err)

	s.Run("find by id reports absence without error", func() {
		_, found, err := s.store.FindByID(s.ctx, saved.ID+1000)
		s.Require().NoError(err)
		s.False(found)
	})

	s.Run("find by email matches exactly", func() {
		got, found, err := s.store.FindByEmail(s.ctx, "ada@example.com")
		s.Require().NoError(err)
		s.Require().True(found)
		s.Equal(saved.ID, got.ID)

		_, found, err = s.store.FindByEmail(s.ctx, "ADA@example.com")
		s.Require().NoError(err)
		s.False(found, "email comparison is case-sensitive")
	})

	s.Run("find all returns insertion order", func() {
		_, err := s.store.Save(s.ctx, NewStudent("Zed", "zed@example.com"))
		s.Require().NoError(err)
		_, err = s.store.Save(s.ctx, NewStudent("Bob", "bob@example.com"))
		s.Require().NoError(err)

		all, err := s.store.FindAll(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 3)
		s.Equal("Ada", all[0].FirstName)
		s.Equal("Zed", all[1].FirstName)
		s.Equal("Bob", all[2].FirstName)
	})
}

func (s *ContractSuite) TestFindAllEmpty() {
	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(all)
	s.Empty(all)
}

func (s *ContractSuite) TestSaveReplaces() {
	saved, err := s.store.Save(s.ctx, FullStudent("grace@example.com"))
	s.Require().NoError(err)

	replacement := NewStudent("Grace", "hopper@example.com")
	replacement.ID = saved.ID
	updated, err := s.store.Save(s.ctx, replacement)
	s.Require().NoError(err)
	s.Equal(saved.ID, updated.ID)

	got, found, err := s.store.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal("hopper@example.com", got.Email)
	s.Nil(got.GPA)
	s.Empty(got.Major)

	_, found, err = s.store.FindByEmail(s.ctx, "grace@example.com")
	s.Require().NoError(err)
	s.False(found, "old email is released")

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ContractSuite) TestSaveUnknownIDFails() {
	ghost := NewStudent("Ghost", "ghost@example.com")
	ghost.ID = 4242
	_, err := s.store.Save(s.ctx, ghost)
	s.Require().ErrorIs(err, storage.ErrNotFound)
}

// TestOversizedYearIsNeverAltered saves a year wider than 32 bits. A backend
// may refuse it with ErrOutOfRange, but must never store a different value.
func (s *ContractSuite) TestOversizedYearIsNeverAltered() {
	year := math.MaxInt32 + 1
	candidate := NewStudent("Wide", "wide@example.com")
	candidate.EnrollmentYear = &year

	saved, err := s.store.Save(s.ctx, candidate)
	if err != nil {
		s.Require().ErrorIs(err, storage.ErrOutOfRange)
		all, err := s.store.FindAll(s.ctx)
		s.Require().NoError(err)
		s.Empty(all, "a refused record is not stored")
		return
	}

	got, found, err := s.store.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().NotNil(got.EnrollmentYear)
	s.Equal(year, *got.EnrollmentYear)
}

func (s *ContractSuite) TestEmailUniqueness() {
	first, err := s.store.Save(s.ctx, NewStudent("A", "dup@example.com"))
	s.Require().NoError(err)

	s.Run("insert with taken email fails", func() {
		_, err := s.store.Save(s.ctx, NewStudent("B", "dup@example.com"))
		s.Require().ErrorIs(err, storage.ErrDuplicateEmail)

		all, err := s.store.FindAll(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
	})

	s.Run("update to taken email fails", func() {
		other, err := s.store.Save(s.ctx, NewStudent("C", "other@example.com"))
		s.Require().NoError(err)

		other.Email = "dup@example.com"
		_, err = s.store.Save(s.ctx, other)
		s.Require().ErrorIs(err, storage.ErrDuplicateEmail)
	})

	s.Run("record may keep its own email", func() {
		first.LastName = "Renamed"
		_, err := s.store.Save(s.ctx, first)
		s.Require().NoError(err)
	})

	s.Run("concurrent inserts admit exactly one", func() {
		const workers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.store.Save(s.ctx, NewStudent("Race", "race@example.com")); err == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		s.Equal(1, success)
	})
}

func (s *ContractSuite) TestDelete() {
	saved, err := s.store.Save(s.ctx, NewStudent("Del", "del@example.com"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, saved))

	_, found, err := s.store.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.False(found)

	s.Run("email is free again", func() {
		_, err := s.store.Save(s.ctx, NewStudent("Again", "del@example.com"))
		s.Require().NoError(err)
	})

	s.Run("deleting a missing record fails fast", func() {
		err := s.store.Delete(s.ctx, saved)
		s.Require().ErrorIs(err, storage.ErrNotFound)
	})
}

func (s *ContractSuite) assertStudentEqual(want, got types.Student) {
	s.Equal(want.ID, got.ID)
	s.Equal(want.FirstName, got.FirstName)
	s.Equal(want.LastName, got.LastName)
	s.Equal(want.Email, got.Email)
	s.Equal(want.Phone, got.Phone)
	s.Equal(want.Address, got.Address)
	s.Equal(want.Major, got.Major)
	s.Equal(want.GPA, got.GPA)
	s.Equal(want.EnrollmentYear, got.EnrollmentYear)
	if want.DateOfBirth == nil {
		s.Nil(got.DateOfBirth)
		return
	}
	s.Require().NotNil(got.DateOfBirth)
	s.Equal(want.DateOfBirth.String(), got.DateOfBirth.String())
}
