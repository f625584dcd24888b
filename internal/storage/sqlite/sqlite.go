// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the default backend; see package postgres for the
// server-backed alternative.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql
// (its init() does this). We also use the package directly for the error
// codes that identify a UNIQUE constraint violation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// schema is idempotent — safe to run on every startup.
//
//	id    — AUTOINCREMENT so identifiers are never reused, even after delete
//	email — UNIQUE; the database, not the service, is the final arbiter
//	        of email uniqueness (BINARY collation = exact, case-sensitive)
//	date_of_birth — TEXT "YYYY-MM-DD"; declared TEXT so the driver hands
//	        it back as a string instead of guessing a time.Time
const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name      TEXT    NOT NULL,
		last_name       TEXT    NOT NULL,
		email           TEXT    NOT NULL UNIQUE,
		phone           TEXT,
		address         TEXT,
		date_of_birth   TEXT,
		major           TEXT,
		gpa             REAL,
		enrollment_year INTEGER
	)
`

const selectColumns = `SELECT id, first_name, last_name, email, phone, address,
	date_of_birth, major, gpa, enrollment_year FROM students`

// New opens the SQLite database at cfg.Storage.Path, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// _busy_timeout makes a locked database wait instead of failing.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", cfg.Storage.Path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows a single writer. One connection serialises writes in
	// the pool instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// FindAll returns all student rows ordered by id, which is insertion order
// because ids only ever grow.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) FindAll(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx, selectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("sqlite.FindAll: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite.FindAll: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.FindAll: rows iteration: %w", err)
	}

	return students, nil
}

// FindByID returns the row with the given id. A missing row is reported
// as found=false with a nil error, not as sql.ErrNoRows.
func (s *SQLite) FindByID(ctx context.Context, id int64) (types.Student, bool, error) {
	row := s.Db.QueryRowContext(ctx, selectColumns+" WHERE id = ? LIMIT 1", id)
	return findOne(row, "sqlite.FindByID")
}

// FindByEmail returns the row whose email matches exactly. SQLite's
// default BINARY collation makes the comparison case-sensitive.
func (s *SQLite) FindByEmail(ctx context.Context, email string) (types.Student, bool, error) {
	row := s.Db.QueryRowContext(ctx, selectColumns+" WHERE email = ? LIMIT 1", email)
	return findOne(row, "sqlite.FindByEmail")
}

// ─────────────────────────────────────────────────────────────────────────────
// Save inserts (ID == 0) or replaces (ID != 0) a student row.
//
// Each branch is a single statement, so the UNIQUE constraint on email is
// checked atomically with the write. A violation comes back from the driver
// as sqlite3.ErrConstraintUnique and is reported as
// storage.ErrDuplicateEmail.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Save(ctx context.Context, student types.Student) (types.Student, error) {
	args := []any{
		student.FirstName,
		student.LastName,
		student.Email,
		nullString(student.Phone),
		nullString(student.Address),
		dateValue(student.DateOfBirth),
		nullString(student.Major),
		student.GPA,
		student.EnrollmentYear,
	}

	if student.ID == 0 {
		result, err := s.Db.ExecContext(ctx, `
			INSERT INTO students (first_name, last_name, email, phone, address,
				date_of_birth, major, gpa, enrollment_year)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...)
		if err != nil {
			return types.Student{}, fmt.Errorf("sqlite.Save: insert: %w", translate(err))
		}

		// LastInsertId returns the auto-generated primary key of the new row.
		lastID, err := result.LastInsertId()
		if err != nil {
			return types.Student{}, fmt.Errorf("sqlite.Save: last insert id: %w", err)
		}
		student.ID = lastID
		return student, nil
	}

	// Note the id goes last to match the final ? in the statement.
	result, err := s.Db.ExecContext(ctx, `
		UPDATE students SET first_name = ?, last_name = ?, email = ?, phone = ?,
			address = ?, date_of_birth = ?, major = ?, gpa = ?, enrollment_year = ?
		WHERE id = ?
	`, append(args, student.ID)...)
	if err != nil {
		return types.Student{}, fmt.Errorf("sqlite.Save: update: %w", translate(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, fmt.Errorf("sqlite.Save: rows affected: %w", err)
	}
	if affected == 0 {
		return types.Student{}, fmt.Errorf("sqlite.Save: id %d: %w", student.ID, storage.ErrNotFound)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete removes the row with student.ID.
//
// RowsAffected tells us whether the row existed. Zero means someone else
// deleted it first, which is reported as storage.ErrNotFound.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Delete(ctx context.Context, student types.Student) error {
	result, err := s.Db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", student.ID)
	if err != nil {
		return fmt.Errorf("sqlite.Delete: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite.Delete: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sqlite.Delete: id %d: %w", student.ID, storage.ErrNotFound)
	}

	return nil
}

// Close releases the underlying *sql.DB. Call it once, at shutdown.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanStudent reads one row in selectColumns order. Nullable columns are
// scanned into sql.Null* holders and then unpacked into the model.
func scanStudent(row rowScanner) (types.Student, error) {
	var (
		student                    types.Student
		phone, address, dob, major sql.NullString
		gpa                        sql.NullFloat64
		enrollmentYear             sql.NullInt64
	)

	if err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&phone,
		&address,
		&dob,
		&major,
		&gpa,
		&enrollmentYear,
	); err != nil {
		return types.Student{}, err
	}

	student.Phone = phone.String
	student.Address = address.String
	student.Major = major.String
	if dob.Valid {
		d, err := types.ParseDate(dob.String)
		if err != nil {
			return types.Student{}, err
		}
		student.DateOfBirth = &d
	}
	if gpa.Valid {
		v := gpa.Float64
		student.GPA = &v
	}
	if enrollmentYear.Valid {
		v := int(enrollmentYear.Int64)
		student.EnrollmentYear = &v
	}

	return student, nil
}

// findOne turns sql.ErrNoRows into found == false.
func findOne(row *sql.Row, op string) (types.Student, bool, error) {
	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, fmt.Errorf("%s: scan: %w", op, err)
	}
	return student, true, nil
}

func translate(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return storage.ErrDuplicateEmail
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func dateValue(d *types.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

var _ storage.Storage = (*SQLite)(nil)
