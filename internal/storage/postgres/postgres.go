// Package postgres provides a PostgreSQL-backed implementation of
// storage.Storage on top of a pgx connection pool. The schema lives in
// embedded golang-migrate migrations which New applies before opening the
// pool.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for migrations

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const selectColumns = `SELECT id, first_name, last_name, email, phone, address,
	date_of_birth, major, gpa, enrollment_year FROM students`

// Postgres is the concrete implementation of storage.Storage.
type Postgres struct {
	pool *pgxpool.Pool
}

// New migrates the database named by cfg.Storage.DSN to the latest schema
// and returns a store backed by a fresh pool.
func New(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	if err := Migrate(cfg.Storage.DSN); err != nil {
		return nil, fmt.Errorf("postgres.New: %w", err)
	}

	pool, err := NewPool(ctx, cfg.Storage.DSN, cfg.Storage.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// NewPool opens a pgx pool and pings it so a bad DSN fails at startup.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// Migrate applies every pending up migration. An up-to-date schema is not
// an error.
func Migrate(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate: open source: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("migrate: open db: %w", err)
	}

	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate: driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate: init: %w", err)
	}
	// Closes the source, the driver and db.
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: up: %w", err)
	}
	return nil
}

// FindAll returns every row ordered by id. The result is never nil.
func (p *Postgres) FindAll(ctx context.Context) ([]types.Student, error) {
	rows, err := p.pool.Query(ctx, selectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("postgres.FindAll: query: %w", err)
	}

	students, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Student, error) {
		return scanStudent(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres.FindAll: collect: %w", err)
	}
	if students == nil {
		students = []types.Student{}
	}
	return students, nil
}

// FindByID returns the row with the given id; found is false when absent.
func (p *Postgres) FindByID(ctx context.Context, id int64) (types.Student, bool, error) {
	return p.findOne(ctx, "postgres.FindByID", selectColumns+" WHERE id = $1", id)
}

// FindByEmail returns the row whose email matches exactly.
func (p *Postgres) FindByEmail(ctx context.Context, email string) (types.Student, bool, error) {
	return p.findOne(ctx, "postgres.FindByEmail", selectColumns+" WHERE email = $1", email)
}

// Save inserts (ID == 0) or replaces a row. The students_email_key
// constraint makes the uniqueness check part of the write itself.
func (p *Postgres) Save(ctx context.Context, student types.Student) (types.Student, error) {
	year, err := int4(student.EnrollmentYear)
	if err != nil {
		return types.Student{}, fmt.Errorf("postgres.Save: %w", err)
	}

	args := []any{
		student.FirstName,
		student.LastName,
		student.Email,
		text(student.Phone),
		text(student.Address),
		date(student.DateOfBirth),
		text(student.Major),
		float8(student.GPA),
		year,
	}

	if student.ID == 0 {
		err := p.pool.QueryRow(ctx, `
			INSERT INTO students (first_name, last_name, email, phone, address,
				date_of_birth, major, gpa, enrollment_year)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, args...).Scan(&student.ID)
		if err != nil {
			return types.Student{}, fmt.Errorf("postgres.Save: insert: %w", translate(err))
		}
		return student, nil
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE students SET first_name = $1, last_name = $2, email = $3, phone = $4,
			address = $5, date_of_birth = $6, major = $7, gpa = $8, enrollment_year = $9
		WHERE id = $10
	`, append(args, student.ID)...)
	if err != nil {
		return types.Student{}, fmt.Errorf("postgres.Save: update: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return types.Student{}, fmt.Errorf("postgres.Save: id %d: %w", student.ID, storage.ErrNotFound)
	}

	return student, nil
}

// Delete removes the row with student.ID, returning storage.ErrNotFound
// when no row was affected.
func (p *Postgres) Delete(ctx context.Context, student types.Student) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", student.ID)
	if err != nil {
		return fmt.Errorf("postgres.Delete: exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres.Delete: id %d: %w", student.ID, storage.ErrNotFound)
	}
	return nil
}

// Close closes every connection in the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) findOne(ctx context.Context, op, query string, arg any) (types.Student, bool, error) {
	student, err := scanStudent(p.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, fmt.Errorf("%s: scan: %w", op, err)
	}
	return student, true, nil
}

func scanStudent(row pgx.Row) (types.Student, error) {
	var (
		student               types.Student
		phone, address, major pgtype.Text
		dob                   pgtype.Date
		gpa                   pgtype.Float8
		enrollmentYear        pgtype.Int4
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
		d := types.NewDate(dob.Time.Year(), dob.Time.Month(), dob.Time.Day())
		student.DateOfBirth = &d
	}
	if gpa.Valid {
		v := gpa.Float64
		student.GPA = &v
	}
	if enrollmentYear.Valid {
		v := int(enrollmentYear.Int32)
		student.EnrollmentYear = &v
	}

	return student, nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.ErrDuplicateEmail
	}
	return err
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func date(d *types.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}

func float8(v *float64) pgtype.Float8 {
	if v == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *v, Valid: true}
}

// int4 refuses values outside the INTEGER column instead of wrapping them.
func int4(v *int) (pgtype.Int4, error) {
	if v == nil {
		return pgtype.Int4{}, nil
	}
	if *v < math.MinInt32 || *v > math.MaxInt32 {
		return pgtype.Int4{}, fmt.Errorf("enrollment year %d: %w", *v, storage.ErrOutOfRange)
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}, nil
}

var _ storage.Storage = (*Postgres)(nil)
