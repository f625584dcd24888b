// Package student contains the JSON REST handlers for the Student resource.
//
// Each exported function is a factory: it is called once at startup with
// its dependencies and returns the handler the router invokes per request.
//
//	router.HandleFunc("POST /api/students", student.New(svc, v))
package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-management/internal/service"
	"github.com/aanand-mishra/student-management/internal/types"
	"github.com/aanand-mishra/student-management/internal/utils/response"
)

// StudentService is the subset of *service.StudentService the API needs.
type StudentService interface {
	ListAll(ctx context.Context) ([]types.Student, error)
	GetByID(ctx context.Context, id int64) (types.Student, error)
	Create(ctx context.Context, candidate types.Student) (types.Student, error)
	Update(ctx context.Context, id int64, updated types.Student) (types.Student, error)
	Delete(ctx context.Context, id int64) error
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
//	  "gpa": 3.9, "dateOfBirth": "1815-12-10" }
//
// Success response (200 OK): the created student, including its new "id".
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, failed validation,
//	                   or the email is already taken
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(svc StudentService, v *types.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		student, ok := decodeStudent(w, r, v)
		if !ok {
			return
		}

		created, err := svc.Create(r.Context(), student)
		if err != nil {
			writeError(w, err)
			return
		}

		slog.Info("student created", slog.Int64("id", created.ID))
		response.WriteJSON(w, http.StatusOK, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Error responses:
//
//	400 Bad Request  — id is not a valid integer
//	404 Not Found    — no student with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(svc StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		student, err := svc.GetByID(r.Context(), intID)
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students
// Returns a JSON array of all students in insertion order.
// Returns an empty array [] (not null) when there are no students.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(svc StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := svc.ListAll(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces ALL fields of an existing student. Fields left out of the body
// are cleared, exactly as if they had been sent as null.
//
// Success response (200 OK) — the updated student.
//
// Error responses:
//
//	400 Bad Request  — invalid id, empty body, validation failure,
//	                   or the email belongs to another student
//	404 Not Found    — no student with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc StudentService, v *types.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		student, ok := decodeStudent(w, r, v)
		if !ok {
			return
		}

		updated, err := svc.Update(r.Context(), intID, student)
		if err != nil {
			writeError(w, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/students/{id}
// Permanently removes a student record.
//
// Success response: 204 No Content, empty body.
//
// Error responses:
//
//	400 Bad Request  — invalid id
//	404 Not Found    — no student with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(svc StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), intID); err != nil {
			writeError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// parseID converts the {id} path segment to int64, writing a 400 and
// returning false when it is not a valid integer.
func parseID(w http.ResponseWriter, id string) (int64, bool) {
	intID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid id: must be an integer")))
		return 0, false
	}
	return intID, true
}

// maxBodyBytes caps a JSON request body.
const maxBodyBytes = 1 << 20

// decodeStudent reads and structurally validates the JSON body. On failure
// it writes the 400 (or 413) response itself and returns false.
//
// The body must hold exactly one JSON value: trailing data after it, such
// as {"firstName":"Ada"}garbage, is rejected.
func decodeStudent(w http.ResponseWriter, r *http.Request, v *types.Validator) (types.Student, bool) {
	var student types.Student

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(&student)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("request body must contain a single JSON object")
		}
	}

	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
	case errors.As(err, &tooLarge):
		response.WriteJSON(w, http.StatusRequestEntityTooLarge,
			response.GeneralError(fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)))
		return types.Student{}, false
	case errors.Is(err, io.EOF):
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return types.Student{}, false
	default:
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return types.Student{}, false
	}

	if err := v.Validate(student); err != nil {
		writeError(w, err)
		return types.Student{}, false
	}

	return student, true
}

// writeError maps an error to its HTTP status:
//
//	*types.ValidationError, duplicate email → 400
//	not found                               → 404
//	anything else                           → 500 (details only in the log)
func writeError(w http.ResponseWriter, err error) {
	var validationErr *types.ValidationError

	switch {
	case errors.As(err, &validationErr):
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validationErr))
	case errors.Is(err, service.ErrDuplicateEmail):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	case errors.Is(err, service.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError,
			response.GeneralError(errors.New("internal server error")))
	}
}
