// Package response writes the JSON bodies of the student API, including
// the error envelope shared by every handler.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/student-management/internal/types"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a student, a list…).
// Error responses always look like:
//
//	{ "status": "error", "error": "Email already exists: ada@example.com" }
//
// Validation failures additionally list the failing fields:
//
//	{ "status": "error", "error": "firstName is required",
//	  "fields": [{ "field": "firstName", "message": "firstName is required" }] }
//
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string             `json:"status"`           // "ok" or "error"
	Error  string             `json:"error,omitempty"`  // human-readable error detail
	Fields []types.FieldError `json:"fields,omitempty"` // per-field validation detail
}

// Values of Response.Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON sets the content type and status, then encodes data.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// OK is the body for endpoints that have nothing else to say.
func OK() Response {
	return Response{Status: StatusOK}
}

// ─────────────────────────────────────────────────────────────────────────────
// GeneralError puts err into the envelope.
// The message is the error's own text, so domain errors such as
// "Student not found with id: 7" reach the client verbatim.
//
//	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
//
// ─────────────────────────────────────────────────────────────────────────────
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a *types.ValidationError into the envelope.
// The per-field messages are joined with ", " into Error (the messages are
// built by types.Validator) and also returned individually in Fields.
//
// Example output:
//
//	{ "status": "error", "error": "firstName is required, email must be a valid email address", "fields": [...] }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(err *types.ValidationError) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
		Fields: err.Fields,
	}
}
