// Package web serves the server-rendered HTML pages: the student list with
// a summary panel, per-row edit and delete controls, and the add/edit form.
// Browsers cannot send PUT or DELETE from a form, so edits and deletes
// post to /students/{id} and /students/{id}/delete.
//
// Handlers follow the same closure/factory pattern as the JSON API in
// package student.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-management/internal/service"
	"github.com/aanand-mishra/student-management/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"gpa": func(v *float64) string {
		if v == nil {
			return "—"
		}
		return strconv.FormatFloat(*v, 'f', 2, 64)
	},
	"year": func(v *int) string {
		if v == nil {
			return "—"
		}
		return strconv.Itoa(*v)
	},
	"date": func(d *types.Date) string {
		if d == nil {
			return "—"
		}
		return d.String()
	},
}

var page = template.Must(
	template.New("students.html").Funcs(funcs).ParseFS(templateFS, "templates/students.html"),
)

// StudentService is the subset of *service.StudentService the pages need.
type StudentService interface {
	ListAll(ctx context.Context) ([]types.Student, error)
	GetByID(ctx context.Context, id int64) (types.Student, error)
	Create(ctx context.Context, candidate types.Student) (types.Student, error)
	Update(ctx context.Context, id int64, updated types.Student) (types.Student, error)
	Delete(ctx context.Context, id int64) error
}

// formField is one input of the entry form.
type formField struct {
	Label string
	Name  string
	Type  string
	Value string
}

// Stats is the summary panel above the table.
type Stats struct {
	Total        int
	AverageGPA   float64
	Majors       int
	EarliestYear *int
}

// form describes the entry form: either "Add student" posting to
// /students, or "Edit student" posting to /students/{id}.
type form struct {
	Title   string
	Action  string
	Editing bool
	Fields  []formField
	Errors  *types.ValidationError
}

type pageData struct {
	Students []types.Student
	Stats    Stats
	Form     form
}

// formInputs lists the form inputs in display order. The names match the
// JSON field names so validation messages line up with inputs.
var formInputs = []formField{
	{Label: "First name", Name: "firstName", Type: "text"},
	{Label: "Last name", Name: "lastName", Type: "text"},
	{Label: "Email", Name: "email", Type: "email"},
	{Label: "Phone", Name: "phone", Type: "tel"},
	{Label: "Address", Name: "address", Type: "text"},
	{Label: "Date of birth", Name: "dateOfBirth", Type: "date"},
	{Label: "Major", Name: "major", Type: "text"},
	{Label: "GPA", Name: "gpa", Type: "text"},
	{Label: "Enrollment year", Name: "enrollmentYear", Type: "number"},
}

// ComputeStats summarises students: the count, the mean of the GPAs that
// are set (0 when none are), the number of distinct non-empty majors and
// the earliest enrollment year (nil when none is set).
func ComputeStats(students []types.Student) Stats {
	stats := Stats{Total: len(students)}

	var gpaSum float64
	var gpaCount int
	majors := make(map[string]struct{})

	for _, s := range students {
		if s.GPA != nil {
			gpaSum += *s.GPA
			gpaCount++
		}
		if s.Major != "" {
			majors[s.Major] = struct{}{}
		}
		if s.EnrollmentYear != nil && (stats.EarliestYear == nil || *s.EnrollmentYear < *stats.EarliestYear) {
			year := *s.EnrollmentYear
			stats.EarliestYear = &year
		}
	}

	if gpaCount > 0 {
		stats.AverageGPA = gpaSum / float64(gpaCount)
	}
	stats.Majors = len(majors)
	return stats
}

// List handles GET / and GET /students: every student plus an empty form.
func List(svc StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("rendering student list")
		render(w, r, svc, addForm(nil, &types.ValidationError{}))
	}
}

// Create handles POST /students (application/x-www-form-urlencoded).
//
// Structural failures and a taken email re-render the page with the
// submitted values and the error next to the offending input. Success
// redirects to /students so a browser refresh does not resubmit.
func Create(svc StudentService, v *types.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student from form")

		student, errs, ok := readForm(w, r, v)
		if !ok {
			return
		}
		if errs.HasErrors() {
			render(w, r, svc, addForm(r.PostForm, errs))
			return
		}

		created, err := svc.Create(r.Context(), student)
		if errors.Is(err, service.ErrDuplicateEmail) {
			errs.Add("email", err.Error())
			render(w, r, svc, addForm(r.PostForm, errs))
			return
		}
		if err != nil {
			internalError(w, "create student from form", err)
			return
		}

		slog.Info("student created", slog.Int64("id", created.ID))
		http.Redirect(w, r, "/students", http.StatusFound)
	}
}

// Edit handles GET /students/{id}/edit: the list with the form pre-filled
// from the stored record and posting to /students/{id}.
func Edit(svc StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("editing a student", slog.Int64("id", id))

		student, err := svc.GetByID(r.Context(), id)
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, "load student for edit", err)
			return
		}

		render(w, r, svc, editForm(id, studentValues(student), &types.ValidationError{}))
	}
}

// Update handles POST /students/{id}. HTML forms cannot send PUT, so the
// edit form posts here. Errors re-render the edit form; success redirects
// to /students.
func Update(svc StudentService, v *types.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a student from form", slog.Int64("id", id))

		student, errs, ok := readForm(w, r, v)
		if !ok {
			return
		}
		if errs.HasErrors() {
			render(w, r, svc, editForm(id, r.PostForm, errs))
			return
		}

		_, err := svc.Update(r.Context(), id, student)
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			errs.Add("email", err.Error())
			render(w, r, svc, editForm(id, r.PostForm, errs))
			return
		case errors.Is(err, service.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case err != nil:
			internalError(w, "update student from form", err)
			return
		}

		slog.Info("student updated", slog.Int64("id", id))
		http.Redirect(w, r, "/students", http.StatusFound)
	}
}

// Delete handles POST /students/{id}/delete from the per-row button.
func Delete(svc StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a student from form", slog.Int64("id", id))

		err := svc.Delete(r.Context(), id)
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, "delete student from form", err)
			return
		}

		slog.Info("student deleted", slog.Int64("id", id))
		http.Redirect(w, r, "/students", http.StatusFound)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id: must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// readForm parses the body, binds it and runs structural validation. The
// returned errors merge conversion and validation failures. ok is false
// when a response has already been written.
func readForm(w http.ResponseWriter, r *http.Request, v *types.Validator) (types.Student, *types.ValidationError, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return types.Student{}, nil, false
	}

	student, errs := bindForm(r)
	if err := v.Validate(student); err != nil {
		var validationErr *types.ValidationError
		if !errors.As(err, &validationErr) {
			internalError(w, "validate form", err)
			return types.Student{}, nil, false
		}
		errs.Fields = append(errs.Fields, validationErr.Fields...)
	}
	return student, errs, true
}

func addForm(values map[string][]string, errs *types.ValidationError) form {
	return form{Title: "Add student", Action: "/students", Fields: fillFields(values), Errors: errs}
}

func editForm(id int64, values map[string][]string, errs *types.ValidationError) form {
	return form{
		Title:   "Edit student #" + strconv.FormatInt(id, 10),
		Action:  "/students/" + strconv.FormatInt(id, 10),
		Editing: true,
		Fields:  fillFields(values),
		Errors:  errs,
	}
}

func fillFields(values map[string][]string) []formField {
	fields := make([]formField, len(formInputs))
	for i, f := range formInputs {
		if vals := values[f.Name]; len(vals) > 0 {
			f.Value = vals[0]
		}
		fields[i] = f
	}
	return fields
}

// studentValues renders a stored record as form values.
func studentValues(s types.Student) map[string][]string {
	values := map[string][]string{
		"firstName": {s.FirstName},
		"lastName":  {s.LastName},
		"email":     {s.Email},
		"phone":     {s.Phone},
		"address":   {s.Address},
		"major":     {s.Major},
	}
	if s.DateOfBirth != nil {
		values["dateOfBirth"] = []string{s.DateOfBirth.String()}
	}
	if s.GPA != nil {
		values["gpa"] = []string{strconv.FormatFloat(*s.GPA, 'f', -1, 64)}
	}
	if s.EnrollmentYear != nil {
		values["enrollmentYear"] = []string{strconv.Itoa(*s.EnrollmentYear)}
	}
	return values
}

func internalError(w http.ResponseWriter, op string, err error) {
	slog.Error(op, slog.String("error", err.Error()))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// bindForm converts the submitted strings into a Student. Values that
// cannot be converted (a GPA of "abc") are reported as field errors; the
// corresponding field is left empty.
func bindForm(r *http.Request) (types.Student, *types.ValidationError) {
	errs := &types.ValidationError{}
	student := types.Student{
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Email:     r.PostFormValue("email"),
		Phone:     r.PostFormValue("phone"),
		Address:   r.PostFormValue("address"),
		Major:     r.PostFormValue("major"),
	}

	if raw := strings.TrimSpace(r.PostFormValue("dateOfBirth")); raw != "" {
		if d, err := types.ParseDate(raw); err != nil {
			errs.Add("dateOfBirth", "dateOfBirth must be a date (YYYY-MM-DD)")
		} else {
			student.DateOfBirth = &d
		}
	}

	if raw := strings.TrimSpace(r.PostFormValue("gpa")); raw != "" {
		if gpa, err := strconv.ParseFloat(raw, 64); err != nil {
			errs.Add("gpa", "gpa must be a number")
		} else {
			student.GPA = &gpa
		}
	}

	if raw := strings.TrimSpace(r.PostFormValue("enrollmentYear")); raw != "" {
		if year, err := strconv.Atoi(raw); err != nil {
			errs.Add("enrollmentYear", "enrollmentYear must be a whole number")
		} else {
			student.EnrollmentYear = &year
		}
	}

	return student, errs
}

// render writes the list page with the stats panel and f as the form.
func render(w http.ResponseWriter, r *http.Request, svc StudentService, f form) {
	students, err := svc.ListAll(r.Context())
	if err != nil {
		internalError(w, "list students for page", err)
		return
	}

	// Render into a buffer first so a template error cannot leave a
	// half-written page behind a 200 status.
	var buf bytes.Buffer
	data := pageData{Students: students, Stats: ComputeStats(students), Form: f}
	if err := page.Execute(&buf, data); err != nil {
		internalError(w, "render students page", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("write page", slog.String("error", err.Error()))
	}
}
