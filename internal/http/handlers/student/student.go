// Package student contains all HTTP handlers for the Student resource,
// plus the aggregate info handler on the service root.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like a database.
// Each exported function here is a factory: it accepts the storage
// dependency ONCE at route-registration time and returns the actual
// handler, which closes over it:
//
//	router.HandleFunc("POST /students", student.New(db))
//
// DEGRADATION RULE:
// Read paths (GetList, Info) never fail because the database is down or
// empty — they substitute the fixed fallback dataset and answer 200.
// Write paths (New, Update, Delete) surface their errors; there is
// nothing sensible to fall back to on a failed write.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/classroomlabs/students-service/internal/fallback"
	"github.com/classroomlabs/students-service/internal/storage"
	"github.com/classroomlabs/students-service/internal/types"
	"github.com/classroomlabs/students-service/internal/utils/response"
)

// DeleteResponse is the confirmation payload for a successful delete:
// a message plus the student as it was just before removal.
type DeleteResponse struct {
	Message string        `json:"message"`
	Student types.Student `json:"student"`
}

// InfoResponse is the aggregate payload served on GET /.
type InfoResponse struct {
	Message        string            `json:"message"`
	Database       string            `json:"database"` // "connected" or "disconnected"
	TotalStudents  int               `json:"totalStudents"`
	Students       []types.Student   `json:"students"`
	Endpoints      map[string]string `json:"endpoints"`
	ExampleStudent map[string]any    `json:"exampleStudent"`
}

// endpoints is the static description of the API surface included in
// the info payload.
var endpoints = map[string]string{
	"GET /":                 "service info and student list",
	"GET /students":         "list all students",
	"GET /students/{id}":    "get one student by id",
	"POST /students":        "create a student",
	"PUT /students/{id}":    "update a student",
	"DELETE /students/{id}": "delete a student",
}

// exampleStudent is the static example creation payload included in
// the info payload.
var exampleStudent = map[string]any{
	"name":   "Dana Kim",
	"age":    21,
	"course": "Civil Engineering",
}

// writeStorageError maps the storage error taxonomy onto HTTP statuses:
//
//	ErrInvalidID      → 400  (malformed identifier)
//	ErrNotFound       → 404
//	*ValidationError  → 400  (database write-time validation message)
//	anything else     → 500
func writeStorageError(w http.ResponseWriter, err error) {
	var ve *storage.ValidationError

	switch {
	case errors.Is(err, storage.ErrInvalidID):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
	case errors.As(err, &ve):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(ve))
	default:
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Dana Kim", "age": 21, "course": "Civil Engineering" }
//
// The pre-check runs in order — name, then age, then course presence —
// and stops at the first failure, answering 400 with one structured
// message. The course WHITELIST is deliberately not checked here: an
// unknown course passes the presence check and is rejected by the
// database schema, surfacing as a generic validation message instead.
//
// Success: 201 Created with the stored student (id + timestamps set).
// ─────────────────────────────────────────────────────────────────────────────
func New(db storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.CreateStudentRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			// io.EOF means the body was completely empty.
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			// Malformed JSON, wrong types, etc.
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Ordered pre-check. validator reports failures in struct
		// declaration order; response.ValidationError surfaces only
		// the first one.
		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		student, err := db.CreateStudent(r.Context(), req)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		slog.Info("student created", slog.String("id", student.ID.Hex()))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students
// Returns a JSON array of all students.
//
// This is a read path: if the database is unreachable or holds no
// students, the fixed fallback dataset is served instead and the
// status is still 200. A client can always render SOMETHING.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(db storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		fetched, err := db.ListStudents(r.Context())
		students, live := fallback.Resolve(fetched, err)
		if !live {
			slog.Warn("serving fallback dataset",
				slog.Bool("db_error", err != nil))
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
// Fetches a single student by its ObjectID hex string.
//
// Error responses:
//
//	400 — id is not valid ObjectID hex ("invalid id")
//	404 — well-formed id, no matching student
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(db storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.PathValue("id") extracts the {id} segment from the URL
		// (Go 1.22+ ServeMux patterns).
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := db.GetStudentByID(r.Context(), id)
		if err != nil {
			slog.Error("error getting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /students/{id}
// Merges the fields present in the body into an existing student.
//
// Unlike creation there is NO handler-side pre-check: field rules
// (types, ranges, the course whitelist) are enforced by the database
// schema at write time, and a rejection comes back as 400 carrying the
// database's validation message.
//
// Success: 200 with the student as stored AFTER the merge.
// ─────────────────────────────────────────────────────────────────────────────
func Update(db storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		var upd types.UpdateStudentRequest

		err := json.NewDecoder(r.Body).Decode(&upd)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := db.UpdateStudentByID(r.Context(), id, upd)
		if err != nil {
			slog.Error("error updating student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{id}
// Removes a student and confirms with a message plus the deleted
// student's prior state.
//
// Error responses:
//
//	400 — invalid id
//	404 — no matching student
//	500 — unexpected database failure
// ─────────────────────────────────────────────────────────────────────────────
func Delete(db storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		student, err := db.DeleteStudentByID(r.Context(), id)
		if err != nil {
			slog.Error("error deleting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, DeleteResponse{
			Message: "student deleted successfully",
			Student: student,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Info handles GET /
// A composite read: the welcome message, the connection state as
// observed RIGHT NOW (never cached), the student list under the same
// degradation rule as GetList, a count of what is actually in the
// response, and static usage documentation.
//
// This endpoint always answers 200. If listing fails unexpectedly, the
// payload carries the fallback dataset and reports the database as
// disconnected.
// ─────────────────────────────────────────────────────────────────────────────
func Info(db storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting service info")

		connected := db.Connected(r.Context())

		fetched, err := db.ListStudents(r.Context())
		students, _ := fallback.Resolve(fetched, err)
		if err != nil {
			// A failed listing overrides whatever the ping said.
			connected = false
		}

		state := "disconnected"
		if connected {
			state = "connected"
		}

		response.WriteJSON(w, http.StatusOK, InfoResponse{
			Message:        "Welcome to the Students API",
			Database:       state,
			TotalStudents:  len(students),
			Students:       students,
			Endpoints:      endpoints,
			ExampleStudent: exampleStudent,
		})
	}
}
