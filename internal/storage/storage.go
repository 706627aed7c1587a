// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// Handlers (HTTP layer) should not know or care which database they are
// talking to. By depending only on this interface:
//
//   - Switching databases = implement the interface for the new DB,
//     change one line in main.go. Zero handler changes.
//
//   - Writing tests = pass a fake that satisfies the interface.
//     No real database needed for unit tests.
//
// The package also owns the error taxonomy the backends report through.
// Handlers translate these errors into HTTP status codes; backends
// translate driver errors into them. Neither side ever sees the other's
// vocabulary.
package storage

import (
	"context"
	"errors"

	"github.com/classroomlabs/students-service/internal/types"
)

// Sentinel errors every backend maps its driver errors onto.
// Handlers test for them with errors.Is.
var (
	// ErrNotFound means the id was well-formed but matched no document.
	ErrNotFound = errors.New("student not found")

	// ErrInvalidID means the id string is not a valid ObjectID hex.
	ErrInvalidID = errors.New("invalid id")
)

// ValidationError carries the database's own write-time validation
// message — the document failed the collection schema (bad course,
// age out of range, name too short on an update, ...). Handlers test
// for it with errors.As and answer 400 with the message attached.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Storage is the database contract.
// Any concrete type that implements ALL of these methods automatically
// satisfies this interface — Go does this implicitly.
//
// Every call takes a context so the backend can honour request
// cancellation; none of them retries.
type Storage interface {
	// ListStudents returns every student in the collection.
	// Returns an empty slice (not nil) if there are no students.
	ListStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID fetches a single student by its hex id.
	// Returns ErrInvalidID for malformed ids, ErrNotFound when no
	// document matches.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// CreateStudent inserts a new student and returns it with the
	// database-assigned id and timestamps filled in. A document the
	// schema rejects comes back as a *ValidationError.
	CreateStudent(ctx context.Context, req types.CreateStudentRequest) (types.Student, error)

	// UpdateStudentByID merges the set fields of upd into an existing
	// student and returns the updated document. ErrInvalidID /
	// ErrNotFound / *ValidationError as above.
	UpdateStudentByID(ctx context.Context, id string, upd types.UpdateStudentRequest) (types.Student, error)

	// DeleteStudentByID removes a student and returns its prior state
	// so the handler can echo what was deleted.
	DeleteStudentByID(ctx context.Context, id string) (types.Student, error)

	// Connected reports the connection state as observed right now.
	// It must return quickly — it is called on every request to the
	// info endpoint — and must never block until the database is up.
	Connected(ctx context.Context) bool
}
