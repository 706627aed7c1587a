// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error responses always have the same one-field shape:
//
//	{ "error": "name is required and must be at least 2 characters" }
package response

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope for error cases. Success responses
// return whatever shape the handler chooses (a student, a list, ...).
type Response struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// json.NewEncoder(w) streams straight into the response body,
	// avoiding an intermediate buffer.
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
// Use this for decode errors, not-found errors, database failures, etc.
func GeneralError(err error) Response {
	return Response{Error: err.Error()}
}

// ValidationError converts the outcome of the create pre-check into a
// Response carrying exactly ONE structured message.
//
// go-playground/validator reports one FieldError per failing field, in
// struct declaration order. The pre-check short-circuits on the first
// failure, so only errs[0] is surfaced: a request missing everything is
// told about its name first, and about the age and course on
// subsequent attempts.
func ValidationError(errs validator.ValidationErrors) Response {
	if len(errs) == 0 {
		return Response{Error: "validation failed"}
	}

	switch errs[0].Field() {
	case "Name":
		return Response{Error: "name is required and must be at least 2 characters"}
	case "Age":
		return Response{Error: "age is required and must be between 16 and 100"}
	case "Course":
		return Response{Error: "course is required"}
	default:
		return Response{Error: "field " + errs[0].Field() + " is invalid"}
	}
}
