// Package fallback owns the degradation policy for read paths.
//
// The contract: a request that only READS students never fails because
// the database is down or empty — it is answered with a fixed sample
// dataset instead. Write paths get no such treatment; there is nothing
// meaningful to fall back to when an insert or delete fails.
//
// The policy itself is a pure function (Resolve) of the storage call's
// outcome, so it is testable without any database.
package fallback

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classroomlabs/students-service/internal/types"
)

// Preset ids so the sample data is stable across restarts and easy to
// recognise in logs and tests.
var (
	aliceID   = mustID("66f000000000000000000001")
	bobID     = mustID("66f000000000000000000002")
	charlieID = mustID("66f000000000000000000003")

	sampleTime = time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)
)

// students is the fixed dataset. It is never written to the database
// and never mutated; Students() hands out copies only.
var students = []types.Student{
	{
		ID:        aliceID,
		Name:      "Alice Johnson",
		Age:       20,
		Course:    types.ComputerScience,
		CreatedAt: sampleTime,
		UpdatedAt: sampleTime,
	},
	{
		ID:        bobID,
		Name:      "Bob Smith",
		Age:       22,
		Course:    types.MechanicalEngineering,
		CreatedAt: sampleTime,
		UpdatedAt: sampleTime,
	},
	{
		ID:        charlieID,
		Name:      "Charlie Lee",
		Age:       19,
		Course:    types.BusinessAdmin,
		CreatedAt: sampleTime,
		UpdatedAt: sampleTime,
	},
}

// Students returns a copy of the fallback dataset. Copying keeps the
// package-level slice immutable even if a caller appends to or edits
// the result.
func Students() []types.Student {
	out := make([]types.Student, len(students))
	copy(out, students)
	return out
}

// Resolve applies the degradation policy to the outcome of a list call.
//
// It returns the data to serve and whether that data is live:
//
//	(fetched, nil)        → (fetched, true)    database answered
//	(empty, nil)          → (fallback, false)  database empty
//	(anything, error)     → (fallback, false)  database unreachable
//
// Callers always get something to serve; the bool only feeds logging
// and the info endpoint's reported connection state.
func Resolve(fetched []types.Student, err error) ([]types.Student, bool) {
	if err != nil || len(fetched) == 0 {
		return Students(), false
	}
	return fetched, true
}

func mustID(hex string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic("fallback: bad preset id: " + hex)
	}
	return oid
}
