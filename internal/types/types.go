// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is the programme a student is enrolled in.
// Only the values listed below are accepted by the database schema.
type Course string

const (
	ComputerScience       Course = "Computer Science"
	MechanicalEngineering Course = "Mechanical Engineering"
	ElectricalEngineering Course = "Electrical Engineering"
	BusinessAdmin         Course = "Business Administration"
	CivilEngineering      Course = "Civil Engineering"
	MedicalScience        Course = "Medical Science"
)

// Courses lists every course the schema accepts, in a fixed order.
// The MongoDB collection validator is built from this slice, so adding
// a course here is the single place the whitelist changes.
var Courses = []Course{
	ComputerScience,
	MechanicalEngineering,
	ElectricalEngineering,
	BusinessAdmin,
	CivilEngineering,
	MedicalScience,
}

// Valid reports whether c is one of the whitelisted courses.
func (c Course) Valid() bool {
	for _, course := range Courses {
		if c == course {
			return true
		}
	}
	return false
}

// Student represents a student document as stored in MongoDB.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON
//     (the ObjectID marshals to its 24-char hex string).
//
//  2. bson:"..."  — controls the field names in the MongoDB document.
//     "_id,omitempty" lets the database assign the id on insert.
type Student struct {
	ID        primitive.ObjectID `json:"id"        bson:"_id,omitempty"`
	Name      string             `json:"name"      bson:"name"`
	Age       int                `json:"age"       bson:"age"`
	Course    Course             `json:"course"    bson:"course"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateStudentRequest is the POST /students payload.
//
// The validate:"..." tags drive the handler's pre-check. Field ORDER
// matters here: go-playground/validator reports failures in declaration
// order and the handler surfaces only the first one, so a request
// missing everything is answered about the name first, then the age,
// then the course.
//
// Course is only checked for presence — the whitelist itself is
// enforced by the collection schema at write time, so an unknown course
// produces the database's validation error rather than one of the
// three structured messages.
type CreateStudentRequest struct {
	Name   string `json:"name"   validate:"required,min=2"`
	Age    int    `json:"age"    validate:"required,gte=16,lte=100"`
	Course string `json:"course" validate:"required"`
}

// UpdateStudentRequest is the PUT /students/{id} payload.
//
// Pointer fields distinguish "field absent" from "field set to its zero
// value", so a partial update only touches the fields the client
// actually sent. No validate tags: update validation is delegated
// entirely to the database's write-time schema rules.
type UpdateStudentRequest struct {
	Name   *string `json:"name,omitempty"`
	Age    *int    `json:"age,omitempty"`
	Course *string `json:"course,omitempty"`
}
