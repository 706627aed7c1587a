// Package mongodb provides the MongoDB-backed implementation of the
// storage.Storage interface using the official mongo-driver.
//
// WHY A DOCUMENT STORE?
// ─────────────────────
// Students are self-contained documents with no relations, and the
// course whitelist lives in the collection's $jsonSchema validator —
// the database itself rejects a document with an unknown course or an
// out-of-range age. That keeps the write-time rules next to the data
// instead of duplicated across every caller.
//
// CONNECTION MODEL:
// mongo.Connect does NOT block until the server is reachable; it hands
// back a client immediately and dials lazily. The HTTP server therefore
// starts whether or not MongoDB is up, and reads degrade to the
// fallback dataset until it is. Connected() observes the live state
// with a short bounded ping on every call.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/classroomlabs/students-service/internal/config"
	"github.com/classroomlabs/students-service/internal/storage"
	"github.com/classroomlabs/students-service/internal/types"
)

// documentValidationFailure is the server error code MongoDB returns
// when a write violates the collection's $jsonSchema validator.
const documentValidationFailure = 121

// pingTimeout bounds the per-request connection-state observation.
const pingTimeout = 500 * time.Millisecond

// MongoDB is the concrete implementation of storage.Storage.
// The *mongo.Client is a connection pool, safe for concurrent use by
// multiple goroutines; no locking happens in this package.
type MongoDB struct {
	client   *mongo.Client
	database string
	students *mongo.Collection
}

// New builds a client for the configured URI and returns a ready
// *MongoDB. The server does not have to be reachable: the connection
// attempt is fire-and-forget, and the collection validator is installed
// best-effort in the background.
func New(cfg *config.Config) (*MongoDB, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		// Only malformed URIs / options fail here, not a down server.
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	m := &MongoDB{
		client:   client,
		database: cfg.Mongo.Database,
		students: client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection),
	}

	go m.ensureSchema()

	return m, nil
}

// studentSchema is the collection validator. It carries the rules the
// handlers do NOT pre-check — most importantly the course whitelist —
// so an invalid course is rejected by the database, not the handler.
func studentSchema() bson.M {
	courses := make([]string, 0, len(types.Courses))
	for _, c := range types.Courses {
		courses = append(courses, string(c))
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"name", "age", "course"},
			"properties": bson.M{
				"name": bson.M{
					"bsonType":  "string",
					"minLength": 2,
				},
				"age": bson.M{
					"bsonType": []string{"int", "long"},
					"minimum":  16,
					"maximum":  100,
				},
				"course": bson.M{
					"enum": courses,
				},
			},
		},
	}
}

// ensureSchema creates the students collection with its validator, or
// refreshes the validator if the collection already exists. Best
// effort: if the server is down this simply logs and gives up — writes
// will fail with their own errors until it comes back.
func (m *MongoDB) ensureSchema() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := m.client.Database(m.database)
	name := m.students.Name()

	err := db.CreateCollection(ctx, name,
		options.CreateCollection().SetValidator(studentSchema()))
	if err == nil {
		return
	}

	// NamespaceExists: the collection is already there, so update the
	// validator in place instead.
	res := db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: studentSchema()},
	})
	if res.Err() != nil {
		slog.Warn("could not install students schema validator",
			slog.String("error", res.Err().Error()))
	}
}

// parseID converts the hex id from the URL into an ObjectID.
// A string the driver cannot parse becomes storage.ErrInvalidID, which
// the handlers answer with 400 — never a crash or a 500.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrInvalidID
	}
	return oid, nil
}

// mapWriteError translates a driver error from a write into the
// storage taxonomy. Schema-validator rejections (code 121) become
// *storage.ValidationError; anything else is wrapped with the call
// site so the log shows where it came from.
func mapWriteError(op string, err error) error {
	msg := "student validation failed: document does not match the students schema"

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == documentValidationFailure {
				return &storage.ValidationError{Message: msg}
			}
		}
	}

	// FindOneAndUpdate surfaces validator rejections as a command
	// error rather than a write exception.
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == documentValidationFailure {
		return &storage.ValidationError{Message: msg}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// ListStudents returns every document in the collection.
// Pre-allocates a non-nil slice so an empty collection encodes to []
// rather than null in JSON.
// ─────────────────────────────────────────────────────────────────────────────
func (m *MongoDB) ListStudents(ctx context.Context) ([]types.Student, error) {
	cursor, err := m.students.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("ListStudents: find: %w", err)
	}
	defer cursor.Close(ctx)

	students := make([]types.Student, 0)
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("ListStudents: decode: %w", err)
	}

	return students, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudentByID fetches exactly one document matched by _id.
// mongo.ErrNoDocuments is the driver's sentinel for "nothing matched";
// it maps onto storage.ErrNotFound so handlers can answer 404.
// ─────────────────────────────────────────────────────────────────────────────
func (m *MongoDB) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	var student types.Student
	err = m.students.FindOne(ctx, bson.M{"_id": oid}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: %w", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent inserts a new document. The database assigns the _id;
// this layer stamps createdAt/updatedAt. A document the collection
// validator rejects comes back as *storage.ValidationError.
// ─────────────────────────────────────────────────────────────────────────────
func (m *MongoDB) CreateStudent(ctx context.Context, req types.CreateStudentRequest) (types.Student, error) {
	now := time.Now().UTC()
	student := types.Student{
		Name:      req.Name,
		Age:       req.Age,
		Course:    types.Course(req.Course),
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := m.students.InsertOne(ctx, student)
	if err != nil {
		return types.Student{}, mapWriteError("CreateStudent", err)
	}

	// InsertedID is the ObjectID the database generated for _id.
	student.ID = res.InsertedID.(primitive.ObjectID)

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStudentByID merges only the fields the client sent ($set) and
// returns the document AFTER the update, so the caller echoes exactly
// what is now stored. Field-level validation is the collection
// validator's job, not this function's.
// ─────────────────────────────────────────────────────────────────────────────
func (m *MongoDB) UpdateStudentByID(ctx context.Context, id string, upd types.UpdateStudentRequest) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Age != nil {
		set["age"] = *upd.Age
	}
	if upd.Course != nil {
		set["course"] = *upd.Course
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var student types.Student
	err = m.students.
		FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).
		Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, mapWriteError("UpdateStudentByID", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteStudentByID removes a document and returns its prior state,
// which the handler includes in the confirmation payload.
// ─────────────────────────────────────────────────────────────────────────────
func (m *MongoDB) DeleteStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	var student types.Student
	err = m.students.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudentByID: %w", err)
	}

	return student, nil
}

// Connected observes the connection state at call time with a ping
// bounded to half a second. The bound matters: this runs on every
// info-endpoint request and must never hang waiting for a server
// that is down.
func (m *MongoDB) Connected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return m.client.Ping(ctx, nil) == nil
}

// Close disconnects the client. Called once during graceful shutdown.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
