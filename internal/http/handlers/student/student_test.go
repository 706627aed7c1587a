package student_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classroomlabs/students-service/internal/http/handlers/student"
	"github.com/classroomlabs/students-service/internal/storage"
	"github.com/classroomlabs/students-service/internal/types"
)

// fakeStorage is an in-memory storage.Storage. It enforces the same
// write-time rules as the MongoDB collection validator (name length,
// age range, course whitelist), so the handlers' delegated-validation
// paths behave exactly as they would against the real backend.
type fakeStorage struct {
	students  map[string]types.Student
	order     []string
	connected bool
	listErr   error
}

var errServerDown = errors.New("server selection timeout")

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		students:  make(map[string]types.Student),
		connected: true,
	}
}

// validate mirrors the collection's $jsonSchema rules.
func (f *fakeStorage) validate(s types.Student) error {
	if len(s.Name) < 2 || s.Age < 16 || s.Age > 100 || !s.Course.Valid() {
		return &storage.ValidationError{
			Message: "student validation failed: document does not match the students schema",
		}
	}
	return nil
}

func (f *fakeStorage) ListStudents(ctx context.Context) ([]types.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]types.Student, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.students[id])
	}
	return out, nil
}

func (f *fakeStorage) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return types.Student{}, storage.ErrInvalidID
	}
	s, ok := f.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStorage) CreateStudent(ctx context.Context, req types.CreateStudentRequest) (types.Student, error) {
	now := time.Now().UTC()
	s := types.Student{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Age:       req.Age,
		Course:    types.Course(req.Course),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.validate(s); err != nil {
		return types.Student{}, err
	}
	f.students[s.ID.Hex()] = s
	f.order = append(f.order, s.ID.Hex())
	return s, nil
}

func (f *fakeStorage) UpdateStudentByID(ctx context.Context, id string, upd types.UpdateStudentRequest) (types.Student, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return types.Student{}, storage.ErrInvalidID
	}
	s, ok := f.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.Age != nil {
		s.Age = *upd.Age
	}
	if upd.Course != nil {
		s.Course = types.Course(*upd.Course)
	}
	if err := f.validate(s); err != nil {
		return types.Student{}, err
	}
	s.UpdatedAt = time.Now().UTC()
	f.students[id] = s
	return s, nil
}

func (f *fakeStorage) DeleteStudentByID(ctx context.Context, id string) (types.Student, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return types.Student{}, storage.ErrInvalidID
	}
	s, ok := f.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	delete(f.students, id)
	for i, sid := range f.order {
		if sid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return s, nil
}

func (f *fakeStorage) Connected(ctx context.Context) bool { return f.connected }

// newRouter registers the same route table as main.
func newRouter(db storage.Storage) *http.ServeMux {
	router := http.NewServeMux()
	router.HandleFunc("GET /{$}", student.Info(db))
	router.HandleFunc("POST /students", student.New(db))
	router.HandleFunc("GET /students", student.GetList(db))
	router.HandleFunc("GET /students/{id}", student.GetByID(db))
	router.HandleFunc("PUT /students/{id}", student.Update(db))
	router.HandleFunc("DELETE /students/{id}", student.Delete(db))
	return router
}

func doRequest(t *testing.T, router *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, f *fakeStorage, name string, age int, course types.Course) types.Student {
	t.Helper()
	s, err := f.CreateStudent(context.Background(), types.CreateStudentRequest{
		Name:   name,
		Age:    age,
		Course: string(course),
	})
	require.NoError(t, err)
	return s
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestCreateStudent(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)

	rec := doRequest(t, router, http.MethodPost, "/students",
		`{"name":"Dana Kim","age":21,"course":"Civil Engineering"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Dana Kim", created.Name)
	assert.Equal(t, 21, created.Age)
	assert.Equal(t, types.CivilEngineering, created.Course)
	assert.False(t, created.ID.IsZero())
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	assert.Len(t, f.students, 1)
}

func TestCreateStudent_NameTooShort(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)

	rec := doRequest(t, router, http.MethodPost, "/students",
		`{"name":"D","age":21,"course":"Civil Engineering"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "name")
	assert.Empty(t, f.students)
}

func TestCreateStudent_AgeOutOfRange(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)

	for _, body := range []string{
		`{"name":"Dana Kim","age":12,"course":"Civil Engineering"}`,
		`{"name":"Dana Kim","age":150,"course":"Civil Engineering"}`,
		`{"name":"Dana Kim","course":"Civil Engineering"}`,
	} {
		rec := doRequest(t, router, http.MethodPost, "/students", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, errorBody(t, rec), "age", body)
	}
	assert.Empty(t, f.students)
}

func TestCreateStudent_MissingCourse(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)

	rec := doRequest(t, router, http.MethodPost, "/students",
		`{"name":"Dana Kim","age":21}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "course")
	assert.Empty(t, f.students)
}

// An unknown course passes the handler's presence check and is
// rejected by the storage schema, so the message is the database's
// generic validation message rather than "course is required".
func TestCreateStudent_UnknownCourse(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)

	rec := doRequest(t, router, http.MethodPost, "/students",
		`{"name":"Dana Kim","age":21,"course":"Astrology"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "validation failed")
	assert.NotContains(t, errorBody(t, rec), "course is required")
	assert.Empty(t, f.students)
}

func TestCreateStudent_EmptyBody(t *testing.T) {
	router := newRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPost, "/students", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "empty")
}

func TestGetByID_MalformedID(t *testing.T) {
	router := newRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodGet, "/students/not-an-id", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "invalid id")
}

func TestGetByID_NotFound(t *testing.T) {
	router := newRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodGet,
		"/students/"+primitive.NewObjectID().Hex(), "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByID_Idempotent(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)
	s := seed(t, f, "Dana Kim", 21, types.CivilEngineering)

	first := doRequest(t, router, http.MethodGet, "/students/"+s.ID.Hex(), "")
	second := doRequest(t, router, http.MethodGet, "/students/"+s.ID.Hex(), "")

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestUpdate_PartialMerge(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)
	s := seed(t, f, "Dana Kim", 21, types.CivilEngineering)

	rec := doRequest(t, router, http.MethodPut, "/students/"+s.ID.Hex(),
		`{"age":25}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 25, updated.Age)
	assert.Equal(t, "Dana Kim", updated.Name)
	assert.Equal(t, types.CivilEngineering, updated.Course)
	assert.Equal(t, s.ID, updated.ID)
}

func TestUpdate_NotFound(t *testing.T) {
	router := newRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPut,
		"/students/"+primitive.NewObjectID().Hex(), `{"age":25}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdate_MalformedID(t *testing.T) {
	router := newRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPut, "/students/nope", `{"age":25}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "invalid id")
}

// Update has no handler pre-check: range and whitelist failures come
// back from the storage layer as its validation message.
func TestUpdate_ValidationDelegatedToStorage(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)
	s := seed(t, f, "Dana Kim", 21, types.CivilEngineering)

	for _, body := range []string{
		`{"age":150}`,
		`{"course":"Astrology"}`,
	} {
		rec := doRequest(t, router, http.MethodPut, "/students/"+s.ID.Hex(), body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, errorBody(t, rec), "validation failed", body)
	}

	// The stored document is untouched after the rejections.
	stored, err := f.GetStudentByID(context.Background(), s.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 21, stored.Age)
	assert.Equal(t, types.CivilEngineering, stored.Course)
}

func TestDelete_ThenGet(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)
	s := seed(t, f, "Dana Kim", 21, types.CivilEngineering)

	rec := doRequest(t, router, http.MethodDelete, "/students/"+s.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var deleted student.DeleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.NotEmpty(t, deleted.Message)
	assert.Equal(t, "Dana Kim", deleted.Student.Name)

	after := doRequest(t, router, http.MethodGet, "/students/"+s.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, after.Code)
}

func TestDelete_NotFound(t *testing.T) {
	router := newRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodDelete,
		"/students/"+primitive.NewObjectID().Hex(), "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList_ReturnsStoredStudents(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)
	seed(t, f, "Dana Kim", 21, types.CivilEngineering)
	seed(t, f, "Evan Wright", 30, types.MedicalScience)

	rec := doRequest(t, router, http.MethodGet, "/students", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var students []types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	require.Len(t, students, 2)
	assert.Equal(t, "Dana Kim", students[0].Name)
	assert.Equal(t, "Evan Wright", students[1].Name)
}

func TestList_DegradesWhenStorageDown(t *testing.T) {
	f := newFakeStorage()
	f.connected = false
	f.listErr = errServerDown
	router := newRouter(f)

	rec := doRequest(t, router, http.MethodGet, "/students", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var students []types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	require.Len(t, students, 3)
	assert.Equal(t, "Alice Johnson", students[0].Name)
	assert.Equal(t, "Bob Smith", students[1].Name)
	assert.Equal(t, "Charlie Lee", students[2].Name)
}

func TestList_DegradesWhenEmpty(t *testing.T) {
	router := newRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodGet, "/students", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var students []types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	assert.Len(t, students, 3)
}

func TestInfo_Connected(t *testing.T) {
	f := newFakeStorage()
	router := newRouter(f)
	seed(t, f, "Dana Kim", 21, types.CivilEngineering)

	rec := doRequest(t, router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info student.InfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "connected", info.Database)
	assert.Equal(t, 1, info.TotalStudents)
	require.Len(t, info.Students, 1)
	assert.NotEmpty(t, info.Message)
	assert.NotEmpty(t, info.Endpoints)
	assert.NotEmpty(t, info.ExampleStudent)
}

func TestInfo_DegradesWhenStorageDown(t *testing.T) {
	f := newFakeStorage()
	f.connected = false
	f.listErr = errServerDown
	router := newRouter(f)

	rec := doRequest(t, router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info student.InfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "disconnected", info.Database)
	assert.Equal(t, 3, info.TotalStudents)
	require.Len(t, info.Students, 3)
	assert.Equal(t, "Alice Johnson", info.Students[0].Name)
}

// Even when the ping succeeds, a failed listing reports disconnected.
func TestInfo_ListErrorReportsDisconnected(t *testing.T) {
	f := newFakeStorage()
	f.connected = true
	f.listErr = errServerDown
	router := newRouter(f)

	rec := doRequest(t, router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info student.InfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "disconnected", info.Database)
	assert.Len(t, info.Students, 3)
}
