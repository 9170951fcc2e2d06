package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/cache"
	"github.com/noah-isme/aula-go-api/internal/models"
	"github.com/noah-isme/aula-go-api/internal/repository"
)

var testNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type testEnv struct {
	db           *gorm.DB
	store        *cache.MemoryStore
	students     repository.StudentRepository
	courses      repository.CourseRepository
	diary        repository.DiaryRepository
	observations repository.ObservationRepository
	agenda       repository.AgendaRepository
	validate     *validator.Validate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Student{},
		&models.DiaryEntry{},
		&models.Observation{},
		&models.AgendaEvent{},
	))

	return &testEnv{
		db:           db,
		store:        cache.NewMemoryStore(),
		students:     repository.NewStudentRepository(db),
		courses:      repository.NewCourseRepository(db),
		diary:        repository.NewDiaryRepository(db),
		observations: repository.NewObservationRepository(db),
		agenda:       repository.NewAgendaRepository(db),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (e *testEnv) course(t *testing.T, subject string, grade, group int) models.Course {
	t.Helper()
	course := models.Course{Subject: subject, Grade: grade, GroupNumber: group}
	require.NoError(t, e.db.Create(&course).Error)
	return course
}

func (e *testEnv) student(t *testing.T, first, last string, courseID *string, grades string) models.Student {
	t.Helper()
	student := models.Student{
		FirstName:    first,
		LastName:     last,
		Gender:       models.GenderFemale,
		BirthDate:    time.Date(2015, time.March, 11, 0, 0, 0, 0, time.UTC),
		DocumentType: models.DocumentTypeDefault,
		Status:       models.StudentStatusActive,
		CourseID:     courseID,
	}
	if grades != "" {
		student.Grades = datatypes.JSON(grades)
	}
	require.NoError(t, e.db.Create(&student).Error)
	return student
}

func (e *testEnv) courseCount(t *testing.T, id string) int {
	t.Helper()
	course, err := e.courses.GetByID(t.Context(), id)
	require.NoError(t, err)
	return course.StudentsCount
}

// gradesJSON renders a grades document with one entry per value in the given period.
func gradesJSON(period string, values ...float64) string {
	items := make([]string, 0, len(values))
	for _, value := range values {
		items = append(items, fmt.Sprintf(`{"value":%g,"createdAt":"2026-02-01T10:00:00Z"}`, value))
	}
	doc := map[string]string{"p1": "[]", "p2": "[]", "p3": "[]", "p4": "[]"}
	doc[period] = "[" + strings.Join(items, ",") + "]"
	return fmt.Sprintf(`{"p1":%s,"p2":%s,"p3":%s,"p4":%s}`, doc["p1"], doc["p2"], doc["p3"], doc["p4"])
}

func strPtr(v string) *string { return &v }

type stubPhotoStorage struct {
	names []string
	err   error
}

func (s *stubPhotoStorage) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	s.names = append(s.names, name)
	return "https://cdn.example.com/" + name, nil
}

func photoHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename="%s"`, filename))
	header.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["photo"]
	require.Len(t, files, 1)
	return files[0]
}
