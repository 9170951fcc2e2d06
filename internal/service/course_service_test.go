package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aula-go-api/internal/cache"
	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/models"
)

func (e *testEnv) courseService() CourseService {
	return NewCourseService(e.courses, e.students, e.store, time.Minute, e.validate, testLogger())
}

func TestCourseServiceCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	svc := env.courseService()

	created, err := svc.Create(t.Context(), dto.CourseCreateRequest{Subject: "Mathematics", Grade: 5, GroupNumber: 2})
	require.NoError(t, err)
	require.Equal(t, "Mathematics 5-2", created.Name)
	require.Equal(t, models.DefaultCourseColor, created.Color)
	require.Zero(t, created.Students)

	_, err = svc.Create(t.Context(), dto.CourseCreateRequest{Subject: "Art", Grade: 3, GroupNumber: 1, Color: "bg-info"})
	require.NoError(t, err)

	courses, err := svc.List(t.Context())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "Art 3-1", courses[0].Name)

	var cached []models.Course
	found, err := env.store.Get(t.Context(), cache.CourseListKey, &cached)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, cached, 2)
}

func TestCourseServiceCreateValidates(t *testing.T) {
	env := newTestEnv(t)
	svc := env.courseService()

	_, err := svc.Create(t.Context(), dto.CourseCreateRequest{Subject: "", Grade: 5, GroupNumber: 2})
	require.Error(t, err)
}

func TestCourseServiceRenameRefreshesStudentLabels(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, "Mathematics", 5, 2)
	row := env.student(t, "Ana", "Gómez", strPtr(course.ID), "")
	students := env.studentService(nil)
	svc := env.courseService()

	before, err := students.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Equal(t, "Mathematics 5-2", *before.CourseName)

	updated, err := svc.Update(t.Context(), course.ID, dto.CourseUpdateRequest{Subject: strPtr("Geometry")})
	require.NoError(t, err)
	require.Equal(t, "Geometry 5-2", updated.Name)

	after, err := students.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Equal(t, "Geometry 5-2", *after.CourseName)

	_, err = svc.Update(t.Context(), "missing", dto.CourseUpdateRequest{Subject: strPtr("Geometry")})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseServiceUpdateIgnoresStudentCount(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, "Mathematics", 5, 2)
	env.student(t, "Ana", "Gómez", strPtr(course.ID), "")
	svc := env.courseService()

	recounted, err := svc.Recount(t.Context(), course.ID)
	require.NoError(t, err)
	require.Equal(t, 1, recounted.Students)

	updated, err := svc.Update(t.Context(), course.ID, dto.CourseUpdateRequest{Schedule: strPtr("Mon 8:00")})
	require.NoError(t, err)
	require.Equal(t, "Mon 8:00", updated.Schedule)
	require.Equal(t, 1, updated.Students)

	_, err = svc.Recount(t.Context(), "missing")
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseServiceDeleteDetachesStudents(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, "Mathematics", 5, 2)
	row := env.student(t, "Ana", "Gómez", strPtr(course.ID), "")
	students := env.studentService(nil)
	svc := env.courseService()

	_, err := students.Get(t.Context(), row.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(t.Context(), course.ID))

	record, err := students.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Nil(t, record.CourseID)
	require.Nil(t, record.CourseName)

	_, err = svc.Get(t.Context(), course.ID)
	require.ErrorIs(t, err, ErrCourseNotFound)
	require.ErrorIs(t, svc.Delete(t.Context(), course.ID), ErrCourseNotFound)
}

func TestCourseServiceGradebook(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, "Mathematics", 5, 2)
	other := env.course(t, "Science", 5, 2)
	env.student(t, "Ana", "Gómez", strPtr(course.ID), gradesJSON("p2", 4.0, 5.0))
	env.student(t, "Luis", "Pérez", strPtr(course.ID), gradesJSON("p1", 3.0))
	env.student(t, "Sara", "Díaz", strPtr(other.ID), gradesJSON("p2", 1.0))
	svc := env.courseService()

	book, err := svc.Gradebook(t.Context(), course.ID, "p2")
	require.NoError(t, err)
	require.Equal(t, "p2", book.Period)
	require.Equal(t, "Mathematics 5-2", book.Course.Name)
	require.Len(t, book.Rows, 2)

	require.Equal(t, "Ana Gómez", book.Rows[0].FullName)
	require.Equal(t, 2, book.Rows[0].Entries)
	require.Equal(t, 4.5, *book.Rows[0].PeriodAverage)
	require.Equal(t, 4.5, *book.Rows[0].OverallAverage)

	require.Equal(t, "Luis Pérez", book.Rows[1].FullName)
	require.Zero(t, book.Rows[1].Entries)
	require.Nil(t, book.Rows[1].PeriodAverage)
	require.Equal(t, 3.0, *book.Rows[1].OverallAverage)

	defaulted, err := svc.Gradebook(t.Context(), course.ID, "")
	require.NoError(t, err)
	require.Equal(t, "p1", defaulted.Period)

	_, err = svc.Gradebook(t.Context(), course.ID, "p9")
	require.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = svc.Gradebook(t.Context(), "missing", "p1")
	require.ErrorIs(t, err, ErrCourseNotFound)
}
