package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/grading"
)

func (e *testEnv) gradeService() *gradeService {
	svc := NewGradeService(e.students, e.store, time.Minute, e.validate, testLogger()).(*gradeService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestGradeServiceAddEntry(t *testing.T) {
	env := newTestEnv(t)
	row := env.student(t, "Ana", "Gómez", nil, gradesJSON("p1", 3.0))
	svc := env.gradeService()

	response, err := svc.AddEntry(t.Context(), row.ID, "P1", dto.GradeEntryRequest{Value: dto.ScoreText(" 4.5 "), Title: "Quiz <i>2</i>"})
	require.NoError(t, err)
	require.Len(t, response.Grades.P1, 2)

	added := response.Grades.P1[1]
	require.Equal(t, 4.5, added.Value)
	require.NotNil(t, added.Title)
	require.Equal(t, "Quiz 2", *added.Title)
	require.True(t, added.RecordedAt.Equal(testNow))

	require.NotNil(t, response.OverallAverage)
	require.Equal(t, 3.75, *response.OverallAverage)
	require.Equal(t, grading.BandGood, *response.Band)

	persisted, err := svc.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Len(t, persisted.Grades.P1, 2)
	require.Empty(t, persisted.Grades.P2)
}

func TestGradeServiceAddEntryNumericScoreAndMarkupTitle(t *testing.T) {
	env := newTestEnv(t)
	row := env.student(t, "Luis", "Pardo", nil, "")
	svc := env.gradeService()

	response, err := svc.AddEntry(t.Context(), row.ID, "p2", dto.GradeEntryRequest{Value: dto.ScoreNumber(5), Title: "<b></b>"})
	require.NoError(t, err)
	require.Len(t, response.Grades.P2, 1)
	require.Equal(t, 5.0, response.Grades.P2[0].Value)
	require.Nil(t, response.Grades.P2[0].Title)

	_, err = svc.AddEntry(t.Context(), row.ID, "p2", dto.GradeEntryRequest{Value: dto.ScoreNumber(9)})
	validationErr, ok := grading.IsValidationError(err)
	require.True(t, ok)
	require.Equal(t, grading.OutOfRange, validationErr.Kind)
}

func TestGradeServiceAddEntryRejectsInvalidScores(t *testing.T) {
	env := newTestEnv(t)
	row := env.student(t, "Ana", "Gómez", nil, "")
	svc := env.gradeService()

	cases := map[string]grading.ValidationErrorKind{
		"abc": grading.NotANumber,
		"":    grading.NotANumber,
		"7":   grading.OutOfRange,
		"0.9": grading.OutOfRange,
	}
	for input, kind := range cases {
		_, err := svc.AddEntry(t.Context(), row.ID, "p2", dto.GradeEntryRequest{Value: dto.ScoreText(input)})
		validationErr, ok := grading.IsValidationError(err)
		require.True(t, ok, input)
		require.Equal(t, kind, validationErr.Kind, input)
	}

	persisted, err := svc.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Empty(t, persisted.Grades.P2)
}

func TestGradeServiceRejectsUnknownPeriod(t *testing.T) {
	env := newTestEnv(t)
	row := env.student(t, "Ana", "Gómez", nil, "")
	svc := env.gradeService()

	_, err := svc.AddEntry(t.Context(), row.ID, "p5", dto.GradeEntryRequest{Value: dto.ScoreText("4")})
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.RemoveEntry(t.Context(), row.ID, "final", 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGradeServiceUnknownStudent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.gradeService()

	_, err := svc.AddEntry(t.Context(), "missing", "p1", dto.GradeEntryRequest{Value: dto.ScoreText("4")})
	require.ErrorIs(t, err, ErrStudentNotFound)

	_, err = svc.Get(t.Context(), "missing")
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestGradeServiceReplacePeriodIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	row := env.student(t, "Ana", "Gómez", nil, gradesJSON("p3", 2.0, 2.5))
	svc := env.gradeService()

	_, err := svc.ReplacePeriod(t.Context(), row.ID, "p3", dto.GradePeriodReplaceRequest{
		Entries: []dto.GradeEntryRequest{{Value: dto.ScoreText("4")}, {Value: dto.ScoreText("five")}, {Value: dto.ScoreText("9")}},
	})
	var entryErr *EntryValidationError
	require.True(t, errors.As(err, &entryErr))
	require.Equal(t, 1, entryErr.Index)
	require.Equal(t, grading.NotANumber, entryErr.Cause.Kind)
	require.Equal(t, "five", entryErr.Cause.Input)

	unchanged, err := svc.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Len(t, unchanged.Grades.P3, 2)

	response, err := svc.ReplacePeriod(t.Context(), row.ID, "p3", dto.GradePeriodReplaceRequest{
		Entries: []dto.GradeEntryRequest{{Value: dto.ScoreText("4"), Title: "Essay"}, {Value: dto.ScoreText("5")}},
	})
	require.NoError(t, err)
	require.Len(t, response.Grades.P3, 2)
	require.Equal(t, 4.5, *response.Periods[2].Average)

	cleared, err := svc.ReplacePeriod(t.Context(), row.ID, "p3", dto.GradePeriodReplaceRequest{})
	require.NoError(t, err)
	require.Empty(t, cleared.Grades.P3)
	require.Nil(t, cleared.OverallAverage)
}

func TestGradeServiceRemoveEntry(t *testing.T) {
	env := newTestEnv(t)
	row := env.student(t, "Ana", "Gómez", nil, gradesJSON("p1", 2.0, 3.0, 4.0))
	svc := env.gradeService()

	_, err := svc.RemoveEntry(t.Context(), row.ID, "p1", 3)
	require.ErrorIs(t, err, ErrEntryIndexOutOfRange)
	_, err = svc.RemoveEntry(t.Context(), row.ID, "p1", -1)
	require.ErrorIs(t, err, ErrEntryIndexOutOfRange)

	response, err := svc.RemoveEntry(t.Context(), row.ID, "p1", 1)
	require.NoError(t, err)
	require.Len(t, response.Grades.P1, 2)
	require.Equal(t, 2.0, response.Grades.P1[0].Value)
	require.Equal(t, 4.0, response.Grades.P1[1].Value)
}

func TestGradeServiceOverwritesMalformedDocument(t *testing.T) {
	env := newTestEnv(t)
	row := env.student(t, "Ana", "Gómez", nil, `"not an object"`)
	svc := env.gradeService()

	recovered, err := svc.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Equal(t, grading.EmptyGrades(), recovered.Grades)

	response, err := svc.AddEntry(t.Context(), row.ID, "p4", dto.GradeEntryRequest{Value: dto.ScoreText("3.2")})
	require.NoError(t, err)
	require.Len(t, response.Grades.P4, 1)
	require.Equal(t, 3.2, *response.OverallAverage)
}

func TestGradeServiceInvalidatesStudentCache(t *testing.T) {
	env := newTestEnv(t)
	row := env.student(t, "Ana", "Gómez", nil, "")
	students := env.studentService(nil)
	grades := env.gradeService()

	before, err := students.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Empty(t, before.Grades.P1)

	_, err = grades.AddEntry(t.Context(), row.ID, "p1", dto.GradeEntryRequest{Value: dto.ScoreText("5")})
	require.NoError(t, err)

	after, err := students.Get(t.Context(), row.ID)
	require.NoError(t, err)
	require.Len(t, after.Grades.P1, 1)

	roster, err := students.List(t.Context(), dto.StudentListRequest{})
	require.NoError(t, err)
	require.Len(t, roster[0].Grades.P1, 1)
}
