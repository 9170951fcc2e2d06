package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Student{},
		&models.DiaryEntry{},
		&models.Observation{},
		&models.AgendaEvent{},
	))
	return db
}

func strPtr(v string) *string { return &v }

func seedCourse(t *testing.T, db *gorm.DB, subject string, grade, group int) models.Course {
	t.Helper()
	course := models.Course{Subject: subject, Grade: grade, GroupNumber: group}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedStudent(t *testing.T, db *gorm.DB, first, last string, courseID *string) models.Student {
	t.Helper()
	student := models.Student{
		FirstName:    first,
		LastName:     last,
		Gender:       models.GenderOther,
		BirthDate:    time.Date(2014, time.May, 3, 0, 0, 0, 0, time.UTC),
		DocumentType: models.DocumentTypeDefault,
		Status:       models.StudentStatusActive,
		CourseID:     courseID,
		Grades:       datatypes.JSON(`{"p1":[],"p2":[],"p3":[],"p4":[]}`),
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func TestStudentRepositoryListOrdersByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	course := seedCourse(t, db, "Mathematics", 5, 2)

	seedStudent(t, db, "Luis", "Zapata", nil)
	seedStudent(t, db, "Ana", "Gómez", &course.ID)
	seedStudent(t, db, "Andrés", "Gómez", &course.ID)

	students, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, students, 3)
	require.Equal(t, "Ana", students[0].FirstName)
	require.Equal(t, "Andrés", students[1].FirstName)
	require.Equal(t, "Zapata", students[2].LastName)

	require.NotNil(t, students[0].Course)
	require.Equal(t, "Mathematics 5-2", students[0].Course.Name())
	require.Nil(t, students[2].Course)
}

func TestStudentRepositoryListSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	seedStudent(t, db, "Luis", "Zapata", nil)
	seedStudent(t, db, "Ana", "Gómez", nil)

	students, err := repo.List(context.Background(), "zap")
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "Luis", students[0].FirstName)
}

func TestStudentRepositoryUpdateOverwritesRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	student := seedStudent(t, db, "Ana", "Gómez", nil)
	require.NoError(t, db.Model(&models.Student{}).Where("id = ?", student.ID).Update("email", "ana@example.com").Error)

	stored, err := repo.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", *stored.Email)
	stored.Notes = strPtr("needs glasses")
	stored.Email = nil
	require.NoError(t, repo.Update(context.Background(), &stored))

	reloaded, err := repo.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, "needs glasses", *reloaded.Notes)
	require.Nil(t, reloaded.Email)

	missing := models.Student{ID: "missing", FirstName: "X", LastName: "Y"}
	require.ErrorIs(t, repo.Update(context.Background(), &missing), gorm.ErrRecordNotFound)
}

func TestStudentRepositoryUpdateGradesAndPhoto(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	student := seedStudent(t, db, "Ana", "Gómez", nil)

	grades := datatypes.JSON(`{"p1":[{"value":4.5,"createdAt":"2026-02-01T10:00:00Z"}],"p2":[],"p3":[],"p4":[]}`)
	require.NoError(t, repo.UpdateGrades(context.Background(), student.ID, grades))
	require.NoError(t, repo.UpdatePhoto(context.Background(), student.ID, "https://cdn.example.com/ana.png"))

	reloaded, err := repo.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.JSONEq(t, string(grades), string(reloaded.Grades))
	require.Equal(t, "https://cdn.example.com/ana.png", *reloaded.PhotoURL)

	require.ErrorIs(t, repo.UpdateGrades(context.Background(), "missing", grades), gorm.ErrRecordNotFound)
}

func TestStudentRepositoryDeleteRemovesObservations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	student := seedStudent(t, db, "Ana", "Gómez", nil)
	require.NoError(t, db.Create(&models.Observation{
		StudentID:   student.ID,
		Type:        models.ObservationTypeAcademic,
		Severity:    models.SeverityLow,
		Description: "late homework",
		Date:        time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
	}).Error)

	require.NoError(t, repo.Delete(context.Background(), student.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.Observation{}).Count(&remaining).Error)
	require.Zero(t, remaining)

	_, err := repo.GetByID(context.Background(), student.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Delete(context.Background(), student.ID), gorm.ErrRecordNotFound)
}

func TestCourseRepositoryRecomputeStudentCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	course := seedCourse(t, db, "Science", 4, 1)
	require.Equal(t, models.DefaultCourseColor, course.Color)

	seedStudent(t, db, "Ana", "Gómez", &course.ID)
	seedStudent(t, db, "Luis", "Zapata", &course.ID)
	seedStudent(t, db, "Sara", "Rojas", nil)

	count, err := repo.RecomputeStudentCount(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	stored, err := repo.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.StudentsCount)

	_, err = repo.RecomputeStudentCount(context.Background(), "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCourseRepositoryUpdateLeavesCountAlone(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	course := seedCourse(t, db, "Science", 4, 1)
	seedStudent(t, db, "Ana", "Gómez", &course.ID)
	_, err := repo.RecomputeStudentCount(context.Background(), course.ID)
	require.NoError(t, err)

	course.Subject = "Biology"
	course.StudentsCount = 99
	require.NoError(t, repo.Update(context.Background(), &course))

	stored, err := repo.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, "Biology", stored.Subject)
	require.Equal(t, 1, stored.StudentsCount)
}

func TestCourseRepositoryDeleteDetachesStudents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	course := seedCourse(t, db, "Art", 3, 1)
	student := seedStudent(t, db, "Ana", "Gómez", &course.ID)
	require.NoError(t, db.Create(&models.DiaryEntry{CourseID: course.ID, Topic: "Colors", Date: time.Now().UTC()}).Error)
	require.NoError(t, db.Create(&models.AgendaEvent{CourseID: &course.ID, Title: "Exhibit", Type: models.EventTypeMeeting, Date: time.Now().UTC()}).Error)

	require.NoError(t, repo.Delete(context.Background(), course.ID))

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, "id = ?", student.ID).Error)
	require.Nil(t, reloaded.CourseID)

	var diaryCount int64
	require.NoError(t, db.Model(&models.DiaryEntry{}).Count(&diaryCount).Error)
	require.Zero(t, diaryCount)

	var event models.AgendaEvent
	require.NoError(t, db.First(&event).Error)
	require.Nil(t, event.CourseID)

	require.ErrorIs(t, repo.Delete(context.Background(), course.ID), gorm.ErrRecordNotFound)
}

func TestCourseRepositoryListOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	seedCourse(t, db, "Science", 5, 1)
	seedCourse(t, db, "Mathematics", 4, 2)
	seedCourse(t, db, "Art", 4, 1)

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 3)
	require.Equal(t, "Art 4-1", courses[0].Name())
	require.Equal(t, "Mathematics 4-2", courses[1].Name())
	require.Equal(t, "Science 5-1", courses[2].Name())
}

func TestDiaryRepositoryListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDiaryRepository(db)
	math := seedCourse(t, db, "Mathematics", 5, 2)
	art := seedCourse(t, db, "Art", 3, 1)

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(context.Background(), &models.DiaryEntry{CourseID: math.ID, Topic: "Fractions", Date: day}))
	require.NoError(t, repo.Create(context.Background(), &models.DiaryEntry{CourseID: math.ID, Topic: "Decimals", Date: day.AddDate(0, 0, 1)}))
	require.NoError(t, repo.Create(context.Background(), &models.DiaryEntry{CourseID: art.ID, Topic: "Colors", Date: day}))

	entries, err := repo.List(context.Background(), DiaryFilter{CourseID: math.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Decimals", entries[0].Topic)
	require.NotNil(t, entries[0].Course)

	limited, err := repo.List(context.Background(), DiaryFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	entry := entries[1]
	entry.Topic = "Fractions II"
	require.NoError(t, repo.Update(context.Background(), &entry))
	stored, err := repo.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, "Fractions II", stored.Topic)

	require.NoError(t, repo.Delete(context.Background(), entry.ID))
	require.ErrorIs(t, repo.Delete(context.Background(), entry.ID), gorm.ErrRecordNotFound)
}

func TestObservationRepositoryFiltersAndCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewObservationRepository(db)
	course := seedCourse(t, db, "Mathematics", 5, 2)
	ana := seedStudent(t, db, "Ana", "Gómez", &course.ID)
	luis := seedStudent(t, db, "Luis", "Zapata", nil)

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	for _, observation := range []models.Observation{
		{StudentID: ana.ID, Type: models.ObservationTypeAcademic, Severity: models.SeverityLow, Description: "a", Date: day},
		{StudentID: ana.ID, Type: models.ObservationTypeBehavioral, Severity: models.SeverityHigh, Description: "b", Date: day.AddDate(0, 0, 2)},
		{StudentID: luis.ID, Type: models.ObservationTypeAcademic, Severity: models.SeverityMedium, Description: "c", Date: day.AddDate(0, 0, 1)},
	} {
		observation := observation
		require.NoError(t, repo.Create(context.Background(), &observation))
	}

	all, err := repo.List(context.Background(), ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "b", all[0].Description)
	require.NotNil(t, all[0].Student)

	scoped, err := repo.List(context.Background(), ObservationFilter{CourseID: course.ID, Type: models.ObservationTypeAcademic})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, "a", scoped[0].Description)

	counts, err := repo.CountByType(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 2, counts[models.ObservationTypeAcademic])
	require.Equal(t, 1, counts[models.ObservationTypeBehavioral])

	courseCounts, err := repo.CountByType(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, 1, courseCounts[models.ObservationTypeAcademic])
	require.Equal(t, 1, courseCounts[models.ObservationTypeBehavioral])
}

func TestAgendaRepositoryWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgendaRepository(db)

	day := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"Planning", "Exam", "Meeting"} {
		event := models.AgendaEvent{Title: title, Type: models.EventTypePlanning, Date: day.AddDate(0, 0, i*7)}
		require.NoError(t, repo.Create(context.Background(), &event))
	}

	events, err := repo.List(context.Background(), AgendaFilter{From: day.AddDate(0, 0, 1), To: day.AddDate(0, 0, 14)})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "Exam", events[0].Title)
	require.Equal(t, "Meeting", events[1].Title)

	event := events[0]
	event.Type = models.EventTypeExam
	require.NoError(t, repo.Update(context.Background(), &event))
	stored, err := repo.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, models.EventTypeExam, stored.Type)

	require.NoError(t, repo.Delete(context.Background(), event.ID))
	_, err = repo.GetByID(context.Background(), event.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
