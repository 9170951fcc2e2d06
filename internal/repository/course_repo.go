package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/models"
)

// CourseRepository persists courses and maintains their student counts.
type CourseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id string) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	RecomputeStudentCount(ctx context.Context, id string) (int, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository backed by gorm.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Order("grade ASC").
		Order("group_number ASC").
		Order("subject ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

// Create inserts the course with a zero student count.
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	course.StudentsCount = 0
	return r.db.WithContext(ctx).Create(course).Error
}

// Update writes the editable columns. The student count is left alone.
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", course.ID).
		Select("subject", "grade", "group_number", "schedule", "color").
		Updates(course)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the course, detaching its students and agenda events and
// dropping its diary entries.
func (r *courseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Student{}).Where("course_id = ?", id).Update("course_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AgendaEvent{}).Where("course_id = ?", id).Update("course_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.DiaryEntry{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Course{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// RecomputeStudentCount counts the students assigned to the course and
// stores the result. It is the only writer of students_count.
func (r *courseRepository) RecomputeStudentCount(ctx context.Context, id string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Student{}).Where("course_id = ?", id).Count(&count).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Course{}).Where("id = ?", id).Update("students_count", count)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
