package repository

import (
	"context"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/aula-go-api/internal/models"
)

// StudentRepository persists student rows.
type StudentRepository interface {
	List(ctx context.Context, search string) ([]models.Student, error)
	GetByID(ctx context.Context, id string) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateGrades(ctx context.Context, id string, grades datatypes.JSON) error
	UpdatePhoto(ctx context.Context, id string, url string) error
	Delete(ctx context.Context, id string) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository backed by gorm.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// List returns the roster ordered by last name then first name, with each
// student's course preloaded. An empty search matches everyone.
func (r *studentRepository) List(ctx context.Context, search string) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).Preload("Course")

	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(COALESCE(document_number, '')) LIKE ?",
			like, like, like,
		)
	}

	var students []models.Student
	if err := query.Order("last_name ASC").Order("first_name ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("Course").Where("id = ?", id).First(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(student).Error
}

// Update overwrites every column of the row.
func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", student.ID).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(student)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepository) UpdateGrades(ctx context.Context, id string, grades datatypes.JSON) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Update("grades", grades)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepository) UpdatePhoto(ctx context.Context, id string, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Update("photo_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the student together with their observations.
func (r *studentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.Observation{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Student{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
