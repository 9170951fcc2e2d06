package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/aula-go-api/internal/models"
)

// ObservationFilter narrows observation listings.
type ObservationFilter struct {
	StudentID string
	CourseID  string
	Type      string
	Limit     int
}

// ObservationRepository persists student observations.
type ObservationRepository interface {
	List(ctx context.Context, filter ObservationFilter) ([]models.Observation, error)
	GetByID(ctx context.Context, id string) (models.Observation, error)
	Create(ctx context.Context, observation *models.Observation) error
	Update(ctx context.Context, observation *models.Observation) error
	Delete(ctx context.Context, id string) error
	CountByType(ctx context.Context, courseID string) (map[string]int, error)
}

type observationRepository struct {
	db *gorm.DB
}

// NewObservationRepository constructs an observation repository backed by gorm.
func NewObservationRepository(db *gorm.DB) ObservationRepository {
	return &observationRepository{db: db}
}

func (r *observationRepository) scoped(ctx context.Context, filter ObservationFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Observation{})
	if filter.StudentID != "" {
		query = query.Where("observations.student_id = ?", filter.StudentID)
	}
	if filter.CourseID != "" {
		query = query.Joins("JOIN students ON students.id = observations.student_id").
			Where("students.course_id = ?", filter.CourseID)
	}
	if filter.Type != "" {
		query = query.Where("observations.type = ?", filter.Type)
	}
	return query
}

// List returns observations newest first with the student preloaded.
func (r *observationRepository) List(ctx context.Context, filter ObservationFilter) ([]models.Observation, error) {
	query := r.scoped(ctx, filter).Preload("Student")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var observations []models.Observation
	err := query.
		Order("observations.date DESC").
		Order("observations.created_at DESC").
		Find(&observations).Error
	if err != nil {
		return nil, err
	}
	return observations, nil
}

func (r *observationRepository) GetByID(ctx context.Context, id string) (models.Observation, error) {
	var observation models.Observation
	if err := r.db.WithContext(ctx).Preload("Student").Where("id = ?", id).First(&observation).Error; err != nil {
		return models.Observation{}, err
	}
	return observation, nil
}

func (r *observationRepository) Create(ctx context.Context, observation *models.Observation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(observation).Error
}

func (r *observationRepository) Update(ctx context.Context, observation *models.Observation) error {
	result := r.db.WithContext(ctx).Model(&models.Observation{}).
		Where("id = ?", observation.ID).
		Select("student_id", "type", "severity", "description", "date").
		Updates(observation)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *observationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Observation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByType tallies observations per type. An empty courseID counts
// every student.
func (r *observationRepository) CountByType(ctx context.Context, courseID string) (map[string]int, error) {
	var rows []struct {
		Type  string
		Total int
	}

	err := r.scoped(ctx, ObservationFilter{CourseID: courseID}).
		Select("observations.type AS type, COUNT(*) AS total").
		Group("observations.type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int{
		models.ObservationTypeAcademic:   0,
		models.ObservationTypeBehavioral: 0,
	}
	for _, row := range rows {
		counts[row.Type] = row.Total
	}
	return counts, nil
}
