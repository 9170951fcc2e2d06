package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/aula-go-api/internal/models"
)

// DiaryFilter narrows diary listings. A zero Limit returns every entry.
type DiaryFilter struct {
	CourseID string
	Limit    int
}

// DiaryRepository persists the class diary.
type DiaryRepository interface {
	List(ctx context.Context, filter DiaryFilter) ([]models.DiaryEntry, error)
	GetByID(ctx context.Context, id string) (models.DiaryEntry, error)
	Create(ctx context.Context, entry *models.DiaryEntry) error
	Update(ctx context.Context, entry *models.DiaryEntry) error
	Delete(ctx context.Context, id string) error
}

type diaryRepository struct {
	db *gorm.DB
}

// NewDiaryRepository constructs a diary repository backed by gorm.
func NewDiaryRepository(db *gorm.DB) DiaryRepository {
	return &diaryRepository{db: db}
}

// List returns entries newest first.
func (r *diaryRepository) List(ctx context.Context, filter DiaryFilter) ([]models.DiaryEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.DiaryEntry{}).Preload("Course")
	if filter.CourseID != "" {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []models.DiaryEntry
	if err := query.Order("date DESC").Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *diaryRepository) GetByID(ctx context.Context, id string) (models.DiaryEntry, error) {
	var entry models.DiaryEntry
	if err := r.db.WithContext(ctx).Preload("Course").Where("id = ?", id).First(&entry).Error; err != nil {
		return models.DiaryEntry{}, err
	}
	return entry, nil
}

func (r *diaryRepository) Create(ctx context.Context, entry *models.DiaryEntry) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

func (r *diaryRepository) Update(ctx context.Context, entry *models.DiaryEntry) error {
	result := r.db.WithContext(ctx).Model(&models.DiaryEntry{}).
		Where("id = ?", entry.ID).
		Select("course_id", "date", "topic", "activities", "observations").
		Updates(entry)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *diaryRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DiaryEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
