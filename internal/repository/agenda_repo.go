package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/models"
)

// AgendaFilter bounds the calendar window. Zero times leave that side open.
type AgendaFilter struct {
	From     time.Time
	To       time.Time
	CourseID string
}

// AgendaRepository persists planning calendar events.
type AgendaRepository interface {
	List(ctx context.Context, filter AgendaFilter) ([]models.AgendaEvent, error)
	GetByID(ctx context.Context, id string) (models.AgendaEvent, error)
	Create(ctx context.Context, event *models.AgendaEvent) error
	Update(ctx context.Context, event *models.AgendaEvent) error
	Delete(ctx context.Context, id string) error
}

type agendaRepository struct {
	db *gorm.DB
}

// NewAgendaRepository constructs an agenda repository backed by gorm.
func NewAgendaRepository(db *gorm.DB) AgendaRepository {
	return &agendaRepository{db: db}
}

// List returns events in chronological order.
func (r *agendaRepository) List(ctx context.Context, filter AgendaFilter) ([]models.AgendaEvent, error) {
	query := r.db.WithContext(ctx).Model(&models.AgendaEvent{})
	if !filter.From.IsZero() {
		query = query.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("date <= ?", filter.To)
	}
	if filter.CourseID != "" {
		query = query.Where("course_id = ?", filter.CourseID)
	}

	var events []models.AgendaEvent
	if err := query.Order("date ASC").Order("title ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *agendaRepository) GetByID(ctx context.Context, id string) (models.AgendaEvent, error) {
	var event models.AgendaEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return models.AgendaEvent{}, err
	}
	return event, nil
}

func (r *agendaRepository) Create(ctx context.Context, event *models.AgendaEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *agendaRepository) Update(ctx context.Context, event *models.AgendaEvent) error {
	result := r.db.WithContext(ctx).Model(&models.AgendaEvent{}).
		Where("id = ?", event.ID).
		Select("course_id", "title", "type", "date", "notes").
		Updates(event)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *agendaRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AgendaEvent{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
