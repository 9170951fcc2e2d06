package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/models"
	"github.com/noah-isme/aula-go-api/internal/repository"
)

// DiaryService manages the class diary.
type DiaryService interface {
	List(ctx context.Context, req dto.DiaryListRequest) ([]dto.DiaryEntryResponse, error)
	Create(ctx context.Context, req dto.DiaryEntryRequest) (dto.DiaryEntryResponse, error)
	Update(ctx context.Context, id string, req dto.DiaryEntryRequest) (dto.DiaryEntryResponse, error)
	Delete(ctx context.Context, id string) error
}

type diaryService struct {
	repo      repository.DiaryRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	text      textCleaner
	logger    zerolog.Logger
}

// NewDiaryService constructs the diary service.
func NewDiaryService(repo repository.DiaryRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) DiaryService {
	return &diaryService{
		repo:      repo,
		courses:   courses,
		validator: validate,
		text:      newTextCleaner(),
		logger:    logger.With().Str("component", "diary_service").Logger(),
	}
}

func (s *diaryService) List(ctx context.Context, req dto.DiaryListRequest) ([]dto.DiaryEntryResponse, error) {
	entries, err := s.repo.List(ctx, repository.DiaryFilter{CourseID: req.CourseID, Limit: req.Limit})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DiaryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewDiaryEntryResponse(entry))
	}
	return responses, nil
}

func (s *diaryService) Create(ctx context.Context, req dto.DiaryEntryRequest) (dto.DiaryEntryResponse, error) {
	var entry models.DiaryEntry
	if err := s.fill(ctx, &entry, req); err != nil {
		return dto.DiaryEntryResponse{}, err
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		return dto.DiaryEntryResponse{}, err
	}
	s.logger.Info().Str("diary_entry_id", entry.ID).Str("course_id", entry.CourseID).Msg("diary entry recorded")

	return s.reload(ctx, entry.ID)
}

func (s *diaryService) Update(ctx context.Context, id string, req dto.DiaryEntryRequest) (dto.DiaryEntryResponse, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DiaryEntryResponse{}, ErrDiaryEntryNotFound
		}
		return dto.DiaryEntryResponse{}, err
	}

	if err := s.fill(ctx, &entry, req); err != nil {
		return dto.DiaryEntryResponse{}, err
	}
	if err := s.repo.Update(ctx, &entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DiaryEntryResponse{}, ErrDiaryEntryNotFound
		}
		return dto.DiaryEntryResponse{}, err
	}

	return s.reload(ctx, id)
}

func (s *diaryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDiaryEntryNotFound
		}
		return err
	}
	return nil
}

func (s *diaryService) fill(ctx context.Context, entry *models.DiaryEntry, req dto.DiaryEntryRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	if _, err := s.courses.GetByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	entry.CourseID = req.CourseID
	entry.Date = date
	entry.Topic = s.text.clean(req.Topic)
	entry.Activities = s.text.clean(req.Activities)
	entry.Observations = s.text.clean(req.Observations)
	entry.Course = nil
	return nil
}

func (s *diaryService) reload(ctx context.Context, id string) (dto.DiaryEntryResponse, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DiaryEntryResponse{}, ErrDiaryEntryNotFound
		}
		return dto.DiaryEntryResponse{}, err
	}
	return dto.NewDiaryEntryResponse(entry), nil
}
