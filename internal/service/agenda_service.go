package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/models"
	"github.com/noah-isme/aula-go-api/internal/repository"
)

// AgendaService manages the planning calendar.
type AgendaService interface {
	List(ctx context.Context, req dto.AgendaListRequest) ([]dto.AgendaEventResponse, error)
	Create(ctx context.Context, req dto.AgendaEventRequest) (dto.AgendaEventResponse, error)
	Update(ctx context.Context, id string, req dto.AgendaEventRequest) (dto.AgendaEventResponse, error)
	Delete(ctx context.Context, id string) error
}

type agendaService struct {
	repo      repository.AgendaRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	text      textCleaner
	logger    zerolog.Logger
}

// NewAgendaService constructs the agenda service.
func NewAgendaService(repo repository.AgendaRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) AgendaService {
	return &agendaService{
		repo:      repo,
		courses:   courses,
		validator: validate,
		text:      newTextCleaner(),
		logger:    logger.With().Str("component", "agenda_service").Logger(),
	}
}

func (s *agendaService) List(ctx context.Context, req dto.AgendaListRequest) ([]dto.AgendaEventResponse, error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return nil, ErrInvalidDateRange
	}

	events, err := s.repo.List(ctx, repository.AgendaFilter{From: req.From, To: req.To, CourseID: req.CourseID})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AgendaEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, dto.NewAgendaEventResponse(event))
	}
	return responses, nil
}

func (s *agendaService) Create(ctx context.Context, req dto.AgendaEventRequest) (dto.AgendaEventResponse, error) {
	var event models.AgendaEvent
	if err := s.fill(ctx, &event, req); err != nil {
		return dto.AgendaEventResponse{}, err
	}

	if err := s.repo.Create(ctx, &event); err != nil {
		return dto.AgendaEventResponse{}, err
	}
	s.logger.Info().Str("event_id", event.ID).Str("type", event.Type).Msg("agenda event scheduled")

	return dto.NewAgendaEventResponse(event), nil
}

func (s *agendaService) Update(ctx context.Context, id string, req dto.AgendaEventRequest) (dto.AgendaEventResponse, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AgendaEventResponse{}, ErrAgendaEventNotFound
		}
		return dto.AgendaEventResponse{}, err
	}

	if err := s.fill(ctx, &event, req); err != nil {
		return dto.AgendaEventResponse{}, err
	}
	if err := s.repo.Update(ctx, &event); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AgendaEventResponse{}, ErrAgendaEventNotFound
		}
		return dto.AgendaEventResponse{}, err
	}

	return dto.NewAgendaEventResponse(event), nil
}

func (s *agendaService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAgendaEventNotFound
		}
		return err
	}
	return nil
}

func (s *agendaService) fill(ctx context.Context, event *models.AgendaEvent, req dto.AgendaEventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	event.CourseID = nil
	if courseID := strings.TrimSpace(req.CourseID); courseID != "" {
		if _, err := s.courses.GetByID(ctx, courseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}
		event.CourseID = &courseID
	}

	event.Title = s.text.clean(req.Title)
	event.Type = req.Type
	event.Date = date
	event.Notes = s.text.clean(req.Notes)
	return nil
}
