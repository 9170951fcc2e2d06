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

// ObservationService manages the academic and behavioral observation log.
type ObservationService interface {
	List(ctx context.Context, req dto.ObservationListRequest) ([]dto.ObservationResponse, error)
	Create(ctx context.Context, req dto.ObservationRequest) (dto.ObservationResponse, error)
	Update(ctx context.Context, id string, req dto.ObservationRequest) (dto.ObservationResponse, error)
	Delete(ctx context.Context, id string) error
}

type observationService struct {
	repo      repository.ObservationRepository
	students  repository.StudentRepository
	validator *validator.Validate
	text      textCleaner
	logger    zerolog.Logger
}

// NewObservationService constructs the observation service.
func NewObservationService(repo repository.ObservationRepository, students repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) ObservationService {
	return &observationService{
		repo:      repo,
		students:  students,
		validator: validate,
		text:      newTextCleaner(),
		logger:    logger.With().Str("component", "observation_service").Logger(),
	}
}

func (s *observationService) List(ctx context.Context, req dto.ObservationListRequest) ([]dto.ObservationResponse, error) {
	observations, err := s.repo.List(ctx, repository.ObservationFilter{
		StudentID: req.StudentID,
		Type:      req.Type,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ObservationResponse, 0, len(observations))
	for _, observation := range observations {
		responses = append(responses, dto.NewObservationResponse(observation))
	}
	return responses, nil
}

func (s *observationService) Create(ctx context.Context, req dto.ObservationRequest) (dto.ObservationResponse, error) {
	var observation models.Observation
	if err := s.fill(ctx, &observation, req); err != nil {
		return dto.ObservationResponse{}, err
	}

	if err := s.repo.Create(ctx, &observation); err != nil {
		return dto.ObservationResponse{}, err
	}
	s.logger.Info().
		Str("observation_id", observation.ID).
		Str("student_id", observation.StudentID).
		Str("severity", observation.Severity).
		Msg("observation recorded")

	return s.reload(ctx, observation.ID)
}

func (s *observationService) Update(ctx context.Context, id string, req dto.ObservationRequest) (dto.ObservationResponse, error) {
	observation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ObservationResponse{}, ErrObservationNotFound
		}
		return dto.ObservationResponse{}, err
	}

	if err := s.fill(ctx, &observation, req); err != nil {
		return dto.ObservationResponse{}, err
	}
	if err := s.repo.Update(ctx, &observation); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ObservationResponse{}, ErrObservationNotFound
		}
		return dto.ObservationResponse{}, err
	}

	return s.reload(ctx, id)
}

func (s *observationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrObservationNotFound
		}
		return err
	}
	return nil
}

func (s *observationService) fill(ctx context.Context, observation *models.Observation, req dto.ObservationRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	if _, err := s.students.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	observation.StudentID = req.StudentID
	observation.Type = req.Type
	observation.Severity = req.Severity
	observation.Description = s.text.clean(req.Description)
	observation.Date = date
	observation.Student = nil
	return nil
}

func (s *observationService) reload(ctx context.Context, id string) (dto.ObservationResponse, error) {
	observation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ObservationResponse{}, ErrObservationNotFound
		}
		return dto.ObservationResponse{}, err
	}
	return dto.NewObservationResponse(observation), nil
}
