package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/cache"
	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/grading"
	"github.com/noah-isme/aula-go-api/internal/models"
	"github.com/noah-isme/aula-go-api/internal/repository"
)

// CourseService manages courses and their gradebooks.
type CourseService interface {
	List(ctx context.Context) ([]dto.CourseRecord, error)
	Get(ctx context.Context, id string) (dto.CourseRecord, error)
	Create(ctx context.Context, req dto.CourseCreateRequest) (dto.CourseRecord, error)
	Update(ctx context.Context, id string, req dto.CourseUpdateRequest) (dto.CourseRecord, error)
	Delete(ctx context.Context, id string) error
	Recount(ctx context.Context, id string) (dto.CourseRecord, error)
	Gradebook(ctx context.Context, id string, period string) (dto.GradebookResponse, error)
}

type courseService struct {
	repo      repository.CourseRepository
	rows      *studentRows
	cache     cache.Store
	ttl       time.Duration
	validator *validator.Validate
	text      textCleaner
	mapper    dto.RecordMapper
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewCourseService constructs the course service.
func NewCourseService(repo repository.CourseRepository, students repository.StudentRepository, store cache.Store, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) CourseService {
	if store == nil {
		store = cache.Nop{}
	}
	componentLogger := logger.With().Str("component", "course_service").Logger()
	return &courseService{
		repo:      repo,
		rows:      newStudentRows(students, store, ttl, componentLogger),
		cache:     store,
		ttl:       ttl,
		validator: validate,
		text:      newTextCleaner(),
		mapper:    dto.RecordMapper{Now: time.Now},
		logger:    componentLogger,
		tracer:    otel.Tracer("github.com/noah-isme/aula-go-api/internal/service/course"),
	}
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseRecord, error) {
	var courses []models.Course
	found, err := s.cache.Get(ctx, cache.CourseListKey, &courses)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read course cache")
	}
	if !found {
		courses, err = s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, cache.CourseListKey, courses, s.ttl); err != nil {
			s.logger.Warn().Err(err).Msg("failed to store course cache")
		}
	}

	return dto.NewCourseRecords(courses), nil
}

func (s *courseService) Get(ctx context.Context, id string) (dto.CourseRecord, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return dto.CourseRecord{}, err
	}
	return dto.NewCourseRecord(course), nil
}

func (s *courseService) Create(ctx context.Context, req dto.CourseCreateRequest) (dto.CourseRecord, error) {
	ctx, span := s.tracer.Start(ctx, "courses.create")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.CourseRecord{}, err
	}

	course := models.Course{
		Subject:     s.text.clean(req.Subject),
		Grade:       req.Grade,
		GroupNumber: req.GroupNumber,
		Schedule:    s.text.optional(req.Schedule),
		Color:       strings.TrimSpace(req.Color),
	}
	if err := s.repo.Create(ctx, &course); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_create_failed")
		return dto.CourseRecord{}, err
	}
	span.SetAttributes(attribute.String("course.id", course.ID))

	s.invalidate(ctx, nil)
	s.logger.Info().Str("course_id", course.ID).Str("name", course.Name()).Msg("course created")
	return dto.NewCourseRecord(course), nil
}

func (s *courseService) Update(ctx context.Context, id string, req dto.CourseUpdateRequest) (dto.CourseRecord, error) {
	ctx, span := s.tracer.Start(ctx, "courses.update")
	span.SetAttributes(attribute.String("course.id", id))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.CourseRecord{}, err
	}

	course, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_lookup_failed")
		return dto.CourseRecord{}, err
	}

	if req.Subject != nil {
		course.Subject = s.text.clean(*req.Subject)
	}
	if req.Grade != nil {
		course.Grade = *req.Grade
	}
	if req.GroupNumber != nil {
		course.GroupNumber = *req.GroupNumber
	}
	if req.Schedule != nil {
		course.Schedule = s.text.optional(*req.Schedule)
	}
	if req.Color != nil && strings.TrimSpace(*req.Color) != "" {
		course.Color = strings.TrimSpace(*req.Color)
	}

	if err := s.repo.Update(ctx, &course); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrCourseNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_update_failed")
		return dto.CourseRecord{}, err
	}

	s.invalidate(ctx, s.memberIDs(ctx, id))
	return dto.NewCourseRecord(course), nil
}

// Delete removes the course. Its students become unassigned.
func (s *courseService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "courses.delete")
	span.SetAttributes(attribute.String("course.id", id))
	defer span.End()

	members := s.memberIDs(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrCourseNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_delete_failed")
		return err
	}

	s.invalidate(ctx, members)
	s.logger.Info().Str("course_id", id).Int("detached_students", len(members)).Msg("course deleted")
	return nil
}

func (s *courseService) Recount(ctx context.Context, id string) (dto.CourseRecord, error) {
	ctx, span := s.tracer.Start(ctx, "courses.recount")
	span.SetAttributes(attribute.String("course.id", id))
	defer span.End()

	if _, err := s.repo.RecomputeStudentCount(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrCourseNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_recount_failed")
		return dto.CourseRecord{}, err
	}

	if err := s.cache.Invalidate(ctx, cache.CourseListKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate course cache")
	}
	return s.Get(ctx, id)
}

// Gradebook lists the course's students with their average for one period.
// An empty period defaults to p1.
func (s *courseService) Gradebook(ctx context.Context, id string, period string) (dto.GradebookResponse, error) {
	if strings.TrimSpace(period) == "" {
		period = string(grading.P1)
	}
	p, err := grading.ParsePeriod(period)
	if err != nil {
		return dto.GradebookResponse{}, ErrInvalidPeriod
	}

	course, err := s.load(ctx, id)
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	rows, err := s.rows.roster(ctx, "")
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	students := dto.FilterByCourse(s.mapper.MapAll(rows), course.ID)
	gradebook := make([]dto.GradebookRow, 0, len(students))
	for _, student := range students {
		entries := student.Grades.Entries(p)
		gradebook = append(gradebook, dto.GradebookRow{
			StudentID:      student.ID,
			FullName:       student.FullName,
			Entries:        len(entries),
			PeriodAverage:  grading.AveragePtr(entries),
			OverallAverage: grading.AveragePtr(student.Grades.All()),
		})
	}

	return dto.GradebookResponse{
		Course: dto.NewCourseRecord(course),
		Period: string(p),
		Rows:   gradebook,
	}, nil
}

func (s *courseService) load(ctx context.Context, id string) (models.Course, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

// memberIDs lists the students currently assigned to the course. Their
// cached rows embed the course label and must be dropped on change.
func (s *courseService) memberIDs(ctx context.Context, id string) []string {
	rows, err := s.rows.roster(ctx, "")
	if err != nil {
		s.logger.Warn().Err(err).Str("course_id", id).Msg("failed to load course members")
		return nil
	}

	ids := make([]string, 0)
	for _, row := range rows {
		if row.CourseID != nil && *row.CourseID == id {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

func (s *courseService) invalidate(ctx context.Context, studentIDs []string) {
	if err := s.cache.Invalidate(ctx, cache.CourseListKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate course cache")
	}
	if studentIDs != nil {
		s.rows.invalidate(ctx, studentIDs...)
	}
}
