package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/cache"
	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/grading"
	"github.com/noah-isme/aula-go-api/internal/observability"
	"github.com/noah-isme/aula-go-api/internal/repository"
)

// GradeService records and summarises per-period scores.
type GradeService interface {
	Get(ctx context.Context, studentID string) (dto.StudentGradesResponse, error)
	AddEntry(ctx context.Context, studentID, period string, req dto.GradeEntryRequest) (dto.StudentGradesResponse, error)
	ReplacePeriod(ctx context.Context, studentID, period string, req dto.GradePeriodReplaceRequest) (dto.StudentGradesResponse, error)
	RemoveEntry(ctx context.Context, studentID, period string, index int) (dto.StudentGradesResponse, error)
}

type gradeService struct {
	rows      *studentRows
	repo      repository.StudentRepository
	validator *validator.Validate
	text      textCleaner
	mapper    dto.RecordMapper
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGradeService constructs the grade service.
func NewGradeService(repo repository.StudentRepository, store cache.Store, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) GradeService {
	componentLogger := logger.With().Str("component", "grade_service").Logger()
	svc := &gradeService{
		rows:      newStudentRows(repo, store, ttl, componentLogger),
		repo:      repo,
		validator: validate,
		text:      newTextCleaner(),
		logger:    componentLogger,
		tracer:    otel.Tracer("github.com/noah-isme/aula-go-api/internal/service/grade"),
		now:       time.Now,
	}
	svc.mapper = dto.RecordMapper{Now: func() time.Time { return svc.now() }}
	return svc
}

func (s *gradeService) Get(ctx context.Context, studentID string) (dto.StudentGradesResponse, error) {
	row, err := s.rows.row(ctx, studentID)
	if err != nil {
		return dto.StudentGradesResponse{}, err
	}
	return dto.NewStudentGradesResponse(s.mapper.Map(row, nil)), nil
}

// AddEntry validates one score and appends it to the period. The title is
// stripped of markup before it is stored, so a title made only of tags is
// recorded as no title.
func (s *gradeService) AddEntry(ctx context.Context, studentID, period string, req dto.GradeEntryRequest) (dto.StudentGradesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades.add_entry")
	span.SetAttributes(attribute.String("student.id", studentID), attribute.String("grades.period", period))
	defer span.End()

	p, err := grading.ParsePeriod(period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_period")
		return dto.StudentGradesResponse{}, ErrInvalidPeriod
	}

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.StudentGradesResponse{}, err
	}

	entry, err := req.Value.Entry(s.text.clean(req.Title), grading.ClockFunc(s.now))
	if err != nil {
		s.countEntry(p, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "score_rejected")
		return dto.StudentGradesResponse{}, err
	}

	response, err := s.mutate(ctx, studentID, func(grades grading.PeriodGrades) (grading.PeriodGrades, error) {
		current := grades.Entries(p)
		next := make([]grading.ScoredEntry, 0, len(current)+1)
		next = append(next, current...)
		next = append(next, entry)
		return grades.With(p, next), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grades_update_failed")
		return dto.StudentGradesResponse{}, err
	}

	s.countEntry(p, nil)
	return response, nil
}

// ReplacePeriod swaps every entry of a period. Nothing is written unless all
// entries are valid; the first rejected entry is reported with its index.
func (s *gradeService) ReplacePeriod(ctx context.Context, studentID, period string, req dto.GradePeriodReplaceRequest) (dto.StudentGradesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades.replace_period")
	span.SetAttributes(attribute.String("student.id", studentID), attribute.String("grades.period", period))
	defer span.End()

	p, err := grading.ParsePeriod(period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_period")
		return dto.StudentGradesResponse{}, ErrInvalidPeriod
	}

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.StudentGradesResponse{}, err
	}

	clock := grading.ClockFunc(s.now)
	entries := make([]grading.ScoredEntry, 0, len(req.Entries))
	for idx, item := range req.Entries {
		entry, err := item.Value.Entry(s.text.clean(item.Title), clock)
		if err != nil {
			s.countEntry(p, err)
			var validationErr *grading.ValidationError
			if errors.As(err, &validationErr) {
				err = &EntryValidationError{Index: idx, Cause: validationErr}
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "score_rejected")
			return dto.StudentGradesResponse{}, err
		}
		entries = append(entries, entry)
	}

	response, err := s.mutate(ctx, studentID, func(grades grading.PeriodGrades) (grading.PeriodGrades, error) {
		return grades.With(p, entries), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grades_update_failed")
		return dto.StudentGradesResponse{}, err
	}

	observability.GradeEntries().WithLabelValues(string(p), "accepted").Add(float64(len(entries)))
	return response, nil
}

// RemoveEntry deletes the entry at index, keeping the order of the rest.
func (s *gradeService) RemoveEntry(ctx context.Context, studentID, period string, index int) (dto.StudentGradesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades.remove_entry")
	span.SetAttributes(
		attribute.String("student.id", studentID),
		attribute.String("grades.period", period),
		attribute.Int("grades.index", index),
	)
	defer span.End()

	p, err := grading.ParsePeriod(period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_period")
		return dto.StudentGradesResponse{}, ErrInvalidPeriod
	}

	response, err := s.mutate(ctx, studentID, func(grades grading.PeriodGrades) (grading.PeriodGrades, error) {
		current := grades.Entries(p)
		if index < 0 || index >= len(current) {
			return grading.PeriodGrades{}, ErrEntryIndexOutOfRange
		}

		next := make([]grading.ScoredEntry, 0, len(current)-1)
		next = append(next, current[:index]...)
		next = append(next, current[index+1:]...)
		return grades.With(p, next), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grades_update_failed")
		return dto.StudentGradesResponse{}, err
	}
	return response, nil
}

// mutate loads the current grades from the database, applies change and
// persists the result. A malformed document is replaced.
func (s *gradeService) mutate(ctx context.Context, studentID string, change func(grading.PeriodGrades) (grading.PeriodGrades, error)) (dto.StudentGradesResponse, error) {
	row, err := s.rows.fresh(ctx, studentID)
	if err != nil {
		return dto.StudentGradesResponse{}, err
	}

	grades, err := grading.DecodeGrades(row.Grades)
	if err != nil {
		s.logger.Warn().Err(err).Str("student_id", studentID).Msg("overwriting malformed grades document")
	}

	updated, err := change(grades)
	if err != nil {
		return dto.StudentGradesResponse{}, err
	}

	encoded, err := grading.EncodeGrades(updated)
	if err != nil {
		return dto.StudentGradesResponse{}, err
	}

	if err := s.repo.UpdateGrades(ctx, studentID, datatypes.JSON(encoded)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentGradesResponse{}, ErrStudentNotFound
		}
		return dto.StudentGradesResponse{}, err
	}
	s.rows.invalidate(ctx, studentID)

	row.Grades = datatypes.JSON(encoded)
	return dto.NewStudentGradesResponse(s.mapper.Map(row, nil)), nil
}

func (s *gradeService) countEntry(p grading.Period, err error) {
	result := "accepted"
	if validationErr, ok := grading.IsValidationError(err); ok {
		result = string(validationErr.Kind)
	}
	observability.GradeEntries().WithLabelValues(string(p), result).Inc()
}

// checkGrades validates a full grades document supplied on create or update.
// Entries keep their timestamp; missing ones are stamped with now.
func checkGrades(grades grading.PeriodGrades, now func() time.Time) (grading.PeriodGrades, error) {
	checked := grading.EmptyGrades()
	for _, p := range grading.Periods {
		current := grades.Entries(p)
		entries := make([]grading.ScoredEntry, 0, len(current))
		for idx, item := range current {
			stamp := item.RecordedAt
			if stamp.IsZero() {
				stamp = now()
			}

			title := ""
			if item.Title != nil {
				title = *item.Title
			}

			entry, err := grading.ValidateScoreValue(item.Value, title, grading.ClockFunc(func() time.Time { return stamp }))
			if err != nil {
				var validationErr *grading.ValidationError
				if errors.As(err, &validationErr) {
					return grading.PeriodGrades{}, &EntryValidationError{Index: idx, Cause: validationErr}
				}
				return grading.PeriodGrades{}, err
			}
			entries = append(entries, entry)
		}
		checked = checked.With(p, entries)
	}
	return checked, nil
}
