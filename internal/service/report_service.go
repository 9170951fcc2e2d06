package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/cache"
	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/grading"
	"github.com/noah-isme/aula-go-api/internal/repository"
)

const (
	topStudentsLimit    = 3
	recentActivityLimit = 5
)

// ReportService builds the reports view.
type ReportService interface {
	Summary(ctx context.Context, courseID string) (dto.ReportSummaryResponse, error)
}

type reportService struct {
	rows         *studentRows
	courses      repository.CourseRepository
	diary        repository.DiaryRepository
	observations repository.ObservationRepository
	mapper       dto.RecordMapper
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(students repository.StudentRepository, courses repository.CourseRepository, diary repository.DiaryRepository, observations repository.ObservationRepository, store cache.Store, ttl time.Duration, logger zerolog.Logger) ReportService {
	componentLogger := logger.With().Str("component", "report_service").Logger()
	svc := &reportService{
		rows:         newStudentRows(students, store, ttl, componentLogger),
		courses:      courses,
		diary:        diary,
		observations: observations,
		logger:       componentLogger,
		tracer:       otel.Tracer("github.com/noah-isme/aula-go-api/internal/service/report"),
		now:          time.Now,
	}
	svc.mapper = dto.RecordMapper{Now: func() time.Time { return svc.now() }}
	return svc
}

// Summary aggregates the grades of one course, or of every student when
// courseID is empty or dto.AllCourses.
func (s *reportService) Summary(ctx context.Context, courseID string) (dto.ReportSummaryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reports.course")
	defer span.End()

	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		courseID = dto.AllCourses
	}
	span.SetAttributes(attribute.String("report.course_id", courseID))

	scope := ""
	if courseID != dto.AllCourses {
		if _, err := s.courses.GetByID(ctx, courseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = ErrCourseNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "course_lookup_failed")
			return dto.ReportSummaryResponse{}, err
		}
		scope = courseID
	}

	rows, err := s.rows.roster(ctx, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "roster_failed")
		return dto.ReportSummaryResponse{}, err
	}
	students := dto.FilterByCourse(s.mapper.MapAll(rows), courseID)

	response := dto.ReportSummaryResponse{
		CourseID:      courseID,
		TotalStudents: len(students),
		Distribution:  make(map[grading.Band]int, len(grading.Bands)),
		TopStudents:   []dto.StudentStanding{},
		NeedsSupport:  []dto.StudentStanding{},
		GeneratedAt:   s.now().UTC(),
	}
	for _, band := range grading.Bands {
		response.Distribution[band] = 0
	}

	perPeriod := make(map[grading.Period][]grading.ScoredEntry, len(grading.Periods))
	standings := make([]dto.StudentStanding, 0, len(students))
	for _, student := range students {
		for _, p := range grading.Periods {
			perPeriod[p] = append(perPeriod[p], student.Grades.Entries(p)...)
		}

		average, ok := grading.OverallAverage(student.Grades)
		if !ok {
			continue
		}
		band := grading.BandFor(average)
		response.Distribution[band]++
		standings = append(standings, dto.StudentStanding{
			StudentID:      student.ID,
			FullName:       student.FullName,
			CourseName:     student.CourseName,
			OverallAverage: average,
			Band:           band,
		})
	}

	combined := grading.EmptyGrades()
	for _, p := range grading.Periods {
		combined = combined.With(p, perPeriod[p])
	}

	response.GradedStudents = len(standings)
	response.CourseAverage = grading.AveragePtr(combined.All())
	response.PeriodAverages = grading.PeriodAverages(combined)
	response.TopStudents = topStudents(standings, topStudentsLimit)
	response.NeedsSupport = needsSupport(standings)

	counts, err := s.observations.CountByType(ctx, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "observation_counts_failed")
		return dto.ReportSummaryResponse{}, err
	}
	response.ObservationCounts = counts

	activity, err := s.recentActivity(ctx, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recent_activity_failed")
		return dto.ReportSummaryResponse{}, err
	}
	response.RecentActivity = activity

	return response, nil
}

// recentActivity merges the newest diary entries and observations.
func (s *reportService) recentActivity(ctx context.Context, courseID string) ([]dto.ActivityItem, error) {
	entries, err := s.diary.List(ctx, repository.DiaryFilter{CourseID: courseID, Limit: recentActivityLimit})
	if err != nil {
		return nil, err
	}
	observations, err := s.observations.List(ctx, repository.ObservationFilter{CourseID: courseID, Limit: recentActivityLimit})
	if err != nil {
		return nil, err
	}

	type dated struct {
		item dto.ActivityItem
		at   time.Time
	}
	merged := make([]dated, 0, len(entries)+len(observations))
	for _, entry := range entries {
		response := dto.NewDiaryEntryResponse(entry)
		subtitle := ""
		if response.CourseName != nil {
			subtitle = *response.CourseName
		}
		merged = append(merged, dated{at: entry.Date, item: dto.ActivityItem{
			Type:        "diary",
			ReferenceID: entry.ID,
			Title:       entry.Topic,
			Subtitle:    subtitle,
			Date:        response.Date,
		}})
	}
	for _, observation := range observations {
		response := dto.NewObservationResponse(observation)
		merged = append(merged, dated{at: observation.Date, item: dto.ActivityItem{
			Type:        "observation",
			ReferenceID: observation.ID,
			Title:       response.StudentName,
			Subtitle:    observation.Type + " · " + observation.Severity,
			Date:        response.Date,
		}})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].at.After(merged[j].at)
	})
	if len(merged) > recentActivityLimit {
		merged = merged[:recentActivityLimit]
	}

	items := make([]dto.ActivityItem, 0, len(merged))
	for _, m := range merged {
		items = append(items, m.item)
	}
	return items, nil
}

func topStudents(standings []dto.StudentStanding, limit int) []dto.StudentStanding {
	ranked := append([]dto.StudentStanding(nil), standings...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].OverallAverage != ranked[j].OverallAverage {
			return ranked[i].OverallAverage > ranked[j].OverallAverage
		}
		return ranked[i].FullName < ranked[j].FullName
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// needsSupport lists students below the support threshold, weakest first.
func needsSupport(standings []dto.StudentStanding) []dto.StudentStanding {
	flagged := make([]dto.StudentStanding, 0)
	for _, standing := range standings {
		if standing.OverallAverage < grading.SupportThreshold {
			flagged = append(flagged, standing)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].OverallAverage != flagged[j].OverallAverage {
			return flagged[i].OverallAverage < flagged[j].OverallAverage
		}
		return flagged[i].FullName < flagged[j].FullName
	})
	return flagged
}
