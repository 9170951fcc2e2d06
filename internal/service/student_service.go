package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
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
	"github.com/noah-isme/aula-go-api/internal/models"
	"github.com/noah-isme/aula-go-api/internal/repository"
)

var (
	// ErrPhotoTooLarge indicates the photo exceeded the configured limit.
	ErrPhotoTooLarge = errors.New("photo exceeds maximum allowed size")
	// ErrPhotoTypeNotAllowed indicates the photo is not a JPEG, PNG or WebP image.
	ErrPhotoTypeNotAllowed = errors.New("photo type not allowed")
	// ErrPhotoStorageUnavailable indicates no photo storage was configured.
	ErrPhotoStorageUnavailable = errors.New("photo storage is not configured")
)

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PhotoStorage abstracts where student photos end up.
type PhotoStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// StudentServiceConfig carries the tunables of the student service.
type StudentServiceConfig struct {
	CacheTTL     time.Duration
	DefaultCity  string
	PhotoMaxMB   int
	PhotoStorage PhotoStorage
}

// StudentService manages student records and the roster.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentRecord, error)
	Get(ctx context.Context, id string) (dto.StudentRecord, error)
	Create(ctx context.Context, req dto.StudentCreateRequest) (dto.StudentRecord, error)
	Update(ctx context.Context, id string, req dto.StudentUpdateRequest) (dto.StudentRecord, error)
	Delete(ctx context.Context, id string) error
	UploadPhoto(ctx context.Context, id string, file *multipart.FileHeader) (dto.PhotoUploadResponse, error)
}

type studentService struct {
	rows      *studentRows
	repo      repository.StudentRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	text      textCleaner
	storage   PhotoStorage
	maxPhoto  int64
	mapper    dto.RecordMapper
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, courses repository.CourseRepository, store cache.Store, validate *validator.Validate, cfg StudentServiceConfig, logger zerolog.Logger) StudentService {
	if cfg.PhotoMaxMB <= 0 {
		cfg.PhotoMaxMB = 5
	}

	componentLogger := logger.With().Str("component", "student_service").Logger()
	svc := &studentService{
		rows:      newStudentRows(repo, store, cfg.CacheTTL, componentLogger),
		repo:      repo,
		courses:   courses,
		validator: validate,
		text:      newTextCleaner(),
		storage:   cfg.PhotoStorage,
		maxPhoto:  int64(cfg.PhotoMaxMB) * 1024 * 1024,
		logger:    componentLogger,
		tracer:    otel.Tracer("github.com/noah-isme/aula-go-api/internal/service/student"),
		now:       time.Now,
	}
	svc.mapper = dto.RecordMapper{DefaultCity: cfg.DefaultCity, Now: func() time.Time { return svc.now() }}
	return svc
}

// List maps the roster to display records and keeps the requested course.
// An empty course id behaves like dto.AllCourses.
func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentRecord, error) {
	rows, err := s.rows.roster(ctx, strings.TrimSpace(req.Search))
	if err != nil {
		return nil, err
	}

	courseID := strings.TrimSpace(req.CourseID)
	if courseID == "" {
		courseID = dto.AllCourses
	}

	return dto.FilterByCourse(s.mapper.MapAll(rows), courseID), nil
}

func (s *studentService) Get(ctx context.Context, id string) (dto.StudentRecord, error) {
	row, err := s.rows.row(ctx, id)
	if err != nil {
		return dto.StudentRecord{}, err
	}

	record := s.mapper.Map(row, dto.CourseLabel(row))
	if record.GradesRecovered {
		s.logger.Warn().Str("student_id", id).Msg("student grades document was malformed; showing empty grades")
	}
	return record, nil
}

func (s *studentService) Create(ctx context.Context, req dto.StudentCreateRequest) (dto.StudentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "students.create")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.StudentRecord{}, err
	}

	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_birth_date")
		return dto.StudentRecord{}, err
	}

	enrollment := truncateToDate(s.now())
	if strings.TrimSpace(req.EnrollmentDate) != "" {
		if enrollment, err = parseDate(req.EnrollmentDate); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid_enrollment_date")
			return dto.StudentRecord{}, err
		}
	}

	courseID, err := s.resolveCourse(ctx, req.CourseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_lookup_failed")
		return dto.StudentRecord{}, err
	}

	grades := grading.EmptyGrades()
	if req.Grades != nil {
		if grades, err = checkGrades(*req.Grades, s.now); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid_grades")
			return dto.StudentRecord{}, err
		}
	}
	encoded, err := grading.EncodeGrades(grades)
	if err != nil {
		return dto.StudentRecord{}, err
	}

	row := models.Student{
		FirstName:            s.text.clean(req.FirstName),
		LastName:             s.text.clean(req.LastName),
		Gender:               req.Gender,
		BirthDate:            birthDate,
		DocumentType:         defaultString(req.DocumentType, models.DocumentTypeDefault),
		DocumentNumber:       s.text.optional(req.DocumentNumber),
		CourseID:             courseID,
		EnrollmentDate:       enrollment,
		Status:               defaultString(req.Status, models.StudentStatusActive),
		Email:                s.text.optional(req.Email),
		Phone:                s.text.optional(req.Phone),
		Address:              s.text.optional(req.Address),
		City:                 s.text.optional(req.City),
		GuardianName:         s.text.optional(req.GuardianName),
		GuardianRelationship: s.text.optional(req.GuardianRelationship),
		GuardianPhone:        s.text.optional(req.GuardianPhone),
		GuardianEmail:        s.text.optional(req.GuardianEmail),
		Notes:                s.text.optional(req.Notes),
		Grades:               datatypes.JSON(encoded),
	}

	if err := s.repo.Create(ctx, &row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_create_failed")
		return dto.StudentRecord{}, err
	}
	span.SetAttributes(attribute.String("student.id", row.ID))

	s.recount(ctx, row.CourseID)
	s.rows.invalidate(ctx, row.ID)

	s.logger.Info().Str("student_id", row.ID).Msg("student created")
	return s.reload(ctx, row.ID)
}

func (s *studentService) Update(ctx context.Context, id string, req dto.StudentUpdateRequest) (dto.StudentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "students.update")
	span.SetAttributes(attribute.String("student.id", id))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.StudentRecord{}, err
	}

	row, err := s.rows.fresh(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.StudentRecord{}, err
	}
	previousCourse := row.CourseID

	if err := s.apply(ctx, &row, req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_update")
		return dto.StudentRecord{}, err
	}

	row.Course = nil
	if err := s.repo.Update(ctx, &row); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrStudentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_update_failed")
		return dto.StudentRecord{}, err
	}

	if !sameCourse(previousCourse, row.CourseID) {
		s.recount(ctx, previousCourse)
		s.recount(ctx, row.CourseID)
	}
	s.rows.invalidate(ctx, id)

	return s.reload(ctx, id)
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "students.delete")
	span.SetAttributes(attribute.String("student.id", id))
	defer span.End()

	row, err := s.rows.fresh(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrStudentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_delete_failed")
		return err
	}

	s.recount(ctx, row.CourseID)
	s.rows.invalidate(ctx, id)

	s.logger.Info().Str("student_id", id).Msg("student deleted")
	return nil
}

func (s *studentService) UploadPhoto(ctx context.Context, id string, file *multipart.FileHeader) (dto.PhotoUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "students.upload_photo")
	span.SetAttributes(attribute.String("student.id", id), attribute.Int64("upload.max_bytes", s.maxPhoto))
	defer span.End()

	if s.storage == nil {
		span.SetStatus(codes.Error, "storage_unavailable")
		return dto.PhotoUploadResponse{}, ErrPhotoStorageUnavailable
	}
	if file == nil {
		err := errors.New("photo is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.PhotoUploadResponse{}, err
	}
	if file.Size > s.maxPhoto {
		span.RecordError(ErrPhotoTooLarge)
		span.SetStatus(codes.Error, "payload_too_large")
		return dto.PhotoUploadResponse{}, ErrPhotoTooLarge
	}

	if _, err := s.rows.fresh(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.PhotoUploadResponse{}, err
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open_failed")
		return dto.PhotoUploadResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxPhoto+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read_failed")
		return dto.PhotoUploadResponse{}, err
	}
	if int64(buf.Len()) > s.maxPhoto {
		span.RecordError(ErrPhotoTooLarge)
		span.SetStatus(codes.Error, "payload_too_large")
		return dto.PhotoUploadResponse{}, ErrPhotoTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	mimeType := strings.ToLower(strings.SplitN(detected.String(), ";", 2)[0])
	extension, ok := allowedPhotoTypes[mimeType]
	span.SetAttributes(attribute.String("upload.detected_mime", mimeType))
	if !ok {
		span.RecordError(ErrPhotoTypeNotAllowed)
		span.SetStatus(codes.Error, "type_not_allowed")
		return dto.PhotoUploadResponse{}, ErrPhotoTypeNotAllowed
	}

	url, err := s.storage.Upload(ctx, fmt.Sprintf("student-%s%s", id, extension), bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage_failed")
		return dto.PhotoUploadResponse{}, err
	}

	if err := s.repo.UpdatePhoto(ctx, id, url); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrStudentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "photo_update_failed")
		return dto.PhotoUploadResponse{}, err
	}
	s.rows.invalidate(ctx, id)

	return dto.PhotoUploadResponse{
		StudentID: id,
		URL:       url,
		MimeType:  mimeType,
		SizeBytes: int64(buf.Len()),
	}, nil
}

func (s *studentService) apply(ctx context.Context, row *models.Student, req dto.StudentUpdateRequest) error {
	if req.FirstName != nil {
		row.FirstName = s.text.clean(*req.FirstName)
	}
	if req.LastName != nil {
		row.LastName = s.text.clean(*req.LastName)
	}
	if req.Gender != nil {
		row.Gender = *req.Gender
	}
	if req.BirthDate != nil {
		birthDate, err := parseDate(*req.BirthDate)
		if err != nil {
			return err
		}
		row.BirthDate = birthDate
	}
	if req.DocumentType != nil {
		row.DocumentType = defaultString(*req.DocumentType, models.DocumentTypeDefault)
	}
	if req.Status != nil {
		row.Status = defaultString(*req.Status, models.StudentStatusActive)
	}
	if req.CourseID != nil {
		courseID, err := s.resolveCourse(ctx, *req.CourseID)
		if err != nil {
			return err
		}
		row.CourseID = courseID
	}
	if req.Grades != nil {
		grades, err := checkGrades(*req.Grades, s.now)
		if err != nil {
			return err
		}
		encoded, err := grading.EncodeGrades(grades)
		if err != nil {
			return err
		}
		row.Grades = datatypes.JSON(encoded)
	}

	for target, value := range map[**string]*string{
		&row.DocumentNumber:       req.DocumentNumber,
		&row.Email:                req.Email,
		&row.Phone:                req.Phone,
		&row.Address:              req.Address,
		&row.City:                 req.City,
		&row.GuardianName:         req.GuardianName,
		&row.GuardianRelationship: req.GuardianRelationship,
		&row.GuardianPhone:        req.GuardianPhone,
		&row.GuardianEmail:        req.GuardianEmail,
		&row.Notes:                req.Notes,
	} {
		if value != nil {
			*target = s.text.optional(*value)
		}
	}

	return nil
}

// resolveCourse checks that a non-empty course id exists. Empty means unassigned.
func (s *studentService) resolveCourse(ctx context.Context, courseID string) (*string, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, nil
	}

	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &courseID, nil
}

// recount refreshes the denormalized student count of a course. Failures
// are logged; the student write has already been committed.
func (s *studentService) recount(ctx context.Context, courseID *string) {
	if courseID == nil || *courseID == "" {
		return
	}

	count, err := s.courses.RecomputeStudentCount(ctx, *courseID)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", *courseID).Msg("failed to recompute course student count")
		return
	}
	s.logger.Debug().Str("course_id", *courseID).Int("students", count).Msg("course student count recomputed")

	if err := s.rows.cache.Invalidate(ctx, cache.CourseListKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate course list cache")
	}
}

func (s *studentService) reload(ctx context.Context, id string) (dto.StudentRecord, error) {
	row, err := s.rows.fresh(ctx, id)
	if err != nil {
		return dto.StudentRecord{}, err
	}
	return s.mapper.Map(row, dto.CourseLabel(row)), nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func sameCourse(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return *a == *b
	}
}
