package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/grading"
	"github.com/noah-isme/aula-go-api/internal/middleware"
	"github.com/noah-isme/aula-go-api/internal/service"
	"github.com/noah-isme/aula-go-api/internal/utils"
)

const maxListLimit = 200

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseLimit(c *fiber.Ctx) (int, error) {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return 0, errors.New("invalid limit")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

func parseQueryDate(c *fiber.Ctx, key string) (time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

func userIDFromContext(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_id").(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		ctx := logger.With()
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			ctx = ctx.Str("correlation_id", correlation)
		}
		if userID := userIDFromContext(c); userID != "" {
			ctx = ctx.Str("user_id", userID)
		}
		logger = ctx.Logger()
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// fieldErrors flattens validator errors into field -> tag pairs.
func fieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

// gradeDetails extracts the rejected score, if err carries one.
func gradeDetails(err error) (dto.GradeValidationDetails, bool) {
	var entryErr *service.EntryValidationError
	if errors.As(err, &entryErr) && entryErr.Cause != nil {
		index := entryErr.Index
		return dto.GradeValidationDetails{Kind: entryErr.Cause.Kind, Input: entryErr.Cause.Input, Index: &index}, true
	}

	if validationErr, ok := grading.IsValidationError(err); ok {
		return dto.GradeValidationDetails{Kind: validationErr.Kind, Input: validationErr.Input}, true
	}
	return dto.GradeValidationDetails{}, false
}

// sendServiceError maps service errors onto HTTP statuses. Anything
// unrecognised is logged and reported as failed action.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	if details, ok := gradeDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid score", details)
	}

	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", fieldErrors(err))
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrEntryIndexOutOfRange):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrDiaryEntryNotFound),
		errors.Is(err, service.ErrObservationNotFound),
		errors.Is(err, service.ErrAgendaEventNotFound):
		return utils.Fail(c, fiber.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrPhotoTooLarge):
		return utils.Fail(c, fiber.StatusRequestEntityTooLarge, err.Error(), nil)
	case errors.Is(err, service.ErrPhotoTypeNotAllowed):
		return utils.Fail(c, fiber.StatusUnsupportedMediaType, err.Error(), nil)
	case errors.Is(err, service.ErrPhotoStorageUnavailable):
		return utils.Fail(c, fiber.StatusServiceUnavailable, err.Error(), nil)
	default:
		requestLogger(logger, c).Error().Err(err).Msg("failed to " + action)
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to "+action, nil)
	}
}
