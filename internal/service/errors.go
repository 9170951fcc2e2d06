package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/aula-go-api/internal/grading"
)

var (
	// ErrStudentNotFound indicates the student was not located.
	ErrStudentNotFound = errors.New("student not found")
	// ErrCourseNotFound indicates the course was not located.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidPeriod indicates a period outside p1..p4.
	ErrInvalidPeriod = errors.New("invalid grading period")
	// ErrEntryIndexOutOfRange indicates a grade position that does not exist.
	ErrEntryIndexOutOfRange = errors.New("grade entry index out of range")
	// ErrDiaryEntryNotFound indicates the diary entry was not located.
	ErrDiaryEntryNotFound = errors.New("diary entry not found")
	// ErrObservationNotFound indicates the observation was not located.
	ErrObservationNotFound = errors.New("observation not found")
	// ErrAgendaEventNotFound indicates the agenda event was not located.
	ErrAgendaEventNotFound = errors.New("agenda event not found")
	// ErrInvalidDate indicates a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidDateRange indicates a window whose end precedes its start.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// EntryValidationError locates a rejected score inside a batch.
type EntryValidationError struct {
	Index int
	Cause *grading.ValidationError
}

func (e *EntryValidationError) Error() string {
	return fmt.Sprintf("entry %d: %s", e.Index, e.Cause.Error())
}

func (e *EntryValidationError) Unwrap() error {
	return e.Cause
}

const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return parsed, nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
