package dto

import "github.com/noah-isme/aula-go-api/internal/models"

// CourseRecord is the display form of a course.
type CourseRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	Grade       int    `json:"grade"`
	GroupNumber int    `json:"groupNumber"`
	Schedule    string `json:"schedule"`
	Students    int    `json:"students"`
	Color       string `json:"color"`
}

// NewCourseRecord maps a persisted course.
func NewCourseRecord(course models.Course) CourseRecord {
	return CourseRecord{
		ID:          course.ID,
		Name:        course.Name(),
		Subject:     course.Subject,
		Grade:       course.Grade,
		GroupNumber: course.GroupNumber,
		Schedule:    deref(course.Schedule),
		Students:    course.StudentsCount,
		Color:       course.Color,
	}
}

// NewCourseRecords maps courses in order.
func NewCourseRecords(courses []models.Course) []CourseRecord {
	records := make([]CourseRecord, 0, len(courses))
	for _, course := range courses {
		records = append(records, NewCourseRecord(course))
	}
	return records
}

// CourseCreateRequest is the course form payload.
type CourseCreateRequest struct {
	Subject     string `json:"subject" validate:"required,max=120"`
	Grade       int    `json:"grade" validate:"required,min=0,max=13"`
	GroupNumber int    `json:"groupNumber" validate:"required,min=1,max=99"`
	Schedule    string `json:"schedule" validate:"omitempty,max=255"`
	Color       string `json:"color" validate:"omitempty,max=64"`
}

// CourseUpdateRequest carries a partial course update. The student count is
// not writable.
type CourseUpdateRequest struct {
	Subject     *string `json:"subject" validate:"omitempty,min=1,max=120"`
	Grade       *int    `json:"grade" validate:"omitempty,min=0,max=13"`
	GroupNumber *int    `json:"groupNumber" validate:"omitempty,min=1,max=99"`
	Schedule    *string `json:"schedule" validate:"omitempty,max=255"`
	Color       *string `json:"color" validate:"omitempty,max=64"`
}

// GradebookRow is one student of a course gradebook for a single period.
type GradebookRow struct {
	StudentID      string   `json:"studentId"`
	FullName       string   `json:"fullName"`
	Entries        int      `json:"entries"`
	PeriodAverage  *float64 `json:"periodAverage"`
	OverallAverage *float64 `json:"overallAverage"`
}

// GradebookResponse lists a course's students with their averages for one period.
type GradebookResponse struct {
	Course CourseRecord   `json:"course"`
	Period string         `json:"period"`
	Rows   []GradebookRow `json:"rows"`
}
