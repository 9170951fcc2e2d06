package dto

import (
	"time"

	"github.com/noah-isme/aula-go-api/internal/models"
)

// DiaryEntryResponse is a diary log entry with its course label.
type DiaryEntryResponse struct {
	ID           string  `json:"id"`
	CourseID     string  `json:"courseId"`
	CourseName   *string `json:"courseName,omitempty"`
	Date         string  `json:"date"`
	Topic        string  `json:"topic"`
	Activities   string  `json:"activities"`
	Observations string  `json:"observations"`
}

// NewDiaryEntryResponse maps a persisted diary entry.
func NewDiaryEntryResponse(entry models.DiaryEntry) DiaryEntryResponse {
	response := DiaryEntryResponse{
		ID:           entry.ID,
		CourseID:     entry.CourseID,
		Date:         formatDate(entry.Date),
		Topic:        entry.Topic,
		Activities:   entry.Activities,
		Observations: entry.Observations,
	}
	if entry.Course != nil {
		name := entry.Course.Name()
		response.CourseName = &name
	}
	return response
}

// DiaryEntryRequest is the diary form payload.
type DiaryEntryRequest struct {
	CourseID     string `json:"courseId" validate:"required,max=36"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Topic        string `json:"topic" validate:"required,max=255"`
	Activities   string `json:"activities" validate:"omitempty,max=8000"`
	Observations string `json:"observations" validate:"omitempty,max=8000"`
}

// DiaryListRequest filters diary entries.
type DiaryListRequest struct {
	CourseID string
	Limit    int
}

// ObservationResponse is an observation with the student's display name.
type ObservationResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// NewObservationResponse maps a persisted observation.
func NewObservationResponse(observation models.Observation) ObservationResponse {
	response := ObservationResponse{
		ID:          observation.ID,
		StudentID:   observation.StudentID,
		Type:        observation.Type,
		Severity:    observation.Severity,
		Description: observation.Description,
		Date:        formatDate(observation.Date),
	}
	if observation.Student != nil {
		response.StudentName = observation.Student.FirstName + " " + observation.Student.LastName
	}
	return response
}

// ObservationRequest is the observation form payload.
type ObservationRequest struct {
	StudentID   string `json:"studentId" validate:"required,max=36"`
	Type        string `json:"type" validate:"required,oneof=academic behavioral"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high"`
	Description string `json:"description" validate:"required,max=8000"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ObservationListRequest filters observations.
type ObservationListRequest struct {
	StudentID string
	Type      string
	Limit     int
}

// AgendaEventResponse is a planning calendar entry.
type AgendaEventResponse struct {
	ID       string  `json:"id"`
	CourseID *string `json:"courseId"`
	Title    string  `json:"title"`
	Type     string  `json:"type"`
	Date     string  `json:"date"`
	Notes    string  `json:"notes"`
}

// NewAgendaEventResponse maps a persisted agenda event.
func NewAgendaEventResponse(event models.AgendaEvent) AgendaEventResponse {
	return AgendaEventResponse{
		ID:       event.ID,
		CourseID: event.CourseID,
		Title:    event.Title,
		Type:     event.Type,
		Date:     formatDate(event.Date),
		Notes:    event.Notes,
	}
}

// AgendaEventRequest is the calendar form payload.
type AgendaEventRequest struct {
	CourseID string `json:"courseId" validate:"omitempty,max=36"`
	Title    string `json:"title" validate:"required,max=255"`
	Type     string `json:"type" validate:"required,oneof=deadline meeting exam planning"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes    string `json:"notes" validate:"omitempty,max=4000"`
}

// AgendaListRequest bounds the calendar window. Zero values are open ends.
type AgendaListRequest struct {
	From     time.Time
	To       time.Time
	CourseID string
}

// ActivityItem is one line of the recent activity feed.
type ActivityItem struct {
	Type        string `json:"type"`
	ReferenceID string `json:"referenceId"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Date        string `json:"date"`
}
