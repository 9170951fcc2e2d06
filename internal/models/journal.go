package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiaryEntry records what was taught in a course on a given day.
type DiaryEntry struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID     string    `gorm:"size:36;not null;index" json:"course_id"`
	Date         time.Time `gorm:"type:date;not null;index" json:"date"`
	Topic        string    `gorm:"size:255;not null" json:"topic"`
	Activities   string    `gorm:"type:text" json:"activities"`
	Observations string    `gorm:"type:text" json:"observations"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Course       *Course   `gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (d *DiaryEntry) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(d.ID) == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

const (
	ObservationTypeAcademic   = "academic"
	ObservationTypeBehavioral = "behavioral"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Observation is a note about a single student's academic or behavioral progress.
type Observation struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	StudentID   string    `gorm:"size:36;not null;index" json:"student_id"`
	Type        string    `gorm:"size:16;not null" json:"type"`
	Severity    string    `gorm:"size:16;not null" json:"severity"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Date        time.Time `gorm:"type:date;not null;index" json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Student     *Student  `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (o *Observation) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(o.ID) == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

const (
	EventTypeDeadline = "deadline"
	EventTypeMeeting  = "meeting"
	EventTypeExam     = "exam"
	EventTypePlanning = "planning"
)

// AgendaEvent is an entry of the planning calendar, optionally tied to a course.
type AgendaEvent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID  *string   `gorm:"size:36;index" json:"course_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	Date      time.Time `gorm:"type:date;not null;index" json:"date"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (e *AgendaEvent) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
