package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCourseColor is used when a course is created without a color.
const DefaultCourseColor = "bg-primary"

// Course is a teaching group identified by subject, grade level and group number.
// StudentsCount is denormalized and only written by the recount routine.
type Course struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Subject       string    `gorm:"size:120;not null" json:"subject"`
	Grade         int       `gorm:"not null" json:"grade"`
	GroupNumber   int       `gorm:"not null" json:"group_number"`
	Schedule      *string   `gorm:"size:255" json:"schedule"`
	StudentsCount int       `gorm:"not null;default:0" json:"students_count"`
	Color         string    `gorm:"size:64" json:"color"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(c.ID) == "" {
		c.ID = uuid.NewString()
	}
	if c.Color == "" {
		c.Color = DefaultCourseColor
	}
	return nil
}

// Name is the human-readable label of the course.
func (c Course) Name() string {
	return FormatCourseName(c.Subject, c.Grade, c.GroupNumber)
}

// FormatCourseName renders "{subject} {grade}-{group}", e.g. "Mathematics 5-2".
func FormatCourseName(subject string, gradeLevel, groupNumber int) string {
	return fmt.Sprintf("%s %d-%d", subject, gradeLevel, groupNumber)
}
