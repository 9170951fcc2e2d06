package dto

import (
	"time"

	"github.com/noah-isme/aula-go-api/internal/grading"
)

// StudentStanding pairs a student with their overall average.
type StudentStanding struct {
	StudentID      string       `json:"studentId"`
	FullName       string       `json:"fullName"`
	CourseName     *string      `json:"courseName,omitempty"`
	OverallAverage float64      `json:"overallAverage"`
	Band           grading.Band `json:"band"`
}

// ReportSummaryResponse backs the reports view.
type ReportSummaryResponse struct {
	CourseID          string                  `json:"courseId"`
	TotalStudents     int                     `json:"totalStudents"`
	GradedStudents    int                     `json:"gradedStudents"`
	CourseAverage     *float64                `json:"courseAverage"`
	PeriodAverages    []grading.PeriodAverage `json:"periodAverages"`
	Distribution      map[grading.Band]int    `json:"distribution"`
	TopStudents       []StudentStanding       `json:"topStudents"`
	NeedsSupport      []StudentStanding       `json:"needsSupport"`
	ObservationCounts map[string]int          `json:"observationCounts"`
	RecentActivity    []ActivityItem          `json:"recentActivity"`
	GeneratedAt       time.Time               `json:"generatedAt"`
}
