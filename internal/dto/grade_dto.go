package dto

import (
	"bytes"
	"encoding/json"

	"github.com/noah-isme/aula-go-api/internal/grading"
)

// ScoreInput is a score as typed into the form: either a JSON number or a
// string. Decoding never fails so every bad score reaches the grading
// validator and is reported with its kind.
type ScoreInput struct {
	Text   string
	Number *float64
}

// ScoreText wraps textual input.
func ScoreText(raw string) ScoreInput { return ScoreInput{Text: raw} }

// ScoreNumber wraps numeric input.
func ScoreNumber(value float64) ScoreInput { return ScoreInput{Number: &value} }

// UnmarshalJSON accepts strings and numbers. Any other literal is kept as
// text and later rejected as not a number.
func (s *ScoreInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*s = ScoreInput{}

	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return nil
	case trimmed[0] == '"':
		return json.Unmarshal(trimmed, &s.Text)
	case trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9'):
		var value float64
		if err := json.Unmarshal(trimmed, &value); err == nil {
			s.Number = &value
			return nil
		}
	}

	s.Text = string(trimmed)
	return nil
}

// MarshalJSON writes the input back in the form it was given.
func (s ScoreInput) MarshalJSON() ([]byte, error) {
	if s.Number != nil {
		return json.Marshal(*s.Number)
	}
	return json.Marshal(s.Text)
}

// Entry validates the score with the numeric or textual rule.
func (s ScoreInput) Entry(title string, clock grading.Clock) (grading.ScoredEntry, error) {
	if s.Number != nil {
		return grading.ValidateScoreValue(*s.Number, title, clock)
	}
	return grading.ValidateScore(s.Text, title, clock)
}

// GradeEntryRequest adds a single score to a period.
type GradeEntryRequest struct {
	Value ScoreInput `json:"value"`
	Title string     `json:"title" validate:"omitempty,max=80"`
}

// GradePeriodReplaceRequest replaces every entry of a period.
type GradePeriodReplaceRequest struct {
	Entries []GradeEntryRequest `json:"entries" validate:"dive"`
}

// StudentGradesResponse is the gradebook of one student.
type StudentGradesResponse struct {
	StudentID      string                  `json:"studentId"`
	FullName       string                  `json:"fullName"`
	Grades         grading.PeriodGrades    `json:"grades"`
	Periods        []grading.PeriodAverage `json:"periods"`
	OverallAverage *float64                `json:"overallAverage"`
	Band           *grading.Band           `json:"band,omitempty"`
}

// NewStudentGradesResponse summarises a record's grades.
func NewStudentGradesResponse(record StudentRecord) StudentGradesResponse {
	overall := grading.AveragePtr(record.Grades.All())

	response := StudentGradesResponse{
		StudentID:      record.ID,
		FullName:       record.FullName,
		Grades:         record.Grades,
		Periods:        grading.PeriodAverages(record.Grades),
		OverallAverage: overall,
	}
	if overall != nil {
		band := grading.BandFor(*overall)
		response.Band = &band
	}
	return response
}

// GradeValidationDetails is returned to the form layer on a rejected score.
type GradeValidationDetails struct {
	Kind  grading.ValidationErrorKind `json:"kind"`
	Input string                      `json:"input"`
	Index *int                        `json:"index,omitempty"`
}
