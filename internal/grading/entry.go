package grading

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// MinScore is the lowest accepted grade value.
	MinScore = 1.0
	// MaxScore is the highest accepted grade value.
	MaxScore = 5.0
)

// ScoredEntry is one recorded grade.
type ScoredEntry struct {
	Value      float64   `json:"value"`
	Title      *string   `json:"title,omitempty"`
	RecordedAt time.Time `json:"createdAt"`
}

// HasTitle reports whether the entry was recorded with a label.
func (e ScoredEntry) HasTitle() bool {
	return e.Title != nil
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// ValidateScore parses a user-supplied score and builds an entry stamped with
// clock.Now(). Invalid input yields a *ValidationError and no entry.
func ValidateScore(raw string, title string, clock Clock) (ScoredEntry, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return ScoredEntry{}, &ValidationError{Kind: NotANumber, Input: raw}
	}

	value, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return ScoredEntry{}, &ValidationError{Kind: NotANumber, Input: raw}
	}

	return validate(value, raw, title, clock)
}

// ValidateScoreValue is ValidateScore for already-numeric input.
func ValidateScoreValue(value float64, title string, clock Clock) (ScoredEntry, error) {
	return validate(value, strconv.FormatFloat(value, 'f', -1, 64), title, clock)
}

func validate(value float64, raw string, title string, clock Clock) (ScoredEntry, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ScoredEntry{}, &ValidationError{Kind: NotANumber, Input: raw}
	}
	if value < MinScore || value > MaxScore {
		return ScoredEntry{}, &ValidationError{Kind: OutOfRange, Input: raw}
	}

	if clock == nil {
		clock = SystemClock
	}

	entry := ScoredEntry{Value: value, RecordedAt: clock.Now()}
	if title != "" {
		t := title
		entry.Title = &t
	}
	return entry, nil
}
