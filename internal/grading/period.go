package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Period identifies one of the four grading intervals of an academic cycle.
type Period string

const (
	P1 Period = "p1"
	P2 Period = "p2"
	P3 Period = "p3"
	P4 Period = "p4"
)

// Periods lists every period in cycle order.
var Periods = []Period{P1, P2, P3, P4}

// ParsePeriod accepts "p1".."p4" in any case.
func ParsePeriod(value string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(value)))
	switch p {
	case P1, P2, P3, P4:
		return p, nil
	default:
		return "", fmt.Errorf("unknown grading period %q", value)
	}
}

// PeriodGrades holds the scored entries of a student, keyed by period.
// Entry order within a period is insertion order.
type PeriodGrades struct {
	P1 []ScoredEntry `json:"p1"`
	P2 []ScoredEntry `json:"p2"`
	P3 []ScoredEntry `json:"p3"`
	P4 []ScoredEntry `json:"p4"`
}

// EmptyGrades returns a record with all four periods present and empty.
func EmptyGrades() PeriodGrades {
	return PeriodGrades{
		P1: []ScoredEntry{},
		P2: []ScoredEntry{},
		P3: []ScoredEntry{},
		P4: []ScoredEntry{},
	}
}

// Normalized replaces nil period slices with empty ones so the structure always
// serializes with four array keys.
func (g PeriodGrades) Normalized() PeriodGrades {
	if g.P1 == nil {
		g.P1 = []ScoredEntry{}
	}
	if g.P2 == nil {
		g.P2 = []ScoredEntry{}
	}
	if g.P3 == nil {
		g.P3 = []ScoredEntry{}
	}
	if g.P4 == nil {
		g.P4 = []ScoredEntry{}
	}
	return g
}

// Entries returns the entries recorded for a period. Unknown periods yield nil.
func (g PeriodGrades) Entries(p Period) []ScoredEntry {
	switch p {
	case P1:
		return g.P1
	case P2:
		return g.P2
	case P3:
		return g.P3
	case P4:
		return g.P4
	default:
		return nil
	}
}

// With returns a copy of g whose period p holds entries. The receiver is not modified.
func (g PeriodGrades) With(p Period, entries []ScoredEntry) PeriodGrades {
	cloned := make([]ScoredEntry, len(entries))
	copy(cloned, entries)

	switch p {
	case P1:
		g.P1 = cloned
	case P2:
		g.P2 = cloned
	case P3:
		g.P3 = cloned
	case P4:
		g.P4 = cloned
	}
	return g.Normalized()
}

// All flattens every period into one sequence.
func (g PeriodGrades) All() []ScoredEntry {
	all := make([]ScoredEntry, 0, len(g.P1)+len(g.P2)+len(g.P3)+len(g.P4))
	for _, p := range Periods {
		all = append(all, g.Entries(p)...)
	}
	return all
}

// Count reports the number of entries across all periods.
func (g PeriodGrades) Count() int {
	return len(g.P1) + len(g.P2) + len(g.P3) + len(g.P4)
}

// DecodeGrades parses a persisted grades document.
//
// NULL or empty input yields EmptyGrades without error. Missing period keys are
// filled in with empty sequences. A document of the wrong shape yields
// EmptyGrades together with ErrMalformedGrades so callers can keep rendering.
func DecodeGrades(raw []byte) (PeriodGrades, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return EmptyGrades(), nil
	}

	var grades PeriodGrades
	if err := json.Unmarshal(trimmed, &grades); err != nil {
		return EmptyGrades(), fmt.Errorf("%w: %v", ErrMalformedGrades, err)
	}

	return grades.Normalized(), nil
}

// EncodeGrades serializes grades in their persisted shape.
func EncodeGrades(g PeriodGrades) ([]byte, error) {
	return json.Marshal(g.Normalized())
}
