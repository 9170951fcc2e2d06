package grading

import "math"

// roundingTolerance absorbs binary representation error so that decimal
// midpoints such as 3.455 round up as they would on paper.
const roundingTolerance = 1e-9

// Round2 rounds v to two decimals, half-up.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5+roundingTolerance) / 100
}

// Average returns the mean entry value rounded with Round2. The boolean is
// false when entries is empty: no average, not zero.
func Average(entries []ScoredEntry) (float64, bool) {
	mean, ok := meanOf(entries)
	if !ok {
		return 0, false
	}
	return Round2(mean), true
}

// OverallAverage averages every entry of every period with equal weight.
// Empty periods contribute nothing.
func OverallAverage(g PeriodGrades) (float64, bool) {
	return Average(g.All())
}

// PeriodAverage is the rounded average of one period, nil when the period is empty.
type PeriodAverage struct {
	Period  Period   `json:"period"`
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

// PeriodAverages reports the average of each period in cycle order.
func PeriodAverages(g PeriodGrades) []PeriodAverage {
	result := make([]PeriodAverage, 0, len(Periods))
	for _, p := range Periods {
		entries := g.Entries(p)
		result = append(result, PeriodAverage{
			Period:  p,
			Average: AveragePtr(entries),
			Count:   len(entries),
		})
	}
	return result
}

// AveragePtr is Average with the absent case mapped to nil, for JSON payloads.
func AveragePtr(entries []ScoredEntry) *float64 {
	avg, ok := Average(entries)
	if !ok {
		return nil
	}
	return &avg
}

func meanOf(entries []ScoredEntry) (float64, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	var sum float64
	for _, entry := range entries {
		sum += entry.Value
	}
	return sum / float64(len(entries)), true
}
