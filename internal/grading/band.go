package grading

// Band groups averages for report distributions.
type Band string

const (
	BandExcellent  Band = "excellent"
	BandGood       Band = "good"
	BandAcceptable Band = "acceptable"
	BandLow        Band = "low"
)

// Bands lists every band from best to worst.
var Bands = []Band{BandExcellent, BandGood, BandAcceptable, BandLow}

// SupportThreshold is the overall average below which a student needs support.
const SupportThreshold = 3.0

// BandFor classifies a rounded average.
func BandFor(avg float64) Band {
	switch {
	case avg >= 4.5:
		return BandExcellent
	case avg >= 3.5:
		return BandGood
	case avg >= SupportThreshold:
		return BandAcceptable
	default:
		return BandLow
	}
}
