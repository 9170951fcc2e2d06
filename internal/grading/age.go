package grading

import "time"

// AgeAt returns the number of completed years between birth and now. A birth
// date in the future yields zero.
func AgeAt(birth, now time.Time) int {
	if birth.IsZero() {
		return 0
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
