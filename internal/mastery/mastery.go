// Package mastery derives a student's standards-based grading (SBG) level.
package mastery

import (
	"math"

	"github.com/mind-engage/triangle-practice/internal/attempt"
)

// Compute returns the student's current SBG level: the mean SBG weight of the
// correct records in the latest attempt, rounded to one decimal place. A latest
// attempt with no correct records (or no records at all) yields 0.
//
// Only the latest attempt counts; earlier attempts never raise or lower the level.
func Compute(recordsForStudent []attempt.Record) float64 {
	latest := attempt.Latest(recordsForStudent)
	sum, n := 0.0, 0
	for _, r := range latest {
		if !r.Correct {
			continue
		}
		sum += r.SBG
		n++
	}
	if n == 0 {
		return 0
	}
	return Round1(sum / float64(n))
}

// ByStudent computes the level of every student present in records.
func ByStudent(records []attempt.Record) map[string]float64 {
	out := make(map[string]float64)
	for name, rs := range attempt.ByStudent(records) {
		out[name] = Compute(rs)
	}
	return out
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
