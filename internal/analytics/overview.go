package analytics

import (
	"sort"
	"time"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/mastery"
)

// LevelShare is how many students sit at one exact mastery level.
type LevelShare struct {
	Level   float64 `json:"level"`
	Count   int     `json:"count"`
	Percent int     `json:"percent"`
}

// OverviewStats is the class-level summary for one teacher's records.
type OverviewStats struct {
	Students int                  `json:"students"`
	Attempts int                  `json:"attempts"`
	Accuracy int                  `json:"accuracy"`
	Bands    map[mastery.Band]int `json:"bands"`
	Levels   []LevelShare         `json:"levels"`
	Mastery  map[string]float64   `json:"mastery"`
}

// Overview summarizes records, which are expected to belong to a single teacher.
// Attempts counts distinct (student, resolved key) pairs.
func Overview(records []attempt.Record) OverviewStats {
	type pair struct {
		student string
		key     attempt.Key
	}
	attempts := make(map[pair]struct{})
	correct := 0
	for _, r := range records {
		attempts[pair{r.StudentName, attempt.ResolveKey(r)}] = struct{}{}
		if r.Correct {
			correct++
		}
	}

	levels := mastery.ByStudent(records)
	return OverviewStats{
		Students: len(levels),
		Attempts: len(attempts),
		Accuracy: Percent(correct, len(records)),
		Bands:    BandDistribution(levels),
		Levels:   LevelDistribution(levels),
		Mastery:  levels,
	}
}

// LevelDistribution groups students by exact mastery level, ascending.
func LevelDistribution(levels map[string]float64) []LevelShare {
	counts := make(map[float64]int)
	for _, l := range levels {
		counts[l]++
	}
	out := make([]LevelShare, 0, len(counts))
	for l, n := range counts {
		out = append(out, LevelShare{Level: l, Count: n, Percent: Percent(n, len(levels))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// StudentRow is one line of the class roster table.
type StudentRow struct {
	Student    string       `json:"student"`
	Attempts   int          `json:"attempts"`
	Mastery    float64      `json:"mastery"`
	Band       mastery.Band `json:"band"`
	LastActive time.Time    `json:"last_active"`
}

// StudentRows returns one row per student found in records, ordered by name.
func StudentRows(records []attempt.Record) []StudentRow {
	by := attempt.ByStudent(records)
	out := make([]StudentRow, 0, len(by))
	for name, recs := range by {
		row := StudentRow{
			Student:  name,
			Attempts: len(attempt.GroupByAttempt(recs)),
			Mastery:  mastery.Compute(recs),
		}
		row.Band = mastery.BandOf(row.Mastery)
		for _, r := range recs {
			if r.CreatedAt.After(row.LastActive) {
				row.LastActive = r.CreatedAt
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Student < out[j].Student })
	return out
}
