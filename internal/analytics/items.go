// Package analytics reduces answer records into the numbers the teacher
// dashboard shows. Every function is pure and tolerates empty input.
package analytics

import (
	"math"
	"sort"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/mastery"
)

// ItemStat is the raw correctness count for one question.
type ItemStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

func (s *ItemStat) add(correct bool) {
	s.Total++
	if correct {
		s.Correct++
	}
	s.Percent = Percent(s.Correct, s.Total)
}

// Percent returns round(100*part/whole) clamped to [0,100]; zero when whole is zero.
func Percent(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(part) / float64(whole)))
	if p > 100 {
		return 100
	}
	return p
}

// ItemAccuracy counts correct vs. total records per question across every
// record given, including non-latest attempts.
func ItemAccuracy(records []attempt.Record) map[int]ItemStat {
	out := make(map[int]ItemStat)
	for _, r := range records {
		s := out[r.QuestionID]
		s.add(r.Correct)
		out[r.QuestionID] = s
	}
	return out
}

// ItemRow is one line of the item analysis table.
type ItemRow struct {
	QuestionID int     `json:"question_id"`
	SBG        float64 `json:"sbg"`
	ItemStat
}

// ItemTable returns ItemAccuracy as rows ordered by question id.
func ItemTable(records []attempt.Record) []ItemRow {
	stats := ItemAccuracy(records)
	sbg := make(map[int]float64, len(stats))
	for _, r := range records {
		if _, ok := sbg[r.QuestionID]; !ok {
			sbg[r.QuestionID] = r.SBG
		}
	}
	rows := make([]ItemRow, 0, len(stats))
	for qid, s := range stats {
		rows = append(rows, ItemRow{QuestionID: qid, SBG: sbg[qid], ItemStat: s})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].QuestionID < rows[j].QuestionID })
	return rows
}

// BandDistribution counts students per mastery band. All four bands are
// always present, possibly with zero.
func BandDistribution(levels map[string]float64) map[mastery.Band]int {
	out := make(map[mastery.Band]int, len(mastery.Bands))
	for _, b := range mastery.Bands {
		out[b] = 0
	}
	for _, lvl := range levels {
		out[mastery.BandOf(lvl)]++
	}
	return out
}

// StudentResult is one student's latest correctness on a question.
type StudentResult struct {
	Student string `json:"student"`
	Correct bool   `json:"correct"`
}

// PerQuestionStudentBreakdown lists, for every student present in records
// who answered questionID, the correctness of their latest record for it.
// Results are sorted by student name.
func PerQuestionStudentBreakdown(records []attempt.Record, latest map[attempt.StudentQuestion]attempt.Record, questionID int) []StudentResult {
	seen := make(map[string]struct{})
	var out []StudentResult
	for _, r := range records {
		if _, dup := seen[r.StudentName]; dup {
			continue
		}
		seen[r.StudentName] = struct{}{}
		l, ok := latest[attempt.StudentQuestion{Student: r.StudentName, QuestionID: questionID}]
		if !ok {
			continue
		}
		out = append(out, StudentResult{Student: r.StudentName, Correct: l.Correct})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Student < out[j].Student })
	return out
}
