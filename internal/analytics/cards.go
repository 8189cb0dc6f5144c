package analytics

import (
	"sort"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/mastery"
)

// QuestionCard is one question tile on the SBG question cards view.
type QuestionCard struct {
	QuestionID int             `json:"question_id"`
	Stat       ItemStat        `json:"stat"`
	Students   []StudentResult `json:"students"`
}

// SBGGroup holds the question cards sharing one SBG weight.
type SBGGroup struct {
	SBG       float64        `json:"sbg"`
	Questions []QuestionCard `json:"questions"`
}

// QuestionCards groups records by SBG weight then question id, both ascending.
func QuestionCards(records []attempt.Record) []SBGGroup {
	latest := attempt.LatestPerQuestion(records)

	bySBG := make(map[float64]map[int][]attempt.Record)
	for _, r := range records {
		qs, ok := bySBG[r.SBG]
		if !ok {
			qs = make(map[int][]attempt.Record)
			bySBG[r.SBG] = qs
		}
		qs[r.QuestionID] = append(qs[r.QuestionID], r)
	}

	weights := make([]float64, 0, len(bySBG))
	for w := range bySBG {
		weights = append(weights, w)
	}
	sort.Float64s(weights)

	out := make([]SBGGroup, 0, len(weights))
	for _, w := range weights {
		qs := bySBG[w]
		ids := make([]int, 0, len(qs))
		for id := range qs {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		g := SBGGroup{SBG: w}
		for _, id := range ids {
			qRecords := qs[id]
			var st ItemStat
			for _, r := range qRecords {
				st.add(r.Correct)
			}
			g.Questions = append(g.Questions, QuestionCard{
				QuestionID: id,
				Stat:       st,
				Students:   PerQuestionStudentBreakdown(qRecords, latest, id),
			})
		}
		out = append(out, g)
	}
	return out
}

// Tier buckets a per-item accuracy percentage.
type Tier string

const (
	TierAdvanced   Tier = "advanced"
	TierProficient Tier = "proficient"
	TierDeveloping Tier = "developing"
	TierBeginning  Tier = "beginning"
)

func TierOf(percent int) Tier {
	switch {
	case percent >= 90:
		return TierAdvanced
	case percent >= 80:
		return TierProficient
	case percent >= 60:
		return TierDeveloping
	default:
		return TierBeginning
	}
}

// StudentItem is one student's accuracy on one question across all attempts.
type StudentItem struct {
	QuestionID int     `json:"question_id"`
	SBG        float64 `json:"sbg"`
	ItemStat
	Tier Tier `json:"tier"`
}

// StudentItems returns per-question accuracy over every record of student,
// ordered by question id.
func StudentItems(records []attempt.Record, student string) []StudentItem {
	var mine []attempt.Record
	for _, r := range records {
		if r.StudentName == student {
			mine = append(mine, r)
		}
	}
	rows := ItemTable(mine)
	out := make([]StudentItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, StudentItem{
			QuestionID: row.QuestionID,
			SBG:        row.SBG,
			ItemStat:   row.ItemStat,
			Tier:       TierOf(row.Percent),
		})
	}
	return out
}

// StripItem is a single question result inside an attempt strip.
type StripItem struct {
	QuestionID int  `json:"question_id"`
	Correct    bool `json:"correct"`
}

// StripGroup is the set of one attempt's items sharing an SBG level.
type StripGroup struct {
	SBG   float64     `json:"sbg"`
	Level float64     `json:"level"`
	Items []StripItem `json:"items"`
}

// StripLevels are the discrete levels an attempt strip colors by.
var StripLevels = []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0}

// StripLevel maps an SBG value to the first strip level at or above it.
func StripLevel(sbg float64) float64 {
	for _, l := range StripLevels[:len(StripLevels)-1] {
		if sbg <= l {
			return l
		}
	}
	return StripLevels[len(StripLevels)-1]
}

// AttemptStrip lays out one attempt's records grouped by SBG (one decimal),
// each group sorted by question id.
func AttemptStrip(records []attempt.Record) []StripGroup {
	sorted := append([]attempt.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SBG != sorted[j].SBG {
			return sorted[i].SBG < sorted[j].SBG
		}
		return sorted[i].QuestionID < sorted[j].QuestionID
	})

	var out []StripGroup
	for _, r := range sorted {
		sbg := mastery.Round1(r.SBG)
		if n := len(out); n == 0 || out[n-1].SBG != sbg {
			out = append(out, StripGroup{SBG: sbg, Level: StripLevel(sbg)})
		}
		g := &out[len(out)-1]
		g.Items = append(g.Items, StripItem{QuestionID: r.QuestionID, Correct: r.Correct})
	}
	return out
}
