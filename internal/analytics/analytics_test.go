package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/triangle-practice/internal/analytics"
	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/mastery"
)

var base = time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC)

func rec(student string, qid int, sbg float64, correct bool, key attempt.Key) attempt.Record {
	return attempt.Record{
		Teacher:     "Clark",
		StudentName: student,
		QuestionID:  qid,
		SBG:         sbg,
		Correct:     correct,
		AttemptKey:  key,
		CreatedAt:   base,
	}
}

func TestItemAccuracy(t *testing.T) {
	assert.Empty(t, analytics.ItemAccuracy(nil))

	records := []attempt.Record{
		rec("X", 1, 0.5, true, 10),
		rec("X", 1, 0.5, false, 20),
		rec("Y", 1, 0.5, true, 10),
		rec("Y", 2, 0.5, false, 10),
	}
	got := analytics.ItemAccuracy(records)
	assert.Equal(t, analytics.ItemStat{Correct: 2, Total: 3, Percent: 67}, got[1])
	assert.Equal(t, analytics.ItemStat{Correct: 0, Total: 1, Percent: 0}, got[2])
}

func TestPercent_Bounds(t *testing.T) {
	assert.Equal(t, 0, analytics.Percent(0, 0))
	assert.Equal(t, 0, analytics.Percent(3, 0))
	assert.Equal(t, 100, analytics.Percent(5, 5))
	assert.Equal(t, 100, analytics.Percent(7, 5))
	assert.Equal(t, 50, analytics.Percent(1, 2))
	assert.Equal(t, 33, analytics.Percent(1, 3))
	for whole := 1; whole <= 12; whole++ {
		for part := 0; part <= whole; part++ {
			p := analytics.Percent(part, whole)
			assert.GreaterOrEqual(t, p, 0)
			assert.LessOrEqual(t, p, 100)
		}
	}
}

func TestItemTable_Sorted(t *testing.T) {
	rows := analytics.ItemTable([]attempt.Record{
		rec("X", 9, 1.0, true, 1),
		rec("X", 2, 0.5, true, 1),
		rec("X", 5, 0.5, false, 1),
	})
	require.Len(t, rows, 3)
	assert.Equal(t, []int{2, 5, 9}, []int{rows[0].QuestionID, rows[1].QuestionID, rows[2].QuestionID})
	assert.Equal(t, 1.0, rows[2].SBG)
}

func TestBandDistribution(t *testing.T) {
	got := analytics.BandDistribution(nil)
	assert.Len(t, got, 4)
	for _, b := range mastery.Bands {
		assert.Equal(t, 0, got[b])
	}

	got = analytics.BandDistribution(map[string]float64{
		"a": 0.0, "b": 0.5, "c": 1.5, "d": 2.5, "e": 2.7, "f": 3.0,
	})
	assert.Equal(t, 2, got[mastery.BandBeginning])
	assert.Equal(t, 1, got[mastery.BandDeveloping])
	assert.Equal(t, 1, got[mastery.BandProficient])
	assert.Equal(t, 2, got[mastery.BandMastered])
}

func TestPerQuestionStudentBreakdown(t *testing.T) {
	records := []attempt.Record{
		rec("Zed", 1, 1.0, true, 100),
		rec("Zed", 1, 1.0, false, 200),
		rec("Amy", 1, 1.0, true, 50),
		rec("Bob", 2, 0.5, true, 50),
	}
	latest := attempt.LatestPerQuestion(records)
	got := analytics.PerQuestionStudentBreakdown(records, latest, 1)
	assert.Equal(t, []analytics.StudentResult{
		{Student: "Amy", Correct: true},
		{Student: "Zed", Correct: false},
	}, got)
}

func TestOverview(t *testing.T) {
	empty := analytics.Overview(nil)
	assert.Zero(t, empty.Students)
	assert.Zero(t, empty.Attempts)
	assert.Zero(t, empty.Accuracy)
	assert.Len(t, empty.Bands, 4)

	records := []attempt.Record{
		rec("X", 1, 1.0, true, 100),
		rec("X", 2, 2.0, true, 100),
		rec("X", 1, 1.0, false, 200),
		rec("Y", 1, 1.0, true, 100),
	}
	got := analytics.Overview(records)
	assert.Equal(t, 2, got.Students)
	assert.Equal(t, 3, got.Attempts, "X has two attempts, Y one under a shared key")
	assert.Equal(t, 75, got.Accuracy)
	assert.Equal(t, map[string]float64{"X": 0, "Y": 1.0}, got.Mastery)
	assert.Equal(t, 1, got.Bands[mastery.BandBeginning])
	assert.Equal(t, 1, got.Bands[mastery.BandDeveloping])
	assert.Equal(t, []analytics.LevelShare{
		{Level: 0, Count: 1, Percent: 50},
		{Level: 1.0, Count: 1, Percent: 50},
	}, got.Levels)
}

func TestQuestionCards(t *testing.T) {
	records := []attempt.Record{
		rec("Bob", 7, 1.0, false, 10),
		rec("Amy", 7, 1.0, true, 10),
		rec("Amy", 1, 0.5, true, 10),
		rec("Amy", 6, 1.0, false, 10),
		rec("Amy", 6, 1.0, true, 20),
	}
	groups := analytics.QuestionCards(records)
	require.Len(t, groups, 2)
	assert.Equal(t, 0.5, groups[0].SBG)
	assert.Equal(t, 1.0, groups[1].SBG)

	qs := groups[1].Questions
	require.Len(t, qs, 2)
	assert.Equal(t, 6, qs[0].QuestionID)
	assert.Equal(t, analytics.ItemStat{Correct: 1, Total: 2, Percent: 50}, qs[0].Stat)
	assert.Equal(t, []analytics.StudentResult{{Student: "Amy", Correct: true}}, qs[0].Students)

	assert.Equal(t, 7, qs[1].QuestionID)
	assert.Equal(t, []analytics.StudentResult{
		{Student: "Amy", Correct: true},
		{Student: "Bob", Correct: false},
	}, qs[1].Students)
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, analytics.TierAdvanced, analytics.TierOf(100))
	assert.Equal(t, analytics.TierAdvanced, analytics.TierOf(90))
	assert.Equal(t, analytics.TierProficient, analytics.TierOf(89))
	assert.Equal(t, analytics.TierProficient, analytics.TierOf(80))
	assert.Equal(t, analytics.TierDeveloping, analytics.TierOf(60))
	assert.Equal(t, analytics.TierBeginning, analytics.TierOf(59))
	assert.Equal(t, analytics.TierBeginning, analytics.TierOf(0))
}

func TestStudentItems(t *testing.T) {
	records := []attempt.Record{
		rec("X", 3, 0.5, true, 10),
		rec("X", 3, 0.5, true, 20),
		rec("X", 1, 0.5, false, 10),
		rec("Y", 1, 0.5, true, 10),
	}
	got := analytics.StudentItems(records, "X")
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].QuestionID)
	assert.Equal(t, analytics.TierBeginning, got[0].Tier)
	assert.Equal(t, 3, got[1].QuestionID)
	assert.Equal(t, 100, got[1].Percent)
	assert.Equal(t, analytics.TierAdvanced, got[1].Tier)

	assert.Empty(t, analytics.StudentItems(records, "nobody"))
}

func TestStripLevel(t *testing.T) {
	cases := map[float64]float64{0.0: 0.5, 0.5: 0.5, 0.8: 1.0, 1.0: 1.0, 1.5: 1.5, 2.0: 2.0, 2.5: 2.5, 2.7: 3.0, 3.0: 3.0}
	for in, want := range cases {
		assert.Equal(t, want, analytics.StripLevel(in), "sbg %.1f", in)
	}
}

func TestAttemptStrip(t *testing.T) {
	assert.Empty(t, analytics.AttemptStrip(nil))

	records := []attempt.Record{
		rec("X", 21, 2.5, false, 10),
		rec("X", 6, 1.0, true, 10),
		rec("X", 1, 0.5, true, 10),
		rec("X", 7, 1.0, false, 10),
	}
	got := analytics.AttemptStrip(records)
	require.Len(t, got, 3)
	assert.Equal(t, 0.5, got[0].SBG)
	assert.Equal(t, 1.0, got[1].SBG)
	assert.Equal(t, []analytics.StripItem{{QuestionID: 6, Correct: true}, {QuestionID: 7, Correct: false}}, got[1].Items)
	assert.Equal(t, 2.5, got[2].Level)

	// input is not reordered in place
	assert.Equal(t, 21, records[0].QuestionID)
}

func TestStudentRows(t *testing.T) {
	assert.Empty(t, analytics.StudentRows(nil))

	late := rec("Y", 2, 3.0, true, 30)
	late.CreatedAt = base.Add(time.Hour)
	rows := analytics.StudentRows([]attempt.Record{
		rec("Y", 1, 1.0, true, 10),
		late,
		rec("X", 1, 1.0, true, 10),
		rec("X", 2, 2.0, false, 10),
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "X", rows[0].Student)
	assert.Equal(t, 1, rows[0].Attempts)
	assert.Equal(t, 1.0, rows[0].Mastery)
	assert.Equal(t, mastery.BandDeveloping, rows[0].Band)

	assert.Equal(t, 2, rows[1].Attempts)
	assert.Equal(t, 3.0, rows[1].Mastery, "latest attempt only")
	assert.Equal(t, mastery.BandMastered, rows[1].Band)
	assert.True(t, rows[1].LastActive.Equal(base.Add(time.Hour)))
}
