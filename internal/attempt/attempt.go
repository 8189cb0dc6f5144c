// Package attempt reconstructs practice sessions from the flat answer-record log.
//
// Records are grouped by a resolved key: the explicit attempt key stamped at
// submit time when present, otherwise the record's creation time truncated to
// the minute. Keys are epoch milliseconds in both cases, so recency is always a
// plain integer comparison.
package attempt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Key identifies one attempt. The zero Key means "no explicit key".
type Key int64

// Granularity is the truncation applied to CreatedAt when a record has no explicit key.
const Granularity = time.Minute

// Time returns the instant the key encodes.
func (k Key) Time() time.Time { return time.UnixMilli(int64(k)).UTC() }

// Window returns the half-open interval of creation times that resolve to k
// when no explicit key is set.
func (k Key) Window() (from, to time.Time) {
	from = k.Time()
	return from, from.Add(Granularity)
}

// MinuteAligned reports whether k could be a derived key.
func (k Key) MinuteAligned() bool { return int64(k)%Granularity.Milliseconds() == 0 }

func (k Key) String() string { return strconv.FormatInt(int64(k), 10) }

// ParseKey parses a key received as text (URL segment, CLI flag).
func ParseKey(s string) (Key, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid attempt key %q", s)
	}
	return Key(n), nil
}

// Record is one stored answer for one question. Records are immutable once stored.
type Record struct {
	ID          string          `json:"id,omitempty"`
	Teacher     string          `json:"teacher"`
	StudentName string          `json:"student_name"`
	QuestionID  int             `json:"question_id"`
	SBG         float64         `json:"sbg"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	Attempts    int             `json:"attempts"`
	Correct     bool            `json:"correct"`
	AttemptKey  Key             `json:"attempt_key,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ResolveKey returns the explicit key if set, otherwise CreatedAt truncated to the minute.
// Two submits in the same minute without explicit keys collide into one attempt.
func ResolveKey(r Record) Key {
	if r.AttemptKey > 0 {
		return r.AttemptKey
	}
	return Key(r.CreatedAt.UTC().Truncate(Granularity).UnixMilli())
}

// Attempt is one reconstructed practice session.
type Attempt struct {
	Key     Key      `json:"key"`
	Records []Record `json:"records"`
}

// GroupByAttempt partitions records by resolved key.
func GroupByAttempt(records []Record) map[Key][]Record {
	groups := make(map[Key][]Record)
	for _, r := range records {
		k := ResolveKey(r)
		groups[k] = append(groups[k], r)
	}
	return groups
}

// SortedKeys returns the group keys in ascending (oldest first) order.
func SortedKeys(groups map[Key][]Record) []Key {
	keys := make([]Key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Attempts returns every attempt in ascending key order.
func Attempts(records []Record) []Attempt {
	groups := GroupByAttempt(records)
	keys := SortedKeys(groups)
	out := make([]Attempt, 0, len(keys))
	for _, k := range keys {
		out = append(out, Attempt{Key: k, Records: groups[k]})
	}
	return out
}

// Latest returns the records of the attempt with the greatest key, or nil for no input.
func Latest(records []Record) []Record {
	if len(records) == 0 {
		return nil
	}
	groups := GroupByAttempt(records)
	keys := SortedKeys(groups)
	return groups[keys[len(keys)-1]]
}

// StudentQuestion keys LatestPerQuestion.
type StudentQuestion struct {
	Student    string
	QuestionID int
}

// LatestPerQuestion keeps, per student and question, the record with the greatest
// resolved key. This is the most recent touch of a question, which can belong to an
// older attempt than the student's latest submit; it is intentionally separate from Latest.
// On equal keys the first record seen wins.
func LatestPerQuestion(records []Record) map[StudentQuestion]Record {
	latest := make(map[StudentQuestion]Record)
	for _, r := range records {
		sq := StudentQuestion{Student: r.StudentName, QuestionID: r.QuestionID}
		cur, ok := latest[sq]
		if !ok || ResolveKey(r) > ResolveKey(cur) {
			latest[sq] = r
		}
	}
	return latest
}

// ForStudent filters records to one teacher/student pair.
func ForStudent(records []Record, teacher, student string) []Record {
	var out []Record
	for _, r := range records {
		if r.Teacher == teacher && r.StudentName == student {
			out = append(out, r)
		}
	}
	return out
}

// ByStudent partitions records by student name.
func ByStudent(records []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range records {
		out[r.StudentName] = append(out[r.StudentName], r)
	}
	return out
}
