package session

import (
	"encoding/json"
	"fmt"

	"github.com/mind-engage/triangle-practice/internal/analytics"
	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/catalog"
	"github.com/mind-engage/triangle-practice/internal/grading"
)

const (
	MsgCorrect  = "Correct!"
	MsgTryAgain = "Try again."
	MsgSaved    = "Progress saved."
)

type Feedback struct {
	QuestionID int    `json:"question_id"`
	Correct    bool   `json:"correct"`
	Message    string `json:"message"`
}

// Grade is one grading call made while applying an intent.
type Grade struct {
	QuestionID int          `json:"question_id"`
	Type       catalog.Type `json:"type"`
	Correct    bool         `json:"correct"`
}

type SummaryItem struct {
	Position   int     `json:"position"`
	QuestionID int     `json:"question_id"`
	SBG        float64 `json:"sbg"`
	Correct    bool    `json:"correct"`
}

type Summary struct {
	Correct int           `json:"correct"`
	Total   int           `json:"total"`
	Percent int           `json:"percent"`
	Items   []SummaryItem `json:"items"`
}

// Outcome is everything an intent produced besides the state change.
// Records must be appended to the store by the caller.
type Outcome struct {
	Intent   string           `json:"intent"`
	Records  []attempt.Record `json:"records,omitempty"`
	Grades   []Grade          `json:"-"`
	Feedback *Feedback        `json:"feedback,omitempty"`
	Hint     string           `json:"hint,omitempty"`
	Message  string           `json:"message,omitempty"`
	Summary  *Summary         `json:"summary,omitempty"`
}

type Reducer struct {
	cat    *catalog.Catalog
	grader *grading.Engine
	clock  *attempt.Clock
}

// NewReducer wires the reducer; nil arguments fall back to the built-in
// catalog, default grading engine and wall clock.
func NewReducer(cat *catalog.Catalog, grader *grading.Engine, clock *attempt.Clock) *Reducer {
	if cat == nil {
		cat = catalog.Default()
	}
	if grader == nil {
		grader = grading.New()
	}
	if clock == nil {
		clock = attempt.NewClock(nil)
	}
	return &Reducer{cat: cat, grader: grader, clock: clock}
}

func (r *Reducer) Catalog() *catalog.Catalog { return r.cat }

// New returns a blank session.
func (r *Reducer) New(id Identity) (*State, error) {
	if !id.Valid() {
		return nil, ErrIdentity
	}
	return newState(id, r.cat), nil
}

// Hydrate returns a session restored from the student's latest attempt.
func (r *Reducer) Hydrate(id Identity, records []attempt.Record) (*State, error) {
	s, err := r.New(id)
	if err != nil {
		return nil, err
	}
	s.hydrate(attempt.ForStudent(records, id.Teacher, id.Student))
	return s, nil
}

// Apply runs one intent against s.
func (r *Reducer) Apply(s *State, in Intent) (Outcome, error) {
	out := Outcome{Intent: in.Name()}
	if s.Finished {
		switch in.(type) {
		case StartNewAttempt, NavigateTo, RequestHint:
		default:
			return out, ErrFinished
		}
	}

	switch v := in.(type) {
	case RecordDraft:
		if _, err := r.question(s, v.QuestionID); err != nil {
			return out, err
		}
		r.draft(s, v.QuestionID, v.Answer)

	case CheckAnswer:
		qid := v.QuestionID
		if qid == 0 {
			qid = s.CurrentID()
		}
		q, err := r.question(s, qid)
		if err != nil {
			return out, err
		}
		r.draft(s, qid, v.Answer)
		g := r.evaluate(s, q)
		out.Grades = append(out.Grades, g)
		out.Feedback = &Feedback{QuestionID: qid, Correct: g.Correct, Message: MsgTryAgain}
		if g.Correct {
			out.Feedback.Message = MsgCorrect
		}
		out.Records = []attempt.Record{r.record(s, q, 0)}

	case NavigateTo:
		if v.Index < 0 || v.Index >= len(s.Order) {
			return out, fmt.Errorf("%w: %d", ErrOutOfRange, v.Index)
		}
		if !s.Finished {
			r.draft(s, s.CurrentID(), v.Answer)
		}
		s.Current = v.Index

	case RequestHint:
		qid := v.QuestionID
		if qid == 0 {
			qid = s.CurrentID()
		}
		q, err := r.question(s, qid)
		if err != nil {
			return out, err
		}
		out.Hint = q.Hint

	case SaveProgress:
		key := r.clock.Next()
		out.Records = r.all(s, key)
		out.Message = MsgSaved

	case FinishPractice:
		for _, qid := range s.Order {
			if !s.Questions[qid].Answered() {
				continue
			}
			q, _ := r.cat.Get(qid)
			out.Grades = append(out.Grades, r.evaluate(s, q))
		}
		key := r.clock.Next()
		out.Records = r.all(s, key)
		out.Summary = r.summary(s)
		s.Finished = true

	case StartNewAttempt:
		s.reset()

	default:
		return out, fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
	return out, nil
}

func (r *Reducer) question(s *State, qid int) (catalog.Question, error) {
	q, ok := r.cat.Get(qid)
	if _, tracked := s.Questions[qid]; !ok || !tracked {
		return catalog.Question{}, fmt.Errorf("%w: %d", ErrUnknownQuestion, qid)
	}
	return q, nil
}

// draft keeps an answer only when something was filled in; otherwise the
// previous answer stays.
func (r *Reducer) draft(s *State, qid int, answer json.RawMessage) {
	st, ok := s.Questions[qid]
	if !ok {
		return
	}
	q, _ := r.cat.Get(qid)
	if !grading.Answered(q, answer) {
		return
	}
	st.Answer = append(json.RawMessage(nil), answer...)
}

// evaluate grades the stored answer and updates attempts and correctness.
func (r *Reducer) evaluate(s *State, q catalog.Question) Grade {
	st := s.Questions[q.ID]
	ok := r.grader.Grade(q, st.Answer)
	st.Attempts++
	st.Correct = ok
	st.Checked = true
	return Grade{QuestionID: q.ID, Type: q.Type, Correct: ok}
}

func (r *Reducer) record(s *State, q catalog.Question, key attempt.Key) attempt.Record {
	st := s.Questions[q.ID]
	ans := json.RawMessage("null")
	if st.Answered() {
		ans = append(json.RawMessage(nil), st.Answer...)
	}
	return attempt.Record{
		Teacher:     s.Identity.Teacher,
		StudentName: s.Identity.Student,
		QuestionID:  q.ID,
		SBG:         q.SBG,
		Answer:      ans,
		Attempts:    st.Attempts,
		Correct:     st.Correct,
		AttemptKey:  key,
		CreatedAt:   r.clock.Now().UTC(),
	}
}

func (r *Reducer) all(s *State, key attempt.Key) []attempt.Record {
	out := make([]attempt.Record, 0, len(s.Order))
	for _, qid := range s.Order {
		q, _ := r.cat.Get(qid)
		out = append(out, r.record(s, q, key))
	}
	return out
}

func (r *Reducer) summary(s *State) *Summary {
	sum := &Summary{Total: len(s.Order)}
	for i, qid := range s.Order {
		q, _ := r.cat.Get(qid)
		st := s.Questions[qid]
		if st.Correct {
			sum.Correct++
		}
		sum.Items = append(sum.Items, SummaryItem{Position: i + 1, QuestionID: qid, SBG: q.SBG, Correct: st.Correct})
	}
	sum.Percent = analytics.Percent(sum.Correct, sum.Total)
	return sum
}
