// Package session holds one student's in-progress practice state and the
// reducer that applies their intents to it.
package session

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/catalog"
)

var (
	ErrIdentity        = errors.New("teacher and student are required")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrOutOfRange      = errors.New("question index out of range")
	ErrFinished        = errors.New("practice already submitted; start a new attempt")
	ErrUnknownIntent   = errors.New("unknown intent")
)

// Identity replaces any notion of a global "current student".
type Identity struct {
	Teacher string `json:"teacher"`
	Student string `json:"student"`
}

func (id Identity) Valid() bool { return id.Teacher != "" && id.Student != "" }

type QuestionState struct {
	Answer   json.RawMessage `json:"answer,omitempty"`
	Attempts int             `json:"attempts"`
	Checked  bool            `json:"checked"`
	Correct  bool            `json:"correct"`
}

func (q QuestionState) Answered() bool { return len(q.Answer) > 0 }

// State is keyed by question id. Order is the catalog display order and is
// only used for navigation.
type State struct {
	Identity  Identity
	Order     []int
	Current   int
	Questions map[int]*QuestionState
	Finished  bool
}

func newState(id Identity, cat *catalog.Catalog) *State {
	s := &State{
		Identity:  id,
		Order:     cat.IDs(),
		Questions: make(map[int]*QuestionState, cat.Len()),
	}
	for _, qid := range s.Order {
		s.Questions[qid] = &QuestionState{}
	}
	return s
}

// Clone returns a deep copy, so an intent can be applied tentatively.
func (s *State) Clone() *State {
	c := *s
	c.Order = append([]int(nil), s.Order...)
	c.Questions = make(map[int]*QuestionState, len(s.Questions))
	for id, q := range s.Questions {
		cq := *q
		cq.Answer = append(json.RawMessage(nil), q.Answer...)
		c.Questions[id] = &cq
	}
	return &c
}

func (s *State) reset() {
	for _, q := range s.Questions {
		*q = QuestionState{}
	}
	s.Current = 0
	s.Finished = false
}

// CurrentID is the question id at the navigation cursor.
func (s *State) CurrentID() int {
	if len(s.Order) == 0 {
		return 0
	}
	return s.Order[s.Current]
}

// hydrate restores answers from the latest attempt in records. Within the
// attempt, later records win.
func (s *State) hydrate(records []attempt.Record) {
	latest := attempt.Latest(records)
	sort.SliceStable(latest, func(i, j int) bool { return latest[i].CreatedAt.Before(latest[j].CreatedAt) })
	for _, r := range latest {
		q, ok := s.Questions[r.QuestionID]
		if !ok {
			continue
		}
		q.Answer = nil
		if len(r.Answer) > 0 && string(r.Answer) != "null" {
			q.Answer = append(json.RawMessage(nil), r.Answer...)
		}
		q.Correct = r.Correct
		q.Checked = true
		q.Attempts = r.Attempts
		if q.Attempts < 1 {
			q.Attempts = 1
		}
	}
}

// QuestionView is one navigator entry.
type QuestionView struct {
	ID int `json:"id"`
	QuestionState
}

// View is the read model handed to clients.
type View struct {
	Identity
	Current    int            `json:"current"`
	QuestionID int            `json:"question_id"`
	Answered   int            `json:"answered"`
	Total      int            `json:"total"`
	Finished   bool           `json:"finished"`
	Questions  []QuestionView `json:"questions"`
}

func (s *State) View() View {
	v := View{
		Identity:   s.Identity,
		Current:    s.Current,
		QuestionID: s.CurrentID(),
		Total:      len(s.Order),
		Finished:   s.Finished,
		Questions:  make([]QuestionView, 0, len(s.Order)),
	}
	for _, qid := range s.Order {
		q := *s.Questions[qid]
		if q.Answered() {
			v.Answered++
		}
		v.Questions = append(v.Questions, QuestionView{ID: qid, QuestionState: q})
	}
	return v
}
