package grading

import (
	"encoding/json"

	"github.com/mind-engage/triangle-practice/internal/catalog"
)

// Strategy grades one question type. Implementations must not panic on
// malformed payloads; anything they cannot read is simply incorrect.
type Strategy interface {
	Grade(q catalog.Question, payload json.RawMessage) bool
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(q catalog.Question, payload json.RawMessage) bool

func (f StrategyFunc) Grade(q catalog.Question, payload json.RawMessage) bool { return f(q, payload) }

// Engine routes by question type to the matching Strategy.
type Engine struct {
	strategies map[catalog.Type]Strategy
	fallback   Strategy
}

type Option func(*options)

type options struct {
	commutative map[int][]string
	overrides   map[catalog.Type]Strategy
}

// DefaultCommutative lists questions whose blanks accept any assignment order.
var DefaultCommutative = map[int][]string{11: {"a", "b"}}

// WithCommutativeBlanks replaces the commutative-blank table. Each entry names
// the blank ids of a question whose answers may be given in any order.
func WithCommutativeBlanks(table map[int][]string) Option {
	return func(o *options) { o.commutative = table }
}

// WithStrategy installs or replaces the strategy for one type.
func WithStrategy(t catalog.Type, s Strategy) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = map[catalog.Type]Strategy{}
		}
		o.overrides[t] = s
	}
}

// New installs the built-in strategies.
func New(opts ...Option) *Engine {
	o := &options{commutative: DefaultCommutative}
	for _, fn := range opts {
		fn(o)
	}
	blanks := blankStrategy{commutative: o.commutative}
	e := &Engine{
		strategies: map[catalog.Type]Strategy{
			catalog.SingleChoice:    exactStrategy{},
			catalog.ImageChoice:     exactStrategy{},
			catalog.MultiSelect:     multiSelectStrategy{},
			catalog.TrueFalseMatrix: matrixStrategy{},
			catalog.FillInBlank:     blanks,
			catalog.FillInSentence:  blanks,
		},
		fallback: exactStrategy{},
	}
	for t, s := range o.overrides {
		e.strategies[t] = s
	}
	return e
}

// Grade reports whether payload is a correct answer to q. It is pure.
func (e *Engine) Grade(q catalog.Question, payload json.RawMessage) bool {
	if s, ok := e.strategies[q.Type]; ok {
		return s.Grade(q, payload)
	}
	return e.fallback.Grade(q, payload)
}

// --- Strategies ---

type exactStrategy struct{}

func (exactStrategy) Grade(q catalog.Question, payload json.RawMessage) bool {
	if len(payload) == 0 {
		return false
	}
	return scalar(payload) == q.Correct
}

type multiSelectStrategy struct{}

func (multiSelectStrategy) Grade(q catalog.Question, payload json.RawMessage) bool {
	checked, ok := checkedSet(payload)
	if !ok || len(q.Options) == 0 {
		return false
	}
	for _, opt := range q.Options {
		if checked[opt.ID] != opt.Correct {
			return false
		}
	}
	// ids that are not options at all also count as wrong selections
	for id, on := range checked {
		if on && !hasOption(q, id) {
			return false
		}
	}
	return true
}

type matrixStrategy struct{}

func (matrixStrategy) Grade(q catalog.Question, payload json.RawMessage) bool {
	var sel map[string]string
	if err := json.Unmarshal(payload, &sel); err != nil || len(q.Statements) == 0 {
		return false
	}
	for _, s := range q.Statements {
		v, ok := sel[s.ID]
		if !ok || v != s.Correct {
			return false
		}
	}
	return true
}

type blankStrategy struct {
	commutative map[int][]string
}

func (s blankStrategy) Grade(q catalog.Question, payload json.RawMessage) bool {
	given, ok := blankValues(payload)
	if !ok || len(q.Blanks) == 0 {
		return false
	}
	group := toSet(s.commutative[q.ID])

	var want, got []string
	for _, b := range q.Blanks {
		v := trim(given[b.ID])
		if _, free := group[b.ID]; free {
			want = append(want, b.Correct)
			got = append(got, v)
			continue
		}
		if v != b.Correct {
			return false
		}
	}
	return sameMultiset(want, got)
}
