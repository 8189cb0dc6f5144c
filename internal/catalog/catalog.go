// Package catalog holds the static question catalog. It is loaded once and
// never changes for the lifetime of the process.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Type tags a question's answer shape. Grading dispatches on it.
type Type string

const (
	SingleChoice    Type = "single-choice"
	MultiSelect     Type = "multi-select"
	TrueFalseMatrix Type = "true-false-matrix"
	FillInBlank     Type = "fill-in-blank"
	FillInSentence  Type = "fill-in-sentence"
	ImageChoice     Type = "image-choice"
)

type Choice struct {
	ID    string `json:"id"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// Statement is one row of a true/false matrix; Correct is "T" or "F".
type Statement struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct string `json:"correct,omitempty"`
}

type Blank struct {
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	LabelAfter string `json:"label_after,omitempty"`
	Correct    string `json:"correct,omitempty"`
}

type Question struct {
	ID         int         `json:"id"`
	SBG        float64     `json:"sbg"`
	Type       Type        `json:"type"`
	Text       string      `json:"text,omitempty"`
	TextParts  []string    `json:"text_parts,omitempty"`
	Image      string      `json:"image,omitempty"`
	Hint       string      `json:"hint,omitempty"`
	Choices    []Choice    `json:"choices,omitempty"`
	Options    []Option    `json:"options,omitempty"`
	Statements []Statement `json:"statements,omitempty"`
	Blanks     []Blank     `json:"blanks,omitempty"`
	Correct    string      `json:"correct,omitempty"`
}

// Public returns a copy with every answer key removed, safe to send to students.
func (q Question) Public() Question {
	p := q
	p.Correct = ""
	p.Options = make([]Option, len(q.Options))
	for i, o := range q.Options {
		o.Correct = false
		p.Options[i] = o
	}
	p.Statements = make([]Statement, len(q.Statements))
	for i, s := range q.Statements {
		s.Correct = ""
		p.Statements[i] = s
	}
	p.Blanks = make([]Blank, len(q.Blanks))
	for i, b := range q.Blanks {
		b.Correct = ""
		p.Blanks[i] = b
	}
	return p
}

// Catalog is an ordered, id-indexed set of questions.
type Catalog struct {
	order []int
	byID  map[int]Question
}

// New builds a catalog. Display order follows the slice order; ids must be unique and positive.
func New(questions []Question) (*Catalog, error) {
	c := &Catalog{byID: make(map[int]Question, len(questions))}
	for _, q := range questions {
		if q.ID <= 0 {
			return nil, fmt.Errorf("catalog: question id %d must be positive", q.ID)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate question id %d", q.ID)
		}
		c.byID[q.ID] = q
		c.order = append(c.order, q.ID)
	}
	return c, nil
}

// Load decodes a JSON array of questions.
func Load(r io.Reader) (*Catalog, error) {
	var qs []Question
	if err := json.NewDecoder(r).Decode(&qs); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(qs)
}

// Get returns the question with the given id.
func (c *Catalog) Get(id int) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// All returns the questions in display order.
func (c *Catalog) All() []Question {
	out := make([]Question, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// IDs returns question ids in display order.
func (c *Catalog) IDs() []int {
	return append([]int(nil), c.order...)
}

// Len is the number of questions.
func (c *Catalog) Len() int { return len(c.order) }

// Index returns the display position of id, or -1.
func (c *Catalog) Index(id int) int {
	for i, v := range c.order {
		if v == id {
			return i
		}
	}
	return -1
}

//go:embed questions.json
var defaultJSON []byte

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the built-in geometry catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		var qs []Question
		if err := json.Unmarshal(defaultJSON, &qs); err != nil {
			panic("catalog: embedded questions.json: " + err.Error())
		}
		c, err := New(qs)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}
