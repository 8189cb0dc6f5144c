// Package roster maps each teacher to the students allowed to practice
// under them.
package roster

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// MsgSelectIdentity is shown when a login is missing the teacher or the student.
const MsgSelectIdentity = "Please select your teacher and your name."

type Class struct {
	Teacher  string   `json:"teacher"`
	Students []string `json:"students"`
}

type Roster struct {
	classes []Class
	members map[string]map[string]struct{}
}

func New(classes []Class) (*Roster, error) {
	r := &Roster{members: make(map[string]map[string]struct{}, len(classes))}
	for _, c := range classes {
		if c.Teacher == "" {
			return nil, fmt.Errorf("roster: empty teacher name")
		}
		if _, dup := r.members[c.Teacher]; dup {
			return nil, fmt.Errorf("roster: duplicate teacher %q", c.Teacher)
		}
		set := make(map[string]struct{}, len(c.Students))
		for _, s := range c.Students {
			set[s] = struct{}{}
		}
		r.members[c.Teacher] = set
		r.classes = append(r.classes, Class{Teacher: c.Teacher, Students: append([]string(nil), c.Students...)})
	}
	return r, nil
}

func Load(rd io.Reader) (*Roster, error) {
	var classes []Class
	if err := json.NewDecoder(rd).Decode(&classes); err != nil {
		return nil, fmt.Errorf("roster: decode: %w", err)
	}
	return New(classes)
}

// Teachers returns teacher names in roster order.
func (r *Roster) Teachers() []string {
	out := make([]string, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c.Teacher)
	}
	return out
}

// Students returns the class list of teacher, or nil for an unknown teacher.
func (r *Roster) Students(teacher string) []string {
	for _, c := range r.classes {
		if c.Teacher == teacher {
			return append([]string(nil), c.Students...)
		}
	}
	return nil
}

func (r *Roster) HasTeacher(teacher string) bool {
	_, ok := r.members[teacher]
	return ok
}

// Has reports whether student is in teacher's class.
func (r *Roster) Has(teacher, student string) bool {
	set, ok := r.members[teacher]
	if !ok {
		return false
	}
	_, ok = set[student]
	return ok
}

//go:embed roster.json
var defaultJSON []byte

var (
	defaultOnce   sync.Once
	defaultRoster *Roster
)

// Default returns the built-in roster.
func Default() *Roster {
	defaultOnce.Do(func() {
		var classes []Class
		if err := json.Unmarshal(defaultJSON, &classes); err != nil {
			panic("roster: embedded roster.json: " + err.Error())
		}
		r, err := New(classes)
		if err != nil {
			panic(err)
		}
		defaultRoster = r
	})
	return defaultRoster
}
