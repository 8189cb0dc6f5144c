// Package practice runs student sessions: login, restore from the record
// store, and persisting whatever the reducer emits.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/catalog"
	"github.com/mind-engage/triangle-practice/internal/metrics"
	"github.com/mind-engage/triangle-practice/internal/records"
	"github.com/mind-engage/triangle-practice/internal/roster"
	"github.com/mind-engage/triangle-practice/internal/session"
	"github.com/mind-engage/triangle-practice/internal/snapshot"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError carries text meant for the student.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string        { return e.Msg }
func (e *ValidationError) UserMessage() string  { return e.Msg }
func (e *ValidationError) Unwrap() error        { return e.Err }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type Deps struct {
	Reducer   *session.Reducer
	Store     records.Store
	Snapshots *snapshot.Store
	Roster    *roster.Roster
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	PageSize  int
}

type entry struct {
	mu      sync.Mutex
	state   *session.State
	touched time.Time
}

type Service struct {
	d Deps

	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
	newID    func() string
}

func NewService(d Deps) *Service {
	if d.Reducer == nil {
		d.Reducer = session.NewReducer(nil, nil, nil)
	}
	if d.Store == nil {
		d.Store = records.Unavailable{}
	}
	if d.Roster == nil {
		d.Roster = roster.Default()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		d:        d,
		sessions: make(map[string]*entry),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Questions lists the catalog without answer keys.
func (s *Service) Questions() []catalog.Question {
	all := s.d.Reducer.Catalog().All()
	out := make([]catalog.Question, 0, len(all))
	for _, q := range all {
		out = append(out, q.Public())
	}
	return out
}

// Screen is what a client needs to draw the current question.
type Screen struct {
	SessionID string           `json:"session_id"`
	View      session.View     `json:"view"`
	Question  catalog.Question `json:"question"`
}

// Result is the reply to one intent.
type Result struct {
	Screen
	Outcome session.Outcome `json:"outcome"`
	// Persisted is false when the record store was unavailable and the
	// records only reached the local snapshot.
	Persisted bool `json:"persisted"`
}

// Login validates the pair against the roster and opens a session restored
// from the student's latest attempt.
func (s *Service) Login(ctx context.Context, teacher, student string) (Screen, error) {
	id := session.Identity{Teacher: teacher, Student: student}
	if !id.Valid() {
		return Screen{}, invalid(roster.MsgSelectIdentity)
	}
	if !s.d.Roster.Has(teacher, student) {
		return Screen{}, invalid("%s is not on %s's roster.", student, teacher)
	}
	st, err := s.Restore(ctx, id)
	if err != nil {
		return Screen{}, err
	}

	sid := s.newID()
	s.mu.Lock()
	s.sessions[sid] = &entry{state: st, touched: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()
	if s.d.Metrics != nil {
		s.d.Metrics.ActiveSessions.Set(float64(n))
	}
	s.d.Logger.Info("practice login",
		zap.String("teacher", teacher), zap.String("student", student),
		zap.String("session", sid), zap.Int("answered", st.View().Answered))
	return s.screen(sid, st), nil
}

// Restore rebuilds a session from stored records. The local snapshot is read
// first; a reachable store replaces it entirely.
func (s *Service) Restore(ctx context.Context, id session.Identity) (*session.State, error) {
	var recs []attempt.Record
	if s.d.Snapshots != nil {
		snap, err := s.d.Snapshots.Load(ctx, id.Teacher, id.Student)
		if err != nil {
			s.d.Logger.Warn("snapshot unreadable", zap.Error(err))
		}
		recs = snap
	}

	stored, err := records.LoadAll(ctx, s.d.Store, records.Filter{Teacher: id.Teacher, StudentName: id.Student}, s.d.PageSize)
	switch {
	case err == nil:
		recs = stored
	case errors.Is(err, records.ErrUnavailable):
		s.storeError("unavailable")
		s.d.Logger.Warn("record store unavailable, restoring from snapshot", zap.Int("records", len(recs)))
	default:
		s.storeError("failed")
		s.d.Logger.Error("restore failed", zap.String("student", id.Student), zap.Error(err))
		return nil, err
	}
	return s.d.Reducer.Hydrate(id, recs)
}

// Current returns the session's screen.
func (s *Service) Current(sid string) (Screen, error) {
	e, err := s.lookup(sid)
	if err != nil {
		return Screen{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.screen(sid, e.state), nil
}

// Dispatch applies one intent. Emitted records are written to the store and
// the snapshot before the new state is kept; a failed write leaves the
// session as it was.
func (s *Service) Dispatch(ctx context.Context, sid string, in session.Intent) (Result, error) {
	e, err := s.lookup(sid)
	if err != nil {
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	out, err := s.d.Reducer.Apply(next, in)
	if err != nil {
		return Result{}, &ValidationError{Msg: err.Error(), Err: err}
	}
	for _, g := range out.Grades {
		s.countGrade(g)
	}

	persisted := true
	if len(out.Records) > 0 {
		persisted, err = s.persist(ctx, next.Identity, in.Name(), out.Records)
		if err != nil {
			return Result{}, err
		}
	}

	e.state = next
	e.touched = s.now()
	return Result{Screen: s.screen(sid, next), Outcome: out, Persisted: persisted}, nil
}

func (s *Service) persist(ctx context.Context, id session.Identity, intent string, recs []attempt.Record) (bool, error) {
	persisted := true
	err := s.d.Store.Insert(ctx, recs)
	switch {
	case err == nil:
		if s.d.Metrics != nil {
			s.d.Metrics.RecordsWritten.WithLabelValues(intent).Add(float64(len(recs)))
		}
	case errors.Is(err, records.ErrUnavailable):
		s.storeError("unavailable")
		s.d.Logger.Warn("record store unavailable, keeping records locally",
			zap.String("intent", intent), zap.Int("records", len(recs)))
		persisted = false
	default:
		s.storeError("failed")
		s.d.Logger.Error("saving answers failed", zap.String("intent", intent),
			zap.String("student", id.Student), zap.Error(err))
		return false, err
	}

	if s.d.Snapshots != nil {
		if err := s.d.Snapshots.Append(ctx, id.Teacher, id.Student, recs); err != nil {
			s.d.Logger.Warn("snapshot append failed", zap.Error(err))
		}
	}
	return persisted, nil
}

// Close drops a session. Unknown ids are ignored.
func (s *Service) Close(sid string) {
	s.mu.Lock()
	delete(s.sessions, sid)
	n := len(s.sessions)
	s.mu.Unlock()
	if s.d.Metrics != nil {
		s.d.Metrics.ActiveSessions.Set(float64(n))
	}
}

// Evict drops sessions idle for longer than maxIdle and returns how many.
func (s *Service) Evict(maxIdle time.Duration) int {
	s.mu.Lock()
	cut := s.now().Add(-maxIdle)
	evicted := 0
	for sid, e := range s.sessions {
		e.mu.Lock()
		idle := e.touched.Before(cut)
		e.mu.Unlock()
		if idle {
			delete(s.sessions, sid)
			evicted++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	if s.d.Metrics != nil {
		s.d.Metrics.ActiveSessions.Set(float64(n))
	}
	return evicted
}

// Owner returns the identity a session belongs to.
func (s *Service) Owner(sid string) (session.Identity, error) {
	e, err := s.lookup(sid)
	if err != nil {
		return session.Identity{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Identity, nil
}

func (s *Service) lookup(sid string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sid]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *Service) screen(sid string, st *session.State) Screen {
	q, _ := s.d.Reducer.Catalog().Get(st.CurrentID())
	return Screen{SessionID: sid, View: st.View(), Question: q.Public()}
}

func (s *Service) storeError(kind string) {
	if s.d.Metrics != nil {
		s.d.Metrics.StoreErrors.WithLabelValues(kind).Inc()
	}
}

func (s *Service) countGrade(g session.Grade) {
	if s.d.Metrics != nil {
		s.d.Metrics.Grades.WithLabelValues(string(g.Type), strconv.FormatBool(g.Correct)).Inc()
	}
}
