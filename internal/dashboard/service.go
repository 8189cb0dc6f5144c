// Package dashboard serves the teacher views. Every call reloads the
// teacher's records, so a read is always a refresh.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/triangle-practice/internal/analytics"
	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/audit"
	"github.com/mind-engage/triangle-practice/internal/export"
	"github.com/mind-engage/triangle-practice/internal/mastery"
	"github.com/mind-engage/triangle-practice/internal/metrics"
	"github.com/mind-engage/triangle-practice/internal/records"
	"github.com/mind-engage/triangle-practice/internal/roster"
	"github.com/mind-engage/triangle-practice/internal/snapshot"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrAttemptNotFound = errors.New("attempt not found")
)

// MsgNoAttemptItems is shown when an attempt has no records left.
const MsgNoAttemptItems = "No items for this attempt."

// AttemptLabelLayout formats attempt keys for the attempt picker.
const AttemptLabelLayout = "Jan 2, 2006 3:04 PM"

type Deps struct {
	Store     records.Store
	Roster    *roster.Roster
	Audit     audit.Recorder
	Snapshots *snapshot.Store
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	PageSize  int
}

type Service struct {
	d   Deps
	now func() time.Time
}

func NewService(d Deps) *Service {
	if d.Store == nil {
		d.Store = records.Unavailable{}
	}
	if d.Roster == nil {
		d.Roster = roster.Default()
	}
	if d.Audit == nil {
		d.Audit = audit.Discard{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{d: d, now: time.Now}
}

func (s *Service) validTeacher(teacher string) error {
	if strings.TrimSpace(teacher) == "" || !s.d.Roster.HasTeacher(teacher) {
		return fmt.Errorf("%w: unknown teacher %q", ErrValidation, teacher)
	}
	return nil
}

func validStudent(student string) error {
	if strings.TrimSpace(student) == "" {
		return fmt.Errorf("%w: student is required", ErrValidation)
	}
	return nil
}

// Load pages in every record of the teacher. An unreachable store yields an
// empty dashboard.
func (s *Service) Load(ctx context.Context, teacher string) ([]attempt.Record, error) {
	if err := s.validTeacher(teacher); err != nil {
		return nil, err
	}
	recs, err := records.LoadAll(ctx, s.d.Store, records.Filter{Teacher: teacher}, s.d.PageSize)
	switch {
	case err == nil:
		return recs, nil
	case errors.Is(err, records.ErrUnavailable):
		s.storeError("unavailable")
		s.d.Logger.Warn("record store unavailable, dashboard is empty", zap.String("teacher", teacher))
		return nil, nil
	default:
		s.storeError("failed")
		s.d.Logger.Error("loading dashboard failed", zap.String("teacher", teacher), zap.Error(err))
		return nil, err
	}
}

type Overview struct {
	Teacher  string                  `json:"teacher"`
	Roster   []string                `json:"roster"`
	Stats    analytics.OverviewStats `json:"stats"`
	Items    []analytics.ItemRow     `json:"items"`
	Students []analytics.StudentRow  `json:"students"`
}

func (s *Service) Overview(ctx context.Context, teacher string) (Overview, error) {
	recs, err := s.Load(ctx, teacher)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Teacher:  teacher,
		Roster:   s.d.Roster.Students(teacher),
		Stats:    analytics.Overview(recs),
		Items:    analytics.ItemTable(recs),
		Students: analytics.StudentRows(recs),
	}, nil
}

func (s *Service) QuestionCards(ctx context.Context, teacher string) ([]analytics.SBGGroup, error) {
	recs, err := s.Load(ctx, teacher)
	if err != nil {
		return nil, err
	}
	return analytics.QuestionCards(recs), nil
}

// AttemptInfo is one entry of a student's attempt picker.
type AttemptInfo struct {
	Key     attempt.Key `json:"key"`
	Label   string      `json:"label"`
	Items   int         `json:"items"`
	Correct int         `json:"correct"`
}

type StudentSummary struct {
	Student    string        `json:"student"`
	Attempts   int           `json:"attempts"`
	CurrentSBG float64       `json:"current_sbg"`
	Band       mastery.Band  `json:"band"`
	List       []AttemptInfo `json:"list"`
}

func (s *Service) Student(ctx context.Context, teacher, student string) (StudentSummary, error) {
	if err := validStudent(student); err != nil {
		return StudentSummary{}, err
	}
	recs, err := s.Load(ctx, teacher)
	if err != nil {
		return StudentSummary{}, err
	}
	mine := attempt.ForStudent(recs, teacher, student)
	sum := StudentSummary{Student: student, CurrentSBG: mastery.Compute(mine)}
	sum.Band = mastery.BandOf(sum.CurrentSBG)
	for _, a := range attempt.Attempts(mine) {
		info := AttemptInfo{Key: a.Key, Label: a.Key.Time().Format(AttemptLabelLayout), Items: len(a.Records)}
		for _, r := range a.Records {
			if r.Correct {
				info.Correct++
			}
		}
		sum.List = append(sum.List, info)
	}
	sum.Attempts = len(sum.List)
	return sum, nil
}

// AttemptItems lays out one attempt of a student as an SBG strip.
func (s *Service) AttemptItems(ctx context.Context, teacher, student string, key attempt.Key) ([]analytics.StripGroup, error) {
	if err := validStudent(student); err != nil {
		return nil, err
	}
	recs, err := s.Load(ctx, teacher)
	if err != nil {
		return nil, err
	}
	groups := attempt.GroupByAttempt(attempt.ForStudent(recs, teacher, student))
	one := groups[key]
	if len(one) == 0 {
		return nil, ErrAttemptNotFound
	}
	return analytics.AttemptStrip(one), nil
}

func (s *Service) StudentItems(ctx context.Context, teacher, student string) ([]analytics.StudentItem, error) {
	if err := validStudent(student); err != nil {
		return nil, err
	}
	recs, err := s.Load(ctx, teacher)
	if err != nil {
		return nil, err
	}
	return analytics.StudentItems(attempt.ForStudent(recs, teacher, student), student), nil
}

// DeleteAttempt removes every record whose resolved key equals key.
func (s *Service) DeleteAttempt(ctx context.Context, teacher, student string, key attempt.Key) (int64, error) {
	if key <= 0 {
		return 0, fmt.Errorf("%w: attempt key is required", ErrValidation)
	}
	n, err := s.delete(ctx, "delete_attempt", records.DeleteFilter{Teacher: teacher, StudentName: student, AttemptKey: key})
	if err != nil {
		return 0, err
	}
	if s.d.Snapshots != nil {
		if err := s.d.Snapshots.Prune(ctx, teacher, student, key); err != nil {
			s.d.Logger.Warn("snapshot prune failed", zap.Error(err))
		}
	}
	s.record(ctx, audit.TypeAttemptDeleted, teacher, student, map[string]any{"attempt_key": key, "deleted": n})
	return n, nil
}

// ResetStudent removes every record of the student.
func (s *Service) ResetStudent(ctx context.Context, teacher, student string) (int64, error) {
	n, err := s.delete(ctx, "reset_student", records.DeleteFilter{Teacher: teacher, StudentName: student})
	if err != nil {
		return 0, err
	}
	if s.d.Snapshots != nil {
		if err := s.d.Snapshots.Clear(ctx, teacher, student); err != nil {
			s.d.Logger.Warn("snapshot clear failed", zap.Error(err))
		}
	}
	s.record(ctx, audit.TypeStudentReset, teacher, student, map[string]any{"deleted": n})
	return n, nil
}

// Export writes the XLSX workbook for the teacher.
func (s *Service) Export(ctx context.Context, teacher string, w io.Writer) error {
	recs, err := s.Load(ctx, teacher)
	if err != nil {
		return err
	}
	return export.Write(w, teacher, recs, s.now())
}

func (s *Service) delete(ctx context.Context, op string, f records.DeleteFilter) (int64, error) {
	if err := s.validTeacher(f.Teacher); err != nil {
		return 0, err
	}
	if err := validStudent(f.StudentName); err != nil {
		return 0, err
	}
	n, err := s.d.Store.Delete(ctx, f)
	if err != nil {
		kind := "failed"
		if errors.Is(err, records.ErrUnavailable) {
			kind = "unavailable"
		}
		s.storeError(kind)
		s.d.Logger.Error("delete failed", zap.String("op", op),
			zap.String("teacher", f.Teacher), zap.String("student", f.StudentName), zap.Error(err))
		return 0, err
	}
	if s.d.Metrics != nil {
		s.d.Metrics.RecordsDeleted.WithLabelValues(op).Add(float64(n))
	}
	s.d.Logger.Info("records deleted", zap.String("op", op),
		zap.String("teacher", f.Teacher), zap.String("student", f.StudentName),
		zap.Int64("attempt_key", int64(f.AttemptKey)), zap.Int64("deleted", n))
	return n, nil
}

func (s *Service) record(ctx context.Context, typ, teacher, student string, data map[string]any) {
	b, _ := json.Marshal(data)
	err := s.d.Audit.Append(ctx, audit.Event{Type: typ, Key: audit.StudentKey(teacher, student), Data: b})
	if err != nil {
		s.d.Logger.Warn("audit append failed", zap.String("type", typ), zap.Error(err))
	}
}

func (s *Service) storeError(kind string) {
	if s.d.Metrics != nil {
		s.d.Metrics.StoreErrors.WithLabelValues(kind).Inc()
	}
}
