package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/triangle-practice/internal/attempt"
)

type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type row struct {
	ID          string        `db:"id"`
	Teacher     string        `db:"teacher"`
	StudentName string        `db:"student_name"`
	QuestionID  int           `db:"question_id"`
	SBG         float64       `db:"sbg"`
	Answer      string        `db:"answer"`
	Attempts    int           `db:"attempts"`
	Correct     bool          `db:"correct"`
	AttemptID   sql.NullInt64 `db:"attempt_id"`
	CreatedAt   int64         `db:"created_at"`
}

func toRow(r attempt.Record) row {
	out := row{
		ID:          r.ID,
		Teacher:     r.Teacher,
		StudentName: r.StudentName,
		QuestionID:  r.QuestionID,
		SBG:         r.SBG,
		Answer:      "null",
		Attempts:    r.Attempts,
		Correct:     r.Correct,
		CreatedAt:   r.CreatedAt.UnixMilli(),
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if len(r.Answer) > 0 {
		out.Answer = string(r.Answer)
	}
	if r.AttemptKey != 0 {
		out.AttemptID = sql.NullInt64{Int64: int64(r.AttemptKey), Valid: true}
	}
	return out
}

func (w row) record() attempt.Record {
	r := attempt.Record{
		ID:          w.ID,
		Teacher:     w.Teacher,
		StudentName: w.StudentName,
		QuestionID:  w.QuestionID,
		SBG:         w.SBG,
		Answer:      json.RawMessage(w.Answer),
		Attempts:    w.Attempts,
		Correct:     w.Correct,
		CreatedAt:   time.UnixMilli(w.CreatedAt).UTC(),
	}
	if w.AttemptID.Valid {
		r.AttemptKey = attempt.Key(w.AttemptID.Int64)
	}
	return r
}

const insertSQL = `INSERT INTO answer_records
	(id, teacher, student_name, question_id, sbg, answer, attempts, correct, attempt_id, created_at)
	VALUES (:id, :teacher, :student_name, :question_id, :sbg, :answer, :attempts, :correct, :attempt_id, :created_at)`

// Insert appends all records in one transaction.
func (s *SQLStore) Insert(ctx context.Context, recs []attempt.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrOperationFailed, err)
	}
	defer tx.Rollback()

	for _, r := range recs {
		if _, err := tx.NamedExecContext(ctx, insertSQL, toRow(r)); err != nil {
			return fmt.Errorf("%w: insert: %w", ErrOperationFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrOperationFailed, err)
	}
	return nil
}

func (s *SQLStore) Select(ctx context.Context, f Filter, p Page) ([]attempt.Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Teacher != "" {
		where = append(where, "teacher = ?")
		args = append(args, f.Teacher)
	}
	if f.StudentName != "" {
		where = append(where, "student_name = ?")
		args = append(args, f.StudentName)
	}
	q := `SELECT id, teacher, student_name, question_id, sbg, answer, attempts, correct, attempt_id, created_at
		FROM answer_records`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"
	if p.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, p.Limit, p.Offset)
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("%w: select: %w", ErrOperationFailed, err)
	}
	out := make([]attempt.Record, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.record())
	}
	return out, nil
}

// Delete removes a student's records, or only those of one resolved attempt.
// A record without an explicit key belongs to the attempt whose key is the
// start of the minute it was created in.
func (s *SQLStore) Delete(ctx context.Context, f DeleteFilter) (int64, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	q := `DELETE FROM answer_records WHERE teacher = ? AND student_name = ?`
	args := []any{f.Teacher, f.StudentName}
	switch {
	case f.AttemptKey == 0:
	case f.AttemptKey.MinuteAligned():
		from, to := f.AttemptKey.Window()
		q += ` AND (attempt_id = ? OR (attempt_id IS NULL AND created_at >= ? AND created_at < ?))`
		args = append(args, int64(f.AttemptKey), from.UnixMilli(), to.UnixMilli())
	default:
		// only explicit keys can land off a minute boundary
		q += ` AND attempt_id = ?`
		args = append(args, int64(f.AttemptKey))
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("%w: delete: %w", ErrOperationFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete: %w", ErrOperationFailed, err)
	}
	return n, nil
}

// Ping reports whether the underlying database answers.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
