// Package audit appends teacher-initiated destructive operations to event_log.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	TypeStudentReset   = "StudentReset"
	TypeAttemptDeleted = "AttemptDeleted"
)

type Event struct {
	Seq       int64           `db:"seq" json:"seq"`
	Type      string          `db:"typ" json:"type"`
	Key       string          `db:"key" json:"key"` // teacher/student
	Data      json.RawMessage `db:"-" json:"data"`
	CreatedAt time.Time       `db:"-" json:"created_at"`
}

// Recorder is what services depend on; EventRepo and Discard satisfy it.
type Recorder interface {
	Append(ctx context.Context, e Event) error
}

type EventRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db, now: time.Now} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	data := string(e.Data)
	if data == "" {
		data = "{}"
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO event_log (typ, key, data, created_at) VALUES (?,?,?,?)`),
		e.Type, e.Key, data, r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

// List returns the newest events first.
func (r *EventRepo) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []struct {
		Seq       int64  `db:"seq"`
		Type      string `db:"typ"`
		Key       string `db:"key"`
		Data      string `db:"data"`
		CreatedAt int64  `db:"created_at"`
	}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT seq, typ, key, data, created_at FROM event_log ORDER BY seq DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("audit list: %w", err)
	}
	out := make([]Event, 0, len(rows))
	for _, w := range rows {
		out = append(out, Event{
			Seq:       w.Seq,
			Type:      w.Type,
			Key:       w.Key,
			Data:      json.RawMessage(w.Data),
			CreatedAt: time.UnixMilli(w.CreatedAt).UTC(),
		})
	}
	return out, nil
}

// Discard drops every event; used when no database is configured.
type Discard struct{}

func (Discard) Append(context.Context, Event) error { return nil }

// StudentKey is the natural key events are filed under.
func StudentKey(teacher, student string) string { return teacher + "/" + student }
