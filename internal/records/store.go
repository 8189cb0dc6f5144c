// Package records is the boundary to the answer-record log. Everything
// above it works on fully loaded []attempt.Record slices.
package records

import (
	"context"
	"errors"

	"github.com/mind-engage/triangle-practice/internal/attempt"
)

var (
	// ErrUnavailable means no store is configured or it cannot be reached.
	// Callers carry on with an empty record set.
	ErrUnavailable = errors.New("record store unavailable")
	// ErrOperationFailed means the store was reached but rejected the request.
	ErrOperationFailed = errors.New("record store operation failed")
	ErrInvalidFilter   = errors.New("invalid record filter")
)

// Filter selects records by equality; empty fields match everything.
type Filter struct {
	Teacher     string
	StudentName string
}

type Page struct {
	Offset int
	Limit  int
}

// DeleteFilter always names one student. A zero AttemptKey deletes every
// record of the student; otherwise only records whose resolved key equals it.
type DeleteFilter struct {
	Teacher     string
	StudentName string
	AttemptKey  attempt.Key
}

func (f DeleteFilter) validate() error {
	if f.Teacher == "" || f.StudentName == "" {
		return ErrInvalidFilter
	}
	return nil
}

// Store is an append-only log with bulk delete. There is no upsert and no
// uniqueness beyond the row id; duplicate answers are accepted.
type Store interface {
	Insert(ctx context.Context, recs []attempt.Record) error
	Select(ctx context.Context, f Filter, p Page) ([]attempt.Record, error)
	Delete(ctx context.Context, f DeleteFilter) (int64, error)
}

// DefaultPageSize matches the hosted store's row cap per request.
const DefaultPageSize = 1000

// LoadAll pages through the store ordered by creation time and stops on
// the first short page. No partial result is returned on error.
func LoadAll(ctx context.Context, s Store, f Filter, pageSize int) ([]attempt.Record, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var all []attempt.Record
	for offset := 0; ; offset += pageSize {
		page, err := s.Select(ctx, f, Page{Offset: offset, Limit: pageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// Unavailable is the Store used when no database is configured.
type Unavailable struct{}

func (Unavailable) Insert(context.Context, []attempt.Record) error { return ErrUnavailable }

func (Unavailable) Select(context.Context, Filter, Page) ([]attempt.Record, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Delete(context.Context, DeleteFilter) (int64, error) { return 0, ErrUnavailable }
