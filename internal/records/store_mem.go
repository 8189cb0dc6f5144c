package records

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mind-engage/triangle-practice/internal/attempt"
)

// MemStore keeps records in process memory. Used for DB_DRIVER=memory and
// in tests of the services built on Store.
type MemStore struct {
	mu   sync.RWMutex
	recs []attempt.Record
}

func NewMemStore(seed ...attempt.Record) *MemStore {
	m := &MemStore{}
	_ = m.Insert(context.Background(), seed)
	return m
}

func (m *MemStore) Insert(_ context.Context, recs []attempt.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		m.recs = append(m.recs, r)
	}
	sort.SliceStable(m.recs, func(i, j int) bool {
		return m.recs[i].CreatedAt.Before(m.recs[j].CreatedAt)
	})
	return nil
}

func (m *MemStore) Select(_ context.Context, f Filter, p Page) ([]attempt.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []attempt.Record
	for _, r := range m.recs {
		if (f.Teacher == "" || r.Teacher == f.Teacher) && (f.StudentName == "" || r.StudentName == f.StudentName) {
			out = append(out, r)
		}
	}
	if p.Limit <= 0 {
		return out, nil
	}
	if p.Offset >= len(out) {
		return nil, nil
	}
	end := min(p.Offset+p.Limit, len(out))
	return append([]attempt.Record(nil), out[p.Offset:end]...), nil
}

func (m *MemStore) Delete(_ context.Context, f DeleteFilter) (int64, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.recs[:0]
	var n int64
	for _, r := range m.recs {
		match := r.Teacher == f.Teacher && r.StudentName == f.StudentName &&
			(f.AttemptKey == 0 || attempt.ResolveKey(r) == f.AttemptKey)
		if match {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.recs = kept
	return n, nil
}

// Len reports how many records are held.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.recs)
}
