// Package snapshot keeps a best-effort copy of every record a student has
// submitted, so a session can be pre-filled before the record store answers.
// It is never authoritative.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/storage"
)

type Store struct {
	blobs storage.BlobStore
	mu    sync.Mutex
	// MaxRecords caps a snapshot; oldest records are dropped first.
	MaxRecords int
}

func New(blobs storage.BlobStore) *Store {
	return &Store{blobs: blobs, MaxRecords: 2000}
}

// Key is the blob key of one student's snapshot.
func Key(teacher, student string) string {
	return "snapshots/" + url.PathEscape(teacher) + "/" + url.PathEscape(student) + ".json"
}

// Load returns the saved records, or none when nothing was saved yet.
func (s *Store) Load(ctx context.Context, teacher, student string) ([]attempt.Record, error) {
	rc, err := s.blobs.Get(ctx, Key(teacher, student))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot load: %w", err)
	}
	defer rc.Close()

	var recs []attempt.Record
	if err := json.NewDecoder(rc).Decode(&recs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("snapshot decode: %w", err)
	}
	return recs, nil
}

// Append adds recs to the student's snapshot.
func (s *Store) Append(ctx context.Context, teacher, student string, recs []attempt.Record) error {
	if len(recs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.Load(ctx, teacher, student)
	if err != nil {
		// a corrupt snapshot is replaced rather than blocking new ones
		prev = nil
	}
	all := append(prev, recs...)
	if s.MaxRecords > 0 && len(all) > s.MaxRecords {
		all = all[len(all)-s.MaxRecords:]
	}
	return s.write(ctx, teacher, student, all)
}

// Prune drops the records that resolve to key.
func (s *Store) Prune(ctx context.Context, teacher, student string, key attempt.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, err := s.Load(ctx, teacher, student)
	if err != nil || len(prev) == 0 {
		return err
	}
	kept := prev[:0]
	for _, r := range prev {
		if attempt.ResolveKey(r) != key {
			kept = append(kept, r)
		}
	}
	return s.write(ctx, teacher, student, kept)
}

// Clear empties the student's snapshot.
func (s *Store) Clear(ctx context.Context, teacher, student string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, teacher, student, []attempt.Record{})
}

func (s *Store) write(ctx context.Context, teacher, student string, recs []attempt.Record) error {
	b, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("snapshot encode: %w", err)
	}
	if _, err := s.blobs.Put(ctx, Key(teacher, student), bytes.NewReader(b), int64(len(b))); err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	return nil
}
