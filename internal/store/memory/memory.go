// Package memory is an in-process ports.RecordStore.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"scorefive/internal/ports"
)

type key struct{ owner, id string }

// Store keeps records in a map. Records are copied in and out, so callers never share state with it.
type Store struct {
	mu      sync.RWMutex
	records map[key]ports.GameRecord
	seq     uint64
}

var _ ports.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{records: make(map[key]ports.GameRecord)}
}

func (s *Store) Get(_ context.Context, owner, id string) (ports.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key{owner, id}]
	if !ok {
		return ports.GameRecord{}, ports.ErrRecordNotFound
	}
	rec.Card = rec.Card.Clone()
	return rec, nil
}

func (s *Store) Save(_ context.Context, rec ports.GameRecord, expectedVersion string) (ports.GameRecord, error) {
	k := key{rec.Owner, rec.Card.ID()}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.records[k]
	switch {
	case expectedVersion == "" && exists:
		return ports.GameRecord{}, fmt.Errorf("%w: game %s already exists", ports.ErrVersionConflict, k.id)
	case expectedVersion != "" && !exists:
		return ports.GameRecord{}, ports.ErrRecordNotFound
	case expectedVersion != "" && current.Version != expectedVersion:
		return ports.GameRecord{}, fmt.Errorf("%w: game %s is at version %s, not %s", ports.ErrVersionConflict, k.id, current.Version, expectedVersion)
	}

	s.seq++
	rec.Version = strconv.FormatUint(s.seq, 10)
	rec.Card = rec.Card.Clone()
	s.records[k] = rec
	return rec, nil
}

func (s *Store) List(_ context.Context, owner string, limit int) ([]ports.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ports.GameRecord
	for k, rec := range s.records {
		if k.owner != owner {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		rec.Card = rec.Card.Clone()
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{owner, id}
	if _, ok := s.records[k]; !ok {
		return ports.ErrRecordNotFound
	}
	delete(s.records, k)
	return nil
}
