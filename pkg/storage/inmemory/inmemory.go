package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/burnes-center/fair/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of records
	mu sync.RWMutex

	// records is the in memory map of records keyed by relay id
	records map[string]*storage.Record
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*storage.Record),
	}
}

// Put stores a record.
func (s *Driver) Put(_ context.Context, rec *storage.Record) error {
	if rec == nil {
		return errors.New("cannot store nil record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateRecord, rec.ID)
	}

	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

// Get retrieves a record by its relay id.
func (s *Driver) Get(_ context.Context, id string) (*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	cp := *rec
	return &cp, nil
}

// List returns the matching records, newest first.
func (s *Driver) List(_ context.Context, filter storage.Filter) ([]*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.Record, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Match(rec) {
			cp := *rec
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the number of records in the in-memory store.
func (s *Driver) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the in-memory store.
func (s *Driver) Close() error {
	return nil
}
