package memory

import (
	"context"
	"sync"

	"vendas/internal/core"
	"vendas/internal/source"
)

var (
	_ source.RecordSource   = (*Store)(nil)
	_ source.SnapshotWriter = (*Store)(nil)
)

// Store keeps a table in memory. It serves tests and local demos.
type Store struct {
	mu     sync.Mutex
	table  core.Table
	origin string
	err    error
	loads  int
}

func New(t core.Table) *Store {
	return &Store{table: t, origin: "memory"}
}

// Records returns a copy of the stored table, or the error set with Fail.
func (s *Store) Records(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return core.Table{}, s.err
	}
	out := core.Table{Skipped: s.table.Skipped}
	out.Records = append([]core.SalesRecord(nil), s.table.Records...)
	return out, nil
}

// ReplaceSnapshot swaps the stored table.
func (s *Store) ReplaceSnapshot(_ context.Context, t core.Table, origin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.origin = origin
	s.err = nil
	return nil
}

// Fail makes subsequent Records calls return err. A nil err clears it.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Loads reports how many times Records was called.
func (s *Store) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func (s *Store) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}
