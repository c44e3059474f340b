// Package kv defines the byte-oriented KVStore collaborator this layer is
// built on (the underlying ordered KV engine is out of scope per the spec;
// only its consumption contract is specified here) and ships an in-memory
// reference implementation suitable for tests and the example server.
package kv

import (
	"sync"

	"github.com/rsms/go-log"
)

// CompactionFilter decides, for a stored (key, value) pair, whether the
// record is dead and may be dropped during background compaction. It must
// not mutate value.
type CompactionFilter func(key, value []byte) (drop bool)

// KVStore is the byte-oriented collaborator every typed read-modify-write
// path is built on: get/put/delete over a single keyspace, plus a
// compaction callback the engine consults in the background.
type KVStore interface {
	Get(key []byte) ([]byte, bool)
	Put(key, value []byte)
	Delete(key []byte)
	RegisterCompactionFilter(f CompactionFilter)
}

// MemStore is a goroutine-safe in-memory KVStore, the reference
// implementation used by tests and the bundled example server. It is not a
// substitute for the real LSM engine named in the spec as an external
// collaborator — it exists to exercise the meta-value and transaction cores
// against something concrete.
type MemStore struct {
	Logger *log.Logger

	mu      sync.RWMutex
	m       scopedMap
	filters []CompactionFilter
}

// NewMemStore returns an empty store.
func NewMemStore(logger *log.Logger) *MemStore {
	return &MemStore{Logger: logger, m: scopedMap{m: make(map[string][]byte)}}
}

func (s *MemStore) Get(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.get(string(key))
}

func (s *MemStore) Put(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.put(string(key), value)
}

func (s *MemStore) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.del(string(key))
}

func (s *MemStore) RegisterCompactionFilter(f CompactionFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
}

// WithScope stages f's edits in a child scope and commits them atomically
// relative to readers only if f returns a nil error, so a read-modify-write
// staged through it (get bytes, parse meta-value, mutate, re-encode, write
// back) never partially lands when the mutation is rejected (e.g.
// ErrCountOutOfRange). It is not part of the KVStore interface; the
// handlers in internal/dispatch use the interface's Get and Put directly.
func (s *MemStore) WithScope(f func(scope *scopedMap) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	scope := s.m.newScope()
	if err := f(scope); err != nil {
		return err
	}
	scope.applyToOuter()
	return nil
}

// Compact runs all registered compaction filters over every record and
// drops the ones a filter reports as dead. Callers typically run this
// periodically from a background goroutine; it is not invoked implicitly.
func (s *MemStore) Compact() (dropped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.m.m {
		if v == nil {
			continue
		}
		for _, f := range s.filters {
			if f([]byte(k), v) {
				delete(s.m.m, k)
				dropped++
				if s.Logger != nil {
					s.Logger.Debug("compaction dropped key %q", k)
				}
				break
			}
		}
	}
	return dropped
}
