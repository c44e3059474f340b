package dispatch

import (
	"github.com/rsms/pikistore/internal/kv"
	"github.com/rsms/pikistore/internal/resp"
	"github.com/rsms/pikistore/pkg/buf"
	"github.com/rsms/pikistore/pkg/metaval"
)

// StringStore implements SET/GET against a KVStore, encoding/parsing
// string meta-values (spec §3 string shape) and firing the write-path
// dirty-notification contract (spec §4.7) on every mutation.
type StringStore struct {
	Store       kv.KVStore
	Coordinator notifier
	Now         func() uint64
}

// notifier is the subset of *txn.Coordinator the mutating handlers need;
// kept narrow so tests can supply a stub.
type notifier interface {
	NotifyDirty(db int, key string)
}

// Set implements SET key value: creates or overwrites a string meta-value.
// Preserves ctime across overwrite only when replacing an existing, still
// valid string (matching a plain SET's "ctime set once at creation"
// semantics from spec §3).
func (s *StringStore) Set(db int, key string, value []byte) []byte {
	now := s.Now()
	ctime := now
	if existing, ok := s.Store.Get([]byte(key)); ok {
		if m, err := metaval.ParseString(existing); err == nil && m.IsType(metaval.TypeString) && m.IsValid(now) {
			ctime = m.Ctime
		}
	}
	enc := metaval.EncodeString(metaval.TypeString, value, metaval.Reserve{}, ctime, 0)
	s.Store.Put([]byte(key), enc)
	s.Coordinator.NotifyDirty(db, key)

	var b buf.Buffer
	resp.WriteOK(&b)
	return b.Bytes()
}

// Get implements GET key: returns the value, or ErrWrongType if the key holds
// another type. A missing, stale (expired, spec §3 staleness) or corrupt
// record reads as nonexistent: (nil, nil).
func (s *StringStore) Get(key string) ([]byte, error) {
	raw, ok := s.Store.Get([]byte(key))
	if !ok {
		return nil, nil
	}
	if !metaval.IsType(raw, metaval.TypeString) {
		return nil, metaval.ErrWrongType
	}
	m, err := metaval.ParseString(raw)
	if err != nil {
		return nil, nil // corrupt record: treated as nonexistent
	}
	if !m.IsValid(s.Now()) {
		return nil, nil
	}
	return m.Value, nil
}
