package kv

import (
	"testing"

	"github.com/rsms/pikistore/pkg/metaval"
)

func TestMemStoreGetPutDelete(t *testing.T) {
	s := NewMemStore(nil)
	if _, ok := s.Get([]byte("k")); ok {
		t.Fatalf("expected miss on empty store")
	}
	s.Put([]byte("k"), []byte("v"))
	v, ok := s.Get([]byte("k"))
	if !ok || string(v) != "v" {
		t.Fatalf("expected hit v, got %q ok=%v", v, ok)
	}
	s.Delete([]byte("k"))
	if _, ok := s.Get([]byte("k")); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestWithScopeCommitsOnSuccess(t *testing.T) {
	s := NewMemStore(nil)
	err := s.WithScope(func(scope *scopedMap) error {
		scope.put("a", []byte("1"))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	v, ok := s.Get([]byte("a"))
	if !ok || string(v) != "1" {
		t.Fatalf("expected committed write, got %q ok=%v", v, ok)
	}
}

func TestWithScopeDiscardsOnError(t *testing.T) {
	s := NewMemStore(nil)
	wantErr := metaval.ErrCountOutOfRange
	err := s.WithScope(func(scope *scopedMap) error {
		scope.put("a", []byte("1"))
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if _, ok := s.Get([]byte("a")); ok {
		t.Fatalf("expected rejected mutation to not land")
	}
}

func TestDefaultMetaFilterDropsStaleAndOrphans(t *testing.T) {
	now := func() uint64 { return 1000 }
	subkeyVersions := map[string]uint64{"h#field1": 5}
	liveVersions := map[string]uint64{"h#field1": 6}

	filter := DefaultMetaFilter(now,
		func(key []byte) (uint64, bool) {
			v, ok := subkeyVersions[string(key)]
			return v, ok
		},
		func(key []byte) (uint64, bool) {
			v, ok := liveVersions[string(key)]
			return v, ok
		},
	)

	if !filter([]byte("h#field1"), []byte("ignored")) {
		t.Fatalf("expected orphaned subkey (version 5 != live 6) to be dropped")
	}

	staleStr := metaval.EncodeString(metaval.TypeString, []byte("v"), metaval.Reserve{}, 1, 500)
	if !filter([]byte("s"), staleStr) {
		t.Fatalf("expected stale string to be dropped")
	}

	freshStr := metaval.EncodeString(metaval.TypeString, []byte("v"), metaval.Reserve{}, 1, 0)
	if filter([]byte("s"), freshStr) {
		t.Fatalf("expected fresh string to be kept")
	}

	emptyContainer := metaval.EncodeContainer(metaval.TypeHash, 0, nil, 1, metaval.Reserve{}, 1, 0)
	if !filter([]byte("h"), emptyContainer) {
		t.Fatalf("expected empty (count==0) container to be dropped")
	}
}

func TestCompactRemovesDroppedKeys(t *testing.T) {
	s := NewMemStore(nil)
	s.Put([]byte("dead"), []byte("x"))
	s.Put([]byte("alive"), []byte("y"))
	s.RegisterCompactionFilter(func(key, value []byte) bool {
		return string(key) == "dead"
	})
	n := s.Compact()
	if n != 1 {
		t.Fatalf("expected 1 dropped, got %d", n)
	}
	if _, ok := s.Get([]byte("dead")); ok {
		t.Fatalf("expected dead key to be gone")
	}
	if _, ok := s.Get([]byte("alive")); !ok {
		t.Fatalf("expected alive key to remain")
	}
}
