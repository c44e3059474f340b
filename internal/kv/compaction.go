package kv

import (
	"github.com/rsms/pikistore/pkg/metaval"
)

// NowFunc returns the current wall-clock time in seconds since epoch.
type NowFunc func() uint64

// DefaultMetaFilter builds the compaction filter described in spec §4.2/§6:
// a root meta-value (string or container) is dropped once it is stale, and
// a subkey record is dropped once its embedded parentVersion no longer
// matches the live version of its parent container (the "version-orphan"
// rule used for bulk subkey invalidation without physical deletes).
//
// subkeyVersion extracts the version a subkey record was written with, or
// (0, false) if key does not look like a subkey of any container (e.g. root
// meta-value keys) — such records fall through to the staleness-only check.
// liveVersion looks up the current version of the container that owns a
// subkey, or (0, false) if the parent no longer exists (orphaning all its
// subkeys).
func DefaultMetaFilter(now NowFunc, subkeyVersion func(key []byte) (version uint64, ok bool), liveVersion func(key []byte) (version uint64, ok bool)) CompactionFilter {
	return func(key, value []byte) bool {
		if v, ok := subkeyVersion(key); ok {
			live, exists := liveVersion(key)
			return !exists || v != live
		}

		if metaval.IsType(value, metaval.TypeString) {
			m, err := metaval.ParseString(value)
			if err != nil {
				return true // corrupt record: drop
			}
			return m.IsStale(now())
		}

		m, err := metaval.ParseContainer(value)
		if err != nil {
			return true
		}
		return !m.IsValid(now())
	}
}
