package kv

import (
	"github.com/rsms/go-json"
)

// SnapshotJSON returns every live key/value pair encoded as a JSON array of
// {key, value} objects, base64-free and human-readable for keys/values that
// happen to be printable text. Like Snapshot, this is a debug aid for the
// server's --dump flag (with --dump-json), not the persistence format the
// spec names as a non-goal.
func (s *MemStore) SnapshotJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b json.Builder
	b.Indent = "  "
	b.StartArray()
	for k, v := range s.m.m {
		if v == nil {
			continue
		}
		b.StartObject()
		b.Key("key")
		b.String(k)
		b.Key("value")
		b.String(string(v))
		b.EndObject()
	}
	b.EndArray()
	return b.Bytes(), b.Err
}
