package kv

import (
	"bytes"
	"encoding/binary"

	"github.com/natefinch/atomic"
)

// Snapshot writes every live key/value pair to path as a simple
// length-prefixed dump, replacing the file atomically so a crash mid-write
// never corrupts a previous dump.
//
// This is a debug aid for the server's --dump flag, not the AOF/snapshot
// persistence the spec names as a non-goal: there is no corresponding Load,
// and nothing in the server reads this file back on startup.
func (s *MemStore) Snapshot(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buf bytes.Buffer
	var lenbuf [4]byte
	for k, v := range s.m.m {
		if v == nil {
			continue
		}
		binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(k)))
		buf.Write(lenbuf[:])
		buf.WriteString(k)
		binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(v)))
		buf.Write(lenbuf[:])
		buf.Write(v)
	}
	return atomic.WriteFile(path, &buf)
}
