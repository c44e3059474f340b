package dispatch

import (
	"fmt"

	"github.com/rsms/pikistore/internal/kv"
	"github.com/rsms/pikistore/internal/resp"
	"github.com/rsms/pikistore/pkg/buf"
	"github.com/rsms/pikistore/pkg/metaval"
	"github.com/rsms/pikistore/pkg/version"
)

// ContainerStore implements a representative slice of hash/set/zset
// mutating commands (HSET, SADD; ZADD reuses the same machinery with the
// score stored in the member's subkey value) against a KVStore, exercising the container
// meta-value layout (spec §3) together with its subkey versioning scheme
// (spec §3 "version" field semantics) and the write-path dirty-notification
// contract (spec §4.7).
//
// Subkeys are stored under "<rootKey>\x00<field>" with the parent's current
// version prepended to the subkey's own value, so the compaction filter
// (internal/kv.DefaultMetaFilter) can drop subkeys orphaned by a version
// bump (e.g. from a future DEL+recreate) without a physical delete pass.
type ContainerStore struct {
	Store       kv.KVStore
	Coordinator notifier
	Clock       *version.Clock
	Now         func() uint64
}

func subkeyKey(rootKey, field string) []byte {
	return []byte(rootKey + "\x00" + field)
}

// loadOrInitContainer loads rootKey's container meta-value, or creates one
// (via InitialMetaValue, bumping the version) if it doesn't exist or is
// stale/empty.
func (s *ContainerStore) loadOrInitContainer(typ metaval.Type, rootKey string) (metaval.ContainerMeta, error) {
	now := s.Now()
	if raw, ok := s.Store.Get([]byte(rootKey)); ok {
		if !metaval.IsType(raw, typ) {
			return metaval.ContainerMeta{}, metaval.ErrWrongType
		}
		m, err := metaval.ParseContainer(raw)
		if err != nil {
			return metaval.ContainerMeta{}, err
		}
		if m.IsValid(now) {
			return m, nil
		}
	}
	enc := metaval.EncodeContainer(typ, 0, nil, 0, metaval.Reserve{}, now, 0)
	m, err := metaval.ParseContainer(enc)
	if err != nil {
		return metaval.ContainerMeta{}, err
	}
	m.InitialMetaValue(s.Clock.Update)
	return m, nil
}

// hsetField sets one field of a hash-shaped (or set/zset-shaped) container,
// incrementing count only if the field is new, stamping the subkey record
// with the parent's current version, and writing both records back before
// firing the dirty notification.
func (s *ContainerStore) hsetField(typ metaval.Type, db int, rootKey, field string, value []byte) ([]byte, error) {
	root, err := s.loadOrInitContainer(typ, rootKey)
	if err != nil {
		return nil, err
	}

	sk := subkeyKey(rootKey, field)
	_, existed := s.Store.Get(sk)
	if !existed {
		if err := root.ModifyCount(1); err != nil {
			return nil, err
		}
	}

	subkeyValue := make([]byte, 8+len(value))
	putVersionPrefix(subkeyValue, root.Version)
	copy(subkeyValue[8:], value)

	s.Store.Put([]byte(rootKey), root.Bytes())
	s.Store.Put(sk, subkeyValue)
	s.Coordinator.NotifyDirty(db, rootKey)

	return []byte(fmt.Sprintf("%d", root.Count)), nil
}

func putVersionPrefix(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

func getVersionPrefix(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(src); i++ {
		v |= uint64(src[i]) << (8 * i)
	}
	return v
}

// SplitSubkey reports whether key is a container subkey ("root\x00field")
// and, if so, returns the root key. Used by the compaction filter (spec §6
// glossary "Compaction filter") to find a subkey's parent.
func SplitSubkey(key []byte) (rootKey string, ok bool) {
	for i, b := range key {
		if b == 0 {
			return string(key[:i]), true
		}
	}
	return "", false
}

// SubkeyVersion extracts the parent-version stamp a subkey record was
// written with (the first 8 bytes of its value).
func SubkeyVersion(value []byte) uint64 {
	return getVersionPrefix(value)
}

// HSet implements HSET key field value.
func (s *ContainerStore) HSet(db int, key, field string, value []byte) []byte {
	var b buf.Buffer
	n, err := s.hsetField(metaval.TypeHash, db, key, field, value)
	if err != nil {
		resp.WriteCommandError(&b, err)
		return b.Bytes()
	}
	resp.WriteBulkString(&b, n)
	return b.Bytes()
}

// SAdd implements SADD key member, storing the member as the subkey field
// with an empty value.
func (s *ContainerStore) SAdd(db int, key, member string) []byte {
	var b buf.Buffer
	n, err := s.hsetField(metaval.TypeSet, db, key, member, nil)
	if err != nil {
		resp.WriteCommandError(&b, err)
		return b.Bytes()
	}
	resp.WriteBulkString(&b, n)
	return b.Bytes()
}

// ZAdd implements a representative single-member ZADD key score member,
// reusing the same subkey scheme with the member as field and the score's
// textual form as value.
func (s *ContainerStore) ZAdd(db int, key string, score float64, member string) []byte {
	var b buf.Buffer
	n, err := s.hsetField(metaval.TypeZSet, db, key, member, []byte(fmt.Sprintf("%g", score)))
	if err != nil {
		resp.WriteCommandError(&b, err)
		return b.Bytes()
	}
	resp.WriteBulkString(&b, n)
	return b.Bytes()
}
