package metaval

import "github.com/rsms/pikistore/pkg/buf"

// MaxCount is the largest valid container element count (2^31 - 1).
const MaxCount = int32(1<<31 - 1)

// ContainerMeta is the meta-value shape for a hash/set/zset/list root key:
//
//	| type:1 | count:4 | user_value:N | version:8 | reserve:16 | ctime:8 | etime:8 |
//
// count sits at the fixed offset 1 (right after the type byte), not in the
// trailing suffix, because subkey lookups need it without walking the
// variable-length user_value.
type ContainerMeta struct {
	Type    Type
	Count   int32
	Value   []byte // borrowed slice into the backing buffer
	Version uint64
	Reserve Reserve
	Ctime   uint64
	Etime   uint64

	raw []byte
}

// EncodeContainer lays out a container meta-value exactly as in the layout
// above, in a single allocation.
func EncodeContainer(typ Type, count int32, value []byte, version uint64, reserve Reserve, ctime, etime uint64) []byte {
	needed := typeLength + countLength + len(value) + containerSuffixLength
	b := buf.New(needed)
	b.WriteByte(byte(typ))
	var tmp4 [countLength]byte
	buf.PutFixed32(tmp4[:], uint32(count))
	b.Write(tmp4[:])
	b.Write(value)
	var tmp8 [timestampLength]byte
	buf.PutFixed64(tmp8[:], version)
	b.Write(tmp8[:])
	b.Write(reserve[:])
	buf.PutFixed64(tmp8[:], ctime)
	b.Write(tmp8[:])
	buf.PutFixed64(tmp8[:], etime)
	b.Write(tmp8[:])
	return b.Bytes()
}

// ParseContainer parses raw meta-value bytes into a ContainerMeta.
//
// Resolves spec §9 Open Question (b): unlike the original implementation,
// count is never read before confirming the buffer is long enough to hold
// it, so a truncated/corrupt record can't read past the slice.
func ParseContainer(raw []byte) (ContainerMeta, error) {
	if len(raw) < typeLength+countLength {
		return ContainerMeta{}, ErrCorruptMeta
	}
	if len(raw) < typeLength+countLength+containerSuffixLength {
		return ContainerMeta{}, ErrCorruptMeta
	}
	m := ContainerMeta{raw: raw}
	m.Type = Type(raw[0])
	m.Count = int32(buf.GetFixed32(raw[typeLength : typeLength+countLength]))

	valueStart := typeLength + countLength
	valueEnd := len(raw) - containerSuffixLength
	m.Value = raw[valueStart:valueEnd]

	off := valueEnd
	m.Version = buf.GetFixed64(raw[off : off+versionLength])
	off += versionLength
	m.Reserve = Reserve(raw[off : off+reserveLength])
	off += reserveLength
	m.Ctime = buf.GetFixed64(raw[off : off+timestampLength])
	off += timestampLength
	m.Etime = buf.GetFixed64(raw[off : off+timestampLength])
	return m, nil
}

// IsType reports whether m's type byte matches t.
func (m ContainerMeta) IsType(t Type) bool { return m.Type == t }

// IsStale reports whether the record has expired: etime != 0 && etime <= now.
func (m ContainerMeta) IsStale(now uint64) bool { return isStale(m.Etime, now) }

// IsValid reports whether the container should be visible to readers:
// not stale, and logically non-empty (count == 0 means nonexistent).
func (m ContainerMeta) IsValid(now uint64) bool {
	return !m.IsStale(now) && m.Count > 0
}

// CheckModifyCount reports whether applying delta to the current count would
// stay within [0, MaxCount].
func (m ContainerMeta) CheckModifyCount(delta int32) bool {
	count := int64(m.Count) + int64(delta)
	return count >= 0 && count <= int64(MaxCount)
}

// SetCount overwrites the count field in place.
func (m *ContainerMeta) SetCount(count int32) {
	m.Count = count
	if m.raw != nil {
		buf.PutFixed32(m.raw[typeLength:typeLength+countLength], uint32(count))
	}
}

// ModifyCount applies delta to the count, rejecting it with
// ErrCountOutOfRange if the result would leave [0, MaxCount] — callers must
// check CheckModifyCount (or inspect the error) before relying on the
// mutation having taken effect.
func (m *ContainerMeta) ModifyCount(delta int32) error {
	if !m.CheckModifyCount(delta) {
		return ErrCountOutOfRange
	}
	m.SetCount(m.Count + delta)
	return nil
}

// SetEtime overwrites the etime field in place.
func (m *ContainerMeta) SetEtime(etime uint64) {
	m.Etime = etime
	if m.raw != nil {
		off := len(m.raw) - timestampLength
		buf.PutFixed64(m.raw[off:], etime)
	}
}

// SetCtime overwrites the ctime field in place.
func (m *ContainerMeta) SetCtime(ctime uint64) {
	m.Ctime = ctime
	if m.raw != nil {
		off := len(m.raw) - 2*timestampLength
		buf.PutFixed64(m.raw[off:], ctime)
	}
}

// SetVersionToValue overwrites the version field in place with m.Version.
// Named to match the field it writes, not what triggers the write (callers
// set m.Version then call this to flush it to the backing buffer).
func (m *ContainerMeta) SetVersionToValue() {
	if m.raw != nil {
		off := len(m.raw) - containerSuffixLength
		buf.PutFixed64(m.raw[off:], m.Version)
	}
}

// StripSuffix returns only the type+count+user_value prefix, truncating the
// trailing version/reserve/ctime/etime suffix.
func (m ContainerMeta) StripSuffix() []byte {
	if m.raw == nil {
		return m.Value
	}
	return m.raw[:len(m.raw)-containerSuffixLength]
}

// Bytes returns the full encoded record, re-encoding from fields if this
// value wasn't produced by Parse/Encode.
func (m ContainerMeta) Bytes() []byte {
	if m.raw != nil {
		return m.raw
	}
	return EncodeContainer(m.Type, m.Count, m.Value, m.Version, m.Reserve, m.Ctime, m.Etime)
}

// InitialMetaValue resets count/etime/ctime to their creation defaults and
// bumps the version via update, returning the new version. The new version
// is written to the backing buffer via SetVersionToValue (when raw is nil,
// Bytes() re-encodes it from the fields).
func (m *ContainerMeta) InitialMetaValue(update func(prevVersion uint64) uint64) uint64 {
	m.SetCount(0)
	m.SetEtime(0)
	m.SetCtime(0)
	m.Version = update(m.Version)
	m.SetVersionToValue()
	return m.Version
}
