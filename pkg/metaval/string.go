package metaval

import "github.com/rsms/pikistore/pkg/buf"

// StringMeta is the meta-value shape for a plain (leaf) key:
//
//	| type:1 | user_value:N | reserve:16 | ctime:8 | etime:8 |
//
// Note there is no version field for strings (see SPEC_FULL.md/DESIGN.md —
// the original C++ parser wrote a version field here that the string shape
// never declares; we don't reproduce that dead code).
type StringMeta struct {
	Type    Type
	Value   []byte // borrowed slice into the backing buffer; copy if it must outlive it
	Reserve Reserve
	Ctime   uint64
	Etime   uint64

	raw []byte // owns the encoded bytes when this value was produced by Encode/Parse
}

// EncodeString lays out a string meta-value exactly as in the layout above,
// in a single allocation.
func EncodeString(typ Type, value []byte, reserve Reserve, ctime, etime uint64) []byte {
	needed := typeLength + len(value) + stringSuffixLength
	b := buf.New(needed)
	b.WriteByte(byte(typ))
	b.Write(value)
	b.Write(reserve[:])
	var tmp [timestampLength]byte
	buf.PutFixed64(tmp[:], ctime)
	b.Write(tmp[:])
	buf.PutFixed64(tmp[:], etime)
	b.Write(tmp[:])
	return b.Bytes()
}

// ParseString parses raw meta-value bytes into a StringMeta. The returned
// Value is a slice into raw: callers must not mutate raw while holding onto
// the parsed result (or must copy Value out) if raw is reused.
//
// Precondition violated (len(raw) < suffix length) yields ErrCorruptMeta; the
// caller treats this the same as "key does not exist".
func ParseString(raw []byte) (StringMeta, error) {
	if len(raw) < typeLength+stringSuffixLength {
		return StringMeta{}, ErrCorruptMeta
	}
	m := StringMeta{raw: raw}
	m.Type = Type(raw[0])
	valueEnd := len(raw) - stringSuffixLength
	m.Value = raw[typeLength:valueEnd]

	off := valueEnd
	m.Reserve = Reserve(raw[off : off+reserveLength])
	off += reserveLength
	m.Ctime = buf.GetFixed64(raw[off : off+timestampLength])
	off += timestampLength
	m.Etime = buf.GetFixed64(raw[off : off+timestampLength])
	return m, nil
}

// IsType reports whether m's type byte matches t.
func (m StringMeta) IsType(t Type) bool { return m.Type == t }

// IsStale reports whether the record has expired: etime != 0 && etime <= now.
func (m StringMeta) IsStale(now uint64) bool { return isStale(m.Etime, now) }

// IsValid reports whether the string record should be visible to readers.
func (m StringMeta) IsValid(now uint64) bool { return !m.IsStale(now) }

// SetEtime overwrites the etime field of the owned raw buffer in place.
// Precondition: m was produced by Parse/Encode on a buffer this value owns
// exclusively (no concurrent readers of raw).
func (m *StringMeta) SetEtime(etime uint64) {
	m.Etime = etime
	if m.raw != nil {
		off := len(m.raw) - timestampLength
		buf.PutFixed64(m.raw[off:], etime)
	}
}

// SetCtime overwrites the ctime field of the owned raw buffer in place.
func (m *StringMeta) SetCtime(ctime uint64) {
	m.Ctime = ctime
	if m.raw != nil {
		off := len(m.raw) - 2*timestampLength
		buf.PutFixed64(m.raw[off:], ctime)
	}
}

// StripSuffix returns only the user payload, truncating the trailing suffix.
func (m StringMeta) StripSuffix() []byte {
	if m.raw == nil {
		return m.Value
	}
	return m.raw[:len(m.raw)-stringSuffixLength]
}

// Bytes returns the full encoded record, re-encoding from fields if this
// value wasn't produced by Parse/Encode (e.g. constructed directly).
func (m StringMeta) Bytes() []byte {
	if m.raw != nil {
		return m.raw
	}
	return EncodeString(m.Type, m.Value, m.Reserve, m.Ctime, m.Etime)
}
