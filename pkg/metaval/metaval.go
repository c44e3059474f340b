// Package metaval encodes and parses the meta-value byte layout shared by
// every Redis-style data type stored on top of the underlying ordered KV
// engine: a type tag, a type-specific payload, and a trailing suffix that
// carries creation/expiry timestamps and (for containers) a logical version
// and element count.
//
// Layout (little-endian, fixed width, see spec §3):
//
//	string:    | type:1 | user_value:N | reserve:16 | ctime:8 | etime:8 |
//	container: | type:1 | count:4 | user_value:N | version:8 | reserve:16 | ctime:8 | etime:8 |
package metaval

import (
	"errors"
)

// Type identifies the logical Redis data type stored under a key.
// Immutable for the life of the key.
type Type byte

const (
	TypeString Type = iota + 1
	TypeHash
	TypeSet
	TypeZSet
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeHash:
		return "hash"
	case TypeSet:
		return "set"
	case TypeZSet:
		return "zset"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

const (
	reserveLength   = 16
	timestampLength = 8
	versionLength   = 8
	countLength     = 4
	typeLength      = 1

	stringSuffixLength    = reserveLength + 2*timestampLength
	containerSuffixLength = versionLength + reserveLength + 2*timestampLength
)

var (
	// ErrCorruptMeta is returned when a stored byte slice is shorter than the
	// fixed suffix its shape requires. Such a record is treated as
	// nonexistent by the read path and is dropped by the compaction filter.
	ErrCorruptMeta = errors.New("metaval: corrupt meta-value")
	// ErrWrongType is returned when an operation's expected type byte does
	// not match the stored type.
	ErrWrongType = errors.New("metaval: wrong type")
	// ErrCountOutOfRange is returned when a container count mutation would
	// leave the valid range [0, 2^31-1].
	ErrCountOutOfRange = errors.New("metaval: count out of range")
)

// Reserve is the 16 reserved bytes carried verbatim through read-modify-write.
type Reserve [reserveLength]byte

// IsType reports whether b's first byte equals the given type.
func IsType(b []byte, t Type) bool {
	return len(b) > 0 && Type(b[0]) == t
}

// now_seconds of an empty meta-value field: both layouts store etime==0 to
// mean "never expires".
const noExpiry = 0

// isStale reports whether an etime field means the record has expired.
func isStale(etime, now uint64) bool {
	return etime != 0 && etime <= now
}
