package buf

import "encoding/binary"

// PutFixed32 writes v as a 4-byte little-endian integer at dst[0:4].
// Precondition: len(dst) >= 4. No bounds check beyond that.
func PutFixed32(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst, v)
}

// PutFixed64 writes v as an 8-byte little-endian integer at dst[0:8].
// Precondition: len(dst) >= 8.
func PutFixed64(dst []byte, v uint64) {
	binary.LittleEndian.PutUint64(dst, v)
}

// GetFixed32 reads a 4-byte little-endian integer from src[0:4].
// Precondition: len(src) >= 4.
func GetFixed32(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

// GetFixed64 reads an 8-byte little-endian integer from src[0:8].
// Precondition: len(src) >= 8.
func GetFixed64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}
