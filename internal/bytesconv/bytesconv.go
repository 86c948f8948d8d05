// Package bytesconv turns sketch items into the byte sequences that get hashed.
package bytesconv

import (
	"encoding/binary"
	"unsafe"
)

// ItemSize is the width of an encoded integer item.
const ItemSize = 8

// Item encodes item as 8 little-endian bytes into buf and returns the filled slice.
// The encoding does not depend on the host byte order.
func Item(buf *[ItemSize]byte, item uint64) []byte {
	binary.LittleEndian.PutUint64(buf[:], item)
	return buf[:]
}

// String returns a read-only byte view of s without copying.
func String(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
