// Package wire defines the on-disk layout of the binary configuration
// format: the header, the fixed-size entry record, and the type tags
// shared by the reader and the writer.
package wire

import "encoding/binary"

// Magic is the four-byte signature at the start of every binary buffer.
// On the wire (little-endian) it is encoded as the bytes 0x67 0x66 0x6E
// 0x62, spelling "bnfg" when the uint32 is read back in its native form.
const Magic uint32 = 0x626E6667

// HeaderSize is the fixed size, in bytes, of the buffer header.
const HeaderSize = 12

// EntrySize is the fixed size, in bytes, of one entry record.
const EntrySize = 16

// MaxCount is the largest array length, table entry count, or string
// byte length the format can address (2^32 - 1).
const MaxCount = 1<<32 - 1

// Tag identifies the type of value held by an entry.
type Tag uint8

const (
	TagBool Tag = iota
	TagI64
	TagF64
	TagString
	TagArray
	TagTable
)

// String returns a human-readable name for the tag, used in error
// messages.
func (t Tag) String() string {
	switch t {
	case TagBool:
		return "bool"
	case TagI64:
		return "i64"
	case TagF64:
		return "f64"
	case TagString:
		return "string"
	case TagArray:
		return "array"
	case TagTable:
		return "table"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the six recognized tags.
func (t Tag) Valid() bool {
	return t <= TagTable
}

// PackTypeAndKeyLen packs the type tag into the high 4 bits and the key
// length into the low 28 bits of the entry's first field.
func PackTypeAndKeyLen(tag Tag, keyLen uint32) uint32 {
	return uint32(tag)<<28 | (keyLen & 0x0FFFFFFF)
}

// UnpackTypeAndKeyLen splits the packed field back into its tag and key
// length.
func UnpackTypeAndKeyLen(v uint32) (Tag, uint32) {
	return Tag(v >> 28), v & 0x0FFFFFFF
}

// PackLenOffset packs a 32-bit count and a 32-bit offset into the
// 8-byte value field used by String, Array and Table entries.
func PackLenOffset(length, offset uint32) uint64 {
	return uint64(length) | uint64(offset)<<32
}

// UnpackLenOffset splits a packed value field into its count and
// offset.
func UnpackLenOffset(v uint64) (length, offset uint32) {
	return uint32(v), uint32(v >> 32)
}

// PutHeader writes the 12-byte header into buf[0:12].
func PutHeader(buf []byte, totalLen, rootCount uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], totalLen)
	binary.LittleEndian.PutUint32(buf[8:12], rootCount)
}

// Entry is the decoded form of one 16-byte entry record.
type Entry struct {
	Tag      Tag
	KeyLen   uint32
	KeyOff   uint32
	Value    uint64
}

// PutEntry encodes an entry into buf[0:16].
func PutEntry(buf []byte, e Entry) {
	binary.LittleEndian.PutUint32(buf[0:4], PackTypeAndKeyLen(e.Tag, e.KeyLen))
	binary.LittleEndian.PutUint32(buf[4:8], e.KeyOff)
	binary.LittleEndian.PutUint64(buf[8:16], e.Value)
}

// GetEntry decodes an entry from buf[0:16].
func GetEntry(buf []byte) Entry {
	tag, keyLen := UnpackTypeAndKeyLen(binary.LittleEndian.Uint32(buf[0:4]))
	return Entry{
		Tag:    tag,
		KeyLen: keyLen,
		KeyOff: binary.LittleEndian.Uint32(buf[4:8]),
		Value:  binary.LittleEndian.Uint64(buf[8:16]),
	}
}
