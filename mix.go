package mix

import (
	"encoding/binary"
	"errors"
)

// Sentinel errors.
var (
	// ErrInvalidHeader is returned when an archive header is too short or
	// structurally impossible.
	ErrInvalidHeader = errors.New("mix: invalid header")

	// ErrInvalidFormat is returned on value-level inconsistencies, such
	// as an entry range exceeding the payload region.
	ErrInvalidFormat = errors.New("mix: invalid format")

	// ErrNotFound is returned when a name or key is absent from an
	// archive or from every archive in a set.
	ErrNotFound = errors.New("mix: file not found")

	// ErrDecrypt is returned when the decrypted index is too short to
	// hold the entry count it declares.
	ErrDecrypt = errors.New("mix: decryption failed")

	// ErrTooManyFiles is returned when creating an archive with more
	// entries than the 16-bit count field can hold.
	ErrTooManyFiles = errors.New("mix: too many files")

	// ErrSizeOverflow is returned when creating an archive whose payload
	// exceeds the 32-bit size field.
	ErrSizeOverflow = errors.New("mix: size overflow")
)

const (
	headerSize = 6
	entrySize  = 12
	digestSize = 20

	flagHasDigest = 0x01
	flagEncrypted = 0x02
)

// Entry is one stored file's metadata in an archive's entry table.
type Entry struct {
	// Key is the wwcrc checksum of the uppercased filename, reinterpreted
	// as a signed 32-bit integer. The table is sorted ascending by Key.
	Key int32

	// Offset of the file's bytes from the start of the payload region.
	Offset uint32

	// Size of the file's bytes.
	Size uint32
}

func entryFromBytes(b []byte) Entry {
	_ = b[11]
	return Entry{
		Key:    int32(binary.LittleEndian.Uint32(b[0:4])),
		Offset: binary.LittleEndian.Uint32(b[4:8]),
		Size:   binary.LittleEndian.Uint32(b[8:12]),
	}
}

// Header describes an archive's shape. It is fixed when the archive is
// opened and never recomputed.
type Header struct {
	// EntryCount is the number of entries in the table.
	EntryCount uint16

	// DataSize is the size of the payload region in bytes.
	DataSize uint32

	// Extended reports whether the file begins with the 4-byte
	// discriminator instead of a bare header.
	Extended bool

	// HasDigest reports whether a 20-byte SHA-1 digest trails the
	// payload. The digest is never validated here.
	HasDigest bool

	// Encrypted reports whether the header and entry table were stored
	// Blowfish-encrypted.
	Encrypted bool
}

func headerFromBytes(b []byte) Header {
	_ = b[5]
	return Header{
		EntryCount: binary.LittleEndian.Uint16(b[0:2]),
		DataSize:   binary.LittleEndian.Uint32(b[2:6]),
	}
}

// HeaderSize returns the size of the header plus entry table: the fixed
// 6 bytes and 12 per entry.
func (h Header) HeaderSize() uint32 {
	return headerSize + uint32(h.EntryCount)*entrySize
}

// TotalHeaderSize returns the bytes from the start of the file to the
// payload region: HeaderSize plus the extended discriminator and the
// key block, when present. For encrypted archives the encrypted region
// is additionally padded to a multiple of 8 on disk.
func (h Header) TotalHeaderSize() uint32 {
	size := h.HeaderSize()
	if h.Extended {
		size += 4
		if h.Encrypted {
			size += keyBlockSize
		}
	}
	return size
}
