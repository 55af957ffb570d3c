package mix

import (
	"cmp"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/meigma/mix/wwcrc"
)

// WriteFile is one file to store when creating an archive.
type WriteFile struct {
	Name string
	Data []byte
}

// CreateOption configures Create.
type CreateOption func(*createConfig)

type createConfig struct {
	extended bool
	digest   bool
}

// CreateExtended writes the 4-byte extended discriminator ahead of the
// header.
func CreateExtended() CreateOption {
	return func(c *createConfig) {
		c.extended = true
	}
}

// CreateWithDigest appends a SHA-1 digest of the header, entry table,
// and payload after the payload region, and sets the digest flag.
// Implies CreateExtended. Readers of this format recognize the digest
// but do not verify it.
func CreateWithDigest() CreateOption {
	return func(c *createConfig) {
		c.extended = true
		c.digest = true
	}
}

// Create writes a plain or extended unencrypted archive to path.
// Entry keys are computed from the filenames and the table is written
// sorted ascending by signed key, with payloads laid out in the same
// order. Writing encrypted archives is not supported.
//
// Filenames that collide on the same key are all written; the format
// has no defense against collisions and lookup of such keys is
// ambiguous. A plain archive with zero entries begins with a zero word
// that readers cannot distinguish from the extended discriminator, so
// empty archives should be written with CreateExtended.
func Create(path string, files []WriteFile, opts ...CreateOption) error {
	var cfg createConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(files) > math.MaxUint16 {
		return fmt.Errorf("%w: %d", ErrTooManyFiles, len(files))
	}

	sorted := make([]WriteFile, len(files))
	copy(sorted, files)
	slices.SortStableFunc(sorted, func(a, b WriteFile) int {
		return cmp.Compare(int32(wwcrc.SumName(a.Name)), int32(wwcrc.SumName(b.Name)))
	})

	var dataSize uint64
	for _, wf := range sorted {
		dataSize += uint64(len(wf.Data))
	}
	if dataSize > math.MaxUint32 {
		return fmt.Errorf("%w: payload is %d bytes", ErrSizeOverflow, dataSize)
	}

	buf := make([]byte, 0, headerSize+len(sorted)*entrySize+int(dataSize))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(sorted)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))

	var offset uint32
	for _, wf := range sorted {
		buf = binary.LittleEndian.AppendUint32(buf, wwcrc.SumName(wf.Name))
		buf = binary.LittleEndian.AppendUint32(buf, offset)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(wf.Data)))
		offset += uint32(len(wf.Data))
	}
	for _, wf := range sorted {
		buf = append(buf, wf.Data...)
	}

	var out []byte
	if cfg.extended {
		flags := uint16(0)
		if cfg.digest {
			flags |= flagHasDigest
		}
		out = binary.LittleEndian.AppendUint16(out, 0)
		out = binary.LittleEndian.AppendUint16(out, flags)
	}
	out = append(out, buf...)
	if cfg.digest {
		sum := sha1.Sum(buf)
		out = append(out, sum[:]...)
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("mix: create: %w", err)
	}
	return nil
}
